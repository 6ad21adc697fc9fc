// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/pdiddy/paper-digest/internal/httputil"
)

// Fetcher downloads a PDF over HTTP. The client follows redirects.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
}

// Fetch GETs url and streams the body to w. A non-200 status or a content
// type that is neither PDF nor generic binary is an error.
func (f *Fetcher) Fetch(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, 2)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	if ct := resp.Header.Get("Content-Type"); !pdfContentType(ct) {
		return fmt.Errorf("unexpected content type %q from %s", ct, url)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("writing download: %w", err)
	}
	return nil
}

// pdfContentType accepts PDF, octet-stream, and a missing header; the
// validity check catches the rest.
func pdfContentType(ct string) bool {
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	switch mt {
	case "application/pdf", "application/x-pdf", "application/octet-stream", "binary/octet-stream":
		return true
	}
	return false
}
