// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire is the download stage. Each selected paper's PDF is
// fetched from arXiv, then from its open-access location, and failing both
// a title-and-abstract stub is written in its place.
package acquire

import (
	"context"
	"io"
	"net/http"
	"path/filepath"

	"github.com/pdiddy/paper-digest/internal/resolve"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Stage is the stage name used in logs, metrics, and the ledger.
const Stage = "download"

// Options configures the download strategy.
type Options struct {
	Client    *http.Client
	UserAgent string

	// Dir receives <slug>.pdf and, for degraded papers, <slug>.stub.md.
	Dir string

	MinBytes  int64
	StrictPDF bool
}

// NewStrategy returns the download tiers for the resolve runner.
func NewStrategy(opts Options) resolve.Strategy {
	f := &Fetcher{Client: opts.Client, UserAgent: opts.UserAgent}
	v := Validator{MinBytes: opts.MinBytes, Strict: opts.StrictPDF}
	fetch := func(ctx context.Context, _ types.PipelineItem, url string, w io.Writer) error {
		return f.Fetch(ctx, url, w)
	}
	return resolve.Strategy{
		Stage: Stage,
		Dest: func(it types.PipelineItem) string {
			return filepath.Join(opts.Dir, Slug(it.ID)+".pdf")
		},
		DegradedDest: func(it types.PipelineItem) string {
			return filepath.Join(opts.Dir, Slug(it.ID)+".stub.md")
		},
		Primary:   fetch,
		Secondary: fetch,
		Valid:     v.Check,
		Degrade:   resolve.TitleAbstract,
	}
}

// Items converts candidates into download work items. The secondary ref is
// the open-access hint, dropped when it repeats the primary URL.
func Items(papers []types.Candidate) []types.PipelineItem {
	items := make([]types.PipelineItem, 0, len(papers))
	for _, c := range papers {
		it := types.PipelineItem{
			ID:         c.ID,
			Title:      c.Title,
			Abstract:   c.Abstract,
			PrimaryRef: PDFURL(c.ID),
		}
		if c.ContentURL != it.PrimaryRef {
			it.SecondaryRef = c.ContentURL
		}
		items = append(items, it)
	}
	return items
}

// Apply records a download result on its candidate.
func Apply(c *types.Candidate, it types.PipelineItem) {
	c.PDFPath = it.Output
	c.PDFTier = it.Tier
}
