// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DefaultMinBytes rejects HTML error pages and truncated bodies served
// with a 200 status.
const DefaultMinBytes = 1000

var pdfMagic = []byte("%PDF-")

func init() {
	// Keep pdfcpu from creating a config directory under the user's home.
	api.DisableConfigDir()
}

// Validator checks a downloaded file before it replaces the destination.
type Validator struct {
	MinBytes int64

	// Strict additionally parses the file with pdfcpu in relaxed mode.
	Strict bool
}

// Check returns nil when path looks like a usable PDF.
func (v Validator) Check(path string) error {
	minBytes := v.MinBytes
	if minBytes <= 0 {
		minBytes = DefaultMinBytes
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() < minBytes {
		return fmt.Errorf("file too small: %d bytes, want at least %d", info.Size(), minBytes)
	}

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if !bytes.Equal(head, pdfMagic) {
		return fmt.Errorf("missing %%PDF- header")
	}

	if !v.Strict {
		return nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(f, conf); err != nil {
		return fmt.Errorf("pdf validation: %w", err)
	}
	return nil
}
