// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert is the conversion stage. Each downloaded PDF becomes a
// Markdown file: in-process text extraction first, the markitdown
// container second, and a title-and-abstract document when neither
// produces enough text.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-digest/internal/acquire"
	"github.com/pdiddy/paper-digest/internal/resolve"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Stage is the stage name used in logs, metrics, and the ledger.
const Stage = "convert"

// DefaultMinChars is the least body text a conversion must yield.
const DefaultMinChars = 100

// now is replaced in tests.
var now = time.Now

// Converter transforms a PDF file into Markdown text.
type Converter interface {
	Name() string
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// Options configures the conversion strategy.
type Options struct {
	// Dir receives <slug>.md and, for degraded papers, <slug>.abstract.md.
	Dir string

	MinChars int

	Primary Converter
	// Secondary is optional.
	Secondary Converter
}

// NewStrategy returns the conversion tiers for the resolve runner.
func NewStrategy(opts Options) resolve.Strategy {
	minChars := opts.MinChars
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	s := resolve.Strategy{
		Stage: Stage,
		Dest: func(it types.PipelineItem) string {
			return filepath.Join(opts.Dir, acquire.Slug(it.ID)+".md")
		},
		DegradedDest: func(it types.PipelineItem) string {
			return filepath.Join(opts.Dir, acquire.Slug(it.ID)+".abstract.md")
		},
		Valid:   func(path string) error { return checkBody(path, minChars) },
		Degrade: resolve.TitleAbstract,
	}
	if opts.Primary != nil {
		s.Primary = action(opts.Primary)
	}
	if opts.Secondary != nil {
		s.Secondary = action(opts.Secondary)
	}
	return s
}

// Items converts candidates into conversion work items. Only papers whose
// PDF was actually downloaded get refs; the rest go straight to the
// degraded document.
func Items(papers []types.Candidate) []types.PipelineItem {
	items := make([]types.PipelineItem, 0, len(papers))
	for _, c := range papers {
		it := types.PipelineItem{ID: c.ID, Title: c.Title, Abstract: c.Abstract}
		if c.PDFPath != "" && (c.PDFTier == types.TierPrimary || c.PDFTier == types.TierSecondary) {
			it.PrimaryRef = c.PDFPath
			it.SecondaryRef = c.PDFPath
		}
		items = append(items, it)
	}
	return items
}

// Apply records a conversion result on its candidate.
func Apply(c *types.Candidate, it types.PipelineItem) {
	c.MarkdownPath = it.Output
	c.MarkdownTier = it.Tier
}

// action adapts a Converter to a resolve.Action that writes the
// frontmatter followed by the converted body.
func action(c Converter) resolve.Action {
	return func(ctx context.Context, item types.PipelineItem, pdfPath string, w io.Writer) error {
		body, err := c.Convert(ctx, pdfPath)
		if err != nil {
			return err
		}
		fm, err := frontmatter{
			PaperID:     item.ID,
			SourcePDF:   pdfPath,
			Converter:   c.Name(),
			ConvertedAt: now().UTC().Format(time.RFC3339),
		}.render()
		if err != nil {
			return err
		}
		if _, err := w.Write(fm); err != nil {
			return err
		}
		_, err = io.WriteString(w, body)
		return err
	}
}

type frontmatter struct {
	PaperID     string `yaml:"paper_id"`
	SourcePDF   string `yaml:"source_pdf"`
	Converter   string `yaml:"converter"`
	ConvertedAt string `yaml:"converted_at"`
}

func (f frontmatter) render() ([]byte, error) {
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}
	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n\n")
	return b.Bytes(), nil
}

// checkBody requires at least minChars characters after any frontmatter.
func checkBody(path string, minChars int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	body := bytes.TrimSpace(stripFrontmatter(data))
	if n := utf8.RuneCount(body); n < minChars {
		return fmt.Errorf("converted text too short: %d chars, want at least %d", n, minChars)
	}
	return nil
}

func stripFrontmatter(data []byte) []byte {
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return data
	}
	rest := data[4:]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end < 0 {
		return data
	}
	return rest[end+5:]
}
