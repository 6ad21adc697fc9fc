// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-digest pipeline:
// per-source paper records, merged candidates, the history set, and the
// items the download and conversion stages resolve.
package types

import "sort"

// Source names used for attribution, logging, and metric labels.
const (
	SourceHuggingFace     = "huggingface"
	SourceSemanticScholar = "semantic_scholar"
)

// PaperRecord is a single paper as returned by one source adapter, before
// merging. Signal semantics differ by source: upvotes for Hugging Face,
// citation count for Semantic Scholar.
type PaperRecord struct {
	// ID is the source-native identifier. For both sources this is an
	// arXiv ID, possibly prefixed or versioned.
	ID string `json:"id" yaml:"id"`

	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract" yaml:"abstract"`

	// Signal is the non-negative popularity value used for scoring.
	Signal float64 `json:"signal" yaml:"signal"`

	// Published is an ISO-8601 date (or timestamp) string, or empty.
	Published string `json:"published" yaml:"published"`

	// ContentURL is a direct PDF location hint, empty if unavailable.
	ContentURL string `json:"content_url,omitempty" yaml:"content_url,omitempty"`

	// Source names the adapter that produced the record.
	Source string `json:"source" yaml:"source"`
}

// Candidate is a merged, scored paper. One Candidate exists per canonical
// identifier. The download and conversion stages enrich it in place with
// the location and tier of their resolved output.
type Candidate struct {
	// ID is the canonical arXiv identifier (no prefix, no version).
	ID string `json:"arxiv_id" yaml:"arxiv_id"`

	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract" yaml:"abstract"`

	// Score is the sum of normalized, weighted per-source contributions.
	Score float64 `json:"score" yaml:"score"`

	// Upvotes and Citations keep the raw per-source signals for display.
	Upvotes   float64 `json:"upvotes" yaml:"upvotes"`
	Citations float64 `json:"citation_count" yaml:"citation_count"`

	// ContentURL is the best available open-access PDF hint.
	ContentURL string `json:"open_access_pdf" yaml:"open_access_pdf"`

	Published string `json:"published" yaml:"published"`

	// Sources lists the adapters that contributed, in insertion order.
	Sources []string `json:"sources" yaml:"sources"`

	PDFPath      string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`
	PDFTier      Tier   `json:"pdf_tier,omitempty" yaml:"pdf_tier,omitempty"`
	MarkdownPath string `json:"md_path,omitempty" yaml:"md_path,omitempty"`
	MarkdownTier Tier   `json:"md_tier,omitempty" yaml:"md_tier,omitempty"`
}

// HistorySet is the set of canonical identifiers selected by previous runs.
// It only grows.
type HistorySet struct {
	ids map[string]struct{}
}

// NewHistorySet returns a set containing ids.
func NewHistorySet(ids ...string) *HistorySet {
	h := &HistorySet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		h.Add(id)
	}
	return h
}

// Add inserts id. Empty identifiers are ignored.
func (h *HistorySet) Add(id string) {
	if id == "" {
		return
	}
	if h.ids == nil {
		h.ids = make(map[string]struct{})
	}
	h.ids[id] = struct{}{}
}

// Has reports whether id was selected before. A nil set contains nothing.
func (h *HistorySet) Has(id string) bool {
	if h == nil {
		return false
	}
	_, ok := h.ids[id]
	return ok
}

// Len returns the number of identifiers.
func (h *HistorySet) Len() int {
	if h == nil {
		return 0
	}
	return len(h.ids)
}

// Sorted returns the identifiers in ascending order.
func (h *HistorySet) Sorted() []string {
	if h == nil {
		return []string{}
	}
	out := make([]string, 0, len(h.ids))
	for id := range h.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Tier records which resolution tier produced an item's output.
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
	TierDegraded  Tier = "degraded"
	TierFailed    Tier = "failed"
)

// PipelineItem is one unit of work for a download or conversion stage.
type PipelineItem struct {
	ID       string
	Title    string
	Abstract string

	// PrimaryRef and SecondaryRef are stage-specific references (URLs for
	// downloads, PDF paths for conversion). An empty ref means the tier is
	// unavailable for this item.
	PrimaryRef   string
	SecondaryRef string

	// Output is the resolved output location once the stage completes.
	Output string
	Tier   Tier

	// Skipped is set when a valid output from a previous run was reused.
	Skipped bool
}
