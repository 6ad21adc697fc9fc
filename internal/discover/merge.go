// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// SourceResult is one adapter's output for a run together with the weight
// applied to its normalized signal.
type SourceResult struct {
	Name    string
	Weight  float64
	Records []types.PaperRecord
}

// Merged is the merged candidate mapping. It preserves the order in which
// canonical IDs were first seen so ties can break deterministically.
type Merged struct {
	order []string
	byID  map[string]types.Candidate

	// Dropped counts records that had no identifier.
	Dropped int
	// Seen counts records skipped because they were selected in a prior run.
	Seen int
}

func newMerged() *Merged {
	return &Merged{byID: make(map[string]types.Candidate)}
}

// Len returns the number of distinct candidates.
func (m *Merged) Len() int { return len(m.order) }

// Get returns the candidate for a canonical ID.
func (m *Merged) Get(id string) (types.Candidate, bool) {
	c, ok := m.byID[id]
	return c, ok
}

// Candidates returns copies of all candidates in insertion order.
func (m *Merged) Candidates() []types.Candidate {
	out := make([]types.Candidate, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out
}

func (m *Merged) put(c types.Candidate) {
	if _, ok := m.byID[c.ID]; !ok {
		m.order = append(m.order, c.ID)
	}
	m.byID[c.ID] = c
}

// contribution is one source's scored view of one paper.
type contribution struct {
	source string
	record types.PaperRecord
	score  float64
}

// Merge combines per-source records into one candidate per canonical ID.
// Each source's signals are divided by that source's maximum in this run
// and multiplied by its weight; contributions for the same paper add up.
// IDs present in history are skipped. Inputs are not modified.
func Merge(results []SourceResult, history *types.HistorySet) *Merged {
	merged := newMerged()

	for _, src := range results {
		records, dropped := dedupe(src.Records)
		merged.Dropped += dropped
		denom := denominator(records)

		for _, r := range records {
			if history.Has(r.ID) {
				merged.Seen++
				continue
			}
			c := contribution{
				source: src.Name,
				record: r,
				score:  (nonNegative(r.Signal) / denom) * src.Weight,
			}
			acc, seen := merged.Get(r.ID)
			merged.put(accumulate(acc, seen, c))
		}
	}
	return merged
}

// accumulate folds one contribution into the running candidate and returns
// the new value. acc is only read.
func accumulate(acc types.Candidate, seen bool, c contribution) types.Candidate {
	r := c.record
	if !seen {
		acc = types.Candidate{
			ID:         r.ID,
			Title:      r.Title,
			Abstract:   r.Abstract,
			Published:  r.Published,
			ContentURL: r.ContentURL,
		}
	} else {
		acc.Title = coalesce(acc.Title, r.Title)
		acc.Abstract = coalesce(acc.Abstract, r.Abstract)
		acc.Published = coalesce(acc.Published, r.Published)
		acc.ContentURL = coalesce(acc.ContentURL, r.ContentURL)
	}

	acc.Score += c.score

	switch c.source {
	case types.SourceHuggingFace:
		acc.Upvotes = r.Signal
	case types.SourceSemanticScholar:
		acc.Citations = r.Signal
	}

	sources := make([]string, 0, len(acc.Sources)+1)
	sources = append(sources, acc.Sources...)
	acc.Sources = append(sources, c.source)
	return acc
}

// dedupe canonicalizes record IDs and keeps the first occurrence of each.
// IDs that are not arXiv-shaped are kept as given; records without an ID
// are counted and dropped.
func dedupe(records []types.PaperRecord) ([]types.PaperRecord, int) {
	seen := make(map[string]bool, len(records))
	out := make([]types.PaperRecord, 0, len(records))
	dropped := 0
	for _, r := range records {
		id, ok := CanonicalID(r.ID)
		if !ok {
			id = strings.TrimSpace(r.ID)
		}
		if id == "" {
			dropped++
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		r.ID = id
		out = append(out, r)
	}
	return out, dropped
}

// denominator is the largest signal among records, or 1 when there is no
// positive signal.
func denominator(records []types.PaperRecord) float64 {
	top := 0.0
	for _, r := range records {
		if r.Signal > top {
			top = r.Signal
		}
	}
	if top <= 0 {
		return 1
	}
	return top
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func coalesce(current, next string) string {
	if current != "" {
		return current
	}
	return next
}
