// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/pkg/types"
)

func rec(id string, signal float64) types.PaperRecord {
	return types.PaperRecord{ID: id, Title: "Paper " + id, Signal: signal}
}

// twoSources is A = [{1,10},{2,5}] weighted 0.6 and B = [{2,8},{3,8}] weighted 0.4.
func twoSources() []SourceResult {
	return []SourceResult{
		{Name: "a", Weight: 0.6, Records: []types.PaperRecord{rec("1", 10), rec("2", 5)}},
		{Name: "b", Weight: 0.4, Records: []types.PaperRecord{rec("2", 8), rec("3", 8)}},
	}
}

// --- Merge ---

func TestMergeScoresAcrossSources(t *testing.T) {
	m := Merge(twoSources(), nil)
	require.Equal(t, 3, m.Len())

	scores := map[string]float64{}
	for _, c := range m.Candidates() {
		scores[c.ID] = c.Score
	}
	assert.InDelta(t, 0.6, scores["1"], 1e-9)
	assert.InDelta(t, 0.7, scores["2"], 1e-9)
	assert.InDelta(t, 0.4, scores["3"], 1e-9)

	got, err := Select(m, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "1", got[1].ID)
}

func TestMergeExcludesHistory(t *testing.T) {
	m := Merge(twoSources(), types.NewHistorySet("3"))

	_, ok := m.Get("3")
	assert.False(t, ok, "history id must not be merged")
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 1, m.Seen)

	// The denominator still includes the history record.
	c, ok := m.Get("2")
	require.True(t, ok)
	assert.InDelta(t, 0.7, c.Score, 1e-9)
}

func TestMergeScoreIsExactSum(t *testing.T) {
	m := Merge(twoSources(), nil)
	c, ok := m.Get("2")
	require.True(t, ok)

	signalA, maxA, weightA := 5.0, 10.0, 0.6
	signalB, maxB, weightB := 8.0, 8.0, 0.4
	a := (signalA / maxA) * weightA
	b := (signalB / maxB) * weightB
	assert.Equal(t, a+b, c.Score)
	assert.Equal(t, []string{"a", "b"}, c.Sources)
}

func TestMergeWithinSourceDedup(t *testing.T) {
	results := []SourceResult{{
		Name:   "a",
		Weight: 1,
		Records: []types.PaperRecord{
			{ID: "2401.00001", Title: "first", Signal: 4},
			{ID: "arXiv:2401.00001v2", Title: "second", Signal: 9},
			{ID: "2401.00002", Title: "other", Signal: 8},
		},
	}}
	m := Merge(results, nil)
	require.Equal(t, 2, m.Len())

	c, _ := m.Get("2401.00001")
	assert.Equal(t, "first", c.Title)
	// Denominator is 8 because the duplicate with signal 9 collapsed away.
	assert.InDelta(t, 0.5, c.Score, 1e-9)
	assert.Equal(t, []string{"a"}, c.Sources)
}

func TestMergeZeroSignalDenominator(t *testing.T) {
	results := []SourceResult{{Name: "a", Weight: 0.5, Records: []types.PaperRecord{rec("1", 0), rec("2", 0)}}}
	m := Merge(results, nil)
	require.Equal(t, 2, m.Len())
	for _, c := range m.Candidates() {
		assert.Zero(t, c.Score)
	}
}

func TestMergeNegativeSignalClamped(t *testing.T) {
	results := []SourceResult{{Name: "a", Weight: 1, Records: []types.PaperRecord{rec("1", -3), rec("2", 2)}}}
	m := Merge(results, nil)
	c, _ := m.Get("1")
	assert.Zero(t, c.Score)
}

func TestMergeFieldCoalescing(t *testing.T) {
	results := []SourceResult{
		{Name: types.SourceHuggingFace, Weight: 0.6, Records: []types.PaperRecord{
			{ID: "2401.00001", Title: "HF title", Signal: 10, Published: "2024-01-02"},
		}},
		{Name: types.SourceSemanticScholar, Weight: 0.4, Records: []types.PaperRecord{
			{ID: "2401.00001", Title: "S2 title", Abstract: "S2 abstract", Signal: 3, ContentURL: "https://example.org/a.pdf"},
		}},
	}
	m := Merge(results, nil)
	c, ok := m.Get("2401.00001")
	require.True(t, ok)

	assert.Equal(t, "HF title", c.Title, "first-seen title kept")
	assert.Equal(t, "S2 abstract", c.Abstract, "empty abstract filled later")
	assert.Equal(t, "2024-01-02", c.Published)
	assert.Equal(t, "https://example.org/a.pdf", c.ContentURL)
	assert.Equal(t, 10.0, c.Upvotes)
	assert.Equal(t, 3.0, c.Citations)
	assert.Equal(t, []string{types.SourceHuggingFace, types.SourceSemanticScholar}, c.Sources)
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	in := twoSources()
	Merge(in, nil)
	assert.Equal(t, "1", in[0].Records[0].ID)
	assert.Equal(t, 10.0, in[0].Records[0].Signal)
}

func TestMergeDropsEmptyIDs(t *testing.T) {
	results := []SourceResult{{Name: "a", Weight: 1, Records: []types.PaperRecord{rec("", 5), rec("1", 1)}}}
	m := Merge(results, nil)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, m.Dropped)
}

func TestMergeEmpty(t *testing.T) {
	m := Merge(nil, nil)
	assert.Zero(t, m.Len())
	assert.Empty(t, m.Candidates())
}

// --- Select ---

func TestSelectStableTies(t *testing.T) {
	results := []SourceResult{{Name: "a", Weight: 1, Records: []types.PaperRecord{
		rec("x", 5), rec("y", 5), rec("z", 10), rec("w", 5),
	}}}
	got, err := Select(Merge(results, nil), 0)
	require.NoError(t, err)

	var ids []string
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"z", "x", "y", "w"}, ids)
}

func TestSelectTruncates(t *testing.T) {
	got, err := Select(Merge(twoSources(), nil), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestSelectCountLargerThanPool(t *testing.T) {
	got, err := Select(Merge(twoSources(), nil), 50)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSelectEmpty(t *testing.T) {
	_, err := Select(Merge(nil, nil), 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrEmptySelection))

	// Everything already in history.
	_, err = Select(Merge(twoSources(), types.NewHistorySet("1", "2", "3")), 3)
	assert.ErrorIs(t, err, types.ErrEmptySelection)
}
