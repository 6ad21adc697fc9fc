// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// --- mock source ---

type mockSource struct {
	name    string
	records []types.PaperRecord
	err     error
	calls   int
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Fetch(_ context.Context, _ Window) ([]types.PaperRecord, error) {
	m.calls++
	return m.records, m.err
}

func TestDiscoverSelectsTopCandidates(t *testing.T) {
	a := &mockSource{name: "a", records: []types.PaperRecord{rec("1", 10), rec("2", 5)}}
	b := &mockSource{name: "b", records: []types.PaperRecord{rec("2", 8), rec("3", 8)}}

	out, err := Discover(context.Background(), []WeightedSource{{a, 0.6}, {b, 0.4}}, Options{
		Window: testWindow(3),
		Count:  2,
	})
	require.NoError(t, err)
	require.Len(t, out.Selected, 2)
	assert.Equal(t, "2", out.Selected[0].ID)
	assert.Equal(t, "1", out.Selected[1].ID)
	assert.Equal(t, map[string]int{"a": 2, "b": 2}, out.Fetched)
	assert.Equal(t, 3, out.Merged)
	assert.Empty(t, out.SourceErrors)
}

func TestDiscoverContinuesAfterSourceFailure(t *testing.T) {
	bad := &mockSource{name: "bad", err: errors.New("connection refused")}
	good := &mockSource{name: "good", records: []types.PaperRecord{rec("1", 3)}}

	out, err := Discover(context.Background(), []WeightedSource{{bad, 0.6}, {good, 0.4}}, Options{Window: testWindow(1), Count: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, bad.calls)
	require.Len(t, out.Selected, 1)
	require.Len(t, out.SourceErrors, 1)
	assert.Contains(t, out.SourceErrors[0], "bad")
}

func TestDiscoverAllSourcesFail(t *testing.T) {
	a := &mockSource{name: "a", err: types.ErrSourceUnavailable}
	b := &mockSource{name: "b", err: errors.New("timeout")}

	_, err := Discover(context.Background(), []WeightedSource{{a, 1}, {b, 1}}, Options{Window: testWindow(1), Count: 5})
	assert.ErrorIs(t, err, types.ErrSourceUnavailable)
}

func TestDiscoverNoSources(t *testing.T) {
	_, err := Discover(context.Background(), nil, Options{Count: 5})
	assert.ErrorIs(t, err, types.ErrSourceUnavailable)
}

func TestDiscoverEverythingInHistory(t *testing.T) {
	a := &mockSource{name: "a", records: []types.PaperRecord{rec("1", 10), rec("2", 5)}}
	out, err := Discover(context.Background(), []WeightedSource{{a, 1}}, Options{
		Window:  testWindow(1),
		Count:   5,
		History: types.NewHistorySet("1", "2"),
	})
	assert.ErrorIs(t, err, types.ErrEmptySelection)
	assert.Equal(t, 2, out.SkippedOld)
}

func TestDiscoverEmptySources(t *testing.T) {
	a := &mockSource{name: "a"}
	_, err := Discover(context.Background(), []WeightedSource{{a, 1}}, Options{Window: testWindow(1), Count: 5})
	assert.ErrorIs(t, err, types.ErrEmptySelection)
}
