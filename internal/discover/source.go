// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover fetches trending papers from the configured sources,
// merges them into one scored candidate per arXiv ID, and selects the top
// candidates that were not picked by an earlier run.
package discover

import (
	"context"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Source is a paper source adapter. Fetch returns the source's records for
// the window; a non-nil error means the source is unavailable for this run.
type Source interface {
	Name() string
	Fetch(ctx context.Context, window Window) ([]types.PaperRecord, error)
}

// Window is the lookback window of a run: Days calendar days ending at End
// (inclusive), in UTC.
type Window struct {
	End  time.Time
	Days int
}

// NewWindow returns a window of days ending on now's UTC date.
func NewWindow(now time.Time, days int) Window {
	y, m, d := now.UTC().Date()
	return Window{End: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Days: days}
}

// Dates returns each day of the window, newest first.
func (w Window) Dates() []time.Time {
	if w.Days <= 0 {
		return nil
	}
	out := make([]time.Time, 0, w.Days)
	for i := 0; i < w.Days; i++ {
		out = append(out, w.End.AddDate(0, 0, -i))
	}
	return out
}

// Start returns the oldest day of the window.
func (w Window) Start() time.Time {
	if w.Days <= 0 {
		return w.End
	}
	return w.End.AddDate(0, 0, -(w.Days - 1))
}
