// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// WeightedSource pairs an enabled source with its scoring weight.
type WeightedSource struct {
	Source Source
	Weight float64
}

// Options controls one discovery run.
type Options struct {
	Window  Window
	Count   int
	History *types.HistorySet

	// Hydrator, when set, fills missing abstracts of the selected papers.
	Hydrator *Hydrator
}

// Output holds the selection and per-source statistics of a run.
type Output struct {
	Selected []types.Candidate

	// Fetched maps source name to the number of records it returned.
	Fetched map[string]int
	// SourceErrors lists "name: error" for every source that failed.
	SourceErrors []string

	Merged     int
	SkippedOld int
	Hydrated   int
}

// Discover fetches each source in turn, merges and scores the records,
// and selects the top candidates. A failing source is logged and skipped;
// the run fails with ErrSourceUnavailable only when every source failed,
// and with ErrEmptySelection when nothing eligible remains.
func Discover(ctx context.Context, sources []WeightedSource, opts Options) (Output, error) {
	log := zerolog.Ctx(ctx)
	out := Output{Fetched: make(map[string]int)}

	if len(sources) == 0 {
		return out, fmt.Errorf("no sources enabled: %w", types.ErrSourceUnavailable)
	}

	var results []SourceResult
	for _, ws := range sources {
		name := ws.Source.Name()
		records, err := ws.Source.Fetch(ctx, opts.Window)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			out.SourceErrors = append(out.SourceErrors, fmt.Sprintf("%s: %v", name, err))
			log.Warn().Err(err).Str("source", name).Msg("source failed")
			continue
		}
		out.Fetched[name] = len(records)
		log.Info().Str("source", name).Int("papers", len(records)).Msg("source fetched")
		results = append(results, SourceResult{Name: name, Weight: ws.Weight, Records: records})
	}

	if len(results) == 0 {
		return out, fmt.Errorf("all %d sources failed: %w", len(sources), types.ErrSourceUnavailable)
	}

	merged := Merge(results, opts.History)
	out.Merged = merged.Len()
	out.SkippedOld = merged.Seen
	log.Info().
		Int("candidates", merged.Len()).
		Int("previously_selected", merged.Seen).
		Int("missing_ids", merged.Dropped).
		Msg("merged")

	selected, err := Select(merged, opts.Count)
	if err != nil {
		return out, err
	}

	if opts.Hydrator != nil {
		selected, out.Hydrated = opts.Hydrator.Hydrate(ctx, selected)
	}
	out.Selected = selected

	for _, c := range selected {
		log.Info().Str("paper_id", c.ID).Msgf("[%.3f] %s - %s", c.Score, c.ID, c.Title)
	}
	return out, nil
}
