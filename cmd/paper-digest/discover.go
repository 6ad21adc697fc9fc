// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/candidates"
	"github.com/pdiddy/paper-digest/internal/discover"
	"github.com/pdiddy/paper-digest/internal/history"
	"github.com/pdiddy/paper-digest/pkg/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find, rank, and select this week's papers",
	Long: `Discover queries Hugging Face Daily Papers and Semantic Scholar for the
lookback window, merges and scores the results, drops papers selected by
earlier runs, and writes the top papers to the candidates file. The
selection is then added to the history.

A source that fails is skipped. The command fails when every source failed
or when no eligible paper remains.`,
	RunE: tracked("discover", runDiscover),
}

func init() {
	discoverCmd.Flags().Int("count", 0, "number of papers to select")
	discoverCmd.Flags().Int("lookback-days", 0, "days of history each source is queried for")

	rootCmd.AddCommand(discoverCmd)
}

// enabledSources builds the configured source adapters.
func enabledSources(cfg types.DigestConfig) []discover.WeightedSource {
	var sources []discover.WeightedSource
	if hf := cfg.Sources.HuggingFace; hf.Enabled {
		sources = append(sources, discover.WeightedSource{
			Source: &discover.HuggingFaceSource{
				Client:    state.client,
				UserAgent: cfg.HTTP.UserAgent,
				DayDelay:  hf.DayDelay,
			},
			Weight: hf.Weight,
		})
	}
	if ss := cfg.Sources.SemanticScholar; ss.Enabled {
		sources = append(sources, discover.WeightedSource{
			Source: &discover.SemanticScholarSource{
				Client:    state.client,
				UserAgent: cfg.HTTP.UserAgent,
				Query:     ss.Query,
				Limit:     ss.Limit,
				APIKey:    ss.APIKey,
			},
			Weight: ss.Weight,
		})
	}
	return sources
}

func runDiscover(ctx context.Context, rec *recorder) error {
	cfg := state.cfg
	log := zerolog.Ctx(ctx)

	hist, err := history.Load(cfg.Data.HistoryFile)
	if err != nil {
		return err
	}

	window := discover.NewWindow(time.Now(), cfg.Papers.LookbackDays)
	opts := discover.Options{
		Window:  window,
		Count:   cfg.Papers.Count,
		History: hist,
	}
	if cfg.Sources.HydrateAbstracts {
		opts.Hydrator = &discover.Hydrator{Client: state.client, UserAgent: cfg.HTTP.UserAgent}
	}

	log.Info().
		Int("lookback_days", cfg.Papers.LookbackDays).
		Int("count", cfg.Papers.Count).
		Int("history", hist.Len()).
		Msg("discovering papers")

	sources := enabledSources(cfg)
	out, err := discover.Discover(ctx, sources, opts)
	for _, ws := range sources {
		name := ws.Source.Name()
		if n, ok := out.Fetched[name]; ok {
			state.metrics.SourcePapers.WithLabelValues(name).Set(float64(n))
		} else {
			state.metrics.SourceFailures.WithLabelValues(name).Inc()
		}
	}
	if err != nil {
		return err
	}
	state.metrics.CandidatesSelected.Set(float64(len(out.Selected)))

	file := &candidates.File{
		GeneratedAt: time.Now().UTC(),
		Window: candidates.Window{
			Start: window.Start().Format(time.DateOnly),
			End:   window.End.Format(time.DateOnly),
		},
		Summary: candidates.Summary{
			Fetched:            out.Fetched,
			SourceErrors:       out.SourceErrors,
			Merged:             out.Merged,
			PreviouslySelected: out.SkippedOld,
		},
		Papers: out.Selected,
	}
	if err := candidates.Write(cfg.Data.PapersFile, file); err != nil {
		return err
	}

	for _, c := range out.Selected {
		hist.Add(c.ID)
	}
	if err := history.Save(cfg.Data.HistoryFile, hist); err != nil {
		return fmt.Errorf("candidates written but history not saved: %w", err)
	}
	rec.selection(ctx, out.Selected)

	log.Info().
		Int("selected", len(out.Selected)).
		Str("path", cfg.Data.PapersFile).
		Msg("discover complete")
	return nil
}
