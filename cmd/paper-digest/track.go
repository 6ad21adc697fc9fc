// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/ledger"
	"github.com/pdiddy/paper-digest/internal/observability"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// recorder writes stage outcomes to the run ledger. A nil recorder, or
// one without a ledger, records nothing. Ledger errors are logged and
// never fail a stage.
type recorder struct {
	ledger *ledger.Ledger
	runID  string
}

func (r *recorder) selection(ctx context.Context, selected []types.Candidate) {
	if r == nil || r.ledger == nil {
		return
	}
	if err := r.ledger.RecordSelection(ctx, r.runID, selected); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("ledger: recording selection")
	}
}

func (r *recorder) resolutions(ctx context.Context, stage string, items []types.PipelineItem) {
	if r == nil || r.ledger == nil {
		return
	}
	if err := r.ledger.RecordResolutions(ctx, r.runID, stage, items); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("stage", stage).Msg("ledger: recording resolutions")
	}
}

// tracked wraps a stage command. It records the run in the ledger, tags
// the logger with the run ID, and writes the metrics textfile whether or
// not the stage succeeded.
func tracked(command string, fn func(ctx context.Context, rec *recorder) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := zerolog.Ctx(ctx)
		rec := &recorder{}

		if path := state.cfg.Data.Ledger; path != "" {
			l, err := ledger.Open(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("ledger unavailable, run not recorded")
			} else {
				defer l.Close()
				id, err := l.StartRun(ctx, command)
				if err != nil {
					log.Warn().Err(err).Msg("ledger: starting run")
				} else {
					rec.ledger, rec.runID = l, id
					runLog := observability.WithRun(*log, id)
					ctx = runLog.WithContext(ctx)
				}
			}
		}

		err := fn(ctx, rec)

		if rec.ledger != nil {
			// The signal context may already be cancelled.
			if ferr := rec.ledger.FinishRun(context.WithoutCancel(ctx), rec.runID, err); ferr != nil {
				log.Warn().Err(ferr).Msg("ledger: finishing run")
			}
		}
		if err == nil {
			state.metrics.MarkSuccess(command, time.Now())
		}
		if merr := state.metrics.WriteTextfile(state.cfg.Metrics.Textfile); merr != nil {
			log.Warn().Err(merr).Msg("metrics textfile not written")
		}
		return err
	}
}

// countTiers adds every resolved item to the per-stage tier counter.
func countTiers(stage string, items []types.PipelineItem) {
	for _, it := range items {
		state.metrics.ItemsResolved.WithLabelValues(stage, string(it.Tier)).Inc()
	}
}
