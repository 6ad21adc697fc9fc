// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve runs the three-tier fallback shared by the download and
// conversion stages: try the primary action, then the secondary, and if
// both fail write a degraded substitute so the next stage always has an
// input. Items are processed one at a time.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-digest/internal/fileutil"
	"github.com/pdiddy/paper-digest/internal/observability"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Action produces item's output from a stage-specific reference (a URL or
// a file path) by writing it to w. It must honor ctx.
type Action func(ctx context.Context, item types.PipelineItem, ref string, w io.Writer) error

// Strategy describes one stage's tiers.
type Strategy struct {
	// Stage names the stage in logs and metrics ("download", "convert").
	Stage string

	// Dest returns where a primary or secondary output is written.
	Dest func(item types.PipelineItem) string

	// DegradedDest returns where the degraded substitute is written. When
	// nil the substitute goes to Dest.
	DegradedDest func(item types.PipelineItem) string

	Primary   Action
	Secondary Action

	// Valid checks a finished output file. A nil Valid accepts any file.
	Valid func(path string) error

	// Degrade builds the substitute content from the item's metadata.
	Degrade func(item types.PipelineItem) ([]byte, error)
}

// Config is the runner's scheduling policy.
type Config struct {
	AttemptTimeout time.Duration
	AttemptDelay   time.Duration
	ItemDelay      time.Duration
}

// ConfigFrom converts the shared resolve settings.
func ConfigFrom(rc types.ResolveConfig) Config {
	return Config{
		AttemptTimeout: rc.AttemptTimeout,
		AttemptDelay:   rc.AttemptDelay,
		ItemDelay:      rc.ItemDelay,
	}
}

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Primary   int
	Secondary int
	Degraded  int
	Failed    int

	// Skipped counts items whose valid output already existed. They are
	// also counted as Primary.
	Skipped int

	// Items holds every processed item in input order.
	Items []types.PipelineItem
}

// Total returns the number of items processed.
func (r BatchResult) Total() int {
	return r.Primary + r.Secondary + r.Degraded + r.Failed
}

// Usable returns the number of items with an output downstream can read.
func (r BatchResult) Usable() int {
	return r.Primary + r.Secondary + r.Degraded
}

// Resolved returns the number of items produced by a real tier, excluding
// degraded substitutes.
func (r BatchResult) Resolved() int {
	return r.Primary + r.Secondary
}

// HasFailures reports whether any item failed outright.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(item types.PipelineItem) {
	switch item.Tier {
	case types.TierPrimary:
		r.Primary++
		if item.Skipped {
			r.Skipped++
		}
	case types.TierSecondary:
		r.Secondary++
	case types.TierDegraded:
		r.Degraded++
	default:
		r.Failed++
	}
	r.Items = append(r.Items, item)
}

// Runner applies a Strategy to items.
type Runner struct {
	Strategy Strategy
	Config   Config

	limiter *rate.Limiter
}

// NewRunner returns a runner that paces consecutive items by cfg.ItemDelay.
func NewRunner(s Strategy, cfg Config) *Runner {
	r := &Runner{Strategy: s, Config: cfg}
	r.limiter = rate.NewLimiter(rate.Inf, 1)
	if cfg.ItemDelay > 0 {
		r.limiter = rate.NewLimiter(rate.Every(cfg.ItemDelay), 1)
	}
	return r
}

// RunBatch resolves items in order. Per-item failures never stop the
// batch; only cancellation of ctx does, in which case the items processed
// so far are returned with ctx's error.
func (r *Runner) RunBatch(ctx context.Context, items []types.PipelineItem) (BatchResult, error) {
	var result BatchResult
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		resolved, err := r.Resolve(ctx, item)
		if err != nil && ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.add(resolved)
	}
	return result, nil
}

// Resolve runs one item through the tiers and returns it with Output and
// Tier set. The error is non-nil only when the item failed outright; it
// then wraps ErrItemResolutionFailed.
func (r *Runner) Resolve(ctx context.Context, item types.PipelineItem) (types.PipelineItem, error) {
	s := r.Strategy
	log := observability.WithPaper(observability.WithStage(*zerolog.Ctx(ctx), s.Stage), item.ID)
	dest := s.Dest(item)

	if r.validExisting(dest) {
		item.Output = dest
		item.Tier = types.TierPrimary
		item.Skipped = true
		log.Debug().Str("path", dest).Msg("output exists, skipping")
		return item, nil
	}

	var causes []error
	attempted := false

	tiers := []struct {
		tier   types.Tier
		action Action
		ref    string
	}{
		{types.TierPrimary, s.Primary, item.PrimaryRef},
		{types.TierSecondary, s.Secondary, item.SecondaryRef},
	}
	for _, t := range tiers {
		if t.action == nil || t.ref == "" {
			continue
		}
		if attempted {
			if err := sleep(ctx, r.Config.AttemptDelay); err != nil {
				return r.fail(item, err)
			}
		} else if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return r.fail(item, err)
			}
		}
		attempted = true

		err := r.attempt(ctx, t.action, item, t.ref, dest)
		if err == nil {
			item.Output = dest
			item.Tier = t.tier
			log.Info().Str("tier", string(t.tier)).Str("path", dest).Msg("resolved")
			return item, nil
		}
		if ctx.Err() != nil {
			return r.fail(item, ctx.Err())
		}
		causes = append(causes, fmt.Errorf("%s: %w", t.tier, err))
		log.Warn().Err(err).Str("tier", string(t.tier)).Str("ref", t.ref).Msg("attempt failed")
	}

	out, err := r.degrade(item)
	if err != nil {
		log.Error().Err(err).Msg("degraded substitute failed")
		return r.fail(item, errors.Join(append(causes, err)...))
	}
	item.Output = out
	item.Tier = types.TierDegraded
	log.Warn().
		Err(errors.Join(append([]error{types.ErrItemResolutionDegraded}, causes...)...)).
		Str("path", out).
		Msg("resolved with degraded substitute")
	return item, nil
}

// attempt runs action under the per-attempt timeout into a temp file next
// to dest, validates it, and renames it into place.
func (r *Runner) attempt(ctx context.Context, action Action, item types.PipelineItem, ref, dest string) error {
	if r.Config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Config.AttemptTimeout)
		defer cancel()
	}

	tmp, err := fileutil.WriteTemp(dest, func(w io.Writer) error {
		return action(ctx, item, ref, w)
	})
	if err != nil {
		return err
	}
	if r.Strategy.Valid != nil {
		if err := r.Strategy.Valid(tmp); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("invalid output: %w", err)
		}
	}
	return fileutil.Commit(tmp, dest)
}

func (r *Runner) degrade(item types.PipelineItem) (string, error) {
	s := r.Strategy
	if s.Degrade == nil {
		return "", errors.New("no degraded substitute configured")
	}
	data, err := s.Degrade(item)
	if err != nil {
		return "", fmt.Errorf("building substitute: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("empty substitute")
	}

	dest := s.Dest(item)
	if s.DegradedDest != nil {
		dest = s.DegradedDest(item)
	}
	if err := fileutil.WriteAtomic(dest, data); err != nil {
		return "", err
	}
	return dest, nil
}

func (r *Runner) fail(item types.PipelineItem, cause error) (types.PipelineItem, error) {
	item.Output = ""
	item.Tier = types.TierFailed
	return item, fmt.Errorf("%s %s: %w: %w", r.Strategy.Stage, item.ID, types.ErrItemResolutionFailed, cause)
}

func (r *Runner) validExisting(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if r.Strategy.Valid == nil {
		return true
	}
	return r.Strategy.Valid(path) == nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
