// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// huggingFaceAPIBase is the daily papers endpoint. Declared as a var so
// tests can substitute an httptest server.
var huggingFaceAPIBase = "https://huggingface.co/api/daily_papers"

// HuggingFaceSource lists the community-curated daily papers for each day
// of the window. Signal is the paper's upvote count.
type HuggingFaceSource struct {
	Client    *http.Client
	UserAgent string

	// DayDelay paces the per-day requests. Zero disables pacing.
	DayDelay time.Duration
}

// Name returns the source identifier.
func (s *HuggingFaceSource) Name() string { return types.SourceHuggingFace }

// Fetch requests every day of the window and concatenates the results,
// keeping the first occurrence of each paper. A failed day is logged and
// skipped; only a window in which every day failed is an error.
func (s *HuggingFaceSource) Fetch(ctx context.Context, window Window) ([]types.PaperRecord, error) {
	log := zerolog.Ctx(ctx)
	dates := window.Dates()

	limiter := rate.NewLimiter(rate.Inf, 1)
	if s.DayDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.DayDelay), 1)
	}

	var (
		records []types.PaperRecord
		seen    = make(map[string]bool)
		failed  int
		lastErr error
	)
	for _, day := range dates {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		date := day.Format("2006-01-02")
		var entries []hfEntry
		url := huggingFaceAPIBase + "?date=" + date
		if err := httputil.GetJSON(ctx, s.Client, url, map[string]string{"User-Agent": s.UserAgent}, &entries); err != nil {
			failed++
			lastErr = err
			log.Warn().Err(err).Str("source", s.Name()).Str("date", date).Msg("daily papers request failed")
			continue
		}

		for _, e := range entries {
			id := strings.TrimSpace(e.Paper.ID)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			records = append(records, types.PaperRecord{
				ID:        id,
				Title:     strings.TrimSpace(e.Paper.Title),
				Abstract:  strings.TrimSpace(e.Paper.Summary),
				Signal:    e.Paper.Upvotes,
				Published: e.Paper.PublishedAt,
				Source:    types.SourceHuggingFace,
			})
		}
		log.Debug().Str("source", s.Name()).Str("date", date).Int("entries", len(entries)).Msg("daily papers fetched")
	}

	if len(dates) > 0 && failed == len(dates) {
		return nil, fmt.Errorf("huggingface: all %d days failed, last: %v: %w", failed, lastErr, types.ErrSourceUnavailable)
	}
	return records, nil
}

// Daily papers JSON structures.
type hfEntry struct {
	Paper hfPaper `json:"paper"`
}

type hfPaper struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Summary     string  `json:"summary"`
	Upvotes     float64 `json:"upvotes"`
	PublishedAt string  `json:"publishedAt"`
}
