// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Run is one recorded CLI invocation.
type Run struct {
	ID       string    `json:"id" yaml:"id"`
	Command  string    `json:"command" yaml:"command"`
	Started  time.Time `json:"started_at" yaml:"started_at"`
	Finished time.Time `json:"finished_at,omitzero" yaml:"finished_at,omitempty"`
	Status   string    `json:"status" yaml:"status"`
	Detail   string    `json:"detail,omitempty" yaml:"detail,omitempty"`

	Selections  []Selection  `json:"selections,omitempty" yaml:"selections,omitempty"`
	Resolutions []Resolution `json:"resolutions,omitempty" yaml:"resolutions,omitempty"`
}

// Selection is one ranked paper of a discovery run.
type Selection struct {
	Rank    int      `json:"rank" yaml:"rank"`
	PaperID string   `json:"paper_id" yaml:"paper_id"`
	Title   string   `json:"title" yaml:"title"`
	Score   float64  `json:"score" yaml:"score"`
	Sources []string `json:"sources" yaml:"sources"`
}

// Resolution is the outcome of one item in one stage.
type Resolution struct {
	Stage   string     `json:"stage" yaml:"stage"`
	PaperID string     `json:"paper_id" yaml:"paper_id"`
	Tier    types.Tier `json:"tier" yaml:"tier"`
	Output  string     `json:"output,omitempty" yaml:"output,omitempty"`
	Skipped bool       `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT id, command, started_at, finished_at, status, detail FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished sql.NullString
			detail            sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Command, &started, &finished, &r.Status, &detail); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Started = parseTime(started)
		r.Finished = parseTime(finished)
		r.Detail = detail.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Selections returns the ranked selection of a run.
func (l *Ledger) Selections(ctx context.Context, runID string) ([]Selection, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT rank, paper_id, title, score, sources FROM selections WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying selections: %w", err)
	}
	defer rows.Close()

	var out []Selection
	for rows.Next() {
		var (
			s       Selection
			title   sql.NullString
			sources sql.NullString
		)
		if err := rows.Scan(&s.Rank, &s.PaperID, &title, &s.Score, &sources); err != nil {
			return nil, fmt.Errorf("scanning selection: %w", err)
		}
		s.Title = title.String
		if sources.String != "" {
			s.Sources = strings.Split(sources.String, ",")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Resolutions returns the item outcomes of a run ordered by stage and paper.
func (l *Ledger) Resolutions(ctx context.Context, runID string) ([]Resolution, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT stage, paper_id, tier, output, skipped FROM resolutions WHERE run_id = ? ORDER BY stage, paper_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying resolutions: %w", err)
	}
	defer rows.Close()

	var out []Resolution
	for rows.Next() {
		var (
			r      Resolution
			tier   string
			output sql.NullString
		)
		if err := rows.Scan(&r.Stage, &r.PaperID, &tier, &output, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scanning resolution: %w", err)
		}
		r.Tier = types.Tier(tier)
		r.Output = output.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// TierCounts tallies a run's resolutions by stage and tier.
func (l *Ledger) TierCounts(ctx context.Context, runID string) (map[string]map[types.Tier]int, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT stage, tier, count(*) FROM resolutions WHERE run_id = ? GROUP BY stage, tier`, runID)
	if err != nil {
		return nil, fmt.Errorf("counting tiers: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]map[types.Tier]int)
	for rows.Next() {
		var (
			stage, tier string
			n           int
		)
		if err := rows.Scan(&stage, &tier, &n); err != nil {
			return nil, fmt.Errorf("scanning tier count: %w", err)
		}
		if counts[stage] == nil {
			counts[stage] = make(map[types.Tier]int)
		}
		counts[stage][types.Tier(tier)] = n
	}
	return counts, rows.Err()
}

// Export writes up to limit runs, each with its selections and
// resolutions, to w as YAML or JSON.
func (l *Ledger) Export(ctx context.Context, w io.Writer, format string, limit int) error {
	runs, err := l.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	for i := range runs {
		if runs[i].Selections, err = l.Selections(ctx, runs[i].ID); err != nil {
			return err
		}
		if runs[i].Resolutions, err = l.Resolutions(ctx, runs[i].ID); err != nil {
			return err
		}
	}
	if runs == nil {
		runs = []Run{}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(runs); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(runs); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	return nil
}
