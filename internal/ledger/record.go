// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// RecordSelection stores the ranked selection of a discovery run.
func (l *Ledger) RecordSelection(ctx context.Context, runID string, selected []types.Candidate) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO selections (run_id, rank, paper_id, title, score, sources) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, c := range selected {
			if _, err := stmt.ExecContext(ctx, runID, i+1, c.ID, c.Title, c.Score, strings.Join(c.Sources, ",")); err != nil {
				return fmt.Errorf("recording selection %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// RecordResolutions stores the outcome of every item of a stage batch. A
// stage recorded twice for the same run keeps the latest outcome.
func (l *Ledger) RecordResolutions(ctx context.Context, runID, stage string, items []types.PipelineItem) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO resolutions (run_id, stage, paper_id, tier, output, skipped) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, it := range items {
			if _, err := stmt.ExecContext(ctx, runID, stage, it.ID, string(it.Tier), it.Output, it.Skipped); err != nil {
				return fmt.Errorf("recording %s resolution for %s: %w", stage, it.ID, err)
			}
		}
		return nil
	})
}

func (l *Ledger) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
