// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/ledger"
	"github.com/pdiddy/paper-digest/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs",
	Long: `Runs lists the runs recorded in the ledger, newest first, with each run's
status and per-stage tier counts. --export writes the runs with their
selections and item outcomes as YAML or JSON instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("export")

		path := state.cfg.Data.Ledger
		if path == "" {
			return errors.New("ledger disabled: data.ledger is empty")
		}
		l, err := ledger.Open(path)
		if err != nil {
			return err
		}
		defer l.Close()

		if format != "" {
			return l.Export(cmd.Context(), cmd.OutOrStdout(), format, limit)
		}
		return listRuns(cmd.Context(), cmd.OutOrStdout(), l, limit)
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to show (0 for all)")
	runsCmd.Flags().String("export", "", "export runs as yaml or json")

	rootCmd.AddCommand(runsCmd)
}

func listRuns(ctx context.Context, w io.Writer, l *ledger.Ledger, limit int) error {
	runs, err := l.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tCOMMAND\tSTATUS\tDURATION\tTIERS\tID")
	for _, r := range runs {
		counts, err := l.TierCounts(ctx, r.ID)
		if err != nil {
			return err
		}
		duration := "-"
		if !r.Finished.IsZero() {
			duration = r.Finished.Sub(r.Started).Round(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Started.Local().Format("2006-01-02 15:04"), r.Command, r.Status, duration, formatTiers(counts), r.ID)
	}
	return tw.Flush()
}

// formatTiers renders counts as "convert p3/s0/d1/f0 download ...".
func formatTiers(counts map[string]map[types.Tier]int) string {
	if len(counts) == 0 {
		return "-"
	}
	stages := make([]string, 0, len(counts))
	for s := range counts {
		stages = append(stages, s)
	}
	sort.Strings(stages)

	parts := make([]string, 0, len(stages))
	for _, s := range stages {
		c := counts[s]
		parts = append(parts, fmt.Sprintf("%s p%d/s%d/d%d/f%d", s,
			c[types.TierPrimary], c[types.TierSecondary], c[types.TierDegraded], c[types.TierFailed]))
	}
	return strings.Join(parts, " ")
}
