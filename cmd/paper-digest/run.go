// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run discover, download, convert, and publish in order",
	Long: `Run executes the whole weekly pipeline as one ledger run. It stops at the
first stage that fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		skipPublish, _ := cmd.Flags().GetBool("skip-publish")
		return tracked("run", func(ctx context.Context, rec *recorder) error {
			return runAll(ctx, rec, dryRun, skipPublish)
		})(cmd, args)
	},
}

func init() {
	f := runCmd.Flags()
	f.Int("count", 0, "number of papers to select")
	f.Int("lookback-days", 0, "days of history each source is queried for")
	f.Bool("strict-pdf", false, "also validate PDF structure with pdfcpu")
	f.Bool("markitdown", false, "use the markitdown container as the secondary converter")
	f.Bool("dry-run", false, "publish the page locally without running git")
	f.Bool("skip-publish", false, "stop after conversion")

	rootCmd.AddCommand(runCmd)
}

type stage struct {
	name string
	fn   func(context.Context, *recorder) error
}

func runAll(ctx context.Context, rec *recorder, dryRun, skipPublish bool) error {
	log := zerolog.Ctx(ctx)

	stages := []stage{
		{"discover", runDiscover},
		{"download", runDownload},
		{"convert", runConvert},
	}
	if !skipPublish {
		stages = append(stages, stage{"publish", func(ctx context.Context, _ *recorder) error {
			return runPublish(ctx, dryRun)
		}})
	}

	for _, s := range stages {
		log.Info().Str("stage", s.name).Msg("running stage")
		if err := s.fn(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
