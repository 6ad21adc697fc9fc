// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/publish"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the weekly review page to the wiki",
	Long: `Publish renders a weekly review page for the selected papers, using each
paper's analysis file when one exists and its abstract otherwise, links it
from the wiki's Home page, then commits and pushes the wiki.

With --dry-run the page and Home.md are written to the wiki directory and
git is not run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return tracked("publish", func(ctx context.Context, _ *recorder) error {
			return runPublish(ctx, dryRun)
		})(cmd, args)
	},
}

func init() {
	publishCmd.Flags().Bool("dry-run", false, "write the page locally without running git")
	publishCmd.Flags().String("wiki-dir", "", "local wiki working copy")

	rootCmd.AddCommand(publishCmd)
}

func runPublish(ctx context.Context, dryRun bool) error {
	cfg := state.cfg
	file, err := readCandidates(cfg.Data.PapersFile)
	if err != nil {
		return err
	}

	remote := publish.RemoteURL(cfg.Publish.Repo, cfg.Publish.RemoteURL)
	if remote == "" && !dryRun {
		return errors.New("wiki.repo or wiki.remote_url must be set to publish")
	}
	wiki := publish.NewWiki(cfg.Publish.CloneDir, remote)

	res, err := publish.Publish(ctx, wiki, file.Papers, publish.Options{
		Title:       cfg.Publish.Title,
		AnalysisDir: cfg.Data.AnalysisDir,
		DryRun:      dryRun,
	})
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("page", res.PageName).
		Bool("home_updated", res.HomeUpdated).
		Bool("committed", res.Committed).
		Bool("dry_run", dryRun).
		Msg("publish complete")
	return nil
}
