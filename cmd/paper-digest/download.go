// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/acquire"
	"github.com/pdiddy/paper-digest/internal/candidates"
	"github.com/pdiddy/paper-digest/internal/resolve"
	"github.com/pdiddy/paper-digest/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the PDFs of the selected papers",
	Long: `Download fetches each selected paper's PDF from arXiv, falling back to its
open-access location. A paper whose PDF cannot be fetched gets a stub with
its title and abstract instead. PDFs from earlier runs are reused.

The command fails when no PDF at all could be downloaded.`,
	RunE: tracked("download", runDownload),
}

func init() {
	downloadCmd.Flags().Bool("strict-pdf", false, "also validate PDF structure with pdfcpu")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(ctx context.Context, rec *recorder) error {
	cfg := state.cfg
	file, err := readCandidates(cfg.Data.PapersFile)
	if err != nil {
		return err
	}

	strategy := acquire.NewStrategy(acquire.Options{
		Client:    state.client,
		UserAgent: cfg.HTTP.UserAgent,
		Dir:       cfg.Data.PDFDir,
		MinBytes:  cfg.Download.MinBytes,
		StrictPDF: cfg.Download.StrictPDF,
	})
	runner := resolve.NewRunner(strategy, resolve.ConfigFrom(cfg.Download.ResolveConfig))

	return resolveStage(ctx, rec, acquire.Stage, runner, file, acquire.Items(file.Papers), acquire.Apply, resolve.BatchResult.Resolved)
}

// readCandidates loads the candidates file and rejects an empty selection.
func readCandidates(path string) (*candidates.File, error) {
	file, err := candidates.Read(path)
	if err != nil {
		return nil, err
	}
	if len(file.Papers) == 0 {
		return nil, fmt.Errorf("%s lists no papers, run discover first: %w", path, types.ErrPreconditionMissing)
	}
	return file, nil
}

// resolveStage runs items through runner, records the outcome on the
// candidates file, and fails when succeeded counts zero items. Results are
// saved even when the batch was interrupted.
func resolveStage(
	ctx context.Context,
	rec *recorder,
	stage string,
	runner *resolve.Runner,
	file *candidates.File,
	items []types.PipelineItem,
	apply func(*types.Candidate, types.PipelineItem),
	succeeded func(resolve.BatchResult) int,
) error {
	log := zerolog.Ctx(ctx)
	log.Info().Str("stage", stage).Int("papers", len(items)).Msg("stage started")

	result, runErr := runner.RunBatch(ctx, items)

	file.Update(result.Items, apply)
	if err := candidates.Write(state.cfg.Data.PapersFile, file); err != nil {
		return err
	}
	countTiers(stage, result.Items)
	rec.resolutions(ctx, stage, result.Items)

	log.Info().
		Str("stage", stage).
		Int("primary", result.Primary).
		Int("secondary", result.Secondary).
		Int("degraded", result.Degraded).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("stage complete")

	if runErr != nil {
		return fmt.Errorf("%s interrupted after %d of %d papers: %w", stage, result.Total(), len(items), runErr)
	}
	if succeeded(result) == 0 {
		return fmt.Errorf("%s: %d papers, none resolved (%d degraded): %w", stage, len(items), result.Degraded, types.ErrNoUsableOutput)
	}
	return nil
}
