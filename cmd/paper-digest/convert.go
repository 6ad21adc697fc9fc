// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/container"
	"github.com/pdiddy/paper-digest/internal/convert"
	"github.com/pdiddy/paper-digest/internal/resolve"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the downloaded PDFs to Markdown",
	Long: `Convert extracts the text of each downloaded PDF into Markdown. When the
in-process extraction yields too little text and markitdown is enabled, the
markitdown container (docker or podman) is tried next. Papers without a PDF,
or whose conversion fails, get a Markdown file with their title and
abstract.

The command fails only when no paper produced any usable output.`,
	RunE: tracked("convert", runConvert),
}

func init() {
	convertCmd.Flags().Bool("markitdown", false, "use the markitdown container as the secondary converter")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(ctx context.Context, rec *recorder) error {
	cfg := state.cfg
	file, err := readCandidates(cfg.Data.PapersFile)
	if err != nil {
		return err
	}

	opts := convert.Options{
		Dir:      cfg.Data.MarkdownDir,
		MinChars: cfg.Conversion.MinChars,
		Primary:  convert.PlainText{},
	}
	if cfg.Conversion.Markitdown {
		if m := markitdown(ctx); m != nil {
			opts.Secondary = m
		}
	}
	runner := resolve.NewRunner(convert.NewStrategy(opts), resolve.ConfigFrom(cfg.Conversion.ResolveConfig))

	return resolveStage(ctx, rec, convert.Stage, runner, file, convert.Items(file.Papers), convert.Apply, resolve.BatchResult.Usable)
}

// markitdown returns the container converter, or nil with a warning when
// no runtime or image is available.
func markitdown(ctx context.Context) *convert.Markitdown {
	log := zerolog.Ctx(ctx)
	rt, err := container.Detect(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("markitdown disabled")
		return nil
	}
	m, err := convert.NewMarkitdown(ctx, rt, convert.DefaultMarkitdownImage)
	if err != nil {
		log.Warn().Err(err).Msg("markitdown disabled")
		return nil
	}
	log.Info().Str("runtime", rt.Name()).Msg("markitdown enabled")
	return m
}
