// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-digest CLI. Each pipeline
// stage is a subcommand: discover, download, convert, and publish. The run
// subcommand executes all four in order.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-digest/internal/config"
	"github.com/pdiddy/paper-digest/internal/observability"
	"github.com/pdiddy/paper-digest/internal/secrets"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// app holds what every subcommand needs once configuration is loaded.
type app struct {
	cfg     types.DigestConfig
	log     zerolog.Logger
	metrics *observability.Metrics
	client  *http.Client
}

var state = app{
	log:     observability.NewLogger(observability.DefaultLoggingConfig()),
	metrics: observability.NewMetrics(),
}

// flagKeys binds command-line flags to configuration keys. A flag that is
// not defined on the running command is ignored.
var flagKeys = map[string]string{
	"log-level":        "logging.level",
	"log-format":       "logging.format",
	"data-dir":         "data.dir",
	"metrics-textfile": "metrics.textfile",
	"count":            "papers.count",
	"lookback-days":    "papers.lookback_days",
	"strict-pdf":       "download.strict_pdf",
	"markitdown":       "conversion.markitdown",
	"wiki-dir":         "wiki.clone_dir",
}

// rootCmd is the base command for the paper-digest CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-digest",
	Short: "Weekly digest of trending AI papers",
	Long: `paper-digest discovers trending AI papers from Hugging Face Daily Papers
and Semantic Scholar, ranks them, downloads and converts the selected PDFs,
and publishes a weekly review page to a GitHub wiki.

Each stage is a subcommand and reads the previous stage's output from the
data directory: discover, download, convert, and publish. run executes all
of them in order.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadApp,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paper-digest.yaml or ~/.config/paper-digest/paper-digest.yaml)")
	pf.String("secrets-dir", ".secrets", "directory of secret files")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("data-dir", "", "base data directory")
	pf.String("metrics-textfile", "", "write Prometheus metrics to this .prom file after the command")
}

// loadApp builds the configuration, logger, and HTTP client before any
// subcommand runs.
func loadApp(cmd *cobra.Command, _ []string) error {
	secretsDir, _ := cmd.Flags().GetString("secrets-dir")
	sec, err := secrets.Load(secretsDir, state.log)
	if err != nil {
		return err
	}

	cfgFile, _ := cmd.Flags().GetString("config")
	v, err := config.New(cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(cmd, v); err != nil {
		return err
	}
	cfg, err := config.Decode(v, sec)
	if err != nil {
		return err
	}

	state.cfg = cfg
	state.log = observability.NewLogger(cfg.Logging)
	state.client = &http.Client{Timeout: cfg.HTTP.Timeout}

	if used := v.ConfigFileUsed(); used != "" {
		state.log.Debug().Str("path", used).Msg("using config file")
	}
	if keys := sec.Keys(); len(keys) > 0 {
		state.log.Debug().Strs("keys", keys).Msg("loaded secrets")
	}

	cmd.SetContext(state.log.WithContext(cmd.Context()))
	return nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		state.log.Error().Err(err).Msg("paper-digest failed")
		os.Exit(1)
	}
}
