// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads the paper-digest configuration from defaults, an
// optional YAML file, and PAPER_DIGEST_* environment variables, and
// validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-digest/internal/secrets"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// PAPER_DIGEST_PAPERS_COUNT=10.
const EnvPrefix = "PAPER_DIGEST"

// New returns a viper instance with defaults registered and environment
// overrides enabled. When cfgFile is empty it searches for
// paper-digest.yaml in the working directory and ~/.config/paper-digest/.
// A missing config file is not an error.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("paper-digest")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "paper-digest"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return v, nil
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("papers.count", 5)
	v.SetDefault("papers.lookback_days", 7)

	v.SetDefault("sources.huggingface.enabled", true)
	v.SetDefault("sources.huggingface.weight", 0.6)
	v.SetDefault("sources.huggingface.day_delay", "0s")
	v.SetDefault("sources.semantic_scholar.enabled", true)
	v.SetDefault("sources.semantic_scholar.weight", 0.4)
	v.SetDefault("sources.semantic_scholar.query", "artificial intelligence")
	v.SetDefault("sources.semantic_scholar.limit", 20)
	v.SetDefault("sources.semantic_scholar.api_key", "")
	v.SetDefault("sources.hydrate_abstracts", true)

	v.SetDefault("http.timeout", "60s")
	v.SetDefault("http.user_agent", "paper-digest/0.1")

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.papers_file", "papers.yaml")
	v.SetDefault("data.history_file", "history.yaml")
	v.SetDefault("data.pdf_dir", "pdfs")
	v.SetDefault("data.markdown_dir", "markdown")
	v.SetDefault("data.analysis_dir", "analysis")
	v.SetDefault("data.ledger", "ledger.db")

	v.SetDefault("download.attempt_timeout", "60s")
	v.SetDefault("download.attempt_delay", "1s")
	v.SetDefault("download.item_delay", "1s")
	v.SetDefault("download.min_bytes", 1000)
	v.SetDefault("download.strict_pdf", false)

	v.SetDefault("conversion.attempt_timeout", "120s")
	v.SetDefault("conversion.attempt_delay", "0s")
	v.SetDefault("conversion.item_delay", "0s")
	v.SetDefault("conversion.min_chars", 100)
	v.SetDefault("conversion.markitdown", false)

	v.SetDefault("wiki.repo", "")
	v.SetDefault("wiki.remote_url", "")
	v.SetDefault("wiki.clone_dir", "wiki_clone")
	v.SetDefault("wiki.title", "Weekly AI Paper Review")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("metrics.textfile", "")
}

// Decode unmarshals v into a DigestConfig, fills credentials left empty
// from sec, resolves data paths, and validates the result.
func Decode(v *viper.Viper, sec secrets.Secrets) (types.DigestConfig, error) {
	var cfg types.DigestConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshaling config: %w", err)
	}

	ss := &cfg.Sources.SemanticScholar
	ss.APIKey = sec.Default(secrets.SemanticScholarAPIKey, ss.APIKey)
	cfg.Publish.RemoteURL = sec.Default(secrets.WikiRemoteURL, cfg.Publish.RemoteURL)

	ResolvePaths(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// ResolvePaths makes every relative artifact path relative to data.dir.
// Absolute paths are left untouched.
func ResolvePaths(cfg *types.DigestConfig) {
	d := &cfg.Data
	for _, p := range []*string{
		&d.PapersFile,
		&d.HistoryFile,
		&d.PDFDir,
		&d.MarkdownDir,
		&d.AnalysisDir,
		&d.Ledger,
		&cfg.Publish.CloneDir,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(d.Dir, *p)
		}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that at least one source is
// enabled.
func Validate(cfg types.DigestConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if !cfg.Sources.HuggingFace.Enabled && !cfg.Sources.SemanticScholar.Enabled {
		return errors.New("at least one source must be enabled")
	}
	return nil
}
