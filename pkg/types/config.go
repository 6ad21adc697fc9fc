// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP client timeout applied to every request.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent" validate:"required"`
}

// PapersConfig controls how many papers a run selects and how far back
// sources look.
type PapersConfig struct {
	// Count is the number of candidates to select per run.
	Count int `mapstructure:"count" yaml:"count" validate:"gte=1"`

	// LookbackDays is the number of trailing days each source is queried for.
	LookbackDays int `mapstructure:"lookback_days" yaml:"lookback_days" validate:"gte=1,lte=60"`
}

// SourceConfig holds the enable flag and weight shared by every source.
type SourceConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Weight scales the source's normalized signal. Weights across sources
	// need not sum to 1.
	Weight float64 `mapstructure:"weight" yaml:"weight" validate:"gte=0"`
}

// HuggingFaceConfig configures the daily papers listing.
type HuggingFaceConfig struct {
	SourceConfig `mapstructure:",squash" yaml:",inline"`

	// DayDelay paces the per-day requests across the lookback window.
	DayDelay time.Duration `mapstructure:"day_delay" yaml:"day_delay" validate:"gte=0"`
}

// SemanticScholarConfig configures the citation-ranked bulk search.
type SemanticScholarConfig struct {
	SourceConfig `mapstructure:",squash" yaml:",inline"`

	// Query is the free-text bulk search query.
	Query string `mapstructure:"query" yaml:"query" validate:"required_if=Enabled true"`

	// Limit caps the number of records requested.
	Limit int `mapstructure:"limit" yaml:"limit" validate:"gte=1,lte=1000"`

	// APIKey is optional; it raises the rate limit.
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

// SourcesConfig groups the two discovery sources.
type SourcesConfig struct {
	HuggingFace     HuggingFaceConfig     `mapstructure:"huggingface" yaml:"huggingface"`
	SemanticScholar SemanticScholarConfig `mapstructure:"semantic_scholar" yaml:"semantic_scholar"`

	// HydrateAbstracts fills empty abstracts from the arXiv API after merging.
	HydrateAbstracts bool `mapstructure:"hydrate_abstracts" yaml:"hydrate_abstracts"`
}

// DataConfig names the on-disk artifacts shared by the stages.
type DataConfig struct {
	// Dir is the base data directory.
	Dir string `mapstructure:"dir" yaml:"dir" validate:"required"`

	PapersFile  string `mapstructure:"papers_file" yaml:"papers_file" validate:"required"`
	HistoryFile string `mapstructure:"history_file" yaml:"history_file" validate:"required"`
	PDFDir      string `mapstructure:"pdf_dir" yaml:"pdf_dir" validate:"required"`
	MarkdownDir string `mapstructure:"markdown_dir" yaml:"markdown_dir" validate:"required"`
	AnalysisDir string `mapstructure:"analysis_dir" yaml:"analysis_dir"`

	// Ledger is the SQLite run ledger path. Empty disables the ledger.
	Ledger string `mapstructure:"ledger" yaml:"ledger"`
}

// ResolveConfig holds the scheduling policy of the fallback runner.
type ResolveConfig struct {
	// AttemptTimeout bounds each primary or secondary action.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout" yaml:"attempt_timeout" validate:"gt=0"`

	// AttemptDelay is the pause between tiers of the same item.
	AttemptDelay time.Duration `mapstructure:"attempt_delay" yaml:"attempt_delay" validate:"gte=0"`

	// ItemDelay is the polite pause between items of a batch.
	ItemDelay time.Duration `mapstructure:"item_delay" yaml:"item_delay" validate:"gte=0"`
}

// DownloadConfig holds settings for the PDF acquisition stage.
type DownloadConfig struct {
	ResolveConfig `mapstructure:",squash" yaml:",inline"`

	// MinBytes is the smallest file accepted as a real PDF.
	MinBytes int64 `mapstructure:"min_bytes" yaml:"min_bytes" validate:"gte=1"`

	// StrictPDF additionally validates downloads with pdfcpu.
	StrictPDF bool `mapstructure:"strict_pdf" yaml:"strict_pdf"`
}

// ConversionBackend identifies a PDF-to-text tool.
type ConversionBackend string

const (
	BackendPlainText  ConversionBackend = "plaintext"
	BackendMarkitdown ConversionBackend = "markitdown"
)

// ConversionConfig holds settings for the text-conversion stage.
type ConversionConfig struct {
	ResolveConfig `mapstructure:",squash" yaml:",inline"`

	// MinChars is the smallest converted text accepted as valid.
	MinChars int `mapstructure:"min_chars" yaml:"min_chars" validate:"gte=1"`

	// Markitdown enables the container-based secondary converter.
	Markitdown bool `mapstructure:"markitdown" yaml:"markitdown"`
}

// PublishConfig holds settings for the wiki publisher.
type PublishConfig struct {
	// Repo is the GitHub "owner/name" whose wiki receives the page.
	Repo string `mapstructure:"repo" yaml:"repo"`

	// RemoteURL overrides the clone URL derived from Repo.
	RemoteURL string `mapstructure:"remote_url" yaml:"remote_url"`

	// CloneDir is the local working copy of the wiki.
	CloneDir string `mapstructure:"clone_dir" yaml:"clone_dir" validate:"required"`

	// Title is the heading prefix of each weekly page.
	Title string `mapstructure:"title" yaml:"title" validate:"required"`
}

// LoggingConfig contains logger configuration options.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `mapstructure:"level" yaml:"level" validate:"oneof=trace debug info warn warning error"`

	// Format is json or console.
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json console pretty"`

	// Output is stdout or stderr.
	Output string `mapstructure:"output" yaml:"output" validate:"oneof=stdout stderr"`
}

// MetricsConfig controls the Prometheus textfile written after each command.
type MetricsConfig struct {
	// Textfile is the .prom path; empty disables metrics output.
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// DigestConfig groups all stage configurations. It is built once at
// startup and passed explicitly into each stage.
type DigestConfig struct {
	Papers     PapersConfig     `mapstructure:"papers" yaml:"papers"`
	Sources    SourcesConfig    `mapstructure:"sources" yaml:"sources"`
	HTTP       HTTPConfig       `mapstructure:"http" yaml:"http"`
	Data       DataConfig       `mapstructure:"data" yaml:"data"`
	Download   DownloadConfig   `mapstructure:"download" yaml:"download"`
	Conversion ConversionConfig `mapstructure:"conversion" yaml:"conversion"`
	Publish    PublishConfig    `mapstructure:"wiki" yaml:"wiki"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}
