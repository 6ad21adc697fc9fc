// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/internal/candidates"
	"github.com/pdiddy/paper-digest/internal/ledger"
	"github.com/pdiddy/paper-digest/internal/observability"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// setupState points the global app state at a temp data directory.
func setupState(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig := state
	state = app{
		cfg: types.DigestConfig{
			Data: types.DataConfig{
				Dir:         dir,
				PapersFile:  filepath.Join(dir, "papers.yaml"),
				HistoryFile: filepath.Join(dir, "history.yaml"),
				PDFDir:      filepath.Join(dir, "pdfs"),
				MarkdownDir: filepath.Join(dir, "markdown"),
				AnalysisDir: filepath.Join(dir, "analysis"),
				Ledger:      filepath.Join(dir, "ledger.db"),
			},
			Conversion: types.ConversionConfig{MinChars: 100},
			Publish: types.PublishConfig{
				CloneDir: filepath.Join(dir, "wiki"),
				Title:    "Weekly AI Paper Review",
			},
			Metrics: types.MetricsConfig{Textfile: filepath.Join(dir, "metrics", "digest.prom")},
		},
		log:     zerolog.Nop(),
		metrics: observability.NewMetrics(),
	}
	t.Cleanup(func() { state = orig })
	return dir
}

func testContext() context.Context {
	return zerolog.Nop().WithContext(context.Background())
}

func writePapers(t *testing.T, papers ...types.Candidate) {
	t.Helper()
	require.NoError(t, candidates.Write(state.cfg.Data.PapersFile, &candidates.File{Papers: papers}))
}

func TestConvertDegradesPapersWithoutPDF(t *testing.T) {
	setupState(t)
	writePapers(t,
		types.Candidate{ID: "2603.00001", Title: "Sparse Experts", Abstract: "We route tokens.", PDFPath: "x.stub.md", PDFTier: types.TierDegraded},
		types.Candidate{ID: "2603.00002", Title: "Dense Experts"},
	)

	require.NoError(t, runConvert(testContext(), nil))

	file, err := candidates.Read(state.cfg.Data.PapersFile)
	require.NoError(t, err)
	for _, p := range file.Papers {
		assert.Equal(t, types.TierDegraded, p.MarkdownTier, p.ID)
		assert.FileExists(t, p.MarkdownPath)
	}
	body, err := os.ReadFile(file.Papers[0].MarkdownPath)
	require.NoError(t, err)
	assert.Equal(t, "# Sparse Experts\n\n## Abstract\n\nWe route tokens.\n", string(body))
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestDownloadFailsWhenNoPDFFetched(t *testing.T) {
	setupState(t)
	state.client = &http.Client{Transport: failingTransport{}}
	writePapers(t,
		types.Candidate{ID: "2603.00001", Title: "Sparse Experts", Abstract: "We route tokens.", ContentURL: "https://example.org/a.pdf"},
		types.Candidate{ID: "2603.00002", Title: "Dense Experts", Abstract: "We do not."},
	)

	err := runDownload(testContext(), nil)
	assert.ErrorIs(t, err, types.ErrNoUsableOutput)

	file, rerr := candidates.Read(state.cfg.Data.PapersFile)
	require.NoError(t, rerr)
	for _, p := range file.Papers {
		assert.Equal(t, types.TierDegraded, p.PDFTier, p.ID)
		assert.FileExists(t, p.PDFPath, "stub still written")
	}
}

func TestConvertRerunKeepsDegradedTier(t *testing.T) {
	setupState(t)
	abstract := strings.Repeat("We route tokens through a sparse set of experts. ", 5)
	writePapers(t, types.Candidate{ID: "2603.00001", Title: "Sparse Experts", Abstract: abstract})

	for run := 1; run <= 2; run++ {
		require.NoError(t, runConvert(testContext(), nil))

		file, err := candidates.Read(state.cfg.Data.PapersFile)
		require.NoError(t, err)
		assert.Equal(t, types.TierDegraded, file.Papers[0].MarkdownTier, "run %d", run)
	}
}

func TestStagesNeedCandidates(t *testing.T) {
	setupState(t)
	ctx := testContext()

	for name, fn := range map[string]func() error{
		"download": func() error { return runDownload(ctx, nil) },
		"convert":  func() error { return runConvert(ctx, nil) },
		"publish":  func() error { return runPublish(ctx, true) },
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, fn(), types.ErrPreconditionMissing)
		})
	}

	writePapers(t)
	assert.ErrorIs(t, runConvert(ctx, nil), types.ErrPreconditionMissing, "empty list")
}

func TestConvertNoUsableOutput(t *testing.T) {
	setupState(t)
	// No title, abstract, or PDF: even the degraded document cannot be built.
	writePapers(t, types.Candidate{ID: "2603.00009"})

	err := runConvert(testContext(), nil)
	assert.ErrorIs(t, err, types.ErrNoUsableOutput)

	file, rerr := candidates.Read(state.cfg.Data.PapersFile)
	require.NoError(t, rerr)
	assert.Equal(t, types.TierFailed, file.Papers[0].MarkdownTier, "failure still recorded")
}

func TestPublishDryRun(t *testing.T) {
	dir := setupState(t)
	writePapers(t, types.Candidate{ID: "2603.00001", Title: "Sparse Experts", Abstract: "We route tokens.", Upvotes: 3})

	require.NoError(t, runPublish(testContext(), true))

	home, err := os.ReadFile(filepath.Join(dir, "wiki", "Home.md"))
	require.NoError(t, err)
	assert.Contains(t, string(home), "Weekly-AI-Paper-Review)")
}

func TestPublishNeedsRemote(t *testing.T) {
	setupState(t)
	writePapers(t, types.Candidate{ID: "1", Title: "T"})
	err := runPublish(testContext(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wiki.repo")
}

func TestTrackedRecordsRunAndMetrics(t *testing.T) {
	setupState(t)
	cmd := &cobra.Command{}
	cmd.SetContext(testContext())

	ok := tracked("convert", func(ctx context.Context, rec *recorder) error {
		rec.resolutions(ctx, "convert", []types.PipelineItem{{ID: "1", Tier: types.TierDegraded, Output: "1.md"}})
		return nil
	})
	require.NoError(t, ok(cmd, nil))

	boom := errors.New("boom")
	bad := tracked("download", func(context.Context, *recorder) error { return boom })
	assert.ErrorIs(t, bad(cmd, nil), boom)

	l, err := ledger.Open(state.cfg.Data.Ledger)
	require.NoError(t, err)
	defer l.Close()
	runs, err := l.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	byCommand := map[string]ledger.Run{}
	for _, r := range runs {
		byCommand[r.Command] = r
	}
	assert.Equal(t, ledger.StatusSucceeded, byCommand["convert"].Status)
	assert.Equal(t, ledger.StatusFailed, byCommand["download"].Status)
	assert.Equal(t, "boom", byCommand["download"].Detail)

	counts, err := l.TierCounts(context.Background(), byCommand["convert"].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["convert"][types.TierDegraded])

	prom, err := os.ReadFile(state.cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `paper_digest_last_success_timestamp_seconds{command="convert"}`)
	assert.NotContains(t, string(prom), `command="download"`)
}

func TestListRuns(t *testing.T) {
	setupState(t)
	l, err := ledger.Open(state.cfg.Data.Ledger)
	require.NoError(t, err)
	defer l.Close()

	var buf bytes.Buffer
	require.NoError(t, listRuns(context.Background(), &buf, l, 0))
	assert.Equal(t, "no runs recorded\n", buf.String())

	ctx := context.Background()
	id, err := l.StartRun(ctx, "run")
	require.NoError(t, err)
	require.NoError(t, l.RecordResolutions(ctx, id, "download", []types.PipelineItem{
		{ID: "1", Tier: types.TierPrimary}, {ID: "2", Tier: types.TierDegraded},
	}))
	require.NoError(t, l.FinishRun(ctx, id, nil))

	buf.Reset()
	require.NoError(t, listRuns(ctx, &buf, l, 0))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "STARTED"))
	assert.Contains(t, lines[1], "succeeded")
	assert.Contains(t, lines[1], "download p1/s0/d1/f0")
	assert.Contains(t, lines[1], id)
}

func TestFormatTiers(t *testing.T) {
	assert.Equal(t, "-", formatTiers(nil))
	got := formatTiers(map[string]map[types.Tier]int{
		"download": {types.TierPrimary: 2},
		"convert":  {types.TierSecondary: 1, types.TierFailed: 1},
	})
	assert.Equal(t, "convert p0/s1/d0/f1 download p2/s0/d0/f0", got)
}
