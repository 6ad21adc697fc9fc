// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-digest/pkg/types"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "state", "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

// stepClock makes now advance one minute per call.
func stepClock(t *testing.T) {
	t.Helper()
	base := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	calls := 0
	orig := now
	now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}
	t.Cleanup(func() { now = orig })
}

func TestOpenCreatesSchema(t *testing.T) {
	l := testLedger(t)
	for _, table := range []string{"runs", "selections", "resolutions"} {
		var n int
		err := l.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestOpenIsReentrant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	for i := 0; i < 2; i++ {
		l, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		l.Close()
	}
}

func TestRunLifecycle(t *testing.T) {
	stepClock(t)
	l := testLedger(t)
	ctx := context.Background()

	ok, err := l.StartRun(ctx, "discover")
	if err != nil {
		t.Fatal(err)
	}
	bad, err := l.StartRun(ctx, "download")
	if err != nil {
		t.Fatal(err)
	}
	if ok == bad || len(ok) != 36 {
		t.Fatalf("run IDs %q %q", ok, bad)
	}

	if err := l.FinishRun(ctx, ok, nil); err != nil {
		t.Fatal(err)
	}
	if err := l.FinishRun(ctx, bad, errors.New("no usable output")); err != nil {
		t.Fatal(err)
	}

	runs, err := l.ListRuns(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != bad || runs[1].ID != ok {
		t.Errorf("runs not newest first: %s, %s", runs[0].Command, runs[1].Command)
	}
	if runs[0].Status != StatusFailed || runs[0].Detail != "no usable output" {
		t.Errorf("failed run = %+v", runs[0])
	}
	if runs[1].Status != StatusSucceeded || runs[1].Finished.IsZero() {
		t.Errorf("succeeded run = %+v", runs[1])
	}
	if !runs[1].Finished.After(runs[1].Started) {
		t.Errorf("finished %v not after started %v", runs[1].Finished, runs[1].Started)
	}

	limited, err := l.ListRuns(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d runs", len(limited))
	}
}

func TestListRunsInProgress(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()
	if _, err := l.StartRun(ctx, "run"); err != nil {
		t.Fatal(err)
	}
	runs, err := l.ListRuns(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if runs[0].Status != StatusRunning || !runs[0].Finished.IsZero() {
		t.Errorf("in-progress run = %+v", runs[0])
	}
}

func TestFinishUnknownRun(t *testing.T) {
	l := testLedger(t)
	if err := l.FinishRun(context.Background(), "nope", nil); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestRecordSelection(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()
	id, _ := l.StartRun(ctx, "discover")

	selected := []types.Candidate{
		{ID: "2603.00002", Title: "B", Score: 0.7, Sources: []string{types.SourceHuggingFace, types.SourceSemanticScholar}},
		{ID: "2603.00001", Title: "A", Score: 0.6, Sources: []string{types.SourceHuggingFace}},
	}
	if err := l.RecordSelection(ctx, id, selected); err != nil {
		t.Fatal(err)
	}

	got, err := l.Selections(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d selections", len(got))
	}
	if got[0].Rank != 1 || got[0].PaperID != "2603.00002" || got[0].Score != 0.7 {
		t.Errorf("first selection = %+v", got[0])
	}
	if len(got[0].Sources) != 2 || got[0].Sources[1] != types.SourceSemanticScholar {
		t.Errorf("sources = %v", got[0].Sources)
	}
	if got[1].Rank != 2 || got[1].Title != "A" {
		t.Errorf("second selection = %+v", got[1])
	}
}

func TestRecordSelectionUnknownRun(t *testing.T) {
	l := testLedger(t)
	err := l.RecordSelection(context.Background(), "missing", []types.Candidate{{ID: "1"}})
	if err == nil {
		t.Error("expected foreign key violation")
	}
}

func TestRecordResolutions(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()
	id, _ := l.StartRun(ctx, "run")

	download := []types.PipelineItem{
		{ID: "1", Tier: types.TierPrimary, Output: "pdf/1.pdf"},
		{ID: "2", Tier: types.TierDegraded, Output: "pdf/2.stub.md"},
		{ID: "3", Tier: types.TierPrimary, Output: "pdf/3.pdf", Skipped: true},
	}
	convert := []types.PipelineItem{
		{ID: "1", Tier: types.TierSecondary, Output: "md/1.md"},
		{ID: "2", Tier: types.TierFailed},
	}
	if err := l.RecordResolutions(ctx, id, "download", download); err != nil {
		t.Fatal(err)
	}
	if err := l.RecordResolutions(ctx, id, "convert", convert); err != nil {
		t.Fatal(err)
	}
	// Re-recording replaces rather than duplicates.
	if err := l.RecordResolutions(ctx, id, "convert", convert[:1]); err != nil {
		t.Fatal(err)
	}

	res, err := l.Resolutions(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 5 {
		t.Fatalf("got %d resolutions, want 5", len(res))
	}
	if res[0].Stage != "convert" || res[0].PaperID != "1" || res[0].Tier != types.TierSecondary {
		t.Errorf("first resolution = %+v", res[0])
	}
	if !res[4].Skipped || res[4].PaperID != "3" {
		t.Errorf("last resolution = %+v", res[4])
	}

	counts, err := l.TierCounts(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if counts["download"][types.TierPrimary] != 2 || counts["download"][types.TierDegraded] != 1 {
		t.Errorf("download counts = %v", counts["download"])
	}
	if counts["convert"][types.TierFailed] != 1 || counts["convert"][types.TierSecondary] != 1 {
		t.Errorf("convert counts = %v", counts["convert"])
	}
}

func TestExport(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()
	id, _ := l.StartRun(ctx, "discover")
	if err := l.RecordSelection(ctx, id, []types.Candidate{{ID: "1", Title: "T", Score: 1, Sources: []string{"huggingface"}}}); err != nil {
		t.Fatal(err)
	}
	if err := l.FinishRun(ctx, id, nil); err != nil {
		t.Fatal(err)
	}

	var yb bytes.Buffer
	if err := l.Export(ctx, &yb, "yaml", 0); err != nil {
		t.Fatal(err)
	}
	var fromYAML []Run
	if err := yaml.Unmarshal(yb.Bytes(), &fromYAML); err != nil {
		t.Fatalf("invalid YAML export: %v\n%s", err, yb.String())
	}
	if len(fromYAML) != 1 || len(fromYAML[0].Selections) != 1 || fromYAML[0].Selections[0].PaperID != "1" {
		t.Errorf("YAML export = %+v", fromYAML)
	}

	var jb bytes.Buffer
	if err := l.Export(ctx, &jb, "json", 0); err != nil {
		t.Fatal(err)
	}
	var fromJSON []Run
	if err := json.Unmarshal(jb.Bytes(), &fromJSON); err != nil {
		t.Fatal(err)
	}
	if len(fromJSON) != 1 || fromJSON[0].Status != StatusSucceeded {
		t.Errorf("JSON export = %+v", fromJSON)
	}

	if err := l.Export(ctx, &jb, "xml", 0); err == nil || !strings.Contains(err.Error(), "xml") {
		t.Errorf("unknown format err = %v", err)
	}
}

func TestExportEmpty(t *testing.T) {
	l := testLedger(t)
	var buf bytes.Buffer
	if err := l.Export(context.Background(), &buf, "json", 0); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty export = %q", buf.String())
	}
}
