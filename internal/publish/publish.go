// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish renders the weekly review page for the selected papers,
// links it from the wiki's Home page, and pushes the wiki.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-digest/internal/fileutil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Options configures one publish run.
type Options struct {
	Title       string
	AnalysisDir string

	// DryRun writes the page and Home.md into the wiki directory without
	// running git.
	DryRun bool

	// Date is the review date; zero means today.
	Date time.Time
}

// Result describes what a publish run did.
type Result struct {
	PageName    string
	PagePath    string
	HomeUpdated bool
	Committed   bool
}

// Publish syncs the wiki, writes the weekly page and Home.md, and commits
// and pushes unless opts.DryRun is set.
func Publish(ctx context.Context, wiki *Wiki, papers []types.Candidate, opts Options) (Result, error) {
	log := zerolog.Ctx(ctx)
	if len(papers) == 0 {
		return Result{}, fmt.Errorf("no papers to publish: %w", types.ErrPreconditionMissing)
	}

	generated := time.Now()
	date := opts.Date
	if date.IsZero() {
		date = generated
	}

	if !opts.DryRun {
		if err := wiki.Sync(ctx); err != nil {
			return Result{}, fmt.Errorf("syncing wiki: %w", err)
		}
	}

	res := Result{PageName: PageName(opts.Title, date)}
	res.PagePath = filepath.Join(wiki.Dir, res.PageName+".md")

	page, err := BuildPage(papers, opts.Title, date, generated, opts.AnalysisDir)
	if err != nil {
		return res, err
	}
	if err := fileutil.WriteAtomic(res.PagePath, []byte(page)); err != nil {
		return res, fmt.Errorf("writing page: %w", err)
	}
	log.Info().Str("path", res.PagePath).Int("papers", len(papers)).Msg("weekly page written")

	homePath := filepath.Join(wiki.Dir, "Home.md")
	home, err := os.ReadFile(homePath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return res, fmt.Errorf("reading Home.md: %w", err)
	}
	updated, changed := UpdateHome(string(home), res.PageName, date)
	if changed {
		if err := fileutil.WriteAtomic(homePath, []byte(updated)); err != nil {
			return res, fmt.Errorf("writing Home.md: %w", err)
		}
		res.HomeUpdated = true
		log.Info().Msg("Home.md updated")
	} else {
		log.Info().Str("page", res.PageName).Msg("Home.md already links page")
	}

	if opts.DryRun {
		log.Info().Msg("dry run, skipping git")
		return res, nil
	}

	res.Committed, err = wiki.CommitAndPush(ctx, opts.Title+" - "+date.Format("2006-01-02"))
	if err != nil {
		return res, fmt.Errorf("pushing wiki: %w", err)
	}
	return res, nil
}
