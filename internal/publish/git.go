// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// executor abstracts running git for testing. Run returns combined output.
type executor interface {
	Run(ctx context.Context, dir string, name string, args ...string) (string, error)
}

type osExecutor struct{}

func (osExecutor) Run(ctx context.Context, dir string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Wiki is a local working copy of a git-backed wiki.
type Wiki struct {
	Dir       string
	RemoteURL string

	exec executor
}

// NewWiki returns a wiki clone at dir tracking remote.
func NewWiki(dir, remote string) *Wiki {
	return &Wiki{Dir: dir, RemoteURL: remote, exec: osExecutor{}}
}

// RemoteURL returns override when set, else the SSH wiki URL of a GitHub
// "owner/name" repository.
func RemoteURL(repo, override string) string {
	if override != "" {
		return override
	}
	if repo == "" {
		return ""
	}
	return "git@github.com:" + repo + ".wiki.git"
}

// Sync brings the working copy up to date. An existing clone is pulled
// with rebase. Otherwise the remote is cloned; when that fails (a wiki
// with no pages cannot be cloned) an empty repository is initialized with
// the remote as origin.
func (w *Wiki) Sync(ctx context.Context) error {
	log := zerolog.Ctx(ctx)

	if _, err := os.Stat(filepath.Join(w.Dir, ".git")); err == nil {
		log.Info().Str("dir", w.Dir).Msg("pulling existing wiki clone")
		return w.git(ctx, w.Dir, "pull", "--rebase")
	}

	if w.RemoteURL == "" {
		return errors.New("wiki remote not configured")
	}
	if err := os.MkdirAll(filepath.Dir(w.Dir), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(w.Dir), err)
	}

	log.Info().Str("remote", w.RemoteURL).Msg("cloning wiki")
	cloneErr := w.git(ctx, "", "clone", w.RemoteURL, w.Dir)
	if cloneErr == nil {
		return nil
	}
	log.Warn().Err(cloneErr).Msg("clone failed, initializing empty wiki")

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", w.Dir, err)
	}
	if err := w.git(ctx, w.Dir, "init"); err != nil {
		return err
	}
	return w.git(ctx, w.Dir, "remote", "add", "origin", w.RemoteURL)
}

// CommitAndPush stages everything, commits with message, and pushes. It
// returns false without error when there was nothing to commit.
func (w *Wiki) CommitAndPush(ctx context.Context, message string) (bool, error) {
	if err := w.git(ctx, w.Dir, "add", "-A"); err != nil {
		return false, err
	}
	out, err := w.exec.Run(ctx, w.Dir, "git", "commit", "-m", message)
	if err != nil {
		if strings.Contains(out, "nothing to commit") {
			zerolog.Ctx(ctx).Info().Msg("nothing to commit")
			return false, nil
		}
		return false, fmt.Errorf("git commit: %w: %s", err, strings.TrimSpace(out))
	}
	if err := w.git(ctx, w.Dir, "push", "origin", "HEAD"); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Wiki) git(ctx context.Context, dir string, args ...string) error {
	out, err := w.exec.Run(ctx, dir, "git", args...)
	if err != nil {
		return fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(out))
	}
	return nil
}
