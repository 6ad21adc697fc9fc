// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists the set of paper identifiers selected by
// previous runs so they are never selected again.
package history

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-digest/internal/fileutil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Load reads the history file at path. A missing file is the valid initial
// state and yields an empty set. The file is a YAML sequence of IDs; a
// JSON array written by older runs parses as well.
func Load(path string) (*types.HistorySet, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return types.NewHistorySet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history %s: %w", path, err)
	}

	var ids []string
	if err := yaml.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parsing history %s: %w", path, err)
	}
	return types.NewHistorySet(ids...), nil
}

// Save writes the full set to path in sorted order, replacing any previous
// file. The write goes through a temp file in the same directory so an
// interrupted run never leaves a truncated history behind.
func Save(path string, set *types.HistorySet) error {
	data, err := yaml.Marshal(set.Sorted())
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}
	if err := fileutil.WriteAtomic(path, data); err != nil {
		return fmt.Errorf("writing history %s: %w", path, err)
	}
	return nil
}
