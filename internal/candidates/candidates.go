// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package candidates reads and writes the selected-papers file that links
// the pipeline stages. Discover writes it; download and convert record
// their per-paper outputs into it; publish reads it.
package candidates

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-digest/internal/fileutil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// File is the on-disk representation of one run's selection.
type File struct {
	GeneratedAt time.Time         `yaml:"generated_at"`
	Window      Window            `yaml:"window"`
	Summary     Summary           `yaml:"summary"`
	Papers      []types.Candidate `yaml:"papers"`
}

// Window records the lookback dates that produced the selection.
type Window struct {
	Start string `yaml:"start,omitempty"`
	End   string `yaml:"end,omitempty"`
}

// Summary stores per-source statistics of the discover run.
type Summary struct {
	Fetched            map[string]int `yaml:"fetched,omitempty"`
	SourceErrors       []string       `yaml:"source_errors,omitempty"`
	Merged             int            `yaml:"merged"`
	PreviouslySelected int            `yaml:"previously_selected"`
}

// Write saves f to path through a temp file.
func Write(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling candidates: %w", err)
	}
	if err := fileutil.WriteAtomic(path, data); err != nil {
		return fmt.Errorf("writing candidates %s: %w", path, err)
	}
	return nil
}

// Read loads the candidates file. A missing file wraps
// ErrPreconditionMissing. A bare list of papers, as older runs wrote it,
// is accepted too.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s not found, run discover first: %w", path, types.ErrPreconditionMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("reading candidates %s: %w", path, err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing candidates %s: %w", path, err)
	}

	var f File
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		if err := node.Content[0].Decode(&f.Papers); err != nil {
			return nil, fmt.Errorf("parsing candidates %s: %w", path, err)
		}
		return &f, nil
	}
	if err := node.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing candidates %s: %w", path, err)
	}
	return &f, nil
}

// Update records stage results on the matching papers by ID. Items that do
// not match a paper are ignored.
func (f *File) Update(items []types.PipelineItem, apply func(c *types.Candidate, item types.PipelineItem)) int {
	byID := make(map[string]types.PipelineItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	n := 0
	for i := range f.Papers {
		if it, ok := byID[f.Papers[i].ID]; ok {
			apply(&f.Papers[i], it)
			n++
		}
	}
	return n
}

// IDs returns the paper IDs in file order.
func (f *File) IDs() []string {
	ids := make([]string, 0, len(f.Papers))
	for _, c := range f.Papers {
		ids = append(ids, c.ID)
	}
	return ids
}
