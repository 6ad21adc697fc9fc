//go:build mage

// Package main contains Mage build targets for paper-digest developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target when mage runs without arguments.
var Default = Build

// dataDirs lists the working directories the pipeline writes into.
var dataDirs = []string{
	"data/pdfs",
	"data/markdown",
	"data/analysis",
	"data/metrics",
	".secrets",
}

// Init creates the data directory layout.
func Init() error {
	for _, dir := range dataDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Data directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "paper-digest"
	cmdPkg  = "./cmd/paper-digest"
)

func binPath() string {
	return filepath.Join(binDir, binName)
}

// Build compiles the CLI binary into bin/, stamping the git version.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	ver, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		ver = "dev"
	}
	ldflags := "-X main.version=" + ver
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", binPath(), cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", binPath(), ver)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes the built binary.
func Clean() error {
	return sh.Rm(binDir)
}

// Stats prints Go production and test line counts per top-level directory.
func Stats() error {
	prod := map[string]int{}
	test := map[string]int{}
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != "." || d.Name() == "_examples" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return err
		}
		top := strings.SplitN(filepath.ToSlash(path), "/", 2)[0]
		if strings.HasSuffix(path, "_test.go") {
			test[top] += n
		} else {
			prod[top] += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	var totalProd, totalTest int
	for _, dir := range []string{"cmd", "internal", "pkg", "magefiles"} {
		fmt.Printf("%-10s prod %6d  test %6d\n", dir, prod[dir], test[dir])
		totalProd += prod[dir]
		totalTest += test[dir]
	}
	fmt.Printf("%-10s prod %6d  test %6d\n", "total", totalProd, totalTest)
	return nil
}

// countLines returns the number of non-blank lines in path.
func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	n := 0
	s := bufio.NewScanner(bytes.NewReader(data))
	for s.Scan() {
		if strings.TrimSpace(s.Text()) != "" {
			n++
		}
	}
	return n, s.Err()
}

// Pipeline targets run the built binary against the local data directory.
type Pipeline mg.Namespace

func (Pipeline) run(args ...string) error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath(), args...)
}

// Discover selects this week's papers.
func (p Pipeline) Discover() error { return p.run("discover") }

// Download fetches the selected PDFs.
func (p Pipeline) Download() error { return p.run("download") }

// Convert converts the downloaded PDFs to Markdown.
func (p Pipeline) Convert() error { return p.run("convert") }

// Preview renders the weekly page without pushing the wiki.
func (p Pipeline) Preview() error { return p.run("publish", "--dry-run") }

// Weekly runs every stage and publishes, writing metrics for the textfile collector.
func (p Pipeline) Weekly() error {
	return p.run("run", "--metrics-textfile", "data/metrics/paper_digest.prom")
}
