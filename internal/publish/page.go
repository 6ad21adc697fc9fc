// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

const homeMarker = "## Weekly Reviews"

// PageName returns the wiki page name for a date, e.g.
// "2026-03-10-Weekly-AI-Paper-Review".
func PageName(title string, date time.Time) string {
	return date.Format("2006-01-02") + "-" + strings.Join(strings.Fields(title), "-")
}

// BuildPage renders the weekly review. Each paper gets a section with its
// arXiv links and signals, followed by its analysis file from analysisDir
// when one exists, or else its abstract.
func BuildPage(papers []types.Candidate, title string, date, generated time.Time, analysisDir string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - %s\n\n", title, date.Format("2006-01-02"))
	fmt.Fprintf(&b, "> Auto-generated on %s UTC\n\n---\n\n", generated.UTC().Format("2006-01-02 15:04"))

	for i, p := range papers {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, p.Title)
		fmt.Fprintf(&b, "- **arXiv**: [%s](https://arxiv.org/abs/%s)\n", p.ID, p.ID)
		fmt.Fprintf(&b, "- **PDF**: [Link](https://arxiv.org/pdf/%s.pdf)\n", p.ID)
		if p.Upvotes > 0 {
			fmt.Fprintf(&b, "- **HuggingFace Upvotes**: %s\n", formatCount(p.Upvotes))
		}
		if p.Citations > 0 {
			fmt.Fprintf(&b, "- **Citations**: %s\n", formatCount(p.Citations))
		}
		b.WriteString("\n")

		analysis, err := readAnalysis(analysisDir, p.ID)
		if err != nil {
			return "", err
		}
		if analysis != "" {
			b.WriteString(analysis)
		} else {
			abstract := strings.TrimSpace(p.Abstract)
			if abstract == "" {
				abstract = "N/A"
			}
			fmt.Fprintf(&b, "### Abstract\n\n%s", abstract)
		}
		b.WriteString("\n\n---\n\n")
	}
	return b.String(), nil
}

// readAnalysis returns the trimmed <dir>/<id>_analysis.md, or "" when the
// directory is unset or the file does not exist.
func readAnalysis(dir, id string) (string, error) {
	if dir == "" {
		return "", nil
	}
	name := strings.ReplaceAll(id, "/", "_") + "_analysis.md"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading analysis for %s: %w", id, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// UpdateHome returns home with a link to pageName inserted directly under
// the Weekly Reviews heading. The second return is false when the link was
// already present and home is unchanged. An empty home gets a fresh index.
func UpdateHome(home, pageName string, date time.Time) (string, bool) {
	if home == "" {
		home = "# Research Wiki\n\nWeekly AI paper review archive.\n\n" + homeMarker + "\n\n"
	}
	entry := fmt.Sprintf("- [%s Weekly Review](%s)", date.Format("2006-01-02"), pageName)
	if strings.Contains(home, entry) {
		return home, false
	}

	idx := strings.Index(home, homeMarker)
	if idx < 0 {
		if !strings.HasSuffix(home, "\n") {
			home += "\n"
		}
		return home + "\n" + homeMarker + "\n\n" + entry + "\n", true
	}
	idx += len(homeMarker)
	return home[:idx] + "\n\n" + entry + home[idx:], true
}
