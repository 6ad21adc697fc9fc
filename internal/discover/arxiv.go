// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// Hydrator fills missing titles and abstracts of selected candidates from
// arXiv metadata. Semantic Scholar omits the abstract for some papers.
type Hydrator struct {
	Client    *http.Client
	UserAgent string
}

// Hydrate looks up every candidate with an empty title or abstract in one
// id_list query and returns a new slice with the gaps filled, plus the
// number of candidates changed. Lookup failures are logged and leave the
// candidates as they were.
func (h *Hydrator) Hydrate(ctx context.Context, cands []types.Candidate) ([]types.Candidate, int) {
	out := make([]types.Candidate, len(cands))
	copy(out, cands)

	var ids []string
	for _, c := range out {
		if c.Title == "" || c.Abstract == "" {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		return out, 0
	}

	feed, err := h.lookup(ctx, ids)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int("papers", len(ids)).Msg("arXiv hydration failed")
		return out, 0
	}

	byID := make(map[string]arxivEntry, len(feed.Entries))
	for _, e := range feed.Entries {
		if id := extractArxivID(e.ID); id != "" {
			byID[id] = e
		}
	}

	filled := 0
	for i := range out {
		e, ok := byID[out[i].ID]
		if !ok {
			continue
		}
		before := out[i]
		out[i].Title = coalesce(out[i].Title, collapse(e.Title))
		out[i].Abstract = coalesce(out[i].Abstract, collapse(e.Summary))
		out[i].Published = coalesce(out[i].Published, e.Published)
		if out[i].Title != before.Title || out[i].Abstract != before.Abstract {
			filled++
		}
	}
	return out, filled
}

func (h *Hydrator) lookup(ctx context.Context, ids []string) (*arxivFeed, error) {
	u := fmt.Sprintf("%s?id_list=%s&max_results=%d", arxivAPIBase, url.QueryEscape(strings.Join(ids, ",")), len(ids))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", h.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, h.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return &feed, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" yields "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

// collapse trims and folds the line breaks arXiv puts in titles and summaries.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
