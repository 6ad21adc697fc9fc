// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// semanticAPIBase is the Semantic Scholar bulk search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search/bulk"

const semanticFields = "title,abstract,citationCount,openAccessPdf,publicationDate,externalIds"

// abstractPolicy strips all markup; some abstracts carry JATS or HTML tags.
var abstractPolicy = bluemonday.StrictPolicy()

// SemanticScholarSource runs a citation-sorted bulk search restricted to
// the window's publication dates. Signal is the citation count. Only
// records with an arXiv external ID are returned.
type SemanticScholarSource struct {
	Client    *http.Client
	UserAgent string
	Query     string
	Limit     int

	// APIKey is optional and sent as x-api-key when set.
	APIKey string
}

// Name returns the source identifier.
func (s *SemanticScholarSource) Name() string { return types.SourceSemanticScholar }

// Fetch issues one bulk search request. Any request or decode failure
// makes the source unavailable for this run.
func (s *SemanticScholarSource) Fetch(ctx context.Context, window Window) ([]types.PaperRecord, error) {
	start := window.End.AddDate(0, 0, -window.Days)
	params := url.Values{}
	params.Set("query", s.Query)
	params.Set("fields", semanticFields)
	params.Set("sort", "citationCount:desc")
	params.Set("publicationDateOrYear", start.Format("2006-01-02")+":"+window.End.Format("2006-01-02"))
	if s.Limit > 0 {
		params.Set("limit", strconv.Itoa(s.Limit))
	}

	headers := map[string]string{
		"User-Agent": s.UserAgent,
		"x-api-key":  s.APIKey,
	}

	var resp s2Response
	if err := httputil.GetJSON(ctx, s.Client, semanticAPIBase+"?"+params.Encode(), headers, &resp); err != nil {
		return nil, fmt.Errorf("semantic scholar: %v: %w", err, types.ErrSourceUnavailable)
	}

	var records []types.PaperRecord
	for _, p := range resp.Data {
		arxivID := strings.TrimSpace(p.ExternalIDs.ArXiv)
		if arxivID == "" {
			continue
		}
		r := types.PaperRecord{
			ID:        arxivID,
			Title:     strings.TrimSpace(p.Title),
			Abstract:  cleanAbstract(p.Abstract),
			Signal:    p.CitationCount,
			Published: p.PublicationDate,
			Source:    types.SourceSemanticScholar,
		}
		if p.OpenAccessPDF != nil {
			r.ContentURL = strings.TrimSpace(p.OpenAccessPDF.URL)
		}
		records = append(records, r)
		if s.Limit > 0 && len(records) >= s.Limit {
			break
		}
	}
	return records, nil
}

// cleanAbstract removes markup, decodes entities, and collapses whitespace.
func cleanAbstract(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(abstractPolicy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// Bulk search JSON structures.
type s2Response struct {
	Total int       `json:"total"`
	Token string    `json:"token"`
	Data  []s2Paper `json:"data"`
}

type s2Paper struct {
	Title           string        `json:"title"`
	Abstract        string        `json:"abstract"`
	CitationCount   float64       `json:"citationCount"`
	PublicationDate string        `json:"publicationDate"`
	OpenAccessPDF   *s2OpenAccess `json:"openAccessPdf"`
	ExternalIDs     s2ExternalIDs `json:"externalIds"`
}

type s2OpenAccess struct {
	URL string `json:"url"`
}

type s2ExternalIDs struct {
	ArXiv string `json:"ArXiv"`
}
