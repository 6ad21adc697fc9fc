// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import "strings"

// arxivPDFBase is the arXiv PDF endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivPDFBase = "https://arxiv.org/pdf/"

// PDFURL returns the canonical arXiv PDF location for a paper ID.
func PDFURL(id string) string {
	return arxivPDFBase + id
}

// Slug returns a filesystem-safe filename stem for an arXiv ID. Old-style
// IDs such as "hep-th/9901001" contain a slash.
func Slug(id string) string {
	return strings.NewReplacer("/", "_", ":", "_", " ", "_").Replace(strings.TrimSpace(id))
}
