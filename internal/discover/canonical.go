// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"regexp"
	"strings"
)

// newStylePattern matches "2301.07041", "arXiv:2301.07041v2" and the
// abs/pdf URL forms. Group 1 is the ID without version.
var newStylePattern = regexp.MustCompile(`(?i)^(?:arxiv:)?(\d{4}\.\d{4,5})(?:v\d+)?(?:\.pdf)?$`)

// oldStylePattern matches pre-2007 IDs such as "hep-th/9901001v1".
var oldStylePattern = regexp.MustCompile(`(?i)^(?:arxiv:)?([a-z][a-z.-]*/\d{7})(?:v\d+)?$`)

// CanonicalID normalizes a source-native arXiv identifier: the "arXiv:"
// prefix, version suffix, and abs/pdf URL wrapper are removed. The second
// return is false when raw is not a recognizable arXiv identifier.
func CanonicalID(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	for _, marker := range []string{"/abs/", "/pdf/"} {
		if i := strings.Index(id, marker); i >= 0 {
			id = id[i+len(marker):]
			break
		}
	}
	id = strings.TrimSuffix(id, "/")

	if m := newStylePattern.FindStringSubmatch(id); m != nil {
		return m[1], true
	}
	if m := oldStylePattern.FindStringSubmatch(id); m != nil {
		return strings.ToLower(m[1]), true
	}
	return "", false
}
