// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"errors"
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// TitleAbstract builds the degraded substitute shared by every stage: a
// Markdown document holding only the paper's title and abstract. It fails
// when both are empty.
func TitleAbstract(item types.PipelineItem) ([]byte, error) {
	title := strings.TrimSpace(item.Title)
	abstract := strings.TrimSpace(item.Abstract)
	if title == "" && abstract == "" {
		return nil, errors.New("no title or abstract")
	}
	if title == "" {
		title = item.ID
	}
	if abstract == "" {
		abstract = "N/A"
	}
	return []byte("# " + title + "\n\n## Abstract\n\n" + abstract + "\n"), nil
}
