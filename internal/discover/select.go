// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"fmt"
	"sort"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Select orders candidates by score, highest first, and keeps the top
// count. Equal scores keep their merge insertion order. An empty mapping
// returns ErrEmptySelection.
func Select(merged *Merged, count int) ([]types.Candidate, error) {
	if merged == nil || merged.Len() == 0 {
		return nil, fmt.Errorf("no eligible candidates after merge: %w", types.ErrEmptySelection)
	}

	cands := merged.Candidates()
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})

	if count > 0 && len(cands) > count {
		cands = cands[:count]
	}
	return cands, nil
}
