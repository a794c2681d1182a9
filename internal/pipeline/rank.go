package pipeline

import (
	"slices"

	"autoapply-engine/internal/domain"
)

// Merge concatenates partitions in order, keeping the first posting seen for
// each id.
func Merge(parts ...[]domain.Posting) []domain.Posting {
	seen := make(map[string]struct{})
	var out []domain.Posting
	for _, part := range parts {
		for _, p := range part {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Rank sorts postings by ascending response count in place. Unknown counts go
// last; ties keep their order.
func Rank(postings []domain.Posting) {
	slices.SortStableFunc(postings, func(a, b domain.Posting) int {
		switch {
		case a.Responses == nil && b.Responses == nil:
			return 0
		case a.Responses == nil:
			return 1
		case b.Responses == nil:
			return -1
		default:
			return *a.Responses - *b.Responses
		}
	})
}
