package patient

import (
	"slices"
	"strings"
)

// Reconcile merges record batches into the final report list.
//
// Batches are concatenated in argument order and deduplicated by identifier,
// keeping the first record seen for each one (records with an empty
// identifier share a single group). The survivors are then sorted by name
// using ordinal comparison; records with equal names keep their relative
// order. The input slices are never modified or aliased.
func Reconcile(batches ...[]Record) []Record {
	total := 0
	for _, b := range batches {
		total += len(b)
	}

	seen := make(map[string]struct{}, total)
	out := make([]Record, 0, total)
	for _, batch := range batches {
		for _, r := range batch {
			if _, dup := seen[r.Identifier]; dup {
				continue
			}
			seen[r.Identifier] = struct{}{}
			out = append(out, r)
		}
	}

	slices.SortStableFunc(out, func(a, b Record) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
