package watch

import (
	"sort"

	"washbot/internal/source"
)

// Diff returns the ids present in both snapshots whose status differs,
// ascending. Ids present in only one snapshot are catalog drift, not status
// changes, and never appear in the result. The order of map iteration does
// not matter: each changed id appears exactly once.
func Diff(prev, cur source.Snapshot) []int {
	var changed []int
	for id, was := range prev {
		if now, ok := cur[id]; ok && now != was {
			changed = append(changed, id)
		}
	}
	sort.Ints(changed)
	return changed
}
