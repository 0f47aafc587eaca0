package deadlock

import (
	"sort"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
)

type Number interface {
	constraints.Integer | constraints.Float
}

func sum[T Number](list []T) T {
	var total T
	for _, v := range list {
		total += v
	}
	return total
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	sort.Strings(keys)
	return keys
}

func cloneCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	maps.Copy(out, m)
	return out
}
