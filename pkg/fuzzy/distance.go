// Package fuzzy computes capped edit distances for typo-tolerant matching.
//
// The matcher calls Distance once per (query, field) pair on every keystroke,
// so the computation gives up as soon as the result is known to exceed the cap
// instead of filling the whole dynamic-programming table.
package fuzzy

import (
	"github.com/bastiangx/typeahead/internal/utils"
)

// Distance returns the Levenshtein distance between the normalized forms of a
// and b, or maxDist+1 once the distance is proven to exceed maxDist.
// A negative maxDist is treated as 0.
func Distance(a, b string, maxDist int) int {
	return DistanceRunes([]rune(utils.Normalize(a)), []rune(utils.Normalize(b)), maxDist)
}

// DistanceRunes is Distance over already-normalized rune slices.
func DistanceRunes(a, b []rune, maxDist int) int {
	d, _ := bounded(a, b, maxDist)
	return d
}

// bounded also reports how many DP rows were computed.
func bounded(a, b []rune, maxDist int) (dist, rows int) {
	if maxDist < 0 {
		maxDist = 0
	}
	n, m := len(a), len(b)
	if abs(n-m) > maxDist {
		return maxDist + 1, 0
	}
	if n == 0 || m == 0 {
		// length difference is already within maxDist
		return max(n, m), 0
	}
	if equalRunes(a, b) {
		return 0, 0
	}

	// Keep the shorter string on the row axis
	if m > n {
		a, b = b, a
		n, m = m, n
	}

	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}

	for i := 1; i <= n; i++ {
		rows++
		cur[0] = i
		rowMin := cur[0]
		ca := a[i-1]
		for j := 1; j <= m; j++ {
			cost := 1
			if ca == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if cur[j] < rowMin {
				rowMin = cur[j]
			}
		}
		if rowMin > maxDist {
			return maxDist + 1, rows
		}
		prev, cur = cur, prev
	}

	if prev[m] > maxDist {
		return maxDist + 1, rows
	}
	return prev[m], rows
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
