package math

import (
	"sort"
	"strconv"
)

// Format formats a float in its shortest decimal representation.
func Format(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Where returns the ascending indices of the values that satisfy the predicate.
func Where(ff []float64, predicate func(f float64) bool) []int {
	ii := make([]int, 0, len(ff))
	for i, f := range ff {
		if predicate(f) {
			ii = append(ii, i)
		}
	}
	return ii
}

// Top returns the ascending indices of the k largest values.
// Ties are broken in favour of the lower index.
func Top(ff []float64, k int) []int {
	if k > len(ff) {
		k = len(ff)
	}
	if k < 0 {
		k = 0
	}
	order := make([]int, len(ff))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return ff[order[i]] > ff[order[j]]
	})
	top := append([]int{}, order[:k]...)
	sort.Ints(top)
	return top
}

// Range returns the indices [0, n).
func Range(n int) []int {
	ii := make([]int, n)
	for i := range ii {
		ii[i] = i
	}
	return ii
}

// Complement returns the ascending indices in [0, n) that are not part of the given ones.
func Complement(n int, ii []int) []int {
	excluded := make(map[int]bool, len(ii))
	for _, i := range ii {
		excluded[i] = true
	}
	cc := make([]int, 0, n-len(excluded))
	for i := 0; i < n; i++ {
		if !excluded[i] {
			cc = append(cc, i)
		}
	}
	return cc
}
