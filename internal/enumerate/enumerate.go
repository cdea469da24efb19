// Package enumerate generates combinations-with-repetition of option indices
// and their sign-mask variants (spec §4.2, component C2).
package enumerate

import "github.com/optionstrat/engine/internal/optionmodel"

// Task is one (combination, sign assignment) unit of work for the
// aggregator.
type Task struct {
	Indices []int
	Signs   []optionmodel.Sign
}

// CombinationCount returns C(n+k-1, k), the number of non-decreasing
// k-tuples over {0..n-1}.
func CombinationCount(n, k int) int {
	if n <= 0 || k <= 0 {
		return 0
	}
	return binomial(n+k-1, k)
}

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := 1
	for i := 0; i < k; i++ {
		result = result * (n - i) / (i + 1)
	}
	return result
}

// Combinations emits every multiset of size k over {0..n-1} as a
// non-decreasing tuple, in canonical successor order: starting from all
// zeros, repeatedly find the rightmost index whose value is < n-1, increment
// it, and set every index to its right to that new value. It returns
// exactly C(n+k-1, k) tuples.
//
// Each emitted slice is freshly allocated; callers may retain it.
func Combinations(n, k int, yield func([]int) bool) {
	if n <= 0 || k <= 0 {
		return
	}

	tuple := make([]int, k)
	for {
		out := make([]int, k)
		copy(out, tuple)
		if !yield(out) {
			return
		}

		i := k - 1
		for i >= 0 && tuple[i] == n-1 {
			i--
		}
		if i < 0 {
			return
		}
		tuple[i]++
		for j := i + 1; j < k; j++ {
			tuple[j] = tuple[i]
		}
	}
}

// SignMasks emits every sign assignment for a k-leg combination, iterating a
// bitmask from 0 to 2^k-1: bit i of the mask decides the sign of leg i (+1
// if set, -1 if clear).
func SignMasks(k int, yield func([]optionmodel.Sign) bool) {
	if k <= 0 {
		return
	}
	total := 1 << uint(k)
	for mask := 0; mask < total; mask++ {
		signs := make([]optionmodel.Sign, k)
		for i := 0; i < k; i++ {
			if mask&(1<<uint(i)) != 0 {
				signs[i] = optionmodel.Long
			} else {
				signs[i] = optionmodel.Short
			}
		}
		if !yield(signs) {
			return
		}
	}
}

// Tasks enumerates every (tuple, mask) pair for leg count k over a universe
// of size n, in deterministic order: combinations in canonical successor
// order, each paired with masks from 0 to 2^k-1.
func Tasks(n, k int, yield func(Task) bool) {
	Combinations(n, k, func(indices []int) bool {
		cont := true
		SignMasks(k, func(signs []optionmodel.Sign) bool {
			if !yield(Task{Indices: indices, Signs: signs}) {
				cont = false
				return false
			}
			return true
		})
		return cont
	})
}

// TaskCount returns the total number of tasks for leg count k:
// C(n+k-1,k) * 2^k.
func TaskCount(n, k int) int {
	return CombinationCount(n, k) * (1 << uint(k))
}
