// Package selector keeps the top R candidates by score using a bounded
// min-heap, so a selection of r entries never holds more than r heap items
// regardless of pool size (spec §4.7, component C7).
package selector

import "container/heap"

// Ranked is one selected candidate: its original pool index, its score, and
// its final 1-based rank within the selection.
type Ranked struct {
	Index int
	Score float64
	Rank  int
}

// item is a heap entry. Ties break on the smaller original index sorting
// first in the final descending order, which the heap achieves by treating
// a smaller index as "greater" whenever scores tie — so the index with
// larger score, or equal score and smaller index, survives eviction.
type item struct {
	index int
	score float64
}

type minHeap []item

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	// Equal scores: the larger original index is the "smaller" heap element
	// so it gets evicted first, leaving the lower index (processed earlier)
	// as the stable survivor.
	return h[i].index > h[j].index
}
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(item)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// TopR scans scores (indexed 0..len(scores)-1) and returns the r
// highest-scoring entries, ranked 1..len descending, ties broken by the
// smaller original index. If r >= len(scores), every candidate is returned.
func TopR(scores []float64, r int) []Ranked {
	if r <= 0 || len(scores) == 0 {
		return nil
	}
	h := &minHeap{}
	heap.Init(h)
	for i, s := range scores {
		if h.Len() < r {
			heap.Push(h, item{index: i, score: s})
			continue
		}
		worst := (*h)[0]
		if s > worst.score || (s == worst.score && i < worst.index) {
			heap.Pop(h)
			heap.Push(h, item{index: i, score: s})
		}
	}

	out := make([]Ranked, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		top := heap.Pop(h).(item)
		out[i] = Ranked{Index: top.index, Score: top.score}
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
