package analyze

import (
	"bytes"
	"container/heap"
	"sort"

	"github.com/google/uuid"
)

// TopN returns the n products with the highest counts, highest first. Equal
// counts are ordered by product id.
func TopN(counts map[uuid.UUID]uint64, n int) []ProductCount {
	if n <= 0 || len(counts) == 0 {
		return nil
	}

	h := make(productHeap, 0, n+1)
	for id, count := range counts {
		pc := ProductCount{ProductID: id, Count: count}
		if len(h) < n {
			heap.Push(&h, pc)
			continue
		}
		if ranksAbove(pc, h[0]) {
			h[0] = pc
			heap.Fix(&h, 0)
		}
	}

	top := []ProductCount(h)
	sort.Slice(top, func(i, j int) bool { return ranksAbove(top[i], top[j]) })
	return top
}

func ranksAbove(a, b ProductCount) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	return bytes.Compare(a.ProductID[:], b.ProductID[:]) < 0
}

// productHeap is a min-heap whose root is the lowest-ranked product kept.
type productHeap []ProductCount

func (h productHeap) Len() int           { return len(h) }
func (h productHeap) Less(i, j int) bool { return ranksAbove(h[j], h[i]) }
func (h productHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *productHeap) Push(x any) { *h = append(*h, x.(ProductCount)) }

func (h *productHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
