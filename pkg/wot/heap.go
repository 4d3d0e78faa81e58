package wot

import (
	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/proof"
)

// candidate is a pending (not yet settled) trust level proposal for one
// identity, ordered so the heap always pops the best currently-known
// candidate next: highest level first, then lowest cost, then lexicographic
// predecessor (spec.md §4.5 tie-break rule).
type candidate struct {
	id          identity.Id
	level       proof.Level
	cost        int
	predecessor identity.Id
}

type candidateHeap []candidate

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.level.Rank() != b.level.Rank() {
		return a.level.Rank() > b.level.Rank() // higher trust level has priority
	}
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	return a.predecessor < b.predecessor
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x interface{}) {
	*h = append(*h, x.(candidate))
}

func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
