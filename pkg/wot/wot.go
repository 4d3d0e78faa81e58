// Package wot implements the Web-of-Trust propagation engine of spec.md
// §4.5: starting from a root identity, compute each reachable identity's
// effective trust level by a Dijkstra-style fixpoint over the latest trust
// edges in the proof store, with level degradation along paths, a distrust
// cutoff, and override suppression.
package wot

import (
	"container/heap"

	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/proof"
)

// Source supplies the latest-date, per-subject trust edges authored by an
// identity. *github.com/crev-dev/go-crev/pkg/store.Store satisfies this
// directly; tests use a plain map-backed fake.
type Source interface {
	TrustEdgesFrom(id identity.Id) []proof.TrustEdge
}

// Policy parameterizes one propagation run (spec.md §4.5).
type Policy struct {
	Depth              int
	HighCost           int
	MediumCost         int
	LowCost            int
	DistrustRedundancy int // default 1; a zero value is treated as 1, see redundancy
}

func (p Policy) costFor(level proof.Level) int {
	switch level {
	case proof.LevelHigh:
		return p.HighCost
	case proof.LevelMedium:
		return p.MediumCost
	case proof.LevelLow:
		return p.LowCost
	default:
		return 0
	}
}

// DefaultPolicy mirrors cargo-crev's own distance defaults: high-trust edges
// are free to cross, medium costs one hop, low costs enough that a handful
// of low-trust hops already exhausts the default depth.
func DefaultPolicy() Policy {
	return Policy{Depth: 10, HighCost: 0, MediumCost: 1, LowCost: 6, DistrustRedundancy: 1}
}

func (p Policy) redundancy() int {
	if p.DistrustRedundancy <= 0 {
		return 1
	}
	return p.DistrustRedundancy
}

// Result is the output of one Propagate call: effective trust level per
// reached identity (the root included, at LevelHigh) plus the cumulative
// cost it was reached at, for callers that want to explain a result.
type Result struct {
	Level map[identity.Id]proof.Level
	Cost  map[identity.Id]int
}

// EffectiveTrust looks up id's effective level, or LevelNone if id was never
// reached.
func (r Result) EffectiveTrust(id identity.Id) proof.Level {
	if l, ok := r.Level[id]; ok {
		return l
	}
	return proof.LevelNone
}

// Propagate runs the WoT fixpoint from root against src under policy.
func Propagate(src Source, root identity.Id, policy Policy) Result {
	p := &propagator{
		src:        src,
		policy:     policy,
		settled:    make(map[identity.Id]bool),
		level:      make(map[identity.Id]proof.Level),
		cost:       make(map[identity.Id]int),
		distrust:   make(map[identity.Id]int),
		suppressed: make(map[identity.Id]map[identity.Id]bool),
		queue:      make(candidateHeap, 0),
	}

	p.settle(root, proof.LevelHigh, 0)
	p.expand(root)

	for p.queue.Len() > 0 {
		item := heap.Pop(&p.queue).(candidate)
		if p.settled[item.id] {
			continue // stale entry for a node settled via a better path
		}
		p.settle(item.id, item.level, item.cost)
		p.expand(item.id)
	}

	return Result{Level: p.level, Cost: p.cost}
}

type propagator struct {
	src    Source
	policy Policy

	settled map[identity.Id]bool
	level   map[identity.Id]proof.Level
	cost    map[identity.Id]int

	distrust map[identity.Id]int // per-subject count of distrust votes from reached identities

	// suppressed[subject][source] is set once some already-settled identity's
	// trust proof for subject names source in its override list (spec.md
	// §4.5 step 7). Edges from a suppressed source toward that subject are
	// ignored from then on.
	suppressed map[identity.Id]map[identity.Id]bool

	queue candidateHeap
}

func (p *propagator) settle(id identity.Id, level proof.Level, cost int) {
	p.settled[id] = true
	p.level[id] = level
	p.cost[id] = cost
}

func (p *propagator) isSuppressed(subject, source identity.Id) bool {
	set := p.suppressed[subject]
	return set != nil && set[source]
}

// expand processes every outgoing trust edge of the just-settled identity
// id: recording override suppressions, counting distrust votes (fixing a
// subject at distrust once the redundancy threshold is reached), and
// pushing better positive-trust candidates for unsettled subjects.
func (p *propagator) expand(id identity.Id) {
	if p.level[id] == proof.LevelDistrust {
		return // distrust-fixed identities are not traversed further (step 6)
	}

	for _, edge := range p.src.TrustEdgesFrom(id) {
		if p.isSuppressed(edge.To, id) {
			continue
		}

		if edge.Level == proof.LevelDistrust {
			if !p.settled[edge.To] {
				p.distrust[edge.To]++
				if p.distrust[edge.To] >= p.policy.redundancy() {
					p.settle(edge.To, proof.LevelDistrust, p.cost[id])
				}
			}
		} else if edge.Level != proof.LevelNone {
			propagated := minLevel(p.level[id], edge.Level)
			if propagated.Rank() > 0 && !p.settled[edge.To] {
				newCost := p.cost[id] + p.policy.costFor(edge.Level)
				if newCost <= p.policy.Depth {
					heap.Push(&p.queue, candidate{id: edge.To, level: propagated, cost: newCost, predecessor: id})
				}
			}
		}

		if len(edge.Override) > 0 {
			set := p.suppressed[edge.To]
			if set == nil {
				set = make(map[identity.Id]bool)
				p.suppressed[edge.To] = set
			}
			for _, suppressedID := range edge.Override {
				set[suppressedID] = true
			}
		}
	}
}

func minLevel(a, b proof.Level) proof.Level {
	if a.Rank() <= b.Rank() {
		return a
	}
	return b
}
