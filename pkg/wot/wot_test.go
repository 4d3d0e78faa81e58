package wot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/proof"
)

// fakeSource is a plain map-backed Source for tests, independent of
// pkg/store so the propagation logic can be exercised in isolation.
type fakeSource map[identity.Id][]proof.TrustEdge

func (f fakeSource) TrustEdgesFrom(id identity.Id) []proof.TrustEdge { return f[id] }

func edge(to identity.Id, level proof.Level, override ...identity.Id) proof.TrustEdge {
	return proof.TrustEdge{To: to, Level: level, Override: override}
}

const (
	idR identity.Id = "R"
	idA identity.Id = "A"
	idB identity.Id = "B"
)

func TestS3TransitiveTrustDegradesAlongPath(t *testing.T) {
	src := fakeSource{
		idR: {edge(idA, proof.LevelLow)},
		idA: {edge(idB, proof.LevelHigh)},
	}
	policy := Policy{Depth: 2, HighCost: 1, MediumCost: 1, LowCost: 1}

	result := Propagate(src, idR, policy)
	assert.Equal(t, proof.LevelLow, result.EffectiveTrust(idB))
}

func TestS3DepthCutoffExcludesTooFarNodes(t *testing.T) {
	src := fakeSource{
		idR: {edge(idA, proof.LevelLow)},
		idA: {edge(idB, proof.LevelHigh)},
	}
	policy := Policy{Depth: 0, HighCost: 1, MediumCost: 1, LowCost: 1}

	result := Propagate(src, idR, policy)
	assert.Equal(t, proof.LevelNone, result.EffectiveTrust(idA))
	assert.Equal(t, proof.LevelNone, result.EffectiveTrust(idB))
}

func TestS5DistrustCutoffOverridesTransitivePath(t *testing.T) {
	src := fakeSource{
		idR: {edge(idA, proof.LevelMedium), edge(idB, proof.LevelDistrust)},
		idA: {edge(idB, proof.LevelHigh)},
	}
	policy := Policy{Depth: 5, HighCost: 1, MediumCost: 1, LowCost: 1, DistrustRedundancy: 1}

	result := Propagate(src, idR, policy)
	assert.Equal(t, proof.LevelDistrust, result.EffectiveTrust(idB))
}

func TestDistrustRedundancyRequiresMultipleVotes(t *testing.T) {
	idC := identity.Id("C")
	src := fakeSource{
		idR: {edge(idA, proof.LevelHigh), edge(idC, proof.LevelHigh)},
		idA: {edge(idB, proof.LevelDistrust)},
		idC: {edge(idB, proof.LevelMedium)},
	}
	// Redundancy 2: a single distrust vote from A must not fix B; B should
	// instead be reachable via C's medium edge.
	policy := Policy{Depth: 5, HighCost: 1, MediumCost: 1, LowCost: 1, DistrustRedundancy: 2}

	result := Propagate(src, idR, policy)
	assert.Equal(t, proof.LevelMedium, result.EffectiveTrust(idB))
}

func TestDistrustRedundancyZeroValueDefaultsToOne(t *testing.T) {
	src := fakeSource{
		idR: {edge(idA, proof.LevelHigh), edge(idB, proof.LevelDistrust)},
	}
	policy := Policy{Depth: 5, HighCost: 1, MediumCost: 1, LowCost: 1} // DistrustRedundancy left at zero value

	result := Propagate(src, idR, policy)
	assert.Equal(t, proof.LevelDistrust, result.EffectiveTrust(idB))
}

func TestOverrideSuppressesTrustEdgeForSameSubject(t *testing.T) {
	// R trusts A at high and B at medium, so A is guaranteed to settle (and
	// have its edges expanded) before B under widest-path-first ordering.
	// A's trust proof for subject "X" overrides B, so B's (otherwise
	// stronger) assertion about X must not contribute once A has been
	// processed.
	idX := identity.Id("X")
	src := fakeSource{
		idR: {edge(idA, proof.LevelHigh), edge(idB, proof.LevelMedium)},
		idA: {edge(idX, proof.LevelLow, idB)}, // overrides B for subject X
		idB: {edge(idX, proof.LevelHigh)},
	}
	policy := Policy{Depth: 5, HighCost: 1, MediumCost: 1, LowCost: 1}

	result := Propagate(src, idR, policy)
	// Without the override B's `high` edge would propagate `medium` (capped
	// at B's own level) and win over A's `low`; with it, B's edge for X is
	// suppressed and only A's `low` applies.
	assert.Equal(t, proof.LevelLow, result.EffectiveTrust(idX))
}

func TestEffectiveTrustMonotonicAlongPath(t *testing.T) {
	// Invariant #7: effective[Y] <= min direct trust along any realizing path.
	src := fakeSource{
		idR: {edge(idA, proof.LevelMedium)},
		idA: {edge(idB, proof.LevelHigh)},
	}
	policy := Policy{Depth: 5, HighCost: 1, MediumCost: 1, LowCost: 1}

	result := Propagate(src, idR, policy)
	require.Contains(t, result.Level, idB)
	assert.LessOrEqual(t, result.EffectiveTrust(idB).Rank(), proof.LevelMedium.Rank())
	assert.LessOrEqual(t, result.EffectiveTrust(idB).Rank(), result.EffectiveTrust(idA).Rank())
}

func TestUnreachableIdentityIsNone(t *testing.T) {
	src := fakeSource{idR: {edge(idA, proof.LevelHigh)}}
	policy := Policy{Depth: 5, HighCost: 1, MediumCost: 1, LowCost: 1}

	result := Propagate(src, idR, policy)
	assert.Equal(t, proof.LevelNone, result.EffectiveTrust(identity.Id("ghost")))
}

func TestWidestPathPrefersHigherLevelOverLowerCost(t *testing.T) {
	// Two disjoint paths to B: a cheap "low" edge direct from R, and a
	// costlier two-hop path through A ending in "high". The engine must
	// prefer the higher resulting level, not the cheaper path.
	src := fakeSource{
		idR: {edge(idB, proof.LevelLow), edge(idA, proof.LevelHigh)},
		idA: {edge(idB, proof.LevelHigh)},
	}
	policy := Policy{Depth: 5, HighCost: 1, MediumCost: 1, LowCost: 1}

	result := Propagate(src, idR, policy)
	assert.Equal(t, proof.LevelHigh, result.EffectiveTrust(idB))
}
