package proof

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crev-dev/go-crev/pkg/codec"
	"github.com/crev-dev/go-crev/pkg/identity"
)

func newFrom(t *testing.T, id identity.Id) IdentityRecord {
	t.Helper()
	return IdentityRecord{IdType: "crev", Id: id}
}

func TestTrustBodyEncodeDecodeRoundTrip(t *testing.T) {
	id, seed, err := identity.Generate()
	require.NoError(t, err)

	body := &TrustBody{
		Common: Common{
			Version: SchemaVersion,
			Kind:    string(KindTrust),
			Date:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			From:    newFrom(t, id),
		},
		Ids:   []IdentityRecord{{IdType: "crev", Id: identity.Id("someone-else")}},
		Trust: LevelHigh,
	}

	canon, err := codec.Marshal(body)
	require.NoError(t, err)

	sig, err := identity.Sign(seed, canon)
	require.NoError(t, err)
	text := codec.Wrap(EnvelopeKind(KindTrust), canon, sig)

	envs, err := codec.Unwrap(text)
	require.NoError(t, err)
	require.Len(t, envs, 1)

	p, err := Decode(envs[0])
	require.NoError(t, err)
	require.NotNil(t, p.Trust)
	assert.Equal(t, LevelHigh, p.Trust.Trust)
	assert.NoError(t, p.Validate())

	assert.NoError(t, identity.Verify(id, p.CanonicalBody, p.Signature))
}

func TestDecodeUnknownKindPassesThrough(t *testing.T) {
	env := codec.Envelope{
		Kind:      "FUTURE THING",
		Body:      []byte("version: 7\nkind: future-thing\ndate: 2026-01-01T00:00:00Z\nfrom:\n  id-type: crev\n  id: abc\nnewfield: hello\n"),
		Signature: []byte{1, 2, 3},
	}
	p, err := Decode(env)
	require.NoError(t, err)
	assert.True(t, p.Unknown)
	assert.Nil(t, p.Trust)
	assert.NoError(t, p.Validate())
}

func TestValidateRejectsBadLevelAndRating(t *testing.T) {
	body := &PackageReviewBody{
		Common: Common{
			Version: SchemaVersion,
			Kind:    string(KindPackageReview),
			Date:    time.Now(),
			From:    newFrom(t, identity.Id("author")),
		},
		Package: PackageInfo{Source: "https://crates.io", Name: "foo", Version: "1.0.0"},
		Review: &ReviewInfo{
			Thoroughness: Level("nonsense"),
			Rating:       Rating("nonsense"),
		},
	}
	canon, err := codec.Marshal(body)
	require.NoError(t, err)
	p, err := Decode(codec.Envelope{Kind: EnvelopeKind(KindPackageReview), Body: canon})
	require.NoError(t, err)

	err = p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "review.thoroughness")
	assert.Contains(t, err.Error(), "review.rating")
}

func TestValidateRejectsDistrustOnReviewLevels(t *testing.T) {
	body := &CodeReviewBody{
		Common: Common{
			Version: SchemaVersion,
			Kind:    string(KindCodeReview),
			Date:    time.Now(),
			From:    newFrom(t, identity.Id("author")),
		},
		Package: PackageInfo{Source: "https://crates.io", Name: "foo", Version: "1.0.0"},
		Review:  &ReviewInfo{Thoroughness: LevelDistrust},
	}
	canon, err := codec.Marshal(body)
	require.NoError(t, err)
	p, err := Decode(codec.Envelope{Kind: EnvelopeKind(KindCodeReview), Body: canon})
	require.NoError(t, err)

	err = p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "review.thoroughness")
}

func TestTrustAllowsDistrustLevel(t *testing.T) {
	body := &TrustBody{
		Common: Common{
			Version: SchemaVersion,
			Kind:    string(KindTrust),
			Date:    time.Now(),
			From:    newFrom(t, identity.Id("author")),
		},
		Ids:   []IdentityRecord{{IdType: "crev", Id: identity.Id("other")}},
		Trust: LevelDistrust,
	}
	assert.NoError(t, validateTrust(body))
}

func TestSuspiciousFarFutureDate(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	p := &Proof{Header: Common{Date: now.Add(48 * time.Hour)}}
	assert.True(t, p.Suspicious(now, DefaultFutureTolerance))

	pNear := &Proof{Header: Common{Date: now.Add(time.Hour)}}
	assert.False(t, pNear.Suspicious(now, DefaultFutureTolerance))
}

func TestTrustEdgesExplodeOneEdgePerSubject(t *testing.T) {
	body := &TrustBody{
		Common: Common{From: newFrom(t, identity.Id("author")), Date: time.Now()},
		Ids: []IdentityRecord{
			{IdType: "crev", Id: identity.Id("a")},
			{IdType: "crev", Id: identity.Id("b")},
		},
		Trust:    LevelMedium,
		Override: []IdentityRecord{{IdType: "crev", Id: identity.Id("suppressed")}},
	}
	edges := body.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, identity.Id("a"), edges[0].To)
	assert.Equal(t, identity.Id("b"), edges[1].To)
	for _, e := range edges {
		assert.Equal(t, identity.Id("author"), e.From)
		assert.Equal(t, LevelMedium, e.Level)
		assert.Equal(t, []identity.Id{identity.Id("suppressed")}, e.Override)
	}
}
