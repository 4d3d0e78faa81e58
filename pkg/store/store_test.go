package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crev-dev/go-crev/pkg/codec"
	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/proof"
)

func signedTrustEnvelope(t *testing.T, from identity.Id, seed []byte, to identity.Id, level proof.Level, date time.Time) codec.Envelope {
	t.Helper()
	body := &proof.TrustBody{
		Common: proof.Common{
			Version: proof.SchemaVersion,
			Kind:    string(proof.KindTrust),
			Date:    date,
			From:    proof.IdentityRecord{IdType: "crev", Id: from},
		},
		Ids:   []proof.IdentityRecord{{IdType: "crev", Id: to}},
		Trust: level,
	}
	canon, err := codec.Marshal(body)
	require.NoError(t, err)
	sig, err := identity.Sign(seed, canon)
	require.NoError(t, err)
	return codec.Envelope{Kind: proof.EnvelopeKind(proof.KindTrust), Body: canon, Signature: sig}
}

func signedReviewEnvelope(t *testing.T, from identity.Id, seed []byte, name, version string, digest []byte, rating proof.Rating, date time.Time) codec.Envelope {
	t.Helper()
	body := &proof.PackageReviewBody{
		Common: proof.Common{
			Version: proof.SchemaVersion,
			Kind:    string(proof.KindPackageReview),
			Date:    date,
			From:    proof.IdentityRecord{IdType: "crev", Id: from},
		},
		Package: proof.PackageInfo{Source: "https://crates.io", Name: name, Version: version, Digest: digest},
		Review:  &proof.ReviewInfo{Thoroughness: proof.LevelHigh, Understanding: proof.LevelHigh, Rating: rating},
	}
	canon, err := codec.Marshal(body)
	require.NoError(t, err)
	sig, err := identity.Sign(seed, canon)
	require.NoError(t, err)
	return codec.Envelope{Kind: proof.EnvelopeKind(proof.KindPackageReview), Body: canon, Signature: sig}
}

func TestIngestDeduplicatesIdenticalProofs(t *testing.T) {
	id, seed, err := identity.Generate()
	require.NoError(t, err)
	other, _, err := identity.Generate()
	require.NoError(t, err)

	env := signedTrustEnvelope(t, id, seed, other, proof.LevelHigh, time.Now())

	s := New()
	r1 := s.Ingest(context.Background(), []codec.Envelope{env}, "repo-a")
	assert.Equal(t, 1, r1.New)
	assert.Equal(t, 0, r1.Duplicate)

	r2 := s.Ingest(context.Background(), []codec.Envelope{env}, "repo-b")
	assert.Equal(t, 0, r2.New)
	assert.Equal(t, 1, r2.Duplicate)
}

func TestIngestRejectsBadSignature(t *testing.T) {
	id, seed, err := identity.Generate()
	require.NoError(t, err)
	other, _, err := identity.Generate()
	require.NoError(t, err)

	env := signedTrustEnvelope(t, id, seed, other, proof.LevelHigh, time.Now())
	env.Signature[0] ^= 0xFF // corrupt

	s := New()
	r := s.Ingest(context.Background(), []codec.Envelope{env}, "repo-a")
	assert.Equal(t, 0, r.New)
	assert.Equal(t, 1, r.Invalid)
	require.Len(t, r.Violations, 1)
	assert.Contains(t, r.Violations[0], "signature")
}

func TestLatestTrustAppliesDateRule(t *testing.T) {
	id, seed, err := identity.Generate()
	require.NoError(t, err)
	other, _, err := identity.Generate()
	require.NoError(t, err)

	old := signedTrustEnvelope(t, id, seed, other, proof.LevelLow, time.Now().Add(-48*time.Hour))
	recent := signedTrustEnvelope(t, id, seed, other, proof.LevelHigh, time.Now())

	s := New()
	s.Ingest(context.Background(), []codec.Envelope{old, recent}, "repo-a")

	edge, ok := s.LatestTrust(id, other)
	require.True(t, ok)
	assert.Equal(t, proof.LevelHigh, edge.Level)
}

func TestReviewsOfAppliesLatestPerAuthor(t *testing.T) {
	id, seed, err := identity.Generate()
	require.NoError(t, err)

	digest := []byte("digest-bytes-000000000000000000")
	negative := signedReviewEnvelope(t, id, seed, "foo", "1.0.0", digest, proof.RatingNegative, time.Now().Add(-time.Hour))
	positive := signedReviewEnvelope(t, id, seed, "foo", "1.0.0", digest, proof.RatingPositive, time.Now())

	s := New()
	s.Ingest(context.Background(), []codec.Envelope{negative, positive}, "repo-a")

	reviews := s.ReviewsOf("https://crates.io", "foo", "1.0.0")
	require.Len(t, reviews, 1)
	assert.Equal(t, proof.RatingPositive, reviews[0].Proof.PackageReview.Review.Rating)
}

func TestCommitPersistsAndIsQueryable(t *testing.T) {
	dir := t.TempDir()
	id, seed, err := identity.Generate()
	require.NoError(t, err)
	other, _, err := identity.Generate()
	require.NoError(t, err)

	body := &proof.TrustBody{
		Common: proof.Common{
			Version: proof.SchemaVersion,
			Kind:    string(proof.KindTrust),
			Date:    time.Now(),
			From:    proof.IdentityRecord{IdType: "crev", Id: id},
		},
		Ids:   []proof.IdentityRecord{{IdType: "crev", Id: other}},
		Trust: proof.LevelMedium,
	}

	s := New()
	salt := NewHostSalt()
	path, err := s.Commit(dir, seed, salt, body)
	require.NoError(t, err)
	assert.FileExists(t, path)

	edge, ok := s.LatestTrust(id, other)
	require.True(t, ok)
	assert.Equal(t, proof.LevelMedium, edge.Level)

	// A fresh store loading the directory from disk sees the same edge.
	s2 := New()
	_, err = s2.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	edge2, ok := s2.LatestTrust(id, other)
	require.True(t, ok)
	assert.Equal(t, proof.LevelMedium, edge2.Level)
}

func TestProofPathDeterministic(t *testing.T) {
	id := identity.Id("author-id")
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	p1 := ProofPath("/root", id, proof.KindTrust, date, "salt-a")
	p2 := ProofPath("/root", id, proof.KindTrust, date, "salt-a")
	assert.Equal(t, p1, p2)

	p3 := ProofPath("/root", id, proof.KindTrust, date, "salt-b")
	assert.NotEqual(t, p1, p3)

	assert.Contains(t, p1, string(id))
	assert.Contains(t, p1, "2026-03")
}

func TestCommitFromMultipleHostsWritesDistinctFiles(t *testing.T) {
	dir := t.TempDir()
	id, seed, err := identity.Generate()
	require.NoError(t, err)
	other, _, err := identity.Generate()
	require.NoError(t, err)

	s := New()
	_, err = s.Commit(dir, seed, "host-a", &proof.TrustBody{
		Common: proof.Common{Version: proof.SchemaVersion, Kind: string(proof.KindTrust), Date: time.Now(), From: proof.IdentityRecord{IdType: "crev", Id: id}},
		Ids:    []proof.IdentityRecord{{IdType: "crev", Id: other}},
		Trust:  proof.LevelLow,
	})
	require.NoError(t, err)
	_, err = s.Commit(dir, seed, "host-b", &proof.TrustBody{
		Common: proof.Common{Version: proof.SchemaVersion, Kind: string(proof.KindTrust), Date: time.Now(), From: proof.IdentityRecord{IdType: "crev", Id: id}},
		Ids:    []proof.IdentityRecord{{IdType: "crev", Id: other}},
		Trust:  proof.LevelHigh,
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, string(id), "trust"))
	require.NoError(t, err)
	require.Len(t, entries, 1) // same year-month bucket

	bucket, err := os.ReadDir(filepath.Join(dir, string(id), "trust", entries[0].Name()))
	require.NoError(t, err)
	assert.Len(t, bucket, 2) // two distinct host-salted files
}
