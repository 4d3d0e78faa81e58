// Package store implements the proof store of spec.md §4.4: an
// append-mostly collection of signature-verified proofs, indexed by author
// and by review subject, with latest-date-wins resolution and on-disk
// persistence.
package store

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/crev-dev/go-crev/pkg/codec"
	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/logctx"
	"github.com/crev-dev/go-crev/pkg/proof"
)

// proofHash is the dedup key for one author's proofs: Blake2b-256 over the
// canonical body bytes plus the signature, so two distinct signings of
// identical content (e.g. re-exported from two repos) collapse to one
// record.
type proofHash [32]byte

func hashProof(p *proof.Proof) proofHash {
	h, _ := blake2b.New256(nil)
	h.Write(p.CanonicalBody)
	h.Write(p.Signature)
	var out proofHash
	copy(out[:], h.Sum(nil))
	return out
}

// Record is one ingested proof plus the bookkeeping the store needs: which
// source it arrived from (a repository URL or local path) and its dedup
// hash.
type Record struct {
	Proof  *proof.Proof
	Hash   proofHash
	Source string
}

type reviewKey struct {
	proof.PackageKey
	Version string
}

const latestTrustCacheSize = 4096

// Store is a read-mostly index over ingested proofs. The zero value is not
// usable; construct with New. Safe for concurrent reads once ingestion has
// finished (spec.md §5: the store is built single-threaded, then frozen for
// the life of a verify run); Ingest and Commit serialize writes through mu.
type Store struct {
	mu sync.RWMutex

	byAuthor map[identity.Id]map[proofHash]*Record
	trust    map[identity.Id][]*Record // records whose Proof.Trust != nil, keyed by author
	reviews  map[reviewKey][]*Record   // records whose Proof.PackageReview or CodeReview != nil

	trustCache *lru.Cache[trustCacheKey, proof.TrustEdge]
}

type trustCacheKey struct {
	From identity.Id
	To   identity.Id
}

// New creates an empty store.
func New() *Store {
	cache, err := lru.New[trustCacheKey, proof.TrustEdge](latestTrustCacheSize)
	if err != nil {
		// Only fails for a non-positive size, which latestTrustCacheSize
		// never is.
		panic(err)
	}
	return &Store{
		byAuthor:   make(map[identity.Id]map[proofHash]*Record),
		trust:      make(map[identity.Id][]*Record),
		reviews:    make(map[reviewKey][]*Record),
		trustCache: cache,
	}
}

// IngestReport summarizes one Ingest call, per spec.md §4.4.
type IngestReport struct {
	Source     string
	New        int
	Duplicate  int
	Invalid    int
	Violations []string // human-readable reasons for each invalid envelope, in order
}

// decoded is the result of validating one envelope, computed in parallel by
// Ingest before any store mutation happens.
type decoded struct {
	record *Record
	reason string // non-empty iff invalid
}

// Ingest decodes, signature-verifies, and validates each envelope, then
// merges the valid ones into the store under a write lock. Decoding and
// signature verification run concurrently across envs (spec.md §5: "signature
// verification during ingestion — parallelizable over envelopes"); the merge
// step is single-threaded and processes envs in order, so two Ingest calls
// over the same input always produce the same store state.
func (s *Store) Ingest(ctx context.Context, envs []codec.Envelope, source string) IngestReport {
	log := logctx.FromContext(ctx)
	results := make([]decoded, len(envs))

	parallelDecode(envs, func(i int, env codec.Envelope) {
		if err := ctx.Err(); err != nil {
			results[i] = decoded{reason: err.Error()}
			return
		}
		results[i] = decodeOne(env, source)
	})

	report := IngestReport{Source: source}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range results {
		if d.reason != "" {
			report.Invalid++
			report.Violations = append(report.Violations, d.reason)
			log.Debugw("rejected proof", "source", source, "reason", d.reason)
			continue
		}
		if s.insertLocked(d.record) {
			report.New++
		} else {
			report.Duplicate++
		}
	}
	return report
}

func decodeOne(env codec.Envelope, source string) decoded {
	p, err := proof.Decode(env)
	if err != nil {
		return decoded{reason: err.Error()}
	}
	if err := identity.Verify(p.Header.From.Id, p.CanonicalBody, p.Signature); err != nil {
		return decoded{reason: "signature: " + err.Error()}
	}
	if err := p.Validate(); err != nil {
		return decoded{reason: "validation: " + err.Error()}
	}
	return decoded{record: &Record{Proof: p, Hash: hashProof(p), Source: source}}
}

// insertLocked adds r to every index it belongs in, unless an equal-hash
// record from the same author is already present. Caller must hold s.mu.
func (s *Store) insertLocked(r *Record) bool {
	author := r.Proof.Header.From.Id
	byHash, ok := s.byAuthor[author]
	if !ok {
		byHash = make(map[proofHash]*Record)
		s.byAuthor[author] = byHash
	}
	if _, dup := byHash[r.Hash]; dup {
		return false
	}
	byHash[r.Hash] = r

	switch {
	case r.Proof.Trust != nil:
		s.trust[author] = append(s.trust[author], r)
		s.trustCache.Purge() // a new/updated edge can change any cached lookup involving author
	case r.Proof.PackageReview != nil:
		k := reviewKey{PackageKey: r.Proof.PackageReview.Package.Key(), Version: r.Proof.PackageReview.Package.Version}
		s.reviews[k] = append(s.reviews[k], r)
	case r.Proof.CodeReview != nil:
		k := reviewKey{PackageKey: r.Proof.CodeReview.Package.Key(), Version: r.Proof.CodeReview.Package.Version}
		s.reviews[k] = append(s.reviews[k], r)
	}
	return true
}
