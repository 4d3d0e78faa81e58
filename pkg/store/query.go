package store

import (
	"sort"

	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/proof"
)

// ProofsByAuthor returns every record ever ingested from id, newest first.
// Unlike the other query methods this does not apply the latest-wins rule:
// it is the audit view spec.md §3 requires ("older proofs remain in the
// store for audit").
func (s *Store) ProofsByAuthor(id identity.Id) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byHash := s.byAuthor[id]
	out := make([]*Record, 0, len(byHash))
	for _, r := range byHash {
		out = append(out, r)
	}
	sortByDateDesc(out)
	return out
}

// TrustEdgesFrom returns the effective (latest-date, per-subject) trust
// edges authored by id, the input the WoT engine's graph traversal consumes
// (spec.md §4.5).
func (s *Store) TrustEdgesFrom(id identity.Id) []proof.TrustEdge {
	s.mu.RLock()
	records := append([]*Record(nil), s.trust[id]...)
	s.mu.RUnlock()

	latest := make(map[identity.Id]proof.TrustEdge)
	for _, r := range records {
		for _, e := range r.Proof.Trust.Edges() {
			cur, ok := latest[e.To]
			if !ok || e.Date.After(cur.Date) {
				latest[e.To] = e
			}
		}
	}

	out := make([]proof.TrustEdge, 0, len(latest))
	for _, e := range latest {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].To < out[j].To })
	return out
}

// LatestTrust returns the effective trust edge from author to subject, if
// any proof from author names subject, applying the latest-date rule.
// Results are cached; any new trust ingestion invalidates the whole cache
// (see insertLocked), trading a coarse invalidation for a much simpler
// invariant than per-pair tracking.
func (s *Store) LatestTrust(author, subject identity.Id) (proof.TrustEdge, bool) {
	key := trustCacheKey{From: author, To: subject}
	if e, ok := s.trustCache.Get(key); ok {
		return e, true
	}

	for _, e := range s.TrustEdgesFrom(author) {
		if e.To == subject {
			s.trustCache.Add(key, e)
			return e, true
		}
	}
	return proof.TrustEdge{}, false
}

// ReviewsOf returns the effective package/code reviews of (source, name,
// version): at most one per author, the latest by date, per spec.md §3's
// latest-wins rule.
func (s *Store) ReviewsOf(source, name, version string) []*Record {
	s.mu.RLock()
	records := append([]*Record(nil), s.reviews[reviewKey{PackageKey: proof.PackageKey{Source: source, Name: name}, Version: version}]...)
	s.mu.RUnlock()

	return latestPerAuthor(records)
}

// ReviewsOfPackage returns the effective reviews of every version of
// (source, name), at most one per (author, version).
func (s *Store) ReviewsOfPackage(source, name string) []*Record {
	s.mu.RLock()
	var records []*Record
	key := proof.PackageKey{Source: source, Name: name}
	for k, recs := range s.reviews {
		if k.PackageKey == key {
			records = append(records, recs...)
		}
	}
	s.mu.RUnlock()

	type authorVersion struct {
		Author  identity.Id
		Version string
	}
	latest := make(map[authorVersion]*Record)
	for _, r := range records {
		av := authorVersion{Author: r.Proof.Header.From.Id, Version: reviewVersion(r)}
		if cur, ok := latest[av]; !ok || r.Proof.Header.Date.After(cur.Proof.Header.Date) {
			latest[av] = r
		}
	}
	out := make([]*Record, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sortByDateDesc(out)
	return out
}

func reviewVersion(r *Record) string {
	switch {
	case r.Proof.PackageReview != nil:
		return r.Proof.PackageReview.Package.Version
	case r.Proof.CodeReview != nil:
		return r.Proof.CodeReview.Package.Version
	default:
		return ""
	}
}

func latestPerAuthor(records []*Record) []*Record {
	latest := make(map[identity.Id]*Record)
	for _, r := range records {
		author := r.Proof.Header.From.Id
		if cur, ok := latest[author]; !ok || r.Proof.Header.Date.After(cur.Proof.Header.Date) {
			latest[author] = r
		}
	}
	out := make([]*Record, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sortByDateDesc(out)
	return out
}

func sortByDateDesc(records []*Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Proof.Header.Date.After(records[j].Proof.Header.Date)
	})
}
