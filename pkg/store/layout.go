package store

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/proof"
)

// NewHostSalt generates a fresh per-host filename salt, URL-safe for use as
// a path segment. Callers persist it alongside their local working
// repository config and reuse it for every Commit from that host.
func NewHostSalt() string {
	return uuid.NewString()
}

// subtreeFor maps a body kind to the top-level subtree spec.md §4.4 splits
// an author's directory into: "separate subtrees for trust proofs and
// package reviews". Code reviews are a review of a package version too, so
// they share the package-review subtree.
func subtreeFor(kind proof.BodyKind) string {
	if kind == proof.KindTrust {
		return "trust"
	}
	return "reviews"
}

// timeBucket is the year-month bucket a proof's date files into.
func timeBucket(date time.Time) string {
	return date.UTC().Format("2006-01")
}

// ProofPath computes the deterministic on-disk location of a proof given
// (author, kind, date, salt): root/<author-id>/<subtree>/<year-month>/<salt>.crev.
// salt is a per-host value (see NewHostSalt) mixed in so two machines
// pushing the same identity's proofs into the same bucket write distinct
// files instead of racing on one (spec.md §4.4 invariant (i)).
func ProofPath(root string, author identity.Id, kind proof.BodyKind, date time.Time, salt string) string {
	return filepath.Join(root, string(author), subtreeFor(kind), timeBucket(date), salt+".crev")
}
