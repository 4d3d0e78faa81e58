package verify

import (
	"bytes"

	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/proof"
	"github.com/crev-dev/go-crev/pkg/store"
)

// filterTrusted keeps the records whose author's WoT effective trust meets
// Thresholds.TrustLevelMin (spec.md §4.6 step 2).
func (e *Engine) filterTrusted(records []*store.Record) []*store.Record {
	out := make([]*store.Record, 0, len(records))
	for _, r := range records {
		author := r.Proof.Header.From.Id
		if e.Trust.EffectiveTrust(author).Rank() >= e.Thresholds.TrustLevelMin.Rank() {
			out = append(out, r)
		}
	}
	return out
}

// applyReviewOverrides suppresses, among records reviewing exactly
// `version`, any author named in another in-scope review's override list
// for the same (source, name, version) subject — spec.md §3/§9 scenario S6.
// "In scope" here means: itself in the trust-filtered set and reviewing the
// same version. Returns the un-suppressed records plus the set of suppressed
// author ids, which callers may surface as a diagnostic.
func (e *Engine) applyReviewOverrides(records []*store.Record, version string) ([]*store.Record, map[identity.Id]bool) {
	suppressed := make(map[identity.Id]bool)
	for _, r := range records {
		overrideList, v := overrideAndVersion(r)
		if v != version || len(overrideList) == 0 {
			continue
		}
		for _, id := range overrideList {
			suppressed[id] = true
		}
	}

	if len(suppressed) == 0 {
		return records, suppressed
	}

	out := make([]*store.Record, 0, len(records))
	for _, r := range records {
		author := r.Proof.Header.From.Id
		_, v := overrideAndVersion(r)
		if v == version && suppressed[author] {
			continue
		}
		out = append(out, r)
	}
	return out, suppressed
}

func overrideAndVersion(r *store.Record) ([]identity.Id, string) {
	switch {
	case r.Proof.PackageReview != nil:
		return idsOf(r.Proof.PackageReview.Override), r.Proof.PackageReview.Package.Version
	case r.Proof.CodeReview != nil:
		return idsOf(r.Proof.CodeReview.Override), r.Proof.CodeReview.Package.Version
	default:
		return nil, ""
	}
}

func idsOf(records []proof.IdentityRecord) []identity.Id {
	ids := make([]identity.Id, len(records))
	for i, r := range records {
		ids[i] = r.Id
	}
	return ids
}

// evaluateReviews applies the version/digest match, thoroughness/
// understanding filters, and positive-rating count of spec.md §4.6 steps
// 3-5. Returns the list of authors whose review counts toward a pass, plus
// whether any in-scope review named this version but a different digest
// (step 3's "digest mismatch" diagnostic), plus whether any review carries
// flags.unmaintained (spec.md §9 open question (b): surfaced, never
// overrides rating).
func (e *Engine) evaluateReviews(records []*store.Record, _ map[identity.Id]bool, version string, d []byte) (pass []identity.Id, mismatch bool, unmaintained bool) {
	for _, r := range records {
		review, pkgVersion, pkgDigest, flags := reviewFields(r)
		if flags != nil && flags.Unmaintained {
			unmaintained = true // whole-package flag: counts from a review of any version
		}
		if review == nil || pkgVersion != version {
			continue
		}
		if !bytes.Equal([]byte(pkgDigest), d) {
			mismatch = true
			continue
		}
		if review.Thoroughness.Rank() < e.Thresholds.ThoroughnessMin.Rank() {
			continue
		}
		if review.Understanding.Rank() < e.Thresholds.UnderstandingMin.Rank() {
			continue
		}
		if review.Rating.Positive() {
			pass = append(pass, r.Proof.Header.From.Id)
		}
	}
	return pass, mismatch, unmaintained
}

func reviewFields(r *store.Record) (review *proof.ReviewInfo, version string, d proof.DigestBytes, flags *proof.Flags) {
	switch {
	case r.Proof.PackageReview != nil:
		pr := r.Proof.PackageReview
		return pr.Review, pr.Package.Version, pr.Package.Digest, pr.Flags
	case r.Proof.CodeReview != nil:
		cr := r.Proof.CodeReview
		if !cr.CoversWholePackage() {
			return nil, "", nil, nil // file-scoped code reviews don't carry a package-wide rating
		}
		return cr.Review, cr.Package.Version, cr.Package.Digest, nil
	default:
		return nil, "", nil, nil
	}
}
