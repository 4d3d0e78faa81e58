package verify

import (
	"fmt"

	"github.com/blang/semver/v4"

	"github.com/crev-dev/go-crev/pkg/proof"
	"github.com/crev-dev/go-crev/pkg/store"
)

// evaluateAdvisoriesAndIssues applies spec.md §4.6 step 6: an advisory
// flags every version in its backward-looking range as Dangerous (or
// Flagged, depending on severity) relative to the version the advisory was
// filed against; an unfixed issue flags the version it was filed against
// onward, flat Dangerous regardless of the issue's own severity, until some
// advisory sharing one of its ids is reached. Both only consider trusted
// authors (the records passed in have already gone through filterTrusted).
func (e *Engine) evaluateAdvisoriesAndIssues(records []*store.Record, version string) (Status, []string) {
	target, err := semver.ParseTolerant(version)
	if err != nil {
		// Non-semver version schemes can't be range-matched; advisories and
		// issues simply don't apply to them.
		return StatusPass, nil
	}

	var diags []string
	status := StatusPass

	// fixedIds marks which issue ids have a fix (some advisory carrying that
	// id) at a version target has already reached, independent of whether
	// target itself falls in that advisory's backward-looking range.
	fixedIds := make(map[string]bool)
	for _, r := range records {
		pr := r.Proof.PackageReview
		if pr == nil {
			continue
		}
		filedAgainst, err := semver.ParseTolerant(pr.Package.Version)
		if err != nil {
			continue
		}
		if target.LT(filedAgainst) {
			continue
		}
		for _, adv := range pr.Advisories {
			for _, id := range adv.Ids {
				fixedIds[id] = true
			}
		}
	}

	for _, r := range records {
		pr := r.Proof.PackageReview
		if pr == nil {
			continue
		}
		for _, adv := range pr.Advisories {
			filedAgainst, err := semver.ParseTolerant(pr.Package.Version)
			if err != nil {
				continue
			}
			if !inAdvisoryRange(target, filedAgainst, adv.Range) {
				continue
			}
			s, msg := advisorySeverityStatus(adv.Severity)
			diags = append(diags, fmt.Sprintf("advisory %v fixed in %s affects %s: %s", adv.Ids, pr.Package.Version, version, msg))
			if s.Severity() > status.Severity() {
				status = s
			}
		}
	}

	for _, r := range records {
		pr := r.Proof.PackageReview
		if pr == nil {
			continue
		}
		for _, iss := range pr.Issues {
			filedAgainst, err := semver.ParseTolerant(pr.Package.Version)
			if err != nil {
				continue
			}
			if target.LT(filedAgainst) || fixedIds[iss.Id] {
				continue
			}
			diags = append(diags, fmt.Sprintf("issue %s filed against %s affects %s: unfixed", iss.Id, pr.Package.Version, version))
			if StatusDangerous.Severity() > status.Severity() {
				status = StatusDangerous
			}
		}
	}

	return status, diags
}

// inAdvisoryRange reports whether target falls in the backward-looking
// window an advisory filed against filedAgainst covers: "all" reaches back
// to the beginning of history, "major" back to the start of filedAgainst's
// major version, "minor" back to the start of filedAgainst's major.minor
// version (spec.md §3's advisory range semantics).
func inAdvisoryRange(target, filedAgainst semver.Version, r proof.RangeKind) bool {
	if !target.LT(filedAgainst) {
		return false
	}
	switch r {
	case proof.RangeAll:
		return true
	case proof.RangeMajor:
		return target.Major == filedAgainst.Major
	case proof.RangeMinor:
		return target.Major == filedAgainst.Major && target.Minor == filedAgainst.Minor
	default:
		return false
	}
}

// advisorySeverityStatus maps an advisory's severity level to a
// verification status: only high severity is Dangerous, medium and low
// are Flagged, none carries no weight. Issues don't go through this —
// see evaluateAdvisoriesAndIssues, which treats every unfixed issue as
// flat Dangerous regardless of severity.
func advisorySeverityStatus(severity proof.Level) (Status, string) {
	switch severity {
	case proof.LevelHigh:
		return StatusDangerous, "high severity"
	case proof.LevelMedium:
		return StatusFlagged, "medium severity"
	case proof.LevelLow:
		return StatusFlagged, "low severity"
	default:
		return StatusPass, "informational"
	}
}
