package proof

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// FieldError is one validation failure for a semantically invalid (but
// structurally parseable) body — a missing required field, or a value
// outside an enumerated set.
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

// Validate checks the semantic rules spec.md §3 places on a decoded proof
// body, collecting every violation via go-multierror rather than stopping at
// the first (mirrors the teacher's pkg/apis/policy/common/validation.go
// "collect, don't short-circuit" style).
func (p *Proof) Validate() error {
	if p.Unknown {
		return nil // pass-through kinds are never interpreted, never rejected.
	}

	var errs *multierror.Error
	errs = multierror.Append(errs, validateCommon(p.Header))

	switch {
	case p.Trust != nil:
		errs = multierror.Append(errs, validateTrust(p.Trust))
	case p.PackageReview != nil:
		errs = multierror.Append(errs, validateReviewInfo(p.PackageReview.Review))
		errs = multierror.Append(errs, validateAdvisoriesIssues(p.PackageReview.Advisories, p.PackageReview.Issues))
	case p.CodeReview != nil:
		errs = multierror.Append(errs, validateReviewInfo(p.CodeReview.Review))
	}

	return errs.ErrorOrNil()
}

func validateCommon(c Common) error {
	var errs *multierror.Error
	if c.Version != SchemaVersion {
		// Per spec.md §3 unknown schema versions are passed through, not
		// rejected; this validator is only reached for kinds we interpret,
		// where we require the active schema.
		errs = multierror.Append(errs, &FieldError{"version", fmt.Sprintf("want %d, got %d", SchemaVersion, c.Version)})
	}
	if c.From.Id == "" {
		errs = multierror.Append(errs, &FieldError{"from.id", "must not be empty"})
	}
	if c.Date.IsZero() {
		errs = multierror.Append(errs, &FieldError{"date", "must be set"})
	}
	return errs.ErrorOrNil()
}

func validateTrust(t *TrustBody) error {
	var errs *multierror.Error
	if len(t.Ids) == 0 {
		errs = multierror.Append(errs, &FieldError{"ids", "must list at least one subject"})
	}
	if !t.Trust.valid(true) {
		errs = multierror.Append(errs, &FieldError{"trust", fmt.Sprintf("invalid level %q", t.Trust)})
	}
	return errs.ErrorOrNil()
}

func validateReviewInfo(r *ReviewInfo) error {
	if r == nil {
		return nil
	}
	var errs *multierror.Error
	if !r.Thoroughness.valid(false) {
		errs = multierror.Append(errs, &FieldError{"review.thoroughness", fmt.Sprintf("invalid level %q", r.Thoroughness)})
	}
	if !r.Understanding.valid(false) {
		errs = multierror.Append(errs, &FieldError{"review.understanding", fmt.Sprintf("invalid level %q", r.Understanding)})
	}
	if !r.Rating.valid() {
		errs = multierror.Append(errs, &FieldError{"review.rating", fmt.Sprintf("invalid rating %q", r.Rating)})
	}
	return errs.ErrorOrNil()
}

func validateAdvisoriesIssues(advisories []Advisory, issues []Issue) error {
	var errs *multierror.Error
	for i, a := range advisories {
		if !a.Range.valid() {
			errs = multierror.Append(errs, &FieldError{fmt.Sprintf("advisories[%d].range", i), fmt.Sprintf("invalid range %q", a.Range)})
		}
		if !a.Severity.valid(false) {
			errs = multierror.Append(errs, &FieldError{fmt.Sprintf("advisories[%d].severity", i), fmt.Sprintf("invalid level %q", a.Severity)})
		}
		if len(a.Ids) == 0 {
			errs = multierror.Append(errs, &FieldError{fmt.Sprintf("advisories[%d].ids", i), "must list at least one advisory id"})
		}
	}
	for i, iss := range issues {
		if !iss.Severity.valid(false) {
			errs = multierror.Append(errs, &FieldError{fmt.Sprintf("issues[%d].severity", i), fmt.Sprintf("invalid level %q", iss.Severity)})
		}
	}
	return errs.ErrorOrNil()
}

// Suspicious reports whether the proof's date is further in the future than
// tolerance allows. Per the Open Question resolution in DESIGN.md, this is a
// diagnostic, not a validity failure: spec.md §9 explicitly walks back §3's
// "invalid" language to "suspicious but not invalid".
func (p *Proof) Suspicious(now time.Time, tolerance time.Duration) bool {
	return p.Header.Date.After(now.Add(tolerance))
}

// DefaultFutureTolerance is the "> 1 day ahead of local clock" default named
// in spec.md §9.
const DefaultFutureTolerance = 24 * time.Hour
