// Package proof implements the typed proof body model of spec.md §3: trust
// proofs, package review proofs, code review proofs, their shared header,
// validation rules, and the (author, subject) keying used by the store and
// WoT engine.
package proof

import (
	"encoding/base64"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/crev-dev/go-crev/pkg/identity"
)

// BodyKind names a proof body's `kind` field. It is distinct from the
// envelope marker text (see EnvelopeKind/ParseEnvelopeKind).
type BodyKind string

const (
	KindTrust         BodyKind = "trust"
	KindPackageReview BodyKind = "package-review"
	KindCodeReview    BodyKind = "code-review"
)

// SchemaVersion is the integer schema version for every proof this
// implementation produces: "-1 for the active schema" per spec.md §3.
const SchemaVersion = -1

// EnvelopeKind maps a body kind to the upper-case envelope marker text used
// by pkg/codec's armor (spec.md §6): "trust" -> "TRUST",
// "package-review" -> "PACKAGE REVIEW".
func EnvelopeKind(k BodyKind) string {
	switch k {
	case KindTrust:
		return "TRUST"
	case KindPackageReview:
		return "PACKAGE REVIEW"
	case KindCodeReview:
		return "CODE REVIEW"
	default:
		return string(k)
	}
}

// ParseEnvelopeKind is the inverse of EnvelopeKind. ok is false for markers
// this implementation does not interpret.
func ParseEnvelopeKind(marker string) (BodyKind, bool) {
	switch marker {
	case "TRUST":
		return KindTrust, true
	case "PACKAGE REVIEW":
		return KindPackageReview, true
	case "CODE REVIEW":
		return KindCodeReview, true
	default:
		return "", false
	}
}

// Level is the trust/thoroughness/understanding level set. The full set
// {high, medium, low, none, distrust} applies to trust proofs; review
// thoroughness/understanding only ever use {high, medium, low, none} (see
// ValidReviewLevel).
type Level string

const (
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
	LevelNone     Level = "none"
	LevelDistrust Level = "distrust"
)

// Rank orders levels from least to most trusting, with Distrust ranked below
// None. Used by the WoT engine's min()/max() propagation (spec.md §4.5).
func (l Level) Rank() int {
	switch l {
	case LevelDistrust:
		return -1
	case LevelNone:
		return 0
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	default:
		return -2
	}
}

func (l Level) valid(allowDistrust bool) bool {
	switch l {
	case LevelHigh, LevelMedium, LevelLow, LevelNone:
		return true
	case LevelDistrust:
		return allowDistrust
	default:
		return false
	}
}

// Rating is the package review outcome scale.
type Rating string

const (
	RatingDangerous Rating = "dangerous"
	RatingNegative  Rating = "negative"
	RatingNeutral   Rating = "neutral"
	RatingPositive  Rating = "positive"
	RatingStrong    Rating = "strong"
)

func (r Rating) valid() bool {
	switch r {
	case RatingDangerous, RatingNegative, RatingNeutral, RatingPositive, RatingStrong, "":
		return true
	default:
		return false
	}
}

// Positive reports whether the rating counts toward a passing review
// (spec.md §4.6 step 5).
func (r Rating) Positive() bool {
	return r == RatingPositive || r == RatingStrong
}

// RangeKind is an advisory's version window.
type RangeKind string

const (
	RangeAll   RangeKind = "all"
	RangeMajor RangeKind = "major"
	RangeMinor RangeKind = "minor"
)

func (r RangeKind) valid() bool {
	switch r {
	case RangeAll, RangeMajor, RangeMinor:
		return true
	default:
		return false
	}
}

// IdentityRecord is the `{id-type, id, url}` shape used for `from`, trust
// subjects, and override lists.
type IdentityRecord struct {
	IdType string      `yaml:"id-type"`
	Id     identity.Id `yaml:"id"`
	URL    string      `yaml:"url,omitempty"`
}

// DigestBytes is a recursive-digest value, encoded on the wire as URL-safe
// unpadded base64 (spec.md §6), not yaml.v3's default padded !!binary form.
type DigestBytes []byte

func (d DigestBytes) MarshalYAML() (interface{}, error) {
	return base64.RawURLEncoding.EncodeToString(d), nil
}

func (d *DigestBytes) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("proof: bad digest encoding: %w", err)
	}
	*d = DigestBytes(raw)
	return nil
}

// PackageInfo identifies the package version a review is about.
type PackageInfo struct {
	Source   string      `yaml:"source"`
	Name     string      `yaml:"name"`
	Version  string      `yaml:"version"`
	Digest   DigestBytes `yaml:"digest"`
	Revision string      `yaml:"revision,omitempty"`
}

// PackageKey identifies a (source, name) pair, ignoring version — used by
// Store.ReviewsOfPackage and advisory/issue range matching.
type PackageKey struct {
	Source string
	Name   string
}

func (p PackageInfo) Key() PackageKey { return PackageKey{Source: p.Source, Name: p.Name} }

// ReviewInfo is the common thoroughness/understanding/rating triple shared
// by package and code review proofs.
type ReviewInfo struct {
	Thoroughness Level  `yaml:"thoroughness,omitempty"`
	Understanding Level `yaml:"understanding,omitempty"`
	Rating        Rating `yaml:"rating,omitempty"`
}

// Advisory declares that an issue is fixed as of this review's version and
// was present in some backward-looking window before it.
type Advisory struct {
	Ids      []string  `yaml:"ids"`
	Range    RangeKind `yaml:"range"`
	Severity Level     `yaml:"severity"`
}

// Issue declares a problem present as of this review's version, with no
// fix yet.
type Issue struct {
	Id       string `yaml:"id"`
	Severity Level  `yaml:"severity"`
}

// Alternative names a competing package the author considers equivalent.
type Alternative struct {
	Source string `yaml:"source"`
	Name   string `yaml:"name"`
}

// Flags carries whole-package (not version-scoped) signals.
type Flags struct {
	Unmaintained bool `yaml:"unmaintained,omitempty"`
}

// FileEntry is one per-file digest entry in a code review proof.
type FileEntry struct {
	Path   string      `yaml:"path"`
	Digest DigestBytes `yaml:"digest"`
}

// Common is the header shared by every proof body.
type Common struct {
	Version int            `yaml:"version"`
	Kind    string         `yaml:"kind"`
	Date    time.Time      `yaml:"date"`
	From    IdentityRecord `yaml:"from"`
}
