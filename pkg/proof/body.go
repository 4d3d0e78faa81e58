package proof

import (
	"errors"
	"fmt"

	"github.com/crev-dev/go-crev/pkg/codec"
)

// ErrUnsupportedKind is returned by interpreters (WoT, verification) that
// are handed a proof whose kind they do not understand. Decode itself never
// returns this: unknown kinds decode successfully as pass-through proofs
// (spec.md §4.1).
var ErrUnsupportedKind = errors.New("proof: unsupported kind")

// Proof is a decoded envelope: exactly one of Trust, PackageReview or
// CodeReview is non-nil, unless Unknown is true (in which case none are, and
// the proof is retained only for byte-accurate pass-through).
type Proof struct {
	EnvelopeKind string
	Header       Common
	Trust        *TrustBody
	PackageReview *PackageReviewBody
	CodeReview    *CodeReviewBody
	Unknown       bool

	// CanonicalBody is the re-encoded canonical bytes the signature must be
	// verified against (spec.md §4.1 edge case: re-canonicalize before
	// verifying, since the source bytes may have had mixed line endings).
	CanonicalBody []byte
	Signature     []byte
}

type genericBody struct {
	Common `yaml:",inline"`
	Extra  map[string]interface{} `yaml:",inline"`
}

// Decode interprets one codec.Envelope into a Proof. Structural decode
// failures return codec.MalformedProof; unknown kinds succeed with
// Unknown=true.
func Decode(env codec.Envelope) (*Proof, error) {
	bodyKind, known := ParseEnvelopeKind(env.Kind)
	if !known {
		var g genericBody
		if err := codec.Unmarshal(env.Body, &g); err != nil {
			return nil, err
		}
		canon, err := codec.Marshal(&g)
		if err != nil {
			return nil, err
		}
		return &Proof{
			EnvelopeKind:  env.Kind,
			Header:        g.Common,
			Unknown:       true,
			CanonicalBody: canon,
			Signature:     env.Signature,
		}, nil
	}

	switch bodyKind {
	case KindTrust:
		var b TrustBody
		if err := codec.Unmarshal(env.Body, &b); err != nil {
			return nil, err
		}
		canon, err := codec.Marshal(&b)
		if err != nil {
			return nil, err
		}
		return &Proof{EnvelopeKind: env.Kind, Header: b.Common, Trust: &b, CanonicalBody: canon, Signature: env.Signature}, nil

	case KindPackageReview:
		var b PackageReviewBody
		if err := codec.Unmarshal(env.Body, &b); err != nil {
			return nil, err
		}
		canon, err := codec.Marshal(&b)
		if err != nil {
			return nil, err
		}
		return &Proof{EnvelopeKind: env.Kind, Header: b.Common, PackageReview: &b, CanonicalBody: canon, Signature: env.Signature}, nil

	case KindCodeReview:
		var b CodeReviewBody
		if err := codec.Unmarshal(env.Body, &b); err != nil {
			return nil, err
		}
		canon, err := codec.Marshal(&b)
		if err != nil {
			return nil, err
		}
		return &Proof{EnvelopeKind: env.Kind, Header: b.Common, CodeReview: &b, CanonicalBody: canon, Signature: env.Signature}, nil

	default:
		return nil, fmt.Errorf("proof: %w: %s", ErrUnsupportedKind, env.Kind)
	}
}

// Encode re-wraps p as an armored envelope using the given signature.
func (p *Proof) Encode(signature []byte) string {
	return codec.Wrap(p.EnvelopeKind, p.CanonicalBody, signature)
}

// Body is implemented by the three proof body types (TrustBody,
// PackageReviewBody, CodeReviewBody), letting pkg/store's Commit accept any
// of them without a type switch.
type Body interface {
	Header() Common
	Kind() BodyKind
}

func (t *TrustBody) Header() Common          { return t.Common }
func (t *TrustBody) Kind() BodyKind          { return KindTrust }
func (p *PackageReviewBody) Header() Common  { return p.Common }
func (p *PackageReviewBody) Kind() BodyKind  { return KindPackageReview }
func (c *CodeReviewBody) Header() Common     { return c.Common }
func (c *CodeReviewBody) Kind() BodyKind     { return KindCodeReview }
