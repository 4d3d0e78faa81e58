package proof

import (
	"time"

	"github.com/crev-dev/go-crev/pkg/identity"
)

// TrustBody is the `trust` proof kind: the author's trust level toward one
// or more subject identities.
type TrustBody struct {
	Common   `yaml:",inline"`
	Ids      []IdentityRecord        `yaml:"ids"`
	Trust    Level                   `yaml:"trust"`
	Comment  string                  `yaml:"comment,omitempty"`
	Override []IdentityRecord        `yaml:"override,omitempty"`
	Extra    map[string]interface{}  `yaml:",inline"`
}

// TrustEdge is one (author -> subject) edge a TrustBody asserts, the unit
// the WoT engine consumes (spec.md §4.5).
type TrustEdge struct {
	From  identity.Id
	To    identity.Id
	Level Level
	Date  time.Time
	// Override lists identities whose proofs for the same subject are
	// suppressed while this edge is in scope (spec.md §3/§4.5 step 7).
	Override []identity.Id
}

// Edges explodes a TrustBody into one TrustEdge per listed subject, all
// sharing the proof's date, level and override list.
func (t *TrustBody) Edges() []TrustEdge {
	overrides := make([]identity.Id, len(t.Override))
	for i, o := range t.Override {
		overrides[i] = o.Id
	}
	edges := make([]TrustEdge, len(t.Ids))
	for i, subject := range t.Ids {
		edges[i] = TrustEdge{
			From:     t.From.Id,
			To:       subject.Id,
			Level:    t.Trust,
			Date:     t.Date,
			Override: overrides,
		}
	}
	return edges
}
