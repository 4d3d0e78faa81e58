package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/crev-dev/go-crev/pkg/codec"
	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/proof"
)

// Commit canonicalizes, signs, and appends body to the caller's working
// proof repository rooted at root, then merges the freshly signed proof
// into the in-memory indices so it is immediately visible to queries
// (spec.md §4.4: "persists a freshly signed proof under the current
// author's subtree"). The whole operation — disk append and index update —
// holds s.mu, the "single mutex guarding the on-disk layout" spec.md §5
// requires for writes.
func (s *Store) Commit(root string, seed []byte, salt string, body proof.Body) (string, error) {
	canon, err := codec.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("store: commit: %w", err)
	}

	header := body.Header()
	sig, err := identity.Sign(seed, canon)
	if err != nil {
		return "", fmt.Errorf("store: commit: %w", err)
	}

	path := ProofPath(root, header.From.Id, body.Kind(), header.Date, salt)
	kindMarker := proof.EnvelopeKind(body.Kind())

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := appendEnvelope(path, kindMarker, canon, sig); err != nil {
		return "", err
	}

	env := codec.Envelope{Kind: kindMarker, Body: canon, Signature: sig}
	p, err := proof.Decode(env)
	if err != nil {
		return "", fmt.Errorf("store: commit: re-decode freshly signed proof: %w", err)
	}
	s.insertLocked(&Record{Proof: p, Hash: hashProof(p), Source: root})

	return path, nil
}

func appendEnvelope(path, kind string, canon, sig []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(codec.Wrap(kind, canon, sig)); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}
