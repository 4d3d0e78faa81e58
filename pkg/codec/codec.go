// Package codec implements the canonical, deterministic text encoding used
// to produce the exact bytes a proof signature covers, plus the armored
// envelope framing proofs are shipped in.
//
// Determinism rests entirely on gopkg.in/yaml.v3: struct fields encode in
// declaration order and map keys are sorted before encoding, so two callers
// marshaling equal values always produce identical bytes. Unknown fields are
// carried by embedding a `,inline` map on every proof body struct (see
// package proof); on encode yaml.v3 writes that map's keys, sorted, after
// the struct's own fields, which is what gives us lossless pass-through for
// proofs from a newer schema version.
package codec

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MalformedProof is returned when body bytes cannot be parsed as the
// canonical document structure.
var MalformedProof = errors.New("codec: malformed proof body")

// Marshal produces the canonical byte encoding of v. v must be a struct (or
// pointer to struct) whose fields are tagged for yaml.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal parses canonical (or merely CRLF-dirty) bytes into v. Line
// endings are normalized to LF before parsing; the signature a caller
// verifies against must come from re-Marshal-ing the result, not from these
// raw input bytes, per the canonical-bytes contract in spec.md §4.1.
func Unmarshal(data []byte, v interface{}) error {
	normalized := normalizeLineEndings(data)
	dec := yaml.NewDecoder(bytes.NewReader(normalized))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", MalformedProof, err)
	}
	return nil
}

// Canonicalize re-encodes data by decoding it into a fresh value of the same
// type as template and re-marshaling, producing deterministic canonical
// bytes regardless of the input's formatting. template is only used for its
// type; its value is ignored.
func Canonicalize(data []byte, template interface{}) ([]byte, error) {
	v, err := newLike(template)
	if err != nil {
		return nil, err
	}
	if err := Unmarshal(data, v); err != nil {
		return nil, err
	}
	return Marshal(v)
}

func normalizeLineEndings(data []byte) []byte {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
	return data
}
