package codec_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/crev-dev/go-crev/pkg/codec"
)

type sample struct {
	Version int                    `yaml:"version"`
	Kind    string                 `yaml:"kind"`
	Name    string                 `yaml:"name"`
	Extra   map[string]interface{} `yaml:",inline"`
}

func TestEncodeDeterminism(t *testing.T) {
	s := sample{Version: -1, Kind: "trust", Name: "alice"}
	b1, err := codec.Marshal(&s)
	require.NoError(t, err)

	var decoded sample
	require.NoError(t, codec.Unmarshal(b1, &decoded))

	b2, err := codec.Marshal(&decoded)
	require.NoError(t, err)

	require.Equal(t, string(b1), string(b2))
}

func TestUnknownFieldPreservation(t *testing.T) {
	raw := []byte("version: -1\nkind: trust\nname: alice\nx: 1\n")

	var decoded sample
	require.NoError(t, codec.Unmarshal(raw, &decoded))
	require.Equal(t, 1, decoded.Extra["x"])

	reencoded, err := codec.Marshal(&decoded)
	require.NoError(t, err)

	var roundTripped sample
	require.NoError(t, codec.Unmarshal(reencoded, &roundTripped))
	if diff := cmp.Diff(decoded, roundTripped); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	// Canonical encoding is a fixpoint: re-encoding already-decoded bytes
	// must reproduce them exactly, not just structurally (spec.md property 3).
	reencodedAgain, err := codec.Marshal(&roundTripped)
	require.NoError(t, err)
	require.Equal(t, string(reencoded), string(reencodedAgain))
}

func TestCRLFNormalizedOnDecodeOnly(t *testing.T) {
	raw := []byte("version: -1\r\nkind: trust\r\nname: alice\r\n")

	var decoded sample
	require.NoError(t, codec.Unmarshal(raw, &decoded))
	require.Equal(t, "alice", decoded.Name)

	out, err := codec.Marshal(&decoded)
	require.NoError(t, err)
	require.NotContains(t, string(out), "\r")
}
