package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crev-dev/go-crev/pkg/codec"
)

func TestWrapUnwrapRoundTrip(t *testing.T) {
	body := []byte("version: -1\nkind: trust\n")
	sig := []byte{1, 2, 3, 4, 5}

	text := codec.Wrap("TRUST", body, sig)

	envs, err := codec.Unwrap(text)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	require.Equal(t, "TRUST", envs[0].Kind)
	require.Equal(t, body, envs[0].Body)
	require.Equal(t, sig, envs[0].Signature)
}

func TestUnwrapConcatenatedStream(t *testing.T) {
	one := codec.Wrap("TRUST", []byte("a: 1\n"), []byte{1})
	two := codec.Wrap("PACKAGE REVIEW", []byte("b: 2\n"), []byte{2, 3})

	envs, err := codec.Unwrap(one + two)
	require.NoError(t, err)
	require.Len(t, envs, 2)
	require.Equal(t, "TRUST", envs[0].Kind)
	require.Equal(t, "PACKAGE REVIEW", envs[1].Kind)
}

func TestUnwrapTruncatedEnvelope(t *testing.T) {
	_, err := codec.Unwrap("-----BEGIN CREV TRUST-----\nversion: -1\n")
	require.Error(t, err)
}
