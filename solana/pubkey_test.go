package solana

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePubkeyRoundTrip(t *testing.T) {
	addr := "ComputeBudget111111111111111111111111111111"
	pk, err := ParsePubkey(addr)
	require.NoError(t, err)
	require.Equal(t, addr, pk.String())
	require.False(t, pk.IsZero())
}

func TestParsePubkeyRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"short", "abc"},
		{"bad alphabet", "0OIl"},
		{"wrong length", "1111111111111111"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParsePubkey(tc.in); err == nil {
				t.Fatalf("ParsePubkey(%q) accepted invalid input", tc.in)
			}
		})
	}
}

func TestSystemProgramIsAllZero(t *testing.T) {
	require.True(t, SystemProgramID.IsZero())
	require.Equal(t, "11111111111111111111111111111111", SystemProgramID.String())
}

func TestParseHashRoundTrip(t *testing.T) {
	var h Hash
	for i := range h {
		h[i] = byte(i + 1)
	}
	parsed, err := ParseHash(h.String())
	require.NoError(t, err)
	require.Equal(t, h, parsed)
}

func TestParseSignatureLength(t *testing.T) {
	var sig Signature
	sig[0] = 7
	parsed, err := ParseSignature(sig.String())
	require.NoError(t, err)
	require.Equal(t, sig, parsed)

	_, err = ParseSignature("abc")
	require.Error(t, err)
}
