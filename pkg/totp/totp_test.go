package totp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seed20 is the 20-byte ASCII secret "12345678901234567890" used by the
// RFC 6238 Appendix B SHA1 test vectors, base32-encoded.
const seed20 = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestGenerateRFC6238Vectors(t *testing.T) {
	// RFC 6238 Appendix B, HMAC-SHA1 rows only (this generator is fixed to SHA1).
	tests := []struct {
		unixSeconds int64
		want        string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}

	for _, tc := range tests {
		got := Generate(seed20, tc.unixSeconds)
		require.True(t, got.Valid)
		assert.Equal(t, tc.want, got.Value, "unixSeconds=%d", tc.unixSeconds)
	}
}

func TestGenerateFromSpecExample(t *testing.T) {
	// spec.md scenario 4: seed JBSWY3DPEHPK3PXP at Unix time 59 -> 287082.
	got := Generate("JBSWY3DPEHPK3PXP", 59)
	require.True(t, got.Valid)
	assert.Equal(t, "287082", got.Value)
}

func TestGenerateAcceptsUnpaddedAndPadded(t *testing.T) {
	padded := "JBSWY3DPEE======"
	unpadded := "jbswy3dpee"

	a := Generate(padded, 59)
	b := Generate(unpadded, 59)
	require.True(t, a.Valid)
	require.True(t, b.Valid)
	assert.Equal(t, a.Value, b.Value)
}

func TestGenerateCodesDifferAcrossStepBoundary(t *testing.T) {
	a := Generate(seed20, 29) // step 0
	b := Generate(seed20, 30) // step 1
	require.True(t, a.Valid)
	require.True(t, b.Valid)
	assert.NotEqual(t, a.Value, b.Value)
}

func TestGenerateSecondsRemaining(t *testing.T) {
	got := Generate(seed20, 59)
	assert.Equal(t, 1, got.SecondsRemaining)

	got = Generate(seed20, 30)
	assert.Equal(t, 30, got.SecondsRemaining)
}

func TestGenerateInvalidSeed(t *testing.T) {
	got := Generate("not-base32!!", 59)
	assert.False(t, got.Valid)
	assert.Empty(t, got.Value)
}

func TestGenerateEmptySeed(t *testing.T) {
	got := Generate("", 59)
	assert.False(t, got.Valid)
}
