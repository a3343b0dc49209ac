package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := GenerateToken(0)
		require.Error(t, err)
		_, err = GenerateToken(-1)
		require.Error(t, err)
	})

	t.Run("produces url-safe tokens of expected length", func(t *testing.T) {
		token, err := GenerateToken(TokenSize256)
		require.NoError(t, err)
		require.Len(t, token, 43) // 32 bytes base64url, no padding
		require.NotContains(t, token, "+")
		require.NotContains(t, token, "/")
		require.NotContains(t, token, "=")
	})

	t.Run("tokens are unique", func(t *testing.T) {
		seen := make(map[string]bool, 100)
		for range 100 {
			token, err := GenerateToken(TokenSize128)
			require.NoError(t, err)
			require.False(t, seen[token], "duplicate token generated")
			seen[token] = true
		}
	})
}

func TestFingerprintToken(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		require.Equal(t, FingerprintToken("abc"), FingerprintToken("abc"))
	})

	t.Run("distinct inputs give distinct fingerprints", func(t *testing.T) {
		require.NotEqual(t, FingerprintToken("abc"), FingerprintToken("abd"))
	})

	t.Run("fingerprint is 43 chars of base64url sha-256", func(t *testing.T) {
		require.Len(t, FingerprintToken("anything"), 43)
	})
}
