package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	h := NewSecretHasher()

	hash, err := h.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$2"), "bcrypt encoding expected")

	require.True(t, h.VerifyPassword("correct horse battery staple", hash))
	require.False(t, h.VerifyPassword("correct horse battery stable", hash))
	require.False(t, h.VerifyPassword("", hash))
}

func TestPasswordHashesAreSalted(t *testing.T) {
	h := NewSecretHasher()

	a, err := h.HashPassword("secret-password")
	require.NoError(t, err)
	b, err := h.HashPassword("secret-password")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.True(t, h.VerifyPassword("secret-password", a))
	require.True(t, h.VerifyPassword("secret-password", b))
}

func TestRefreshSecretRoundTrip(t *testing.T) {
	h := NewSecretHasher()

	hash, err := h.HashRefreshSecret("some.jwt.token")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	require.True(t, h.VerifyRefreshSecret(hash, "some.jwt.token"))
	require.False(t, h.VerifyRefreshSecret(hash, "some.jwt.other"))
}

func TestRefreshSecretHashesAreSalted(t *testing.T) {
	h := NewSecretHasher()

	a, err := h.HashRefreshSecret("proof")
	require.NoError(t, err)
	b, err := h.HashRefreshSecret("proof")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

// The two families must never accept each other's output.
func TestFamiliesNotInterchangeable(t *testing.T) {
	h := NewSecretHasher()

	pw, err := h.HashPassword("shared-secret")
	require.NoError(t, err)
	rt, err := h.HashRefreshSecret("shared-secret")
	require.NoError(t, err)

	require.False(t, h.VerifyRefreshSecret(pw, "shared-secret"))
	require.False(t, h.VerifyPassword("shared-secret", rt))
}

func TestVerifyRefreshSecretRejectsMalformed(t *testing.T) {
	h := NewSecretHasher()

	for _, hash := range []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=65536,t=1,p=4$salt",          // missing key part
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$a2V5",   // wrong version
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$a2V5",    // wrong variant
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$a2V5",      // bad salt encoding
		"$argon2id$v=19$m=65536,t=1,p=999$c2FsdA$a2V5", // parallelism overflow
	} {
		require.False(t, h.VerifyRefreshSecret(hash, "anything"), "hash %q must not verify", hash)
	}
}
