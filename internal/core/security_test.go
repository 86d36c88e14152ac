// AngelaMos | 2026
// security_test.go

package core

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, rehash, err := VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rehash)

	ok, _, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordRehashesOutdatedParams(t *testing.T) {
	salt := []byte("0123456789abcdef")
	key := argon2.IDKey([]byte("secret"), salt, 2, 32*1024, 2, argonKeyLen)
	old := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, 32*1024, 2, 2,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	ok, rehash, err := VerifyPassword("secret", old)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, rehash)

	ok, again, err := VerifyPassword("secret", rehash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, again)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	for _, hash := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=1$m=1,t=1,p=1$c2FsdA$aGFzaA",
	} {
		_, _, err := VerifyPassword("x", hash)
		assert.Error(t, err, hash)
	}
}

func TestVerifyPasswordTimingSafeMissingHash(t *testing.T) {
	ok, rehash, err := VerifyPasswordTimingSafe("x", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rehash)

	empty := ""
	ok, _, err = VerifyPasswordTimingSafe("x", &empty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenHashing(t *testing.T) {
	token, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	other, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	hash := HashToken(token)
	assert.Len(t, hash, 64)
	assert.True(t, CompareTokenHash(token, hash))
	assert.False(t, CompareTokenHash(other, hash))
}
