package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest/internal/auth"
	"github.com/tasknest/tasknest/internal/shared"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenIssueAndVerify(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, err := auth.NewTokenService("secret", "HS256", fixedClock(now))
	require.NoError(t, err)

	token, expiresAt, err := svc.Issue(42, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), expiresAt)

	userID, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenZeroTTLIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, err := auth.NewTokenService("secret", "HS256", fixedClock(now))
	require.NoError(t, err)

	token, _, err := svc.Issue(1, 0)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.ErrorIs(t, err, auth.ErrTokenExpired)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
	assert.Equal(t, "expired", auth.TokenFailureKind(err))
}

func TestTokenExpiresAfterTTL(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	current := issuedAt
	svc, err := auth.NewTokenService("secret", "HS256", func() time.Time { return current })
	require.NoError(t, err)

	token, _, err := svc.Issue(7, time.Minute)
	require.NoError(t, err)

	current = issuedAt.Add(59 * time.Second)
	_, err = svc.Verify(token)
	require.NoError(t, err)

	current = issuedAt.Add(time.Minute)
	_, err = svc.Verify(token)
	require.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestTokenWrongSecretIsInvalidSignature(t *testing.T) {
	now := time.Now()
	issuer, err := auth.NewTokenService("secret-a", "HS256", fixedClock(now))
	require.NoError(t, err)
	verifier, err := auth.NewTokenService("secret-b", "HS256", fixedClock(now))
	require.NoError(t, err)

	token, _, err := issuer.Issue(1, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, auth.ErrTokenInvalidSignature)
	assert.Equal(t, "invalid_signature", auth.TokenFailureKind(err))
}

func TestTokenAlgorithmMismatchIsRejected(t *testing.T) {
	now := time.Now()
	issuer, err := auth.NewTokenService("secret", "HS512", fixedClock(now))
	require.NoError(t, err)
	verifier, err := auth.NewTokenService("secret", "HS256", fixedClock(now))
	require.NoError(t, err)

	token, _, err := issuer.Issue(1, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, auth.ErrTokenInvalidSignature)
}

func TestTokenUnsignedIsRejected(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	svc, err := auth.NewTokenService("secret", "HS256", nil)
	require.NoError(t, err)
	_, err = svc.Verify(unsigned)
	require.ErrorIs(t, err, auth.ErrTokenInvalidSignature)
}

func TestTokenMalformed(t *testing.T) {
	svc, err := auth.NewTokenService("secret", "HS256", nil)
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Verify(token)
		require.Error(t, err, token)
		assert.True(t, errors.Is(err, auth.ErrTokenMalformed), "token %q: %v", token, err)
	}
}

func TestTokenWithoutExpiryIsMalformed(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	svc, err := auth.NewTokenService("secret", "HS256", nil)
	require.NoError(t, err)
	_, err = svc.Verify(signed)
	require.ErrorIs(t, err, auth.ErrTokenMalformed)
}

func TestTokenNonNumericSubjectIsMalformed(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "a@x.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	svc, err := auth.NewTokenService("secret", "HS256", nil)
	require.NoError(t, err)
	_, err = svc.Verify(signed)
	require.ErrorIs(t, err, auth.ErrTokenMalformed)
}

func TestNewTokenServiceRejectsBadConfig(t *testing.T) {
	_, err := auth.NewTokenService("", "HS256", nil)
	require.Error(t, err)

	_, err = auth.NewTokenService("secret", "RS256", nil)
	require.Error(t, err)

	_, err = auth.NewTokenService("secret", "none", nil)
	require.Error(t, err)
}
