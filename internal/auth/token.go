package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tasknest/tasknest/internal/shared"
)

// Token verification failures. All of them wrap shared.ErrUnauthenticated.
var (
	ErrTokenMalformed        = fmt.Errorf("%w: token malformed", shared.ErrUnauthenticated)
	ErrTokenInvalidSignature = fmt.Errorf("%w: token signature invalid", shared.ErrUnauthenticated)
	ErrTokenExpired          = fmt.Errorf("%w: token expired", shared.ErrUnauthenticated)
)

// TokenFailureKind names a verification failure for logs and metrics.
func TokenFailureKind(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	default:
		return "missing"
	}
}

// TokenService issues and verifies HMAC-signed access tokens. It keeps no
// state between issuing and verifying.
type TokenService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

type accessClaims struct {
	jwt.RegisteredClaims
}

// NewTokenService builds a TokenService for an HMAC algorithm name (HS256, HS384, HS512).
func NewTokenService(secret, algorithm string, now func() time.Time) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("auth: token secret must be provided")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("auth: unsupported token algorithm %q", algorithm)
	}
	if now == nil {
		now = time.Now
	}
	return &TokenService{secret: []byte(secret), method: method, now: now}, nil
}

// Issue signs a token for userID that expires ttl from now.
func (s *TokenService) Issue(userID int64, ttl time.Duration) (string, time.Time, error) {
	if userID <= 0 {
		return "", time.Time{}, errors.New("auth: user id must be positive")
	}
	now := s.now()
	expiresAt := now.Add(ttl)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and expiry of token and returns the user id it was issued for.
func (s *TokenService) Verify(token string) (int64, error) {
	if token == "" {
		return 0, ErrTokenMalformed
	}
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, mapJWTError(err)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrTokenMalformed
	}
	return userID, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenInvalidSignature
	default:
		return ErrTokenMalformed
	}
}
