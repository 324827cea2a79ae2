package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tasknest/tasknest/internal/shared"
)

// TokenIssuer issues and verifies access tokens.
type TokenIssuer interface {
	Issue(userID int64, ttl time.Duration) (string, time.Time, error)
	Verify(token string) (int64, error)
}

// Session is the outcome of a successful login.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	User        User
}

// ServiceConfig tunes the auth Service.
type ServiceConfig struct {
	TokenTTL time.Duration
	Throttle Throttle
	Now      func() time.Time
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	hasher   PasswordHasher
	tokens   TokenIssuer
	throttle Throttle
	tokenTTL time.Duration
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewService constructs a new Service.
func NewService(repo Repository, hasher PasswordHasher, tokens TokenIssuer, cfg ServiceConfig) *Service {
	s := &Service{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		throttle: cfg.Throttle,
		tokenTTL: cfg.TokenTTL,
		now:      cfg.Now,
	}
	if s.throttle == nil {
		s.throttle = noopThrottle{}
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = 30 * time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Signup creates an active user. The password is stored only as a hash.
func (s *Service) Signup(ctx context.Context, email, password string) (*User, error) {
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, shared.ErrDuplicateEmail
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("auth: lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Microsecond)
	user, err := s.repo.Create(ctx, User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, shared.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}
	return user, nil
}

// Authenticate validates email/password credentials. Unknown email, inactive
// account and wrong password all yield shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.hasher.Verify(password, s.placeholderHash())
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: lookup email: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates the credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if err := s.throttle.Check(ctx, email); err != nil {
		return nil, err
	}
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			s.throttle.Fail(ctx, email)
		}
		return nil, err
	}
	s.throttle.Reset(ctx, email)

	token, expiresAt, err := s.tokens.Issue(user.ID, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, ExpiresAt: expiresAt, User: *user}, nil
}

// CurrentUser resolves the active user behind a verified user id.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthenticated
		}
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, shared.ErrUnauthenticated
	}
	return user, nil
}

// TokenTTL exposes the configured access token lifetime.
func (s *Service) TokenTTL() time.Duration {
	return s.tokenTTL
}

// placeholderHash keeps the unknown-email path doing bcrypt work comparable to a real check.
func (s *Service) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("placeholder-password")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
