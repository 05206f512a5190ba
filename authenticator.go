package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
)

// TokenPair is what a successful login or social login produces. The access
// token travels in the response body, the refresh token only ever in the
// HTTP-only cookie.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Authenticator verifies local credentials and mints token pairs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*TokenPair, error)
	Refresh(ctx context.Context, rawRefreshToken string) (string, error)
	IssueFor(user *User) (*TokenPair, error)
}

// Auther is the default Authenticator implementation.
type Auther struct {
	users     UserStore
	tokens    TokenService
	passwords PasswordAuthenticator
	logger    Logger
}

// NewAuthenticator returns a new Authenticator.
func NewAuthenticator(users UserStore, tokens TokenService) *Auther {
	return &Auther{
		users:     users,
		tokens:    tokens,
		passwords: NewPasswordAuthenticator(),
		logger:    defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Auther) WithPasswordAuthenticator(p PasswordAuthenticator) *Auther {
	if p != nil {
		s.passwords = p
	}
	return s
}

// Login verifies the local credential and issues a fresh pair. Lookup misses
// and hash mismatches collapse into the same credential error so callers
// cannot probe for usernames.
func (s *Auther) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Debug("Login unknown username %q", username)
			return nil, ErrMismatchedHashAndPassword
		}
		s.logger.Error("Login user lookup error", "error", err)
		return nil, err
	}

	if err := s.passwords.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Debug("Login password mismatch for %q", username)
		return nil, ErrMismatchedHashAndPassword
	}

	if !user.Enabled {
		return nil, ErrAccountDisabled
	}

	return s.IssueFor(user)
}

// Refresh mints a new access token from a valid refresh token. Expired,
// malformed, and wrong-kind tokens all fail; the HTTP boundary renders them
// with a single message.
func (s *Auther) Refresh(ctx context.Context, rawRefreshToken string) (string, error) {
	claims, err := s.tokens.Verify(rawRefreshToken)
	if err != nil {
		return "", err
	}

	if claims.Kind() != RefreshToken {
		return "", ErrTokenMalformed
	}

	return s.tokens.Issue(claims.Subject(), claims.Roles(), AccessToken)
}

// IssueFor mints both tokens for an already-authenticated user.
func (s *Auther) IssueFor(user *User) (*TokenPair, error) {
	access, err := s.tokens.Issue(user.Username, user.RoleNames, AccessToken)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.Issue(user.Username, user.RoleNames, RefreshToken)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
