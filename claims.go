package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind selects the lifetime of an issued token.
type TokenKind string

const (
	// AccessToken is the short-lived bearer credential.
	AccessToken TokenKind = "access"
	// RefreshToken is the long-lived credential, cookie transport only.
	RefreshToken TokenKind = "refresh"
)

// AuthClaims is the read surface over verified claims.
type AuthClaims interface {
	Subject() string
	Roles() []string
	Kind() TokenKind
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete claims set embedded in every token. Immutable
// once issued; its existence is encoded entirely in the signature and expiry.
type JWTClaims struct {
	jwt.RegisteredClaims
	RoleNames []string  `json:"roles,omitempty"`
	TokenKind TokenKind `json:"kind,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

func (c *JWTClaims) Roles() []string {
	return c.RoleNames
}

func (c *JWTClaims) Kind() TokenKind {
	return c.TokenKind
}

func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// Principal builds the request principal from verified claims. Enabled is
// true by definition: disabled accounts never get tokens issued.
func (c *JWTClaims) Principal() Principal {
	return Principal{
		Subject: c.Subject(),
		Roles:   append([]string(nil), c.RoleNames...),
		Enabled: true,
	}
}

// HasRole checks the embedded role list.
func (c *JWTClaims) HasRole(role string) bool {
	for _, r := range c.RoleNames {
		if r == role {
			return true
		}
	}
	return false
}
