package auth

import "time"

// Config holds auth options.
type Config interface {
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetFrontendDomain() string
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
}

const (
	// DefaultAccessTokenTTL bounds the blast radius of a leaked access token.
	DefaultAccessTokenTTL = 15 * time.Minute
	// DefaultRefreshTokenTTL matches the refresh cookie Max-Age.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	// DefaultEphemeralTokenTTL applies to verification, reset, and
	// email-change tokens alike.
	DefaultEphemeralTokenTTL = 24 * time.Hour
)

// SimpleConfig is a plain struct Config implementation.
type SimpleConfig struct {
	Issuer          string
	Audience        []string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	FrontendDomain  string
	ContextKey      string
	TokenLookup     string
	AuthScheme      string
}

func (c SimpleConfig) GetIssuer() string { return c.Issuer }

func (c SimpleConfig) GetAudience() []string { return c.Audience }

func (c SimpleConfig) GetFrontendDomain() string { return c.FrontendDomain }

func (c SimpleConfig) GetAccessTokenTTL() time.Duration {
	if c.AccessTokenTTL <= 0 {
		return DefaultAccessTokenTTL
	}
	return c.AccessTokenTTL
}

func (c SimpleConfig) GetRefreshTokenTTL() time.Duration {
	if c.RefreshTokenTTL <= 0 {
		return DefaultRefreshTokenTTL
	}
	return c.RefreshTokenTTL
}

func (c SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

func (c SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:Authorization,cookie:" + RefreshCookieName
	}
	return c.TokenLookup
}

func (c SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}
