package google

import (
	"context"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/pavlion/go-directory-auth/social"
)

const defaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

var defaultIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// Config holds Google ID token verification settings.
type Config struct {
	// ClientID is the OAuth client id; verified against the token audience.
	ClientID string

	// JWKSURL overrides the Google certificate endpoint, mainly for tests.
	JWKSURL string

	// Issuers overrides the accepted iss values.
	Issuers []string
}

// Verifier checks Google ID tokens against the published JWK set. The key
// set refreshes in the background; verification itself is offline.
type Verifier struct {
	config Config
	jwks   *keyfunc.JWKS
}

// New creates a Google verifier and starts the background JWKS refresh.
func New(cfg Config) (*Verifier, error) {
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = defaultJWKSURL
	}
	if len(cfg.Issuers) == 0 {
		cfg.Issuers = defaultIssuers
	}

	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of the Google JWK set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load Google JWK set")
	}

	return &Verifier{config: cfg, jwks: jwks}, nil
}

// Provider implements social.ProviderVerifier.
func (v *Verifier) Provider() string {
	return "google"
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// Verify implements social.ProviderVerifier. Signature, audience, issuer,
// and expiry all have to hold; any failure collapses into the single
// invalid-token error.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*social.ProviderIdentity, error) {
	claims := &idTokenClaims{}

	token, err := jwt.ParseWithClaims(rawToken, claims, v.jwks.Keyfunc,
		jwt.WithAudience(v.config.ClientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, invalidToken(err)
	}

	if !issuerAllowed(claims.Issuer, v.config.Issuers) {
		return nil, invalidToken(nil)
	}

	if claims.Subject == "" || claims.Email == "" || !claims.EmailVerified {
		return nil, invalidToken(nil)
	}

	return &social.ProviderIdentity{
		Provider: v.Provider(),
		Subject:  claims.Subject,
		Email:    claims.Email,
	}, nil
}

func issuerAllowed(issuer string, allowed []string) bool {
	for _, iss := range allowed {
		if issuer == iss {
			return true
		}
	}
	return false
}

func invalidToken(err error) error {
	if err == nil {
		return social.ErrInvalidProviderToken
	}
	return goerrors.Wrap(err, social.ErrInvalidProviderToken.Category, social.ErrInvalidProviderToken.Message).
		WithTextCode(social.ErrInvalidProviderToken.TextCode).
		WithCode(social.ErrInvalidProviderToken.Code)
}
