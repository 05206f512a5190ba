package social

import "context"

// ProviderIdentity is the normalized, provider-verified claim set. Email is
// trusted for lookup only, never for authorization.
type ProviderIdentity struct {
	Provider string
	Subject  string
	Email    string
}

// ProviderVerifier verifies a raw provider credential server side and
// returns the identity it proves. Implementations do the full cryptographic
// or round-trip check; a nil error means the identity is provider-verified.
type ProviderVerifier interface {
	// Provider returns the provider identifier (e.g. "google", "facebook").
	Provider() string

	// Verify checks the raw token with the provider. Any failure, network
	// included, must surface as ErrInvalidProviderToken.
	Verify(ctx context.Context, rawToken string) (*ProviderIdentity, error)
}
