package social

import "github.com/goliatone/go-errors"

const (
	TextCodeProviderNotFound = "social_provider_not_found"
	TextCodeInvalidToken     = "social_invalid_token"
	TextCodeExistsUnlinked   = "social_account_exists_unlinked"
	TextCodeAlreadyLinked    = "social_account_already_linked"
)

// ErrProviderNotFound is returned when a requested provider is not configured.
var ErrProviderNotFound = errors.New("social provider not found", errors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidProviderToken is returned when provider token verification fails
// for any reason: bad signature, wrong audience, or network failure. All of
// them map to an unauthenticated response, never a partial success.
var ErrInvalidProviderToken = errors.New("provider token verification failed", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrAccountExistsUnlinked is returned when the provider-verified email
// matches a local account with no provider id on file. Auto-linking here
// would let a forged provider token hijack a password-protected account, so
// the caller must go through the explicit password-confirmed link step.
var ErrAccountExistsUnlinked = errors.New("account exists but is not linked to this provider", errors.CategoryConflict).
	WithTextCode(TextCodeExistsUnlinked).
	WithCode(errors.CodeConflict)

// ErrAccountAlreadyLinked is returned when a link attempt targets an account
// whose provider id already matches. A silent re-link must not pass as a
// fresh link; the client needs to distinguish the two.
var ErrAccountAlreadyLinked = errors.New("account is already linked to this provider", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyLinked).
	WithCode(errors.CodeConflict)
