package auth

import "github.com/goliatone/go-errors"

const (
	TextCodeTokenExpired     = "token_expired"
	TextCodeTokenMalformed   = "token_malformed"
	TextCodeBadSignature     = "token_bad_signature"
	TextCodeInvalidCreds     = "invalid_credentials"
	TextCodeEmptyPassword    = "empty_password"
	TextCodeUsernameExists   = "username_exists"
	TextCodeRoleNotFound     = "role_not_found"
	TextCodeAccountDisabled  = "account_disabled"
	TextCodeEphemeralInvalid = "ephemeral_token_invalid"
)

// ErrTokenExpired is returned for well formed tokens past their expiry.
// Callers branch on this to route into the refresh flow.
var ErrTokenExpired = errors.New("token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers tokens that cannot be parsed into claims.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidSignature covers structurally valid tokens whose signature does
// not verify against the process key.
var ErrInvalidSignature = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeBadSignature).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the generic credential failure.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrIdentityNotFound is returned when no user matches an identifier.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrUsernameExists is returned when a registration collides on username.
var ErrUsernameExists = errors.New("username already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameExists).
	WithCode(errors.CodeConflict)

// ErrRoleNotFound indicates the default role is missing. The role table is
// seeded at deploy time, so this is a fatal configuration error rather than
// a user-recoverable one.
var ErrRoleNotFound = errors.New("role not found", errors.CategoryInternal).
	WithTextCode(TextCodeRoleNotFound).
	WithCode(errors.CodeInternal)

// ErrAccountDisabled is returned when credentials verify but the account has
// not completed email verification.
var ErrAccountDisabled = errors.New("account is disabled", errors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(errors.CodeUnauthorized)

// ErrEphemeralNotFound and ErrEphemeralExpired share a text code on purpose:
// the presentation layer must render both as "invalid or expired token" so a
// caller cannot probe which tokens exist.
var ErrEphemeralNotFound = errors.New("ephemeral token not found", errors.CategoryNotFound).
	WithTextCode(TextCodeEphemeralInvalid).
	WithCode(errors.CodeNotFound)

var ErrEphemeralExpired = errors.New("ephemeral token has expired", errors.CategoryValidation).
	WithTextCode(TextCodeEphemeralInvalid).
	WithCode(errors.CodeBadRequest)

// IsCredentialFailure reports whether err should surface as a generic
// credential error at the boundary.
func IsCredentialFailure(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == TextCodeInvalidCreds
	}
	return false
}
