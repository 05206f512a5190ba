package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	// RoleUser is the default role assigned at registration.
	RoleUser = "ROLE_USER"
	// RoleAdmin marks directory administrators.
	RoleAdmin = "ROLE_ADMIN"
)

// User is the directory user model. The core reads it; the directory service
// owns it. A non-nil provider id means the matching email was verified by
// that provider at link time.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	Enabled       bool       `bun:"enabled,notnull,default:false" json:"enabled"`
	RoleNames     []string   `bun:"roles,array" json:"roles,omitempty"`
	GoogleID      *string    `bun:"google_id,nullzero" json:"google_id,omitempty"`
	FacebookID    *string    `bun:"facebook_id,nullzero" json:"facebook_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Principal projects the persisted record into the request-scoped identity.
func (u *User) Principal() Principal {
	return Principal{
		Subject: u.Username,
		Roles:   append([]string(nil), u.RoleNames...),
		Enabled: u.Enabled,
	}
}

// ProviderID returns the linked id for a provider name, nil when unlinked.
func (u *User) ProviderID(provider string) *string {
	switch provider {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderFacebook:
		return u.FacebookID
	}
	return nil
}

// SetProviderID records a provider link on the user.
func (u *User) SetProviderID(provider, id string) {
	switch provider {
	case ProviderGoogle:
		u.GoogleID = &id
	case ProviderFacebook:
		u.FacebookID = &id
	}
}

// Provider names understood by User.ProviderID / SetProviderID.
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// Role is a named capability. Uniqueness is enforced by name; records are
// seeded at deploy time.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string    `bun:"name,notnull,unique" json:"name,omitempty"`
}

// TokenPurpose discriminates the one-time token flows.
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify-email"
	PurposeResetPassword TokenPurpose = "reset-password"
	PurposeChangeEmail   TokenPurpose = "change-email"
)

// EphemeralToken is a single-use, time-boxed opaque token. The unique
// (user_id, purpose) constraint is what makes concurrent issuance safe:
// two racing Replace calls cannot both leave a live row.
type EphemeralToken struct {
	bun.BaseModel `bun:"table:ephemeral_tokens,alias:eph"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string       `bun:"token,notnull,unique" json:"token,omitempty"`
	UserID        uuid.UUID    `bun:"user_id,notnull,type:uuid,unique:user_purpose" json:"user_id,omitempty"`
	Purpose       TokenPurpose `bun:"purpose,notnull,unique:user_purpose" json:"purpose,omitempty"`
	Payload       string       `bun:"payload" json:"payload,omitempty"`
	ExpiresAt     time.Time    `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// ExpiredAt reports whether the token is past its expiry at the given time.
func (t *EphemeralToken) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
