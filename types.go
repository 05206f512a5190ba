package auth

import (
	"context"
	"fmt"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Principal is the resolved identity attached to a request after a token
// verifies. Roles come straight from the verified claims so authorization
// checks need no extra lookup.
type Principal struct {
	Subject string
	Roles   []string
	Enabled bool
}

// HasRole reports whether the principal carries the named role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserStore is the persistence capability the core reads users through.
// The directory service owns the records; this package never schema-manages
// them beyond the models it declares.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *User, criteria ...repository.InsertCriteria) (*User, error)
	Update(ctx context.Context, user *User, criteria ...repository.UpdateCriteria) (*User, error)
	DeleteByUsername(ctx context.Context, username string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
}

// RoleStore resolves named roles. Role records are seeded externally.
type RoleStore interface {
	GetByName(ctx context.Context, name string) (*Role, error)
}

// EphemeralTokenStore is the persistence capability behind one-time tokens.
// Replace must leave at most one live row per (user, purpose) even under
// concurrent issuance; the Bun implementation leans on the unique constraint
// for that.
type EphemeralTokenStore interface {
	Replace(ctx context.Context, token *EphemeralToken) (*EphemeralToken, error)
	FindByToken(ctx context.Context, token string) (*EphemeralToken, error)
	FindByUser(ctx context.Context, userID uuid.UUID, purpose TokenPurpose) (*EphemeralToken, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Mailer is the outbound notification capability. Delivery failures are
// logged and swallowed: a missing email never rolls back the mutation that
// triggered it, regeneration is always possible.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// PasswordAuthenticator is the opaque one-way password capability.
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

// NewDefaultLogger returns the stdout fallback logger.
func NewDefaultLogger() Logger {
	return defLogger{}
}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

type logMailer struct {
	logger Logger
}

// NewLogMailer returns a Mailer that prints instead of delivering. Useful in
// development and tests.
func NewLogMailer(logger Logger) Mailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &logMailer{logger: logger}
}

func (m *logMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("mail to=%s subject=%q body=%q", to, subject, body)
	return nil
}
