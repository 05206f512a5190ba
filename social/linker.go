package social

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	auth "github.com/pavlion/go-directory-auth"
)

// Result is the outcome of a social flow. A nil Pair with Unlinked set means
// no local account exists for the verified email; the caller routes the user
// to registration. A token is never fabricated for a non-existent account.
type Result struct {
	User     *auth.User
	Pair     *auth.TokenPair
	Unlinked bool
}

// Linker reconciles provider-verified identities with local accounts. One
// instance serves every configured provider; the per-provider differences
// live entirely in the ProviderVerifier implementations.
type Linker struct {
	users     auth.UserStore
	roles     auth.RoleStore
	auther    auth.Authenticator
	passwords auth.PasswordAuthenticator
	providers map[string]ProviderVerifier
	logger    auth.Logger
}

// NewLinker creates a Linker with no providers registered.
func NewLinker(users auth.UserStore, roles auth.RoleStore, auther auth.Authenticator) *Linker {
	return &Linker{
		users:     users,
		roles:     roles,
		auther:    auther,
		passwords: auth.NewPasswordAuthenticator(),
		providers: map[string]ProviderVerifier{},
		logger:    auth.NewDefaultLogger(),
	}
}

func (l *Linker) WithLogger(logger auth.Logger) *Linker {
	if logger != nil {
		l.logger = logger
	}
	return l
}

func (l *Linker) WithPasswordAuthenticator(p auth.PasswordAuthenticator) *Linker {
	if p != nil {
		l.passwords = p
	}
	return l
}

// RegisterProvider makes a verifier available under its provider name.
func (l *Linker) RegisterProvider(v ProviderVerifier) *Linker {
	l.providers[strings.ToLower(v.Provider())] = v
	return l
}

// ListProviders returns the registered provider names.
func (l *Linker) ListProviders() []string {
	out := make([]string, 0, len(l.providers))
	for name := range l.providers {
		out = append(out, name)
	}
	return out
}

func (l *Linker) verify(ctx context.Context, provider, rawToken string) (*ProviderIdentity, error) {
	v, ok := l.providers[strings.ToLower(provider)]
	if !ok {
		return nil, ErrProviderNotFound.Clone().WithMetadata(map[string]any{
			"provider": provider,
		})
	}

	identity, err := v.Verify(ctx, rawToken)
	if err != nil {
		l.logger.Debug("provider token rejected", "provider", provider, "error", err)
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeInvalidToken {
			return nil, err
		}
		return nil, goerrors.Wrap(err, ErrInvalidProviderToken.Category, ErrInvalidProviderToken.Message).
			WithTextCode(ErrInvalidProviderToken.TextCode).
			WithCode(ErrInvalidProviderToken.Code)
	}

	return identity, nil
}

// Authenticate logs a user in with a raw provider credential. The verified
// email is used for lookup only: the account must already carry a matching
// provider id before any token is issued.
func (l *Linker) Authenticate(ctx context.Context, provider, rawToken string) (*Result, error) {
	identity, err := l.verify(ctx, provider, rawToken)
	if err != nil {
		return nil, err
	}

	user, err := l.users.GetByEmail(ctx, identity.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return &Result{Unlinked: true}, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user by provider email")
	}

	pid := user.ProviderID(identity.Provider)
	if pid == nil || *pid != identity.Subject {
		return nil, ErrAccountExistsUnlinked
	}

	if !user.Enabled {
		return nil, auth.ErrAccountDisabled
	}

	pair, err := l.auther.IssueFor(user)
	if err != nil {
		return nil, err
	}

	return &Result{User: user, Pair: pair}, nil
}

// Register creates a local account for a provider-verified identity. The
// account starts enabled: the provider already proved control of the email,
// so there is nothing left for a verification token to establish.
func (l *Linker) Register(ctx context.Context, provider, username, rawToken string) (*Result, error) {
	identity, err := l.verify(ctx, provider, rawToken)
	if err != nil {
		return nil, err
	}

	taken, err := l.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username availability")
	}
	if taken {
		return nil, auth.ErrUsernameExists
	}

	emailTaken, err := l.users.ExistsByEmail(ctx, identity.Email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
	}
	if emailTaken {
		return nil, ErrAccountExistsUnlinked
	}

	role, err := l.roles.GetByName(ctx, auth.RoleUser)
	if err != nil {
		return nil, err
	}

	user := &auth.User{
		Username:  username,
		Email:     identity.Email,
		Enabled:   true,
		RoleNames: []string{role.Name},
	}
	user.SetProviderID(identity.Provider, identity.Subject)

	created, err := l.users.Create(ctx, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user from provider identity")
	}

	pair, err := l.auther.IssueFor(created)
	if err != nil {
		return nil, err
	}

	return &Result{User: created, Pair: pair}, nil
}

// Link binds a provider identity to an existing password-protected account.
// The already-linked check runs before the password check on purpose: a
// caller who is not even eligible to link learns nothing about password
// validity.
func (l *Linker) Link(ctx context.Context, provider, password, rawToken string) (*Result, error) {
	identity, err := l.verify(ctx, provider, rawToken)
	if err != nil {
		return nil, err
	}

	user, err := l.users.GetByEmail(ctx, identity.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, auth.ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user by provider email")
	}

	if pid := user.ProviderID(identity.Provider); pid != nil && *pid == identity.Subject {
		return nil, ErrAccountAlreadyLinked
	}

	if err := l.passwords.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, auth.ErrMismatchedHashAndPassword
	}

	user.SetProviderID(identity.Provider, identity.Subject)

	updated, err := l.users.Update(ctx, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist provider link")
	}

	pair, err := l.auther.IssueFor(updated)
	if err != nil {
		return nil, err
	}

	return &Result{User: updated, Pair: pair}, nil
}
