package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	pathVerifyEmail   = "/verify-email/"
	pathResetPassword = "/reset-password/"
	pathConfirmEmail  = "/confirm-email/"
)

// EphemeralTokenService issues and redeems the single-use tokens backing
// email verification, password reset, and email change. Expiry is lazy:
// expired rows sit in storage until a redemption attempt or a superseding
// issuance reaps them.
type EphemeralTokenService struct {
	store          EphemeralTokenStore
	mailer         Mailer
	frontendDomain string
	ttl            time.Duration
	logger         Logger
	now            func() time.Time
}

// NewEphemeralTokenService creates a service with the 24h default TTL.
func NewEphemeralTokenService(store EphemeralTokenStore, mailer Mailer, frontendDomain string) *EphemeralTokenService {
	return &EphemeralTokenService{
		store:          store,
		mailer:         mailer,
		frontendDomain: frontendDomain,
		ttl:            DefaultEphemeralTokenTTL,
		logger:         defLogger{},
		now:            time.Now,
	}
}

func (s *EphemeralTokenService) WithLogger(logger Logger) *EphemeralTokenService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *EphemeralTokenService) WithTTL(ttl time.Duration) *EphemeralTokenService {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// WithClock overrides the time source. Test hook.
func (s *EphemeralTokenService) WithClock(now func() time.Time) *EphemeralTokenService {
	if now != nil {
		s.now = now
	}
	return s
}

// IssueFor mints an opaque token for the user and purpose, superseding any
// prior live token for the same pair, and dispatches the notification email.
// Email failure is logged, never propagated: the persisted token stands and
// can be regenerated.
func (s *EphemeralTokenService) IssueFor(ctx context.Context, user *User, purpose TokenPurpose, payload string) (*EphemeralToken, error) {
	if user == nil {
		return nil, goerrors.New("user must not be nil", goerrors.CategoryBadInput)
	}

	token := &EphemeralToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Purpose:   purpose,
		Payload:   payload,
		ExpiresAt: s.now().Add(s.ttl),
	}

	token, err := s.store.Replace(ctx, token)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, user, token)

	return token, nil
}

// Redeem consumes a token exactly once. Both the unknown and the expired
// case must be rendered identically upstream; expired rows are deleted on
// the failed attempt so they cannot be probed again.
func (s *EphemeralTokenService) Redeem(ctx context.Context, token string, purpose TokenPurpose) (*EphemeralToken, error) {
	record, err := s.store.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if record.Purpose != purpose {
		return nil, ErrEphemeralNotFound
	}

	if record.ExpiredAt(s.now()) {
		if err := s.store.Delete(ctx, record.ID); err != nil {
			s.logger.Warn("failed to reap expired ephemeral token: %v", err)
		}
		return nil, ErrEphemeralExpired
	}

	if err := s.store.Delete(ctx, record.ID); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume ephemeral token")
	}

	return record, nil
}

func (s *EphemeralTokenService) notify(ctx context.Context, user *User, token *EphemeralToken) {
	var to, subject, body string

	switch token.Purpose {
	case PurposeVerifyEmail:
		to = user.Email
		subject = "Email Verification"
		body = "Click the link to verify your email: " + s.frontendDomain + pathVerifyEmail + token.Token
	case PurposeResetPassword:
		to = user.Email
		subject = "Password Reset"
		body = "Click the link to reset your password: " + s.frontendDomain + pathResetPassword + token.Token
	case PurposeChangeEmail:
		// confirmation goes to the proposed address, not the current one
		to = token.Payload
		subject = "Confirm your email"
		body = "Please click the link to confirm your new email: " + s.frontendDomain + pathConfirmEmail + token.Token
	default:
		return
	}

	if err := s.mailer.Send(ctx, to, subject, body); err != nil {
		s.logger.Warn("email dispatch failed for %s token: %v", token.Purpose, err)
	}
}

// ResendVerification re-sends the verification link for a still-disabled
// account without rotating the token.
func (s *EphemeralTokenService) ResendVerification(ctx context.Context, user *User) error {
	if user == nil || user.Enabled {
		return goerrors.New("account is not pending verification", goerrors.CategoryBadInput)
	}

	token, err := s.store.FindByUser(ctx, user.ID, PurposeVerifyEmail)
	if err != nil {
		return err
	}

	body := "Click the link to verify your email: " + s.frontendDomain + pathVerifyEmail + token.Token
	if err := s.mailer.Send(ctx, user.Email, "Resend Email Verification", body); err != nil {
		s.logger.Warn("email dispatch failed for resend verification: %v", err)
	}

	return nil
}
