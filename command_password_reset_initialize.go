package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email"`
}

func (e InitializePasswordResetMessage) Type() string { return "user.password_reset" }

func (e InitializePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// InitializePasswordResetHandler issues a reset token for the account behind
// the email. An unknown email succeeds silently: forgot-password must not be
// an account-existence oracle.
type InitializePasswordResetHandler struct {
	repo      RepositoryManager
	ephemeral *EphemeralTokenService
	logger    Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, ephemeral *EphemeralTokenService) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:      repo,
		ephemeral: ephemeral,
		logger:    defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			h.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	if _, err := h.ephemeral.IssueFor(ctx, user, PurposeResetPassword, ""); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	return nil
}
