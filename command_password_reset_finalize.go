package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type FinalizePasswordResetMessage struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (e FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

func (e FinalizePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Token, validation.Required),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 128)),
	)
}

// FinalizePasswordResetHandler redeems the reset token and stores the newly
// hashed password. Redemption consumes the token whatever happens next.
type FinalizePasswordResetHandler struct {
	repo      RepositoryManager
	ephemeral *EphemeralTokenService
	logger    Logger
}

func NewFinalizePasswordResetHandler(repo RepositoryManager, ephemeral *EphemeralTokenService) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:      repo,
		ephemeral: ephemeral,
		logger:    defLogger{},
	}
}

func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	record, err := h.ephemeral.Redeem(ctx, event.Token, PurposeResetPassword)
	if err != nil {
		return err
	}

	passwordHash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	if err := h.repo.Users().UpdatePassword(ctx, record.UserID, passwordHash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password")
	}

	return nil
}
