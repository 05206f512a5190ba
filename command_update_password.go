package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type UpdatePasswordMessage struct {
	Username        string `json:"username"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (e UpdatePasswordMessage) Type() string { return "user.update_password" }

func (e UpdatePasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Username, validation.Required),
		validation.Field(&e.CurrentPassword, validation.Required),
		validation.Field(&e.NewPassword, validation.Required, validation.Length(8, 128)),
	)
}

// UpdatePasswordHandler rotates a password for an authenticated caller.
// Unlike the reset flow it is gated on the current password, not a token.
type UpdatePasswordHandler struct {
	repo      RepositoryManager
	passwords PasswordAuthenticator
}

func NewUpdatePasswordHandler(repo RepositoryManager) *UpdatePasswordHandler {
	return &UpdatePasswordHandler{
		repo:      repo,
		passwords: NewPasswordAuthenticator(),
	}
}

func (h *UpdatePasswordHandler) Execute(ctx context.Context, event UpdatePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdatePasswordHandler) execute(ctx context.Context, event UpdatePasswordMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password update payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByUsername(ctx, event.Username)
	if err != nil {
		return err
	}

	if err := h.passwords.ComparePasswordAndHash(event.CurrentPassword, user.PasswordHash); err != nil {
		return ErrMismatchedHashAndPassword
	}

	passwordHash, err := h.passwords.HashPassword(event.NewPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	if err := h.repo.Users().UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password")
	}

	return nil
}
