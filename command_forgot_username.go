package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type ForgotUsernameMessage struct {
	Email string `json:"email"`
}

func (e ForgotUsernameMessage) Type() string { return "user.forgot_username" }

func (e ForgotUsernameMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// ForgotUsernameHandler emails the existing username directly. No token is
// involved since no account mutation occurs; unknown emails succeed silently
// for the same oracle-avoidance reason as forgot-password.
type ForgotUsernameHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewForgotUsernameHandler(repo RepositoryManager, mailer Mailer) *ForgotUsernameHandler {
	return &ForgotUsernameHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (h *ForgotUsernameHandler) WithLogger(logger Logger) *ForgotUsernameHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ForgotUsernameHandler) Execute(ctx context.Context, event ForgotUsernameMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during forgot username",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ForgotUsernameHandler) execute(ctx context.Context, event ForgotUsernameMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid forgot username payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			h.logger.Debug("username reminder requested for unknown email")
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for username reminder")
	}

	if err := h.mailer.Send(ctx, user.Email, "Forgotten Username", "Your username is: "+user.Username); err != nil {
		h.logger.Warn("email dispatch failed for username reminder: %v", err)
	}

	return nil
}
