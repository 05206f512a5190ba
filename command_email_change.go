package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type InitiateEmailChangeMessage struct {
	Username string `json:"username"`
	NewEmail string `json:"new_email"`
}

func (e InitiateEmailChangeMessage) Type() string { return "user.email_change" }

func (e InitiateEmailChangeMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Username, validation.Required),
		validation.Field(&e.NewEmail, validation.Required, is.Email),
	)
}

// InitiateEmailChangeHandler issues a change-email token carrying the
// proposed address as payload. The confirmation link goes to the new
// address, proving the caller controls it before any swap happens.
type InitiateEmailChangeHandler struct {
	repo      RepositoryManager
	ephemeral *EphemeralTokenService
}

func NewInitiateEmailChangeHandler(repo RepositoryManager, ephemeral *EphemeralTokenService) *InitiateEmailChangeHandler {
	return &InitiateEmailChangeHandler{repo: repo, ephemeral: ephemeral}
}

func (h *InitiateEmailChangeHandler) Execute(ctx context.Context, event InitiateEmailChangeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email change initiation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitiateEmailChangeHandler) execute(ctx context.Context, event InitiateEmailChangeMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid email change payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	taken, err := h.repo.Users().ExistsByEmail(ctx, event.NewEmail)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
	}
	if taken {
		return goerrors.New("email already in use", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict)
	}

	user, err := h.repo.Users().GetByUsername(ctx, event.Username)
	if err != nil {
		return err
	}

	if _, err := h.ephemeral.IssueFor(ctx, user, PurposeChangeEmail, event.NewEmail); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initiate email change")
	}

	return nil
}

type ConfirmEmailChangeMessage struct {
	Token string `json:"token"`
}

func (e ConfirmEmailChangeMessage) Type() string { return "user.email_change_confirm" }

// ConfirmEmailChangeHandler redeems the change token and applies the swap
// carried in its payload.
type ConfirmEmailChangeHandler struct {
	repo      RepositoryManager
	ephemeral *EphemeralTokenService
}

func NewConfirmEmailChangeHandler(repo RepositoryManager, ephemeral *EphemeralTokenService) *ConfirmEmailChangeHandler {
	return &ConfirmEmailChangeHandler{repo: repo, ephemeral: ephemeral}
}

func (h *ConfirmEmailChangeHandler) Execute(ctx context.Context, event ConfirmEmailChangeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email change confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmEmailChangeHandler) execute(ctx context.Context, event ConfirmEmailChangeMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	record, err := h.ephemeral.Redeem(ctx, event.Token, PurposeChangeEmail)
	if err != nil {
		return err
	}

	user, err := h.repo.Users().GetByID(ctx, record.UserID.String())
	if err != nil {
		return err
	}

	user.Email = record.Payload
	if _, err := h.repo.Users().Update(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to apply email change")
	}

	return nil
}
