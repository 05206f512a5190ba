package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type VerifyEmailMessage struct {
	Token string `json:"token"`
}

func (e VerifyEmailMessage) Type() string { return "user.verify_email" }

// VerifyEmailHandler redeems a verification token and enables the account.
// Redemption deletes the token row, so a second attempt fails as not found.
type VerifyEmailHandler struct {
	repo      RepositoryManager
	ephemeral *EphemeralTokenService
}

func NewVerifyEmailHandler(repo RepositoryManager, ephemeral *EphemeralTokenService) *VerifyEmailHandler {
	return &VerifyEmailHandler{repo: repo, ephemeral: ephemeral}
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	record, err := h.ephemeral.Redeem(ctx, event.Token, PurposeVerifyEmail)
	if err != nil {
		return err
	}

	if err := h.repo.Users().SetEnabled(ctx, record.UserID, true); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to enable verified account")
	}

	return nil
}
