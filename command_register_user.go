package auth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Username, validation.Required, validation.Length(3, 64)),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 128)),
	)
}

// RegisterUserHandler creates a disabled local account and kicks off email
// verification. The account stays disabled until the verification token is
// redeemed.
type RegisterUserHandler struct {
	repo      RepositoryManager
	ephemeral *EphemeralTokenService
	logger    Logger
}

func NewRegisterUserHandler(repo RepositoryManager, ephemeral *EphemeralTokenService) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:      repo,
		ephemeral: ephemeral,
		logger:    defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := h.repo.Users().ExistsByUsername(ctx, event.Username)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username availability")
		}
		if taken {
			return ErrUsernameExists
		}

		if _, err := h.repo.Roles().GetByName(ctx, RoleUser); err != nil {
			return err
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Username = strings.TrimSpace(event.Username)
		user.Email = strings.TrimSpace(event.Email)
		user.PasswordHash = hash
		user.Enabled = false
		user.RoleNames = []string{RoleUser}

		if user, err = h.repo.Users().Create(ctx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if _, err := h.ephemeral.IssueFor(ctx, user, PurposeVerifyEmail, ""); err != nil {
		// the account exists; the user can request a fresh link
		h.logger.Warn("verification token issuance failed for %q: %v", user.Username, err)
	}

	return nil
}
