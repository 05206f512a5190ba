package auth

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ephemeralTokens struct {
	db bun.IDB
}

var _ EphemeralTokenStore = (*ephemeralTokens)(nil)

// NewEphemeralTokensRepository returns the Bun-backed one-time token store.
func NewEphemeralTokensRepository(db *bun.DB) EphemeralTokenStore {
	return &ephemeralTokens{db: db}
}

// Replace deletes any live token for the same (user, purpose) and inserts
// the new one. The delete-then-insert pair plus the user_purpose unique
// constraint guarantees at most one live row even when issuances race.
func (r *ephemeralTokens) Replace(ctx context.Context, token *EphemeralToken) (*EphemeralToken, error) {
	if token == nil {
		return nil, errors.New("ephemeral token must not be nil", errors.CategoryBadInput)
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	_, err := r.db.NewDelete().
		Model((*EphemeralToken)(nil)).
		Where("user_id = ? AND purpose = ?", token.UserID, token.Purpose).
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to supersede prior ephemeral token")
	}

	if _, err := r.db.NewInsert().Model(token).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist ephemeral token")
	}

	return token, nil
}

func (r *ephemeralTokens) FindByToken(ctx context.Context, token string) (*EphemeralToken, error) {
	record := &EphemeralToken{}
	err := r.db.NewSelect().
		Model(record).
		Where("token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEphemeralNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *ephemeralTokens) FindByUser(ctx context.Context, userID uuid.UUID, purpose TokenPurpose) (*EphemeralToken, error) {
	record := &EphemeralToken{}
	err := r.db.NewSelect().
		Model(record).
		Where("user_id = ? AND purpose = ?", userID, purpose).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEphemeralNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *ephemeralTokens) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*EphemeralToken)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
