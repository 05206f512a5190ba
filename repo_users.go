package auth

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the Bun-backed user repository. It layers the directory-specific
// lookups over the generic repository.
type Users interface {
	repository.Repository[*User]
	UserStore
}

type users struct {
	repository.Repository[*User]
	db bun.IDB
}

var (
	_ Users     = (*users)(nil)
	_ UserStore = (*users)(nil)
)

// NewUsersRepository wires the generic handlers for the User model.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &users{Repository: repo, db: db}
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.getByColumn(ctx, "username", username)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getByColumn(ctx, "email", email)
}

func (a *users) GetByID(ctx context.Context, id string, _ ...repository.SelectCriteria) (*User, error) {
	return a.getByColumn(ctx, "id", id)
}

func (a *users) getByColumn(ctx context.Context, column, value string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) || err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				column: value,
			})
		}
		return nil, err
	}
	return record, nil
}

func (a *users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return a.existsByColumn(ctx, "username", username)
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.existsByColumn(ctx, "email", email)
}

func (a *users) existsByColumn(ctx context.Context, column, value string) (bool, error) {
	count, err := a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias."+column+" = ?", value).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.Create(ctx, record, criteria...)
}

func (a *users) Update(ctx context.Context, record *User, criteria ...repository.UpdateCriteria) (*User, error) {
	if len(criteria) == 0 {
		criteria = append(criteria, repository.UpdateByID(record.ID.String()))
	}
	return a.Repository.Update(ctx, record, criteria...)
}

func (a *users) DeleteByUsername(ctx context.Context, username string) error {
	user, err := a.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return a.Repository.Delete(ctx, user)
}

func (a *users) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = current_timestamp").
		Where("?TableAlias.id = ?", id.String()).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return repository.NewRecordNotFound().WithMetadata(map[string]any{
			"id": id.String(),
		})
	}

	return nil
}

func (a *users) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("enabled = ?", enabled).
		Set("updated_at = current_timestamp").
		Where("?TableAlias.id = ?", id.String()).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return repository.NewRecordNotFound().WithMetadata(map[string]any{
			"id": id.String(),
		})
	}

	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if len(record.RoleNames) == 0 {
		record.RoleNames = []string{RoleUser}
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
