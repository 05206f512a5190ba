package auth

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type roles struct {
	db bun.IDB
}

var _ RoleStore = (*roles)(nil)

// NewRolesRepository returns the Bun-backed role lookup. Roles are seeded at
// deploy time; a missing role is a configuration fault, not a user error.
func NewRolesRepository(db *bun.DB) RoleStore {
	return &roles{db: db}
}

func (r *roles) GetByName(ctx context.Context, name string) (*Role, error) {
	record := &Role{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) || err == sql.ErrNoRows {
			return nil, ErrRoleNotFound.Clone().WithMetadata(map[string]any{
				"role": name,
			})
		}
		return nil, err
	}
	return record, nil
}
