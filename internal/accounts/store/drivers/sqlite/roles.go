package sqlite

import (
	"context"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

const selectRole = `SELECT id, scope, name, created_at, updated_at FROM roles`

type rolesRepo struct {
	q *queries
}

func scanRole(s scanner) (domain.Role, error) {
	var (
		role        domain.Role
		scope, name string
	)
	err := s.Scan(&role.ID, &scope, &name, &role.CreatedAt, &role.UpdatedAt)
	role.Scope = domain.RoleScope(scope)
	role.Name = domain.RoleName(name)
	return role, err
}

func (r *rolesRepo) GetRoleByID(ctx context.Context, id string) (domain.Role, error) {
	role, err := scanRole(r.q.db.QueryRowContext(ctx, selectRole+` WHERE id = ?`, id))
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) GetRole(ctx context.Context, scope domain.RoleScope, name domain.RoleName) (domain.Role, error) {
	role, err := scanRole(r.q.db.QueryRowContext(ctx,
		selectRole+` WHERE scope = ? AND name = ?`, string(scope), string(name),
	))
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) ListAll(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.q.db.QueryContext(ctx, selectRole+` ORDER BY scope, name`)
	return collect(rows, err, scanRole)
}

func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	_, err := r.q.db.ExecContext(ctx,
		`INSERT INTO roles (id, scope, name) VALUES (?, ?, ?)`,
		role.ID, string(role.Scope), string(role.Name),
	)
	return mapConstraint(err)
}
