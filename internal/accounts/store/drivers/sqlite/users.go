package sqlite

import (
	"context"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

const selectUser = `
SELECT u.id, u.email, u.first_name, u.last_name, u.is_pending, u.created_at, u.updated_at,
       r.id, r.scope, r.name, r.created_at, r.updated_at
FROM users u
JOIN roles r ON r.id = u.role_id`

type usersRepo struct {
	q *queries
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u           domain.User
		scope, name string
	)
	err := s.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.IsPending, &u.CreatedAt, &u.UpdatedAt,
		&u.Role.ID, &scope, &name, &u.Role.CreatedAt, &u.Role.UpdatedAt,
	)
	u.Role.Scope = domain.RoleScope(scope)
	u.Role.Name = domain.RoleName(name)
	return u, err
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.q.db.QueryRowContext(ctx, selectUser+` WHERE u.id = ?`, id))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUsersByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	list, args := in(ids)
	rows, err := r.q.db.QueryContext(ctx, selectUser+` WHERE u.id IN `+list, args...)
	return collect(rows, err, scanUser)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.db.QueryContext(ctx, selectUser+` ORDER BY u.created_at, u.id`)
	return collect(rows, err, scanUser)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.db.ExecContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, role_id, is_pending)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.Role.ID, u.IsPending,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateUserRole(ctx context.Context, userID, roleID string) error {
	n, err := affected(r.q.db.ExecContext(ctx, `
		UPDATE users SET role_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		roleID, userID,
	))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	n, err := affected(r.q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) CountByRole(ctx context.Context, roleID string) (int, error) {
	var n int
	err := r.q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role_id = ?`, roleID).Scan(&n)
	return n, err
}
