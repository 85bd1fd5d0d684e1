package sqlite

import (
	"context"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

type credentialsRepo struct {
	q *queries
}

func (r *credentialsRepo) CreateCredential(ctx context.Context, c domain.Credential) error {
	_, err := r.q.db.ExecContext(ctx,
		`INSERT INTO credentials (id, name, type) VALUES (?, ?, ?)`,
		c.ID, c.Name, c.Type,
	)
	return mapConstraint(err)
}

func (r *credentialsRepo) GetCredential(ctx context.Context, id string) (domain.Credential, error) {
	var c domain.Credential
	err := r.q.db.QueryRowContext(ctx,
		`SELECT id, name, type, created_at, updated_at FROM credentials WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Credential{}, mapNotFound(err)
	}
	return c, nil
}

func (r *credentialsRepo) DeleteCredentials(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	list, args := in(ids)
	return affected(r.q.db.ExecContext(ctx, `DELETE FROM credentials WHERE id IN `+list, args...))
}
