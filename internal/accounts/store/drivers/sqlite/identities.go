package sqlite

import (
	"context"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

type identitiesRepo struct {
	q *queries
}

func scanIdentity(s scanner) (domain.AuthIdentity, error) {
	var id domain.AuthIdentity
	err := s.Scan(&id.ID, &id.UserID, &id.ProviderType, &id.ProviderID, &id.CreatedAt)
	return id, err
}

func (r *identitiesRepo) CreateIdentity(ctx context.Context, id domain.AuthIdentity) error {
	_, err := r.q.db.ExecContext(ctx, `
		INSERT INTO auth_identities (id, user_id, provider_type, provider_id)
		VALUES (?, ?, ?, ?)`,
		id.ID, id.UserID, id.ProviderType, id.ProviderID,
	)
	return mapConstraint(err)
}

func (r *identitiesRepo) ListIdentitiesByUser(ctx context.Context, userID string) ([]domain.AuthIdentity, error) {
	rows, err := r.q.db.QueryContext(ctx, `
		SELECT id, user_id, provider_type, provider_id, created_at
		FROM auth_identities WHERE user_id = ? ORDER BY created_at, id`, userID)
	return collect(rows, err, scanIdentity)
}

func (r *identitiesRepo) DeleteIdentitiesByUser(ctx context.Context, userID string) error {
	_, err := r.q.db.ExecContext(ctx, `DELETE FROM auth_identities WHERE user_id = ?`, userID)
	return err
}
