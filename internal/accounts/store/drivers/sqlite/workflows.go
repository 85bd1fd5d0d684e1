package sqlite

import (
	"context"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

const selectWorkflow = `SELECT id, name, active, created_at, updated_at FROM workflows`

type workflowsRepo struct {
	q *queries
}

func scanWorkflow(s scanner) (domain.Workflow, error) {
	var w domain.Workflow
	err := s.Scan(&w.ID, &w.Name, &w.Active, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func (r *workflowsRepo) CreateWorkflow(ctx context.Context, w domain.Workflow) error {
	_, err := r.q.db.ExecContext(ctx,
		`INSERT INTO workflows (id, name, active) VALUES (?, ?, ?)`,
		w.ID, w.Name, w.Active,
	)
	return mapConstraint(err)
}

func (r *workflowsRepo) GetWorkflow(ctx context.Context, id string) (domain.Workflow, error) {
	w, err := scanWorkflow(r.q.db.QueryRowContext(ctx, selectWorkflow+` WHERE id = ?`, id))
	if err != nil {
		return domain.Workflow{}, mapNotFound(err)
	}
	return w, nil
}

func (r *workflowsRepo) GetWorkflowsByIDs(ctx context.Context, ids []string) ([]domain.Workflow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	list, args := in(ids)
	rows, err := r.q.db.QueryContext(ctx, selectWorkflow+` WHERE id IN `+list+` ORDER BY id`, args...)
	return collect(rows, err, scanWorkflow)
}

func (r *workflowsRepo) ListActiveWorkflows(ctx context.Context) ([]domain.Workflow, error) {
	rows, err := r.q.db.QueryContext(ctx, selectWorkflow+` WHERE active = 1 ORDER BY id`)
	return collect(rows, err, scanWorkflow)
}

func (r *workflowsRepo) SetActive(ctx context.Context, id string, active bool) error {
	n, err := affected(r.q.db.ExecContext(ctx,
		`UPDATE workflows SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, active, id,
	))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *workflowsRepo) DeleteWorkflows(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	list, args := in(ids)
	return affected(r.q.db.ExecContext(ctx, `DELETE FROM workflows WHERE id IN `+list, args...))
}
