package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

// linkTable names the link table and its resource column for a kind.
type linkTable struct {
	table    string
	resource string
}

var linkTables = map[domain.ResourceKind]linkTable{
	domain.KindWorkflow:   {table: "shared_workflows", resource: "workflow_id"},
	domain.KindCredential: {table: "shared_credentials", resource: "credential_id"},
}

func tableFor(kind domain.ResourceKind) (linkTable, error) {
	t, ok := linkTables[kind]
	if !ok {
		return linkTable{}, fmt.Errorf("sqlite: unknown resource kind %q", kind)
	}
	return t, nil
}

type ownershipRepo struct {
	q *queries
}

func (r *ownershipRepo) scanLinks(ctx context.Context, kind domain.ResourceKind, t linkTable, where string, args ...any) ([]domain.OwnershipLink, error) {
	rows, err := r.q.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s, user_id, role_id, created_at FROM %s WHERE %s ORDER BY created_at, %s`,
		t.resource, t.table, where, t.resource,
	), args...)
	return collect(rows, err, func(s scanner) (domain.OwnershipLink, error) {
		l := domain.OwnershipLink{Kind: kind}
		err := s.Scan(&l.ResourceID, &l.UserID, &l.RoleID, &l.CreatedAt)
		return l, err
	})
}

func (r *ownershipRepo) ListLinks(ctx context.Context, kind domain.ResourceKind, userID, roleID string) ([]domain.OwnershipLink, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if roleID == "" {
		return r.scanLinks(ctx, kind, t, `user_id = ?`, userID)
	}
	return r.scanLinks(ctx, kind, t, `user_id = ? AND role_id = ?`, userID, roleID)
}

func (r *ownershipRepo) ListResourceLinks(ctx context.Context, kind domain.ResourceKind, resourceID string) ([]domain.OwnershipLink, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	return r.scanLinks(ctx, kind, t, t.resource+` = ?`, resourceID)
}

func (r *ownershipRepo) CreateLink(ctx context.Context, link domain.OwnershipLink) error {
	t, err := tableFor(link.Kind)
	if err != nil {
		return err
	}
	_, err = r.q.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, user_id, role_id) VALUES (?, ?, ?)`, t.table, t.resource),
		link.ResourceID, link.UserID, link.RoleID,
	)
	return mapConstraint(err)
}

func (r *ownershipRepo) DeleteLinks(ctx context.Context, kind domain.ResourceKind, filter domain.LinkFilter) (int64, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	if filter.IsEmpty() {
		return 0, store.ErrEmptyFilter
	}

	var (
		conds []string
		args  []any
	)
	if filter.UserID != "" {
		conds = append(conds, `user_id = ?`)
		args = append(args, filter.UserID)
	}
	if filter.RoleID != "" {
		conds = append(conds, `role_id = ?`)
		args = append(args, filter.RoleID)
	}
	if filter.ResourceIDs != nil {
		// An explicit empty id set matches nothing.
		if len(filter.ResourceIDs) == 0 {
			return 0, nil
		}
		list, ids := in(filter.ResourceIDs)
		conds = append(conds, t.resource+` IN `+list)
		args = append(args, ids...)
	}

	return affected(r.q.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s`, t.table, strings.Join(conds, " AND ")),
		args...,
	))
}

func (r *ownershipRepo) ReassignOwner(ctx context.Context, kind domain.ResourceKind, from, to string, resourceIDs []string) (int64, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	if len(resourceIDs) == 0 {
		return 0, nil
	}

	list, ids := in(resourceIDs)
	args := append([]any{to, from}, ids...)
	return affected(r.q.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET user_id = ? WHERE user_id = ? AND %s IN %s`, t.table, t.resource, list),
		args...,
	))
}
