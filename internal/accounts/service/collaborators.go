package service

import (
	"context"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

// RoleCache resolves role definitions, which change rarely. Invalidate must
// be called whenever the roles table changes.
type RoleCache interface {
	Get(ctx context.Context, scope domain.RoleScope, name domain.RoleName) (domain.Role, error)
	Invalidate(ctx context.Context) error
}

// WorkflowActivation stops a workflow's runtime. Deactivate is idempotent.
type WorkflowActivation interface {
	Deactivate(ctx context.Context, workflowID string) error
}

// Notifier receives post-commit deletion side effects. Errors are logged by
// the caller and never undo the deletion.
type Notifier interface {
	OnUserDeleted(ctx context.Context, ev domain.DeletionEvent) error
	OnUserDeletionHook(ctx context.Context, user domain.PublicUser) error
}
