package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrEmptyFilter   = errors.New("store: link filter has no constraints")
)

// Store is the root data access interface. Concrete drivers implement this.
// Sub-repositories are exposed as methods so that a Tx can hand out the same
// repos bound to the transaction, and so nested transactions can be refused.
type Store interface {
	Users() Users
	Roles() Roles
	Identities() Identities
	Ownership() Ownership
	Workflows() Workflows
	Credentials() Credentials

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user with its role joined in.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUsersByIDs returns the users that exist among ids, in no particular
	// order. Missing ids are simply absent from the result.
	GetUsersByIDs(ctx context.Context, ids []string) ([]domain.User, error)

	// ListUsers returns all users ordered by creation date.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUserRole sets role_id and bumps updated_at.
	UpdateUserRole(ctx context.Context, userID, roleID string) error

	// DeleteUser removes the user row. Returns ErrNotFound when nothing was deleted.
	DeleteUser(ctx context.Context, userID string) error

	// CountByRole counts users holding roleID.
	CountByRole(ctx context.Context, roleID string) (int, error)
}

type Roles interface {
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)

	// GetRole fetches a role by its (scope, name) pair.
	GetRole(ctx context.Context, scope domain.RoleScope, name domain.RoleName) (domain.Role, error)

	ListAll(ctx context.Context) ([]domain.Role, error)

	// CreateRole inserts a role. Returns ErrAlreadyExists for a duplicate pair.
	CreateRole(ctx context.Context, r domain.Role) error
}

type Identities interface {
	CreateIdentity(ctx context.Context, id domain.AuthIdentity) error
	ListIdentitiesByUser(ctx context.Context, userID string) ([]domain.AuthIdentity, error)
	DeleteIdentitiesByUser(ctx context.Context, userID string) error
}

// Ownership manages the link tables for every resource kind.
type Ownership interface {
	// ListLinks returns the links held by userID with roleID. An empty roleID
	// matches every role.
	ListLinks(ctx context.Context, kind domain.ResourceKind, userID, roleID string) ([]domain.OwnershipLink, error)

	// ListResourceLinks returns every link on a single resource.
	ListResourceLinks(ctx context.Context, kind domain.ResourceKind, resourceID string) ([]domain.OwnershipLink, error)

	// CreateLink inserts a link. Returns ErrAlreadyExists if the user already
	// holds a link on that resource.
	CreateLink(ctx context.Context, link domain.OwnershipLink) error

	// DeleteLinks removes links matching every set member of filter. An empty
	// filter is rejected with ErrEmptyFilter.
	DeleteLinks(ctx context.Context, kind domain.ResourceKind, filter domain.LinkFilter) (int64, error)

	// ReassignOwner re-points from's links on resourceIDs to to, keeping the
	// role and resource ids. Returns ErrAlreadyExists if to already holds a
	// link on one of those resources.
	ReassignOwner(ctx context.Context, kind domain.ResourceKind, from, to string, resourceIDs []string) (int64, error)
}

type Workflows interface {
	CreateWorkflow(ctx context.Context, w domain.Workflow) error
	GetWorkflow(ctx context.Context, id string) (domain.Workflow, error)
	GetWorkflowsByIDs(ctx context.Context, ids []string) ([]domain.Workflow, error)
	ListActiveWorkflows(ctx context.Context) ([]domain.Workflow, error)
	SetActive(ctx context.Context, id string, active bool) error
	DeleteWorkflows(ctx context.Context, ids []string) (int64, error)
}

type Credentials interface {
	CreateCredential(ctx context.Context, c domain.Credential) error
	GetCredential(ctx context.Context, id string) (domain.Credential, error)
	DeleteCredentials(ctx context.Context, ids []string) (int64, error)
}
