package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/rolecache"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/aussiebroadwan/accounts/pkg/idx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "accounts.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func newRoleCache(s store.Store) RoleCache {
	return rolecache.NewMemory(s.Roles().GetRole, time.Minute)
}

func createUser(t *testing.T, s store.Store, role domain.RoleRef) domain.User {
	t.Helper()
	ctx := context.Background()

	id := idx.New().String()
	require.NoError(t, s.Users().CreateUser(ctx, domain.User{
		ID:        id,
		Email:     id + "@example.com",
		FirstName: "Test",
		Role:      domain.Role{ID: role.ID()},
	}))

	u, err := s.Users().GetUserByID(ctx, id)
	require.NoError(t, err)
	return u
}

// actorWith returns an acting user that only exists in memory.
func actorWith(role domain.RoleRef) domain.User {
	return domain.User{
		ID:   idx.New().String(),
		Role: domain.Role{ID: role.ID(), Scope: role.Scope, Name: role.Name},
	}
}

func createWorkflow(t *testing.T, s store.Store, id string, active bool, owner domain.User) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Workflows().CreateWorkflow(ctx, domain.Workflow{ID: id, Name: id, Active: active}))
	link(t, s, domain.KindWorkflow, id, owner, domain.WorkflowOwner)
}

func createCredential(t *testing.T, s store.Store, id string, owner domain.User) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Credentials().CreateCredential(ctx, domain.Credential{ID: id, Name: id, Type: "api_key"}))
	link(t, s, domain.KindCredential, id, owner, domain.CredentialOwner)
}

func link(t *testing.T, s store.Store, kind domain.ResourceKind, resourceID string, u domain.User, role domain.RoleRef) {
	t.Helper()
	require.NoError(t, s.Ownership().CreateLink(context.Background(), domain.OwnershipLink{
		Kind: kind, ResourceID: resourceID, UserID: u.ID, RoleID: role.ID(),
	}))
}

func userExists(t *testing.T, s store.Store, id string) bool {
	t.Helper()
	_, err := s.Users().GetUserByID(context.Background(), id)
	if errors.Is(err, store.ErrNotFound) {
		return false
	}
	require.NoError(t, err)
	return true
}

type mockActivation struct {
	mock.Mock
}

func (m *mockActivation) Deactivate(ctx context.Context, workflowID string) error {
	return m.Called(ctx, workflowID).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) OnUserDeleted(ctx context.Context, ev domain.DeletionEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockNotifier) OnUserDeletionHook(ctx context.Context, u domain.PublicUser) error {
	return m.Called(ctx, u).Error(0)
}
