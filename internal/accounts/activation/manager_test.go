package activation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func TestManagerLoadAndDeactivate(t *testing.T) {
	ctx := context.Background()

	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "accounts.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	require.NoError(t, s.Workflows().CreateWorkflow(ctx, domain.Workflow{ID: "w1", Name: "one", Active: true}))
	require.NoError(t, s.Workflows().CreateWorkflow(ctx, domain.Workflow{ID: "w2", Name: "two"}))

	m := NewManager()
	require.NoError(t, m.Load(ctx, s.Workflows()))
	require.Equal(t, 1, m.Count())

	// Inactive workflows were never loaded.
	require.NoError(t, m.Deactivate(ctx, "w2"))
	require.Equal(t, 1, m.Count())

	require.NoError(t, m.Deactivate(ctx, "w1"))
	require.Zero(t, m.Count())

	// Idempotent.
	require.NoError(t, m.Deactivate(ctx, "w1"))
	require.Zero(t, m.Count())
}
