package activation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// Manager tracks which workflow runtimes are live in this process. It never
// writes to the store, so it can be called from inside a store transaction.
type Manager struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewManager() *Manager {
	return &Manager{active: make(map[string]struct{})}
}

// Load registers every workflow the store marks active.
func (m *Manager) Load(ctx context.Context, workflows store.Workflows) error {
	list, err := workflows.ListActiveWorkflows(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	for _, w := range list {
		m.active[w.ID] = struct{}{}
	}
	m.mu.Unlock()

	slogx.FromContext(ctx).Info("workflow runtimes loaded", slog.Int("active", len(list)))
	return nil
}

// Deactivate stops a workflow runtime. Calling it for an inactive or unknown
// workflow is a no-op.
func (m *Manager) Deactivate(ctx context.Context, workflowID string) error {
	m.mu.Lock()
	_, ok := m.active[workflowID]
	delete(m.active, workflowID)
	m.mu.Unlock()

	if ok {
		slogx.FromContext(ctx).Info("workflow deactivated", slog.String("workflow_id", workflowID))
	}
	return nil
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}
