package rolecache

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

// Loader fetches a role from the source of truth, usually Roles().GetRole.
type Loader func(ctx context.Context, scope domain.RoleScope, name domain.RoleName) (domain.Role, error)

type entry struct {
	role    domain.Role
	expires time.Time
}

// Memory is a process-local TTL cache. Lookup errors are never cached.
type Memory struct {
	load Loader
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[domain.RoleRef]entry
}

type Option func(*Memory)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

func NewMemory(load Loader, ttl time.Duration, opts ...Option) *Memory {
	m := &Memory{
		load:    load,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[domain.RoleRef]entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(ctx context.Context, scope domain.RoleScope, name domain.RoleName) (domain.Role, error) {
	key := domain.RoleRef{Scope: scope, Name: name}

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if ok && m.now().Before(e.expires) {
		return e.role, nil
	}

	role, err := m.load(ctx, scope, name)
	if err != nil {
		return domain.Role{}, err
	}

	m.mu.Lock()
	m.entries[key] = entry{role: role, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return role, nil
}

// Invalidate drops every entry.
func (m *Memory) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
	return nil
}
