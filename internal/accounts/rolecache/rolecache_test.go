package rolecache

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	calls int
	err   error
}

func (l *countingLoader) load(_ context.Context, scope domain.RoleScope, name domain.RoleName) (domain.Role, error) {
	l.calls++
	if l.err != nil {
		return domain.Role{}, l.err
	}
	ref := domain.RoleRef{Scope: scope, Name: name}
	return domain.Role{ID: ref.ID(), Scope: scope, Name: name}, nil
}

func TestMemoryCachesUntilTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	loader := &countingLoader{}

	c := NewMemory(loader.load, time.Minute, WithClock(func() time.Time { return now }))

	role, err := c.Get(ctx, domain.ScopeGlobal, domain.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, "global:admin", role.ID)

	_, err = c.Get(ctx, domain.ScopeGlobal, domain.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, 1, loader.calls)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, domain.ScopeGlobal, domain.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, 2, loader.calls, "expired entries are reloaded")
}

func TestMemoryInvalidate(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{}
	c := NewMemory(loader.load, time.Hour)

	_, err := c.Get(ctx, domain.ScopeGlobal, domain.RoleMember)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))

	_, err = c.Get(ctx, domain.ScopeGlobal, domain.RoleMember)
	require.NoError(t, err)
	require.Equal(t, 2, loader.calls)
}

func TestMemoryDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	missing := errors.New("not found")
	loader := &countingLoader{err: missing}
	c := NewMemory(loader.load, time.Hour)

	_, err := c.Get(ctx, domain.ScopeGlobal, "superuser")
	require.ErrorIs(t, err, missing)

	loader.err = nil
	_, err = c.Get(ctx, domain.ScopeGlobal, "superuser")
	require.NoError(t, err)
	require.Equal(t, 2, loader.calls)
}

func TestRedisFailsOpen(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	loader := &countingLoader{}
	c := NewRedis(client, loader.load, time.Minute)

	role, err := c.Get(ctx, domain.ScopeWorkflow, domain.RoleOwner)
	require.NoError(t, err)
	require.Equal(t, "workflow:owner", role.ID)
	require.Equal(t, domain.ScopeWorkflow, role.Scope)

	_, err = c.Get(ctx, domain.ScopeWorkflow, domain.RoleOwner)
	require.NoError(t, err)
	require.Equal(t, 2, loader.calls)

	require.Error(t, c.Invalidate(ctx))
}

// recordingHook answers GET with a miss and SET with OK without touching the
// network, recording each command name.
type recordingHook struct {
	mu   sync.Mutex
	cmds []string
}

func (h *recordingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *recordingHook) ProcessHook(_ redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		h.mu.Lock()
		h.cmds = append(h.cmds, cmd.Name())
		h.mu.Unlock()
		if cmd.Name() == "get" {
			cmd.SetErr(redis.Nil)
			return redis.Nil
		}
		return nil
	}
}

func (h *recordingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (h *recordingHook) count(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.cmds {
		if c == name {
			n++
		}
	}
	return n
}

func TestRedisWriteFollowsTTL(t *testing.T) {
	tests := []struct {
		name      string
		ttl       time.Duration
		wantSets  int
		wantLoads int
	}{
		{"zero ttl skips the write", 0, 0, 2},
		{"negative ttl skips the write", -time.Second, 0, 2},
		{"positive ttl writes", time.Minute, 2, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
			t.Cleanup(func() { _ = client.Close() })
			hook := &recordingHook{}
			client.AddHook(hook)

			loader := &countingLoader{}
			c := NewRedis(client, loader.load, tc.ttl)

			for range 2 {
				role, err := c.Get(ctx, domain.ScopeGlobal, domain.RoleAdmin)
				require.NoError(t, err)
				require.Equal(t, "global:admin", role.ID)
			}

			require.Equal(t, 2, hook.count("get"))
			require.Equal(t, tc.wantSets, hook.count("set"))
			require.Equal(t, tc.wantLoads, loader.calls)
		})
	}
}
