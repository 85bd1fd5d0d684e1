package rolecache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
	redis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "accounts:roles:"

// Redis shares cached roles between replicas. Redis failures fall through to
// the loader so a cache outage never blocks a role change.
type Redis struct {
	client  redis.UniversalClient
	load    Loader
	ttl     time.Duration
	prefix  string
	timeout time.Duration
}

func NewRedis(client redis.UniversalClient, load Loader, ttl time.Duration) *Redis {
	return &Redis{
		client:  client,
		load:    load,
		ttl:     ttl,
		prefix:  defaultPrefix,
		timeout: 250 * time.Millisecond,
	}
}

type cachedRole struct {
	ID    string           `json:"id"`
	Scope domain.RoleScope `json:"scope"`
	Name  domain.RoleName  `json:"name"`
}

func (r *Redis) key(scope domain.RoleScope, name domain.RoleName) string {
	return r.prefix + domain.RoleRef{Scope: scope, Name: name}.ID()
}

func (r *Redis) Get(ctx context.Context, scope domain.RoleScope, name domain.RoleName) (domain.Role, error) {
	log := slogx.FromContext(ctx)
	key := r.key(scope, name)

	rctx, cancel := context.WithTimeout(ctx, r.timeout)
	raw, err := r.client.Get(rctx, key).Bytes()
	cancel()

	switch {
	case err == nil:
		var c cachedRole
		if jerr := json.Unmarshal(raw, &c); jerr == nil {
			return domain.Role{ID: c.ID, Scope: c.Scope, Name: c.Name}, nil
		}
		log.Warn("discarding undecodable role cache entry", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		log.Warn("role cache read failed", slog.String("key", key), slogx.Err(err))
	}

	role, err := r.load(ctx, scope, name)
	if err != nil {
		return domain.Role{}, err
	}

	// Redis treats a zero expiry as "keep forever". A non-positive TTL means
	// no caching, the same as Memory.
	if r.ttl <= 0 {
		return role, nil
	}

	payload, _ := json.Marshal(cachedRole{ID: role.ID, Scope: role.Scope, Name: role.Name})
	rctx, cancel = context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.client.Set(rctx, key, payload, r.ttl).Err(); err != nil {
		log.Warn("role cache write failed", slog.String("key", key), slogx.Err(err))
	}
	return role, nil
}

// Invalidate deletes every key under the cache prefix.
func (r *Redis) Invalidate(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
