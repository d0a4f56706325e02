// Package lock provides a Redis-backed run lock so overlapping scheduler
// triggers do not run the same job twice.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ramadhan:lock:"

// release deletes the key only while it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a SET NX PX lock.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis connects to addr. Returns nil if addr is empty (locking disabled).
func NewRedis(addr, username, password string, ttl time.Duration) *Redis {
	if addr == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Redis{
		rdb: redis.NewClient(&redis.Options{
			Addr:        addr,
			Username:    username,
			Password:    password,
			DB:          0,
			DialTimeout: 2 * time.Second,
		}),
		ttl: ttl,
	}
}

// TryLock attempts to take the named lock. ok is false when another holder
// has it. The returned unlock is safe to call after the TTL expired.
func (l *Redis) TryLock(ctx context.Context, name string) (func(context.Context) error, bool, error) {
	key := keyPrefix + name
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func(ctx context.Context) error {
		if err := release.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release %s: %w", key, err)
		}
		return nil
	}
	return unlock, true, nil
}

// Ping checks connectivity.
func (l *Redis) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Close closes the client.
func (l *Redis) Close() error {
	return l.rdb.Close()
}
