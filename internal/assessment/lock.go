package assessment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/victornm/techbridge/internal/errors"
)

const defaultLockTTL = 30 * time.Second

// release deletes the lock only if it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker is a Locker shared by all instances of the service. Acquisition does not wait:
// a held lock fails with CodeAborted.
type RedisLocker struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

type LockerConfig struct {
	Redis  redis.UniversalClient
	Prefix string
	// TTL must outlive a provider call, 30s by default.
	TTL time.Duration
}

func NewRedisLocker(c LockerConfig) *RedisLocker {
	l := &RedisLocker{
		redis:  c.Redis,
		prefix: c.Prefix,
		ttl:    c.TTL,
	}
	if l.ttl <= 0 {
		l.ttl = defaultLockTTL
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, id string) (func(context.Context), error) {
	key := l.getLockKey(id)
	token := uuid.NewString()

	ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}

	if !ok {
		return nil, errors.New(errors.CodeAborted,
			errors.WithMessagef("assessment is busy, retry later: assessment=%s", id))
	}

	return func(ctx context.Context) {
		if err := release.Run(ctx, l.redis, []string{key}, token).Err(); err != nil {
			slog.WarnContext(ctx, "assessment: release lock failed", "key", key, "error", err)
		}
	}, nil
}

func (l *RedisLocker) getLockKey(id string) string {
	return fmt.Sprintf("%s:assessment:%s:lock", l.prefix, id)
}
