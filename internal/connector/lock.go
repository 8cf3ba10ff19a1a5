package connector

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrDeploymentInFlight is returned while another request deploys the same bytecode.
var ErrDeploymentInFlight = errors.New("deployment of this bytecode already in flight")

// Locker serializes deployments of identical bytecode across connector replicas.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

type RedisLocker struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: "chia:deploy:"}
}

// Deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	k := l.prefix + key
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDeploymentInFlight
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.rdb, []string{k}, token).Err()
	}, nil
}
