package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	redisRetryMin = 10 * time.Millisecond
	redisRetryMax = 200 * time.Millisecond
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared across server instances. Each lock expires after ttl
// so a crashed holder cannot block an event forever.
type Redis struct {
	pool *redis.Pool
	ttl  time.Duration
}

func NewRedisPool(addr, password string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     16,
		IdleTimeout: 5 * time.Minute,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			opts := []redis.DialOption{redis.DialConnectTimeout(2 * time.Second)}
			if password != "" {
				opts = append(opts, redis.DialPassword(password))
			}
			return redis.DialContext(ctx, "tcp", addr, opts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

func NewRedis(pool *redis.Pool, ttl time.Duration) *Redis {
	return &Redis{pool: pool, ttl: ttl}
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	wait := redisRetryMin
	for {
		ok, err := r.trySet(ctx, key, token)
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if wait *= 2; wait > redisRetryMax {
			wait = redisRetryMax
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.release(key, token) })
	}, nil
}

func (r *Redis) release(key, token string) {
	conn, err := r.pool.GetContext(context.Background())
	if err != nil {
		log.Error().Err(err).Str("lock_key", key).Msg("Failed to release redis lock")
		return
	}
	defer conn.Close()
	if _, err := releaseScript.Do(conn, key, token); err != nil {
		log.Error().Err(err).Str("lock_key", key).Msg("Failed to release redis lock")
	}
}

func (r *Redis) trySet(ctx context.Context, key, token string) (bool, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	_, err = redis.String(conn.Do("SET", key, token, "NX", "PX", r.ttl.Milliseconds()))
	if errors.Is(err, redis.ErrNil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) Close() error {
	return r.pool.Close()
}
