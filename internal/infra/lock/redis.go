package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRetryDelay = 50 * time.Millisecond
	maxRetryDelay     = 500 * time.Millisecond
)

// releaseScript удаляет ключ, только если он все еще принадлежит владельцу токена
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// RedisLocker распределенная блокировка на SET NX PX
type RedisLocker struct {
	client redis.UniversalClient
	logger Logger
}

// NewRedisLocker создает локер поверх клиента Redis
func NewRedisLocker(client redis.UniversalClient, logger Logger) *RedisLocker {
	return &RedisLocker{client: client, logger: logger}
}

// Acquire повторяет SET NX с растущей паузой, пока ключ не освободится или не истечет контекст
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	delay := defaultRetryDelay

	for {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("lock: SETNX %s: %w", key, err)
		}
		if ok {
			return l.releaseFunc(key, token), nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: key=%s: %v", ErrLockTimeout, key, ctx.Err())
		}
		if delay < maxRetryDelay {
			delay *= 2
		}
	}
}

func (l *RedisLocker) releaseFunc(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// Снимаем блокировку даже если исходный контекст уже отменен
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				l.logger.Warn("lock: failed to release %s: %v", key, err)
			}
		})
	}
}
