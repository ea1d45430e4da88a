// Package lock взаимное исключение по ключу между экземплярами сервиса.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Locker выдает блокировку по ключу; release снимает ее и безопасен при повторном вызове
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// WorkerKey ключ блокировки изменений слотов работника
func WorkerKey(workerID int64) string {
	return fmt.Sprintf("scheduling:worker:%d", workerID)
}

// LocalLocker блокировка внутри одного процесса, используется без Redis
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocalLocker создает локальный локер
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]chan struct{})}
}

// Acquire ждет освобождения ключа или отмены контекста; ttl не используется
func (l *LocalLocker) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	for {
		l.mu.Lock()
		held, busy := l.locks[key]
		if !busy {
			ch := make(chan struct{})
			l.locks[key] = ch
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.locks, key)
					l.mu.Unlock()
					close(ch)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: key=%s: %v", ErrLockTimeout, key, ctx.Err())
		}
	}
}
