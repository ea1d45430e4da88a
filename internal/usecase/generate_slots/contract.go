package generate_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	ListActiveByWorker(ctx context.Context, workerID, businessProfileID int64, from, to time.Time) ([]*domain.Schedule, error)
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	LockWorker(ctx context.Context, workerID int64) error
	List(ctx context.Context, filter domain.SlotFilter) ([]*domain.AvailabilitySlot, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
	CreateBatch(ctx context.Context, slots []*domain.AvailabilitySlot) error
}

// WorkerRepository справочник работников
type WorkerRepository interface {
	BelongsToBusiness(ctx context.Context, workerID, businessProfileID int64) (bool, error)
}

// SettingsProvider действующие настройки генерации работника
type SettingsProvider interface {
	Resolve(ctx context.Context, businessProfileID, workerID int64) (*domain.SlotSettings, error)
}

// Locker межпроцессная блокировка работника
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics метрики генерации
type Metrics interface {
	ObserveGeneration(inserted, deleted int, err error, duration time.Duration)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
