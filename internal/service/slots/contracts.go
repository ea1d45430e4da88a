package slots

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	LockWorker(ctx context.Context, workerID int64) error
	Create(ctx context.Context, slot *domain.AvailabilitySlot) (*domain.AvailabilitySlot, error)
	GetByID(ctx context.Context, id, businessProfileID int64) (*domain.AvailabilitySlot, error)
	List(ctx context.Context, filter domain.SlotFilter) ([]*domain.AvailabilitySlot, error)
	HasCollision(ctx context.Context, workerID int64, rng domain.TimeRange, statuses []domain.SlotStatus, excludeID *int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// WorkerRepository справочник работников
type WorkerRepository interface {
	BelongsToBusiness(ctx context.Context, workerID, businessProfileID int64) (bool, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
