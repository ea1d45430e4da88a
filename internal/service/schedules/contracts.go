package schedules

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.Schedule) (*domain.Schedule, error)
	GetByID(ctx context.Context, id, businessProfileID int64) (*domain.Schedule, error)
	ListByWorker(ctx context.Context, workerID, businessProfileID int64) ([]*domain.Schedule, error)
	Save(ctx context.Context, schedule *domain.Schedule) error
	ClearDefaultForWorker(ctx context.Context, workerID, businessProfileID, exceptID int64) error
	Delete(ctx context.Context, id, businessProfileID int64) error
}

// SlotRepository операции со слотами, которые нужны при удалении расписания
type SlotRepository interface {
	DeleteUnbookedBySchedule(ctx context.Context, scheduleID int64, from time.Time) (int64, error)
	ClearGeneratingSchedule(ctx context.Context, scheduleID int64) (int64, error)
}

// WorkerRepository справочник работников
type WorkerRepository interface {
	BelongsToBusiness(ctx context.Context, workerID, businessProfileID int64) (bool, error)
}

// SlotRegenerator перегенерация слотов работника после изменения расписания
type SlotRegenerator interface {
	RegenerateWindow(ctx context.Context, workerID, businessProfileID int64) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time { return time.Now() }
