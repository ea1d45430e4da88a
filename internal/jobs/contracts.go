package jobs

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// WorkerSource работники, у которых есть действующие расписания
type WorkerSource interface {
	ListWorkersWithActiveSchedules(ctx context.Context, from, to time.Time) ([]domain.WorkerRef, error)
}

// Regenerator перегенерация окна слотов одного работника
type Regenerator interface {
	RegenerateWindow(ctx context.Context, workerID, businessProfileID int64) error
}

// HorizonSource самый длинный горизонт генерации среди всех работников
type HorizonSource interface {
	MaxHorizonDays(ctx context.Context) (int, error)
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
