package slotsettings

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// SettingsRepository интерфейс репозитория настроек генерации
type SettingsRepository interface {
	GetByScope(ctx context.Context, businessProfileID int64, workerID *int64) (*domain.SlotSettings, error)
	GetWithHierarchy(ctx context.Context, businessProfileID, workerID int64) (*domain.SlotSettings, error)
	ListByBusiness(ctx context.Context, businessProfileID int64) ([]*domain.SlotSettings, error)
	Upsert(ctx context.Context, settings *domain.SlotSettings) (*domain.SlotSettings, error)
	DeleteByScope(ctx context.Context, businessProfileID int64, workerID *int64) error
	MaxHorizonDays(ctx context.Context) (int, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
