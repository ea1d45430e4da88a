package update_slot_settings

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/slotsettings/models"
)

type SlotSettingsService interface {
	Upsert(ctx context.Context, req *models.UpsertSettingsRequest) (*models.SettingsResponse, error)
	Delete(ctx context.Context, businessProfileID int64, workerID *int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
