package get_slot_settings

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/slotsettings/models"
)

type SlotSettingsService interface {
	Get(ctx context.Context, businessProfileID int64, workerID *int64) (*models.SettingsResponse, error)
	List(ctx context.Context, businessProfileID int64) (*models.SettingsListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
