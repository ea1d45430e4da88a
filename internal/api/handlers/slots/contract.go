package slots

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/slots/models"
)

type SlotService interface {
	CreateManual(ctx context.Context, req *models.CreateSlotRequest) (*models.SlotResponse, error)
	Get(ctx context.Context, slotID, businessProfileID int64) (*models.SlotResponse, error)
	List(ctx context.Context, req *models.ListSlotsRequest) (*models.SlotListResponse, error)
	Delete(ctx context.Context, slotID, businessProfileID int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
