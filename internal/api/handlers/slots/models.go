package slots

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/slots/models"
)

// CreateSlotBody ручной слот, время в RFC3339
type CreateSlotBody struct {
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required"`
	Status    string    `json:"status" validate:"required"`
}

// ToServiceRequest конвертирует тело в запрос сервиса
func (b *CreateSlotBody) ToServiceRequest(businessID, workerID int64) *models.CreateSlotRequest {
	return &models.CreateSlotRequest{
		WorkerID:          workerID,
		BusinessProfileID: businessID,
		StartTime:         b.StartTime.UTC(),
		EndTime:           b.EndTime.UTC(),
		Status:            domain.SlotStatus(b.Status),
	}
}

// parseStatuses status=available,booked
func parseStatuses(r *http.Request) ([]domain.SlotStatus, error) {
	raw := handlers.QueryString(r, "status")
	if raw == nil {
		return nil, nil
	}
	var statuses []domain.SlotStatus
	for _, part := range strings.Split(*raw, ",") {
		status := domain.SlotStatus(strings.TrimSpace(part))
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: unknown slot status %q", domain.ErrValidation, part)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
