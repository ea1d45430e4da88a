package generate_slots

import (
	"time"

	generateSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/generate_slots"
)

// GenerateSlotsRequest HTTP request model, период [from, to)
type GenerateSlotsRequest struct {
	From                time.Time `json:"from" validate:"required"`
	To                  time.Time `json:"to" validate:"required"`
	SlotDurationMinutes *int      `json:"slotDurationMinutes,omitempty" validate:"omitempty,gte=0"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *GenerateSlotsRequest) ToUseCaseRequest(businessID, workerID int64) *generateSlots.Request {
	return &generateSlots.Request{
		WorkerID:            workerID,
		BusinessProfileID:   businessID,
		From:                r.From.UTC(),
		To:                  r.To.UTC(),
		SlotDurationMinutes: r.SlotDurationMinutes,
	}
}
