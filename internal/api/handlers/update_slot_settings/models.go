package update_slot_settings

import (
	"github.com/m04kA/SMC-SchedulingService/internal/service/slotsettings/models"
)

// UpdateSlotSettingsRequest HTTP request model
// Не переданные поля остаются прежними
type UpdateSlotSettingsRequest struct {
	WorkerID                *int64 `json:"workerId,omitempty" validate:"omitempty,gt=0"`
	SlotDurationMinutes     *int   `json:"slotDurationMinutes,omitempty" validate:"omitempty,gte=0"`
	HorizonDays             *int   `json:"horizonDays,omitempty" validate:"omitempty,gt=0"`
	MinBookingNoticeMinutes *int   `json:"minBookingNoticeMinutes,omitempty" validate:"omitempty,gte=0"`
}

// ToServiceRequest конвертирует HTTP запрос в запрос сервиса
func (r *UpdateSlotSettingsRequest) ToServiceRequest(businessID int64) *models.UpsertSettingsRequest {
	return &models.UpsertSettingsRequest{
		BusinessProfileID:       businessID,
		WorkerID:                r.WorkerID,
		SlotDurationMinutes:     r.SlotDurationMinutes,
		HorizonDays:             r.HorizonDays,
		MinBookingNoticeMinutes: r.MinBookingNoticeMinutes,
	}
}
