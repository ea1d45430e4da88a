package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// UpsertSettingsRequest запрос на создание или изменение настроек
// Не переданные поля берутся из текущих действующих настроек
type UpsertSettingsRequest struct {
	BusinessProfileID       int64
	WorkerID                *int64 // nil - настройки уровня бизнеса
	SlotDurationMinutes     *int
	HorizonDays             *int
	MinBookingNoticeMinutes *int
}

// SettingsResponse ответ с настройками
type SettingsResponse struct {
	ID                      int64     `json:"id,omitempty"`
	BusinessProfileID       int64     `json:"businessProfileId"`
	WorkerID                *int64    `json:"workerId,omitempty"`
	SlotDurationMinutes     int       `json:"slotDurationMinutes"`
	HorizonDays             int       `json:"horizonDays"`
	MinBookingNoticeMinutes int       `json:"minBookingNoticeMinutes"`
	IsDefault               bool      `json:"isDefault"` // true - записи нет, действуют значения сервиса
	CreatedAt               time.Time `json:"createdAt,omitempty"`
	UpdatedAt               time.Time `json:"updatedAt,omitempty"`
}

// SettingsListResponse ответ со списком настроек бизнеса
type SettingsListResponse struct {
	Settings []SettingsResponse `json:"settings"`
}

// FromDomain конвертирует domain модель в DTO
func FromDomain(s *domain.SlotSettings) *SettingsResponse {
	if s == nil {
		return nil
	}
	return &SettingsResponse{
		ID:                      s.ID,
		BusinessProfileID:       s.BusinessProfileID,
		WorkerID:                s.WorkerID,
		SlotDurationMinutes:     s.SlotDurationMinutes,
		HorizonDays:             s.HorizonDays,
		MinBookingNoticeMinutes: s.MinBookingNoticeMinutes,
		IsDefault:               s.ID == 0,
		CreatedAt:               s.CreatedAt,
		UpdatedAt:               s.UpdatedAt,
	}
}
