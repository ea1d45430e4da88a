package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// CreateSlotRequest запрос на ручное создание слота
type CreateSlotRequest struct {
	WorkerID          int64
	BusinessProfileID int64
	StartTime         time.Time
	EndTime           time.Time
	Status            domain.SlotStatus
}

// ListSlotsRequest выборка слотов работника за период
type ListSlotsRequest struct {
	WorkerID          int64
	BusinessProfileID int64
	From              time.Time
	To                time.Time
	Statuses          []domain.SlotStatus
}

// SlotResponse ответ с данными слота
type SlotResponse struct {
	ID                   int64     `json:"id"`
	WorkerID             int64     `json:"workerId"`
	BusinessProfileID    int64     `json:"businessProfileId"`
	StartTime            time.Time `json:"startTime"`
	EndTime              time.Time `json:"endTime"`
	Status               string    `json:"status"`
	BookingID            *int64    `json:"bookingId,omitempty"`
	GeneratingScheduleID *int64    `json:"generatingScheduleId,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// SlotListResponse ответ со списком слотов
type SlotListResponse struct {
	Slots []SlotResponse `json:"slots"`
}

// FromDomainSlot конвертирует domain модель в DTO
func FromDomainSlot(s *domain.AvailabilitySlot) *SlotResponse {
	if s == nil {
		return nil
	}
	return &SlotResponse{
		ID:                   s.ID,
		WorkerID:             s.WorkerID,
		BusinessProfileID:    s.BusinessProfileID,
		StartTime:            s.StartTime.UTC(),
		EndTime:              s.EndTime.UTC(),
		Status:               string(s.Status),
		BookingID:            s.BookingID,
		GeneratingScheduleID: s.GeneratingScheduleID,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

// FromDomainSlotList конвертирует список слотов в DTO
func FromDomainSlotList(slots []*domain.AvailabilitySlot) *SlotListResponse {
	resp := &SlotListResponse{Slots: make([]SlotResponse, 0, len(slots))}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, *FromDomainSlot(s))
	}
	return resp
}
