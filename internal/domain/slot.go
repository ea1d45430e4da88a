package domain

import "time"

// SlotStatus статус слота доступности
type SlotStatus string

const (
	SlotStatusAvailable   SlotStatus = "available"
	SlotStatusPending     SlotStatus = "pending"
	SlotStatusBooked      SlotStatus = "booked"
	SlotStatusUnavailable SlotStatus = "unavailable"
	SlotStatusBreak       SlotStatus = "break"
)

// BlockingSlotStatuses статусы, которые занимают время работника
// Два слота с этими статусами не могут пересекаться
var BlockingSlotStatuses = []SlotStatus{
	SlotStatusAvailable,
	SlotStatusPending,
	SlotStatusBooked,
	SlotStatusUnavailable,
	SlotStatusBreak,
}

// ManualSlotStatuses статусы, с которыми вендор может создать слот вручную
var ManualSlotStatuses = []SlotStatus{
	SlotStatusAvailable,
	SlotStatusPending,
	SlotStatusUnavailable,
	SlotStatusBreak,
}

// IsValid проверяет, что статус известен
func (s SlotStatus) IsValid() bool {
	for _, known := range BlockingSlotStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// AvailabilitySlot конкретный интервал времени работника в UTC
type AvailabilitySlot struct {
	ID                   int64
	WorkerID             int64
	BusinessProfileID    int64
	StartTime            time.Time
	EndTime              time.Time
	Status               SlotStatus
	BookingID            *int64
	GeneratingScheduleID *int64 // nil - слот создан вручную или при бронировании
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Range интервал слота
func (s *AvailabilitySlot) Range() TimeRange {
	return TimeRange{Start: s.StartTime, End: s.EndTime}
}

// IsGenerated слот создан генератором по расписанию
func (s *AvailabilitySlot) IsGenerated() bool {
	return s.GeneratingScheduleID != nil
}

// IsBooked слот занят бронированием
func (s *AvailabilitySlot) IsBooked() bool {
	return s.Status == SlotStatusBooked
}

// IsFixed слот не может быть перезаписан генератором: ручной или забронированный
func (s *AvailabilitySlot) IsFixed() bool {
	return !s.IsGenerated() || s.IsBooked()
}

// IsAvailable слот можно забронировать
func (s *AvailabilitySlot) IsAvailable() bool {
	return s.Status == SlotStatusAvailable
}

// Validate проверяет инварианты слота
func (s *AvailabilitySlot) Validate() error {
	if s.WorkerID <= 0 || s.BusinessProfileID <= 0 {
		return ErrValidation
	}
	if !s.StartTime.Before(s.EndTime) {
		return ErrInvalidTimeRange
	}
	if !s.Status.IsValid() {
		return ErrInvalidSlotStatus
	}
	// booked <=> bookingId задан
	if (s.Status == SlotStatusBooked) != (s.BookingID != nil) {
		return ErrInvalidSlotStatus
	}
	return nil
}

// SlotFilter фильтр выборки слотов работника
type SlotFilter struct {
	WorkerID          int64
	BusinessProfileID *int64
	Range             TimeRange
	Statuses          []SlotStatus // пусто - все статусы
}
