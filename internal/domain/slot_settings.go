package domain

import (
	"fmt"
	"time"
)

// SlotSettings настройки генерации слотов
// Supports hierarchical configuration:
// 1. Worker-specific (business_profile_id, worker_id)
// 2. Business-wide (business_profile_id, NULL)
// 3. Service defaults from config.toml
type SlotSettings struct {
	ID                      int64
	BusinessProfileID       int64
	WorkerID                *int64 // NULL = settings for all workers of the business
	SlotDurationMinutes     int    // 0 = one slot per contiguous working interval
	HorizonDays             int    // how many days ahead slots are materialized
	MinBookingNoticeMinutes int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// IsBusinessWide returns true if the settings apply to every worker of the business
func (c *SlotSettings) IsBusinessWide() bool {
	return c.WorkerID == nil
}

// SlotDuration длительность слота, 0 - слоты не дробятся
func (c *SlotSettings) SlotDuration() time.Duration {
	return time.Duration(c.SlotDurationMinutes) * time.Minute
}

// MinBookingNotice минимальное время до начала слота при бронировании
func (c *SlotSettings) MinBookingNotice() time.Duration {
	return time.Duration(c.MinBookingNoticeMinutes) * time.Minute
}

// Validate проверяет диапазоны значений
func (c *SlotSettings) Validate() error {
	if c.BusinessProfileID <= 0 {
		return fmt.Errorf("%w: businessProfileId must be positive", ErrValidation)
	}
	if c.WorkerID != nil && *c.WorkerID <= 0 {
		return fmt.Errorf("%w: workerId must be positive", ErrValidation)
	}
	if err := ValidateSlotDuration(c.SlotDurationMinutes); err != nil {
		return err
	}
	if c.HorizonDays < 1 || c.HorizonDays > MaxHorizonDays {
		return fmt.Errorf("%w: horizonDays must be between 1 and %d", ErrValidation, MaxHorizonDays)
	}
	if c.MinBookingNoticeMinutes < 0 || c.MinBookingNoticeMinutes > MaxBookingNoticeMinutes {
		return fmt.Errorf("%w: minBookingNoticeMinutes must be between 0 and %d", ErrValidation, MaxBookingNoticeMinutes)
	}
	return nil
}

// ValidateSlotDuration 0 или значение в допустимом диапазоне
func ValidateSlotDuration(minutes int) error {
	if minutes == 0 {
		return nil
	}
	if minutes < MinSlotDurationMinutes || minutes > MaxSlotDurationMinutes {
		return fmt.Errorf("%w: must be 0 or between %d and %d minutes", ErrInvalidSlotDuration, MinSlotDurationMinutes, MaxSlotDurationMinutes)
	}
	return nil
}

// DefaultSlotSettings настройки по умолчанию для бизнеса без записи в БД
func DefaultSlotSettings(businessProfileID int64, slotDurationMinutes, horizonDays, minNoticeMinutes int) *SlotSettings {
	return &SlotSettings{
		BusinessProfileID:       businessProfileID,
		SlotDurationMinutes:     slotDurationMinutes,
		HorizonDays:             horizonDays,
		MinBookingNoticeMinutes: minNoticeMinutes,
	}
}
