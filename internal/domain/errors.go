package domain

import (
	"errors"
	"fmt"
)

// Категории доменных ошибок. Конкретные ошибки ниже оборачивают одну из категорий,
// поэтому вызывающий код может проверять и правило, и категорию через errors.Is
var (
	// ErrValidation некорректные входные данные, отклоняются до любой мутации
	ErrValidation = errors.New("validation error")

	// ErrConflict конкурирующее изменение или дубликат, запрос можно повторить
	ErrConflict = errors.New("conflict")

	// ErrNotFound сущность не найдена
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation данные корректны, но текущее состояние агрегата запрещает операцию
	ErrInvalidOperation = errors.New("invalid operation")
)

// Validation
var (
	ErrInvalidTimeRange       = fmt.Errorf("%w: start time must be before end time", ErrValidation)
	ErrInvalidDayOfWeek       = fmt.Errorf("%w: day of week must be between 0 (Sunday) and 6 (Saturday)", ErrValidation)
	ErrBreakOutsideRuleItem   = fmt.Errorf("%w: break must lie within rule item working hours", ErrValidation)
	ErrBreaksOnDayOff         = fmt.Errorf("%w: non-working rule item cannot have breaks", ErrValidation)
	ErrOverrideTimesRequired  = fmt.Errorf("%w: working override requires start and end time", ErrValidation)
	ErrInvalidTimeZone        = fmt.Errorf("%w: unknown time zone", ErrValidation)
	ErrInvalidEffectiveRange  = fmt.Errorf("%w: effective end date must not precede effective start date", ErrValidation)
	ErrInvalidSlotStatus      = fmt.Errorf("%w: slot status is not allowed here", ErrValidation)
	ErrInvalidSlotDuration    = fmt.Errorf("%w: slot duration is out of range", ErrValidation)
	ErrInvalidGenerationRange = fmt.Errorf("%w: generation range is empty or too long", ErrValidation)
)

// Conflict
var (
	ErrDuplicateRuleItem      = fmt.Errorf("%w: rule item for this day of week already exists", ErrConflict)
	ErrDuplicateOverride      = fmt.Errorf("%w: override for this date already exists", ErrConflict)
	ErrBreakOverlap           = fmt.Errorf("%w: break overlaps another break of the same rule item", ErrConflict)
	ErrSlotNotAvailable       = fmt.Errorf("%w: slot is no longer available", ErrConflict)
	ErrSlotCollision          = fmt.Errorf("%w: slot overlaps an existing slot of the worker", ErrConflict)
	ErrConcurrentModification = fmt.Errorf("%w: resource was modified concurrently, reload and retry", ErrConflict)
	ErrWorkerBusy             = fmt.Errorf("%w: slot generation for this worker is already running", ErrConflict)
)

// NotFound
var (
	ErrScheduleNotFound     = fmt.Errorf("%w: schedule not found", ErrNotFound)
	ErrRuleItemNotFound     = fmt.Errorf("%w: rule item not found", ErrNotFound)
	ErrBreakNotFound        = fmt.Errorf("%w: break not found", ErrNotFound)
	ErrOverrideNotFound     = fmt.Errorf("%w: override not found", ErrNotFound)
	ErrSlotNotFound         = fmt.Errorf("%w: slot not found", ErrNotFound)
	ErrBookingNotFound      = fmt.Errorf("%w: booking not found", ErrNotFound)
	ErrServiceNotFound      = fmt.Errorf("%w: service not found", ErrNotFound)
	ErrSlotSettingsNotFound = fmt.Errorf("%w: slot settings not found", ErrNotFound)
	ErrWorkerNotFound       = fmt.Errorf("%w: worker not found in this business", ErrNotFound)
)

// InvalidOperation
var (
	ErrInvalidTransition    = fmt.Errorf("%w: booking status transition is not allowed", ErrInvalidOperation)
	ErrBookedSlotDeletion   = fmt.Errorf("%w: booked slots cannot be deleted directly", ErrInvalidOperation)
	ErrBreakOnDayOff        = fmt.Errorf("%w: breaks can only be added to working days", ErrInvalidOperation)
	ErrServiceInactive      = fmt.Errorf("%w: service is not available for booking", ErrInvalidOperation)
	ErrWorkerNotForService  = fmt.Errorf("%w: worker does not provide this service", ErrInvalidOperation)
	ErrSlotInPast           = fmt.Errorf("%w: slot starts too soon to be booked", ErrInvalidOperation)
	ErrRescheduleSameSlot   = fmt.Errorf("%w: booking cannot be rescheduled to the same slot", ErrInvalidOperation)
	ErrSlotBusinessMismatch = fmt.Errorf("%w: slot belongs to another business", ErrInvalidOperation)
)
