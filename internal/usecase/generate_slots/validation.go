package generate_slots

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.WorkerID <= 0 {
		return fmt.Errorf("%w: workerId must be positive", domain.ErrValidation)
	}
	if req.BusinessProfileID <= 0 {
		return fmt.Errorf("%w: businessProfileId must be positive", domain.ErrValidation)
	}
	if req.From.IsZero() || req.To.IsZero() || !req.From.Before(req.To) {
		return domain.ErrInvalidGenerationRange
	}
	if req.To.Sub(req.From) > time.Duration(domain.MaxGenerationRangeDays)*24*time.Hour {
		return fmt.Errorf("%w: at most %d days", domain.ErrInvalidGenerationRange, domain.MaxGenerationRangeDays)
	}
	if req.SlotDurationMinutes != nil {
		if err := domain.ValidateSlotDuration(*req.SlotDurationMinutes); err != nil {
			return err
		}
	}
	return nil
}
