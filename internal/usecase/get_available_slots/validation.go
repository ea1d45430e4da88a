package get_available_slots

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.BusinessProfileID <= 0 {
		return fmt.Errorf("%w: businessProfileId must be positive", domain.ErrValidation)
	}
	if req.WorkerID <= 0 {
		return fmt.Errorf("%w: workerId must be positive", domain.ErrValidation)
	}
	if req.ServiceID != nil && *req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceId must be positive", domain.ErrValidation)
	}

	// Проверяем, что даты заданы
	if req.From.IsZero() || req.To.IsZero() {
		return fmt.Errorf("%w: from and to are required", domain.ErrValidation)
	}
	if !req.From.Before(req.To) {
		return domain.ErrInvalidTimeRange
	}
	if req.To.Sub(req.From) > domain.MaxGenerationRangeDays*24*time.Hour {
		return fmt.Errorf("%w: range must not exceed %d days", domain.ErrInvalidGenerationRange, domain.MaxGenerationRangeDays)
	}

	return nil
}

// validateService услуга активна и оказывается работником
func validateService(service *catalogservice.Service, workerID int64) error {
	if !service.IsActive {
		return domain.ErrServiceInactive
	}
	if !service.HasWorker(workerID) {
		return domain.ErrWorkerNotForService
	}
	return nil
}
