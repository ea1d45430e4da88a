package create_booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.BusinessProfileID <= 0 {
		return fmt.Errorf("%w: businessProfileId must be positive", domain.ErrValidation)
	}
	if req.CustomerID <= 0 {
		return fmt.Errorf("%w: customerId must be positive", domain.ErrValidation)
	}
	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceId must be positive", domain.ErrValidation)
	}
	if req.SlotID <= 0 {
		return fmt.Errorf("%w: slotId must be positive", domain.ErrValidation)
	}
	if req.NotesByCustomer != nil {
		notes := strings.TrimSpace(*req.NotesByCustomer)
		if len(notes) > domain.MaxNotesLength {
			return fmt.Errorf("%w: notes must be at most %d characters", domain.ErrValidation, domain.MaxNotesLength)
		}
		if notes == "" {
			req.NotesByCustomer = nil
		} else {
			req.NotesByCustomer = &notes
		}
	}
	return nil
}

// validateService услуга принадлежит бизнесу, активна и оказывается работником слота
func validateService(service *catalogservice.Service, businessProfileID, workerID int64) error {
	if service.BusinessProfileID != businessProfileID {
		return domain.ErrServiceNotFound
	}
	if !service.IsActive {
		return domain.ErrServiceInactive
	}
	if !service.HasWorker(workerID) {
		return domain.ErrWorkerNotForService
	}
	return nil
}

// validateNotice слот начинается не раньше, чем через minNotice от now
func validateNotice(slot *domain.AvailabilitySlot, now time.Time, minNotice time.Duration) error {
	if slot.StartTime.Before(now.Add(minNotice)) {
		return fmt.Errorf("%w: book at least %d minutes in advance", domain.ErrSlotInPast, int(minNotice/time.Minute))
	}
	return nil
}
