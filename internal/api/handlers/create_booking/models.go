package create_booking

import (
	createBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	BusinessProfileID int64   `json:"businessProfileId" validate:"required,gt=0"`
	ServiceID         int64   `json:"serviceId" validate:"required,gt=0"`
	SlotID            int64   `json:"slotId" validate:"required,gt=0"`
	NotesByCustomer   *string `json:"notesByCustomer,omitempty" validate:"omitempty,max=1000"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(customerID int64) *createBooking.Request {
	return &createBooking.Request{
		BusinessProfileID: r.BusinessProfileID,
		CustomerID:        customerID,
		ServiceID:         r.ServiceID,
		SlotID:            r.SlotID,
		NotesByCustomer:   r.NotesByCustomer,
	}
}
