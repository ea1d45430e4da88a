package create_booking

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модель запроса на создание бронирования
type Request struct {
	BusinessProfileID int64   // ID бизнеса из URL
	CustomerID        int64   // ID клиента из токена
	ServiceID         int64   // ID услуги
	SlotID            int64   // ID слота доступности
	NotesByCustomer   *string // Заметки клиента (опционально)
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID                 int64     `json:"id"`
	BusinessProfileID  int64     `json:"businessProfileId"`
	CustomerID         int64     `json:"customerId"`
	ServiceID          int64     `json:"serviceId"`
	WorkerID           int64     `json:"workerId"`
	AvailabilitySlotID int64     `json:"availabilitySlotId"`
	BookingStartTime   time.Time `json:"bookingStartTime"`
	BookingEndTime     time.Time `json:"bookingEndTime"`
	Status             string    `json:"status"`

	// Денормализованные данные
	ServiceName     string  `json:"serviceName"`
	PriceAtBooking  float64 `json:"priceAtBooking"`
	NotesByCustomer *string `json:"notesByCustomer,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toResponse(b *domain.Booking) *Response {
	return &Response{
		ID:                 b.ID,
		BusinessProfileID:  b.BusinessProfileID,
		CustomerID:         b.CustomerID,
		ServiceID:          b.ServiceID,
		WorkerID:           b.WorkerID,
		AvailabilitySlotID: b.AvailabilitySlotID,
		BookingStartTime:   b.BookingStartTime.UTC(),
		BookingEndTime:     b.BookingEndTime.UTC(),
		Status:             string(b.Status),
		ServiceName:        b.ServiceName,
		PriceAtBooking:     b.PriceAtBooking,
		NotesByCustomer:    b.NotesByCustomer,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}
