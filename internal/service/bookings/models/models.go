package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модели

// TransitionRequest действие вендора над бронированием (confirm, complete, no-show)
type TransitionRequest struct {
	BusinessProfileID int64   `json:"-"`
	BookingID         int64   `json:"-"`
	NotesByVendor     *string `json:"notesByVendor,omitempty"`
}

// CancelRequest отмена бронирования
// Для отмены клиентом заполняется CustomerID, для отмены вендором - BusinessProfileID
type CancelRequest struct {
	BusinessProfileID  int64   `json:"-"`
	CustomerID         int64   `json:"-"`
	BookingID          int64   `json:"-"`
	CancellationReason *string `json:"cancellationReason,omitempty" validate:"omitempty,max=500"`
}

// RescheduleRequest перенос подтвержденного бронирования на другой слот
type RescheduleRequest struct {
	BusinessProfileID int64 `json:"-"`
	BookingID         int64 `json:"-"`
	NewSlotID         int64 `json:"newSlotId" validate:"required,gt=0"`
}

// ListBusinessBookingsRequest выборка бронирований бизнеса
type ListBusinessBookingsRequest struct {
	BusinessProfileID int64
	WorkerID          *int64
	ServiceID         *int64
	CustomerID        *int64
	Status            *string
	From              *time.Time
	To                *time.Time
	Limit             int
	Offset            int
}

// ListCustomerBookingsRequest история бронирований клиента
type ListCustomerBookingsRequest struct {
	CustomerID int64
	Status     *string
	Limit      int
	Offset     int
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
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
	ServiceName    string  `json:"serviceName"`
	PriceAtBooking float64 `json:"priceAtBooking"`
	CustomerName   *string `json:"customerName,omitempty"`
	CustomerEmail  *string `json:"customerEmail,omitempty"`
	WorkerName     *string `json:"workerName,omitempty"`

	NotesByCustomer    *string `json:"notesByCustomer,omitempty"`
	NotesByVendor      *string `json:"notesByVendor,omitempty"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format
	RescheduledFromID  *int64  `json:"rescheduledFromId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse страница бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		BusinessProfileID:  b.BusinessProfileID,
		CustomerID:         b.CustomerID,
		ServiceID:          b.ServiceID,
		WorkerID:           b.WorkerID,
		AvailabilitySlotID: b.AvailabilitySlotID,
		BookingStartTime:   b.BookingStartTime,
		BookingEndTime:     b.BookingEndTime,
		Status:             string(b.Status),
		ServiceName:        b.ServiceName,
		PriceAtBooking:     b.PriceAtBooking,
		NotesByCustomer:    b.NotesByCustomer,
		NotesByVendor:      b.NotesByVendor,
		CancellationReason: b.CancellationReason,
		RescheduledFromID:  b.RescheduledFromID,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	// Конвертируем CancelledAt в строку ISO 8601
	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.UTC().Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainDetails конвертирует бронирование с данными клиента и работника
func FromDomainDetails(d *domain.BookingDetails) *BookingResponse {
	if d == nil {
		return nil
	}
	resp := FromDomainBooking(&d.Booking)
	resp.CustomerName = d.CustomerName
	resp.CustomerEmail = d.CustomerEmail
	resp.WorkerName = d.WorkerName
	return resp
}

// FromDomainPage конвертирует страницу бронирований
func FromDomainPage(page *domain.BookingPage) *BookingListResponse {
	if page == nil {
		return &BookingListResponse{Bookings: []BookingResponse{}}
	}

	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(page.Items)),
		Total:    page.Total,
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
	for _, item := range page.Items {
		if r := FromDomainDetails(item); r != nil {
			resp.Bookings = append(resp.Bookings, *r)
		}
	}
	return resp
}
