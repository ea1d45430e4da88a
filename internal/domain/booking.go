package domain

import (
	"fmt"
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPendingConfirmation BookingStatus = "pending_confirmation"
	StatusConfirmed           BookingStatus = "confirmed"
	StatusCancelledByCustomer BookingStatus = "cancelled_by_customer"
	StatusCancelledByVendor   BookingStatus = "cancelled_by_vendor"
	StatusCompleted           BookingStatus = "completed"
	StatusNoShow              BookingStatus = "no_show"
	StatusRescheduled         BookingStatus = "rescheduled"
)

// bookingTransitions допустимые переходы, всё остальное - InvalidOperation
var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPendingConfirmation: {StatusConfirmed, StatusCancelledByCustomer, StatusCancelledByVendor},
	StatusConfirmed:           {StatusCompleted, StatusNoShow, StatusCancelledByCustomer, StatusCancelledByVendor, StatusRescheduled},
}

// AllBookingStatuses все статусы бронирования
var AllBookingStatuses = []BookingStatus{
	StatusPendingConfirmation,
	StatusConfirmed,
	StatusCancelledByCustomer,
	StatusCancelledByVendor,
	StatusCompleted,
	StatusNoShow,
	StatusRescheduled,
}

// CancelledStatuses статусы отмены, отменённое бронирование не держит слот
var CancelledStatuses = []BookingStatus{
	StatusCancelledByCustomer,
	StatusCancelledByVendor,
}

// ParseBookingStatus конвертирует строку в статус с валидацией
func ParseBookingStatus(s string) (BookingStatus, error) {
	for _, known := range AllBookingStatuses {
		if BookingStatus(s) == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: unknown booking status %q", ErrValidation, s)
}

// IsTerminal returns true if no further transitions are possible
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// IsCancelled returns true for both cancellation statuses
func (s BookingStatus) IsCancelled() bool {
	return s == StatusCancelledByCustomer || s == StatusCancelledByVendor
}

// CanTransitionTo проверяет переход по таблице
func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Booking бронирование одного слота клиентом
type Booking struct {
	ID                 int64
	BusinessProfileID  int64
	CustomerID         int64
	ServiceID          int64
	WorkerID           int64
	AvailabilitySlotID int64

	// Snapshot of the slot at creation time, immutable afterwards
	BookingStartTime time.Time
	BookingEndTime   time.Time

	Status BookingStatus

	// Denormalized data for history
	ServiceName    string
	PriceAtBooking float64

	NotesByCustomer    *string
	NotesByVendor      *string
	CancellationReason *string
	CancelledAt        *time.Time
	RescheduledFromID  *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true while the booking holds its slot
func (b *Booking) IsActive() bool {
	return !b.Status.IsCancelled() && b.Status != StatusRescheduled
}

// TransitionTo переводит бронирование в статус to или возвращает ErrInvalidTransition
func (b *Booking) TransitionTo(to BookingStatus) error {
	if !b.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	b.Status = to
	return nil
}

// Cancel отменяет бронирование с указанием причины
func (b *Booking) Cancel(status BookingStatus, reason *string, at time.Time) error {
	if !status.IsCancelled() {
		return fmt.Errorf("%w: %s is not a cancellation status", ErrValidation, status)
	}
	if err := b.TransitionTo(status); err != nil {
		return err
	}
	b.CancellationReason = reason
	b.CancelledAt = &at
	return nil
}

// ReleasesSlot переход в этот статус освобождает слот
// Completed и NoShow оставляют слот забронированным как историю
func (s BookingStatus) ReleasesSlot() bool {
	return s.IsCancelled() || s == StatusRescheduled
}

// BookingDetails бронирование с данными клиента и работника для отображения
type BookingDetails struct {
	Booking
	CustomerName  *string
	CustomerEmail *string
	WorkerName    *string
}

// BookingFilter фильтр бронирований бизнеса
type BookingFilter struct {
	BusinessProfileID int64 // Обязательный параметр
	WorkerID          *int64
	ServiceID         *int64
	CustomerID        *int64
	Status            *BookingStatus
	From              *time.Time // bookingStartTime >= From
	To                *time.Time // bookingStartTime < To
	Limit             int
	Offset            int
}

// Normalize выставляет пагинацию по умолчанию
func (f *BookingFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// BookingPage страница бронирований
type BookingPage struct {
	Items  []*BookingDetails
	Total  int
	Limit  int
	Offset int
}
