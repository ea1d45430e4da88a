package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetDetails(ctx context.Context, id int64) (*domain.BookingDetails, error)
	List(ctx context.Context, filter domain.BookingFilter) (*domain.BookingPage, error)
	UpdateStatus(ctx context.Context, booking *domain.Booking, from domain.BookingStatus) error
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id, businessProfileID int64) (*domain.AvailabilitySlot, error)
	MarkBooked(ctx context.Context, id, bookingID int64) error
	Release(ctx context.Context, id, bookingID int64) error
	Delete(ctx context.Context, id int64) error
}

// ScheduleRepository нужен, чтобы решить судьбу сгенерированного слота при отмене
type ScheduleRepository interface {
	GetByID(ctx context.Context, id, businessProfileID int64) (*domain.Schedule, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счетчики бронирований
type Metrics interface {
	IncBookingTransition(to string)
	IncBookingsCreated()
	IncBookingConflicts()
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time { return time.Now() }
