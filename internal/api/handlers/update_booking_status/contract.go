package update_booking_status

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

type BookingService interface {
	Confirm(ctx context.Context, req *models.TransitionRequest) (*models.BookingResponse, error)
	Complete(ctx context.Context, req *models.TransitionRequest) (*models.BookingResponse, error)
	MarkNoShow(ctx context.Context, req *models.TransitionRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
