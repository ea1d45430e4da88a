package cancel_booking

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

type BookingService interface {
	CancelByCustomer(ctx context.Context, req *models.CancelRequest) (*models.BookingResponse, error)
	CancelByVendor(ctx context.Context, req *models.CancelRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
