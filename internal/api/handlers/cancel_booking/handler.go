package cancel_booking

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

const msgMissingUserID = "отсутствует ID пользователя"

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HandleByCustomer PATCH /api/v1/bookings/{bookingId}/cancel
func (h *Handler) HandleByCustomer(w http.ResponseWriter, r *http.Request) {
	const op = "PATCH /bookings/{id}/cancel"

	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.logger.Warn("%s - Missing user ID", op)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	req, err := decodeCancel(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	req.CustomerID = principal.UserID

	result, err := h.service.CancelByCustomer(r.Context(), req)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Booking cancelled by customer: booking_id=%d, customer_id=%d", op, req.BookingID, req.CustomerID)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// HandleByVendor PATCH /api/v1/businesses/{businessId}/bookings/{bookingId}/cancel
func (h *Handler) HandleByVendor(w http.ResponseWriter, r *http.Request) {
	const op = "PATCH /businesses/{id}/bookings/{id}/cancel"

	businessID, err := handlers.PathInt64(r, "businessId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	req, err := decodeCancel(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	req.BusinessProfileID = businessID

	result, err := h.service.CancelByVendor(r.Context(), req)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Booking cancelled by vendor: booking_id=%d, business_id=%d", op, req.BookingID, businessID)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// decodeCancel тело с причиной отмены необязательно
func decodeCancel(r *http.Request) (*models.CancelRequest, error) {
	bookingID, err := handlers.PathInt64(r, "bookingId")
	if err != nil {
		return nil, err
	}

	req := &models.CancelRequest{}
	if err := handlers.DecodeJSON(r, req); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	if err := handlers.Validate(req); err != nil {
		return nil, err
	}
	req.BookingID = bookingID
	return req, nil
}
