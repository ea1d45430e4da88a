package get_booking

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
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

// HandleForBusiness GET /api/v1/businesses/{businessId}/bookings/{bookingId}
func (h *Handler) HandleForBusiness(w http.ResponseWriter, r *http.Request) {
	const op = "GET /businesses/{id}/bookings/{id}"

	businessID, err := handlers.PathInt64(r, "businessId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	bookingID, err := handlers.PathInt64(r, "bookingId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	booking, err := h.service.Get(r.Context(), businessID, bookingID)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Booking retrieved: booking_id=%d, business_id=%d", op, bookingID, businessID)
	handlers.RespondJSON(w, http.StatusOK, booking)
}

// HandleForCustomer GET /api/v1/bookings/{bookingId}
func (h *Handler) HandleForCustomer(w http.ResponseWriter, r *http.Request) {
	const op = "GET /bookings/{id}"

	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.logger.Warn("%s - Missing user ID", op)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}
	bookingID, err := handlers.PathInt64(r, "bookingId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	// Чужое бронирование сервис возвращает как не найденное
	booking, err := h.service.GetForCustomer(r.Context(), principal.UserID, bookingID)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Booking retrieved: booking_id=%d, customer_id=%d", op, bookingID, principal.UserID)
	handlers.RespondJSON(w, http.StatusOK, booking)
}
