package reschedule_booking

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

const op = "POST /businesses/{id}/bookings/{id}/reschedule"

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

// Handle POST /api/v1/businesses/{businessId}/bookings/{bookingId}/reschedule
// Ответ - новое бронирование, исходное получает статус rescheduled
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
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

	var req models.RescheduleRequest
	if err := handlers.DecodeAndValidate(r, &req); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	req.BusinessProfileID = businessID
	req.BookingID = bookingID

	result, err := h.service.Reschedule(r.Context(), &req)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Booking rescheduled: old_booking_id=%d, new_booking_id=%d, slot_id=%d",
		op, bookingID, result.ID, req.NewSlotID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
