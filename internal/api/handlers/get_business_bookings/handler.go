package get_business_bookings

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
)

const op = "GET /businesses/{id}/bookings"

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

// Handle GET /api/v1/businesses/{businessId}/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	businessID, err := handlers.PathInt64(r, "businessId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	serviceReq, err := ToServiceRequest(r, businessID)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	result, err := h.service.ListByBusiness(r.Context(), serviceReq)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Bookings retrieved successfully: business_id=%d, count=%d, total=%d",
		op, businessID, len(result.Bookings), result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
