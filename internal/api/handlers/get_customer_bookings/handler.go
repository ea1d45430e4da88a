package get_customer_bookings

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

const (
	msgMissingUserID = "отсутствует ID пользователя"
	op               = "GET /bookings"
)

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

// Handle GET /api/v1/bookings?status=&limit=&offset=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Получаем клиента из контекста (через middleware Auth)
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.logger.Warn("%s - Missing user ID", op)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	limit, err := handlers.QueryInt(r, "limit")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	offset, err := handlers.QueryInt(r, "offset")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	result, err := h.service.ListByCustomer(r.Context(), &models.ListCustomerBookingsRequest{
		CustomerID: principal.UserID,
		Status:     handlers.QueryString(r, "status"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Bookings retrieved successfully: customer_id=%d, count=%d", op, principal.UserID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
