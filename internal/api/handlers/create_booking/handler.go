package create_booking

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
)

const (
	msgMissingUserID = "отсутствует ID пользователя"
	op               = "POST /bookings"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Клиент берется из токена
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.logger.Warn("%s - Missing user ID", op)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeAndValidate(r, &req); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(principal.UserID))
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Booking created successfully: booking_id=%d, customer_id=%d, slot_id=%d",
		op, result.ID, principal.UserID, req.SlotID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
