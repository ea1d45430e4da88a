package get_available_slots

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
)

const op = "GET /businesses/{id}/workers/{id}/slots/available"

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/businesses/{businessId}/workers/{workerId}/slots/available?from&to&serviceId
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := ToUseCaseRequest(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Available slots retrieved: business_id=%d, worker_id=%d, count=%d",
		op, req.BusinessProfileID, req.WorkerID, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, result)
}
