package generate_slots

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
)

const op = "POST /businesses/{id}/workers/{id}/slots/generate"

type Handler struct {
	useCase GenerateSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GenerateSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/businesses/{businessId}/workers/{workerId}/slots/generate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	businessID, err := handlers.PathInt64(r, "businessId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	workerID, err := handlers.PathInt64(r, "workerId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	var req GenerateSlotsRequest
	if err := handlers.DecodeAndValidate(r, &req); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(businessID, workerID))
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Slots generated: worker_id=%d, inserted=%d, deleted=%d, kept=%d",
		op, workerID, result.Inserted, result.Deleted, result.Kept)
	handlers.RespondJSON(w, http.StatusOK, result)
}
