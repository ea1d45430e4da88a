package slots

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/slots/models"
)

type Handler struct {
	service SlotService
	logger  Logger
}

func NewHandler(service SlotService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func workerIDs(r *http.Request) (workerID, businessID int64, err error) {
	if businessID, err = handlers.PathInt64(r, "businessId"); err != nil {
		return 0, 0, err
	}
	if workerID, err = handlers.PathInt64(r, "workerId"); err != nil {
		return 0, 0, err
	}
	return workerID, businessID, nil
}

// Create POST /api/v1/businesses/{businessId}/workers/{workerId}/slots
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "POST /businesses/{id}/workers/{id}/slots"

	workerID, businessID, err := workerIDs(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	var body CreateSlotBody
	if err := handlers.DecodeAndValidate(r, &body); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	slot, err := h.service.CreateManual(r.Context(), body.ToServiceRequest(businessID, workerID))
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Slot created: slot_id=%d, worker_id=%d, status=%s", op, slot.ID, workerID, slot.Status)
	handlers.RespondJSON(w, http.StatusCreated, slot)
}

// List GET /api/v1/businesses/{businessId}/workers/{workerId}/slots?from&to&status
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "GET /businesses/{id}/workers/{id}/slots"

	workerID, businessID, err := workerIDs(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	from, err := handlers.RequiredQueryTime(r, "from")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	to, err := handlers.RequiredQueryTime(r, "to")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	statuses, err := parseStatuses(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	list, err := h.service.List(r.Context(), &models.ListSlotsRequest{
		WorkerID:          workerID,
		BusinessProfileID: businessID,
		From:              from,
		To:                to,
		Statuses:          statuses,
	})
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Slots retrieved: worker_id=%d, count=%d", op, workerID, len(list.Slots))
	handlers.RespondJSON(w, http.StatusOK, list)
}

// Get GET /api/v1/businesses/{businessId}/slots/{slotId}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "GET /businesses/{id}/slots/{id}"

	businessID, err := handlers.PathInt64(r, "businessId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	slotID, err := handlers.PathInt64(r, "slotId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	slot, err := h.service.Get(r.Context(), slotID, businessID)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, slot)
}

// Delete DELETE /api/v1/businesses/{businessId}/slots/{slotId}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "DELETE /businesses/{id}/slots/{id}"

	businessID, err := handlers.PathInt64(r, "businessId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	slotID, err := handlers.PathInt64(r, "slotId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	if err := h.service.Delete(r.Context(), slotID, businessID); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Slot deleted: slot_id=%d", op, slotID)
	handlers.RespondNoContent(w)
}
