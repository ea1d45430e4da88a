package update_slot_settings

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
)

type Handler struct {
	service SlotSettingsService
	logger  Logger
}

func NewHandler(service SlotSettingsService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PUT /api/v1/businesses/{businessId}/slot-settings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	const op = "PUT /businesses/{id}/slot-settings"

	businessID, err := handlers.PathInt64(r, "businessId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	var req UpdateSlotSettingsRequest
	if err := handlers.DecodeAndValidate(r, &req); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	settings, err := h.service.Upsert(r.Context(), req.ToServiceRequest(businessID))
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Slot settings saved: business_id=%d, settings_id=%d", op, businessID, settings.ID)
	handlers.RespondJSON(w, http.StatusOK, settings)
}

// HandleDelete DELETE /api/v1/businesses/{businessId}/slot-settings?workerId=
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "DELETE /businesses/{id}/slot-settings"

	businessID, err := handlers.PathInt64(r, "businessId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	workerID, err := handlers.QueryInt64(r, "workerId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	if err := h.service.Delete(r.Context(), businessID, workerID); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Slot settings removed: business_id=%d, worker_level=%t", op, businessID, workerID != nil)
	handlers.RespondNoContent(w)
}
