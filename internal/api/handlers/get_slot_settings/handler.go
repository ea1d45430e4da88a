package get_slot_settings

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

// Handle GET /api/v1/businesses/{businessId}/slot-settings?workerId=
// Без workerId - настройки бизнеса, с workerId - действующие настройки работника
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	const op = "GET /businesses/{id}/slot-settings"

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

	settings, err := h.service.Get(r.Context(), businessID, workerID)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Slot settings retrieved: business_id=%d, default=%t", op, businessID, settings.IsDefault)
	handlers.RespondJSON(w, http.StatusOK, settings)
}

// HandleList GET /api/v1/businesses/{businessId}/slot-settings/all
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "GET /businesses/{id}/slot-settings/all"

	businessID, err := handlers.PathInt64(r, "businessId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	list, err := h.service.List(r.Context(), businessID)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Slot settings listed: business_id=%d, count=%d", op, businessID, len(list.Settings))
	handlers.RespondJSON(w, http.StatusOK, list)
}
