package schedules

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// AddOverride POST /api/v1/businesses/{businessId}/schedules/{scheduleId}/overrides
func (h *Handler) AddOverride(w http.ResponseWriter, r *http.Request) {
	const op = "POST /businesses/{id}/schedules/{id}/overrides"

	scheduleID, businessID, err := scheduleIDs(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	var body OverrideBody
	if err := handlers.DecodeAndValidate(r, &body); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	input, err := body.toDomain()
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	override, err := h.service.AddOverride(r.Context(), scheduleID, businessID, input)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Override added: schedule_id=%d, date=%s", op, scheduleID, override.OverrideDate)
	handlers.RespondJSON(w, http.StatusCreated, override)
}

// RemoveOverride DELETE /api/v1/businesses/{businessId}/schedules/{scheduleId}/overrides/{date}
func (h *Handler) RemoveOverride(w http.ResponseWriter, r *http.Request) {
	const op = "DELETE /businesses/{id}/schedules/{id}/overrides/{date}"

	scheduleID, businessID, err := scheduleIDs(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	date, err := handlers.ParseDate(handlers.PathString(r, "date"))
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	if err := h.service.RemoveOverride(r.Context(), scheduleID, businessID, date); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Override removed: schedule_id=%d, date=%s", op, scheduleID, date.Format(domain.DateFormat))
	handlers.RespondNoContent(w)
}
