package schedules

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// SetRuleItem PUT /api/v1/businesses/{businessId}/schedules/{scheduleId}/rule-items/{day}
func (h *Handler) SetRuleItem(w http.ResponseWriter, r *http.Request) {
	const op = "PUT /businesses/{id}/schedules/{id}/rule-items/{day}"

	scheduleID, businessID, err := scheduleIDs(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	day, err := PathWeekday(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	var body SetRuleItemBody
	if err := handlers.DecodeAndValidate(r, &body); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	req, err := body.ToServiceRequest(day)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	item, err := h.service.SetRuleItem(r.Context(), scheduleID, businessID, req)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Rule item set: schedule_id=%d, day=%s", op, scheduleID, day)
	handlers.RespondJSON(w, http.StatusOK, item)
}

// RemoveRuleItem DELETE /api/v1/businesses/{businessId}/schedules/{scheduleId}/rule-items/{day}
func (h *Handler) RemoveRuleItem(w http.ResponseWriter, r *http.Request) {
	const op = "DELETE /businesses/{id}/schedules/{id}/rule-items/{day}"

	scheduleID, businessID, err := scheduleIDs(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	day, err := PathWeekday(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	if err := h.service.RemoveRuleItem(r.Context(), scheduleID, businessID, day); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Rule item removed: schedule_id=%d, day=%s", op, scheduleID, day)
	handlers.RespondNoContent(w)
}

// AddBreak POST /api/v1/businesses/{businessId}/schedules/{scheduleId}/rule-items/{day}/breaks
func (h *Handler) AddBreak(w http.ResponseWriter, r *http.Request) {
	const op = "POST /businesses/{id}/schedules/{id}/rule-items/{day}/breaks"

	scheduleID, businessID, err := scheduleIDs(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	day, err := PathWeekday(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	input, err := decodeBreak(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	br, err := h.service.AddBreak(r.Context(), scheduleID, businessID, day, input)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Break added: schedule_id=%d, day=%s, break_id=%s", op, scheduleID, day, br.ID)
	handlers.RespondJSON(w, http.StatusCreated, br)
}

// UpdateBreak PUT /api/v1/businesses/{businessId}/schedules/{scheduleId}/rule-items/{day}/breaks/{breakId}
func (h *Handler) UpdateBreak(w http.ResponseWriter, r *http.Request) {
	const op = "PUT /businesses/{id}/schedules/{id}/rule-items/{day}/breaks/{id}"

	scheduleID, businessID, err := scheduleIDs(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	day, err := PathWeekday(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	breakID, err := pathBreakID(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	input, err := decodeBreak(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	br, err := h.service.UpdateBreak(r.Context(), scheduleID, businessID, day, breakID, input)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Break updated: schedule_id=%d, break_id=%s", op, scheduleID, breakID)
	handlers.RespondJSON(w, http.StatusOK, br)
}

// RemoveBreak DELETE /api/v1/businesses/{businessId}/schedules/{scheduleId}/rule-items/{day}/breaks/{breakId}
func (h *Handler) RemoveBreak(w http.ResponseWriter, r *http.Request) {
	const op = "DELETE /businesses/{id}/schedules/{id}/rule-items/{day}/breaks/{id}"

	scheduleID, businessID, err := scheduleIDs(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	day, err := PathWeekday(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	breakID, err := pathBreakID(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	if err := h.service.RemoveBreak(r.Context(), scheduleID, businessID, day, breakID); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Break removed: schedule_id=%d, break_id=%s", op, scheduleID, breakID)
	handlers.RespondNoContent(w)
}

func decodeBreak(r *http.Request) (domain.BreakInput, error) {
	var body BreakBody
	if err := handlers.DecodeAndValidate(r, &body); err != nil {
		return domain.BreakInput{}, err
	}
	return body.toDomain()
}

func pathBreakID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(handlers.PathString(r, "breakId"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: breakId must be a UUID", domain.ErrValidation)
	}
	return id, nil
}
