package schedules

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// scheduleIDs businessId и scheduleId из пути
func scheduleIDs(r *http.Request) (scheduleID, businessID int64, err error) {
	if businessID, err = handlers.PathInt64(r, "businessId"); err != nil {
		return 0, 0, err
	}
	if scheduleID, err = handlers.PathInt64(r, "scheduleId"); err != nil {
		return 0, 0, err
	}
	return scheduleID, businessID, nil
}

// Create POST /api/v1/businesses/{businessId}/schedules
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "POST /businesses/{id}/schedules"

	businessID, err := handlers.PathInt64(r, "businessId")
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	var body CreateScheduleBody
	if err := handlers.DecodeAndValidate(r, &body); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	req, err := body.ToServiceRequest(businessID)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	schedule, err := h.service.Create(r.Context(), req)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Schedule created: schedule_id=%d, worker_id=%d", op, schedule.ID, schedule.WorkerID)
	handlers.RespondJSON(w, http.StatusCreated, schedule)
}

// Get GET /api/v1/businesses/{businessId}/schedules/{scheduleId}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "GET /businesses/{id}/schedules/{id}"

	scheduleID, businessID, err := scheduleIDs(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	schedule, err := h.service.Get(r.Context(), scheduleID, businessID)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, schedule)
}

// ListByWorker GET /api/v1/businesses/{businessId}/workers/{workerId}/schedules
func (h *Handler) ListByWorker(w http.ResponseWriter, r *http.Request) {
	const op = "GET /businesses/{id}/workers/{id}/schedules"

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

	list, err := h.service.ListByWorker(r.Context(), workerID, businessID)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Schedules retrieved: worker_id=%d, count=%d", op, workerID, len(list.Schedules))
	handlers.RespondJSON(w, http.StatusOK, list)
}

// UpdateDetails PATCH /api/v1/businesses/{businessId}/schedules/{scheduleId}
func (h *Handler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	const op = "PATCH /businesses/{id}/schedules/{id}"

	scheduleID, businessID, err := scheduleIDs(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	var body DetailsBody
	if err := handlers.DecodeAndValidate(r, &body); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	details, err := body.toDomain()
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	schedule, err := h.service.UpdateDetails(r.Context(), scheduleID, businessID, details)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Schedule updated: schedule_id=%d, version=%d", op, schedule.ID, schedule.Version)
	handlers.RespondJSON(w, http.StatusOK, schedule)
}

// Delete DELETE /api/v1/businesses/{businessId}/schedules/{scheduleId}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "DELETE /businesses/{id}/schedules/{id}"

	scheduleID, businessID, err := scheduleIDs(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	if err := h.service.Delete(r.Context(), scheduleID, businessID); err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Schedule deleted: schedule_id=%d", op, scheduleID)
	handlers.RespondNoContent(w)
}

// Availability GET /api/v1/businesses/{businessId}/schedules/{scheduleId}/availability?from&to
// from и to - даты YYYY-MM-DD включительно
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	const op = "GET /businesses/{id}/schedules/{id}/availability"

	scheduleID, businessID, err := scheduleIDs(r)
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

	resp, err := h.service.ResolveAvailability(r.Context(), scheduleID, businessID, from, to)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, resp)
}
