package update_booking_status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

// Action действие вендора над бронированием
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionComplete Action = "complete"
	ActionNoShow   Action = "no-show"
)

type Handler struct {
	service BookingService
	action  Action
	logger  Logger
}

// NewHandler обработчик одного действия, маршрут PATCH .../bookings/{bookingId}/{action}
func NewHandler(service BookingService, action Action, logger Logger) *Handler {
	return &Handler{
		service: service,
		action:  action,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/businesses/{businessId}/bookings/{bookingId}/{confirm|complete|no-show}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	op := fmt.Sprintf("PATCH /businesses/{id}/bookings/{id}/%s", h.action)

	req, err := decodeTransition(r)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	result, err := h.run(r.Context(), req)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Booking status updated: booking_id=%d, status=%s", op, req.BookingID, result.Status)
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) run(ctx context.Context, req *models.TransitionRequest) (*models.BookingResponse, error) {
	switch h.action {
	case ActionConfirm:
		return h.service.Confirm(ctx, req)
	case ActionComplete:
		return h.service.Complete(ctx, req)
	case ActionNoShow:
		return h.service.MarkNoShow(ctx, req)
	default:
		return nil, fmt.Errorf("unknown booking action %q", h.action)
	}
}

// decodeTransition заметки вендора в теле необязательны
func decodeTransition(r *http.Request) (*models.TransitionRequest, error) {
	businessID, err := handlers.PathInt64(r, "businessId")
	if err != nil {
		return nil, err
	}
	bookingID, err := handlers.PathInt64(r, "bookingId")
	if err != nil {
		return nil, err
	}

	req := &models.TransitionRequest{}
	if err := handlers.DecodeJSON(r, req); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	req.BusinessProfileID = businessID
	req.BookingID = bookingID
	return req, nil
}
