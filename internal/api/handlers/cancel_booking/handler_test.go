package cancel_booking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type fakeService struct {
	got *models.CancelRequest
	err error
}

func (f *fakeService) CancelByCustomer(_ context.Context, req *models.CancelRequest) (*models.BookingResponse, error) {
	return f.cancel(req, domain.StatusCancelledByCustomer)
}

func (f *fakeService) CancelByVendor(_ context.Context, req *models.CancelRequest) (*models.BookingResponse, error) {
	return f.cancel(req, domain.StatusCancelledByVendor)
}

func (f *fakeService) cancel(req *models.CancelRequest, status domain.BookingStatus) (*models.BookingResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.BookingResponse{ID: req.BookingID, Status: string(status)}, nil
}

func TestHandleByCustomer_EmptyBody(t *testing.T) {
	svc := &fakeService{}
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/15/cancel", nil)
	req = mux.SetURLVars(req, map[string]string{"bookingId": "15"})
	req = req.WithContext(middleware.WithPrincipal(req.Context(), middleware.Principal{UserID: 42, Role: middleware.RoleCustomer}))
	rec := httptest.NewRecorder()

	NewHandler(svc, logger.Nop()).HandleByCustomer(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), svc.got.CustomerID)
	assert.Equal(t, int64(15), svc.got.BookingID)
	assert.Nil(t, svc.got.CancellationReason)
}

func TestHandleByVendor(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"with reason", `{"cancellationReason": "мастер заболел"}`, nil, http.StatusOK},
		{"terminal booking", `{}`, domain.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{"lost race", `{}`, domain.ErrConcurrentModification, http.StatusConflict},
		{"foreign booking", `{}`, domain.ErrBookingNotFound, http.StatusNotFound},
		{"unknown field", `{"reason": "x"}`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/businesses/3/bookings/15/cancel", strings.NewReader(tt.body))
			req = mux.SetURLVars(req, map[string]string{"businessId": "3", "bookingId": "15"})
			rec := httptest.NewRecorder()

			NewHandler(svc, logger.Nop()).HandleByVendor(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, int64(3), svc.got.BusinessProfileID)
				require.NotNil(t, svc.got.CancellationReason)
			}
		})
	}
}
