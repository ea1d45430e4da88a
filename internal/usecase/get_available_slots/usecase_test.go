package get_available_slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/internal/service/slotsettings"
	"github.com/m04kA/SMC-SchedulingService/internal/testutil"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

const (
	workerID   = int64(7)
	businessID = int64(3)
)

var now = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*testutil.Store, *UseCase) {
	t.Helper()
	store := testutil.NewStore()
	catalog := testutil.NewCatalog(
		catalogservice.Service{ID: 11, BusinessProfileID: businessID, Name: "Haircut", IsActive: true},
		catalogservice.Service{ID: 12, BusinessProfileID: businessID, Name: "Colour", IsActive: true, WorkerIDs: []int64{99}},
	)
	settings := slotsettings.NewService(store.Settings(), slotsettings.Defaults{HorizonDays: 28, MinBookingNoticeMinutes: 120}, logger.Nop())
	uc := NewUseCase(store.SlotsRepo(), settings, catalog, logger.Nop()).WithTimeProvider(testutil.NewFixedClock(now))
	return store, uc
}

func add(t *testing.T, store *testutil.Store, worker int64, start time.Time, status domain.SlotStatus) *domain.AvailabilitySlot {
	t.Helper()
	slot := &domain.AvailabilitySlot{
		WorkerID: worker, BusinessProfileID: businessID,
		StartTime: start, EndTime: start.Add(time.Hour), Status: status,
	}
	if status == domain.SlotStatusBooked {
		slot.BookingID = ptr.Ptr(int64(1))
	}
	require.NoError(t, store.SlotsRepo().CreateBatch(context.Background(), []*domain.AvailabilitySlot{slot}))
	return slot
}

func TestExecute_ReturnsOnlyBookableSlots(t *testing.T) {
	store, uc := setup(t)

	add(t, store, workerID, now.Add(time.Hour), domain.SlotStatusAvailable) // внутри minBookingNotice
	open := add(t, store, workerID, now.Add(3*time.Hour), domain.SlotStatusAvailable)
	add(t, store, workerID, now.Add(4*time.Hour), domain.SlotStatusBooked)
	add(t, store, workerID, now.Add(5*time.Hour), domain.SlotStatusBreak)
	add(t, store, workerID+1, now.Add(6*time.Hour), domain.SlotStatusAvailable)
	later := add(t, store, workerID, now.Add(26*time.Hour), domain.SlotStatusAvailable)

	resp, err := uc.Execute(context.Background(), &Request{
		BusinessProfileID: businessID, WorkerID: workerID,
		From: now, To: now.AddDate(0, 0, 2),
	})
	require.NoError(t, err)

	require.Len(t, resp.Slots, 2)
	assert.Equal(t, open.ID, resp.Slots[0].ID)
	assert.Equal(t, later.ID, resp.Slots[1].ID)
	assert.Equal(t, 60, resp.Slots[0].DurationMinutes)
}

func TestExecute_ServiceFilter(t *testing.T) {
	store, uc := setup(t)
	add(t, store, workerID, now.Add(3*time.Hour), domain.SlotStatusAvailable)

	base := Request{BusinessProfileID: businessID, WorkerID: workerID, From: now, To: now.AddDate(0, 0, 1)}

	req := base
	req.ServiceID = ptr.Ptr(int64(11))
	resp, err := uc.Execute(context.Background(), &req)
	require.NoError(t, err)
	assert.Len(t, resp.Slots, 1)

	req.ServiceID = ptr.Ptr(int64(12))
	_, err = uc.Execute(context.Background(), &req)
	assert.ErrorIs(t, err, domain.ErrWorkerNotForService)

	req.ServiceID = ptr.Ptr(int64(404))
	_, err = uc.Execute(context.Background(), &req)
	assert.ErrorIs(t, err, domain.ErrServiceNotFound)
}

func TestExecute_Validation(t *testing.T) {
	_, uc := setup(t)

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"no worker", Request{BusinessProfileID: businessID, From: now, To: now.Add(time.Hour)}, domain.ErrValidation},
		{"empty range", Request{BusinessProfileID: businessID, WorkerID: workerID, From: now, To: now}, domain.ErrInvalidTimeRange},
		{"missing to", Request{BusinessProfileID: businessID, WorkerID: workerID, From: now}, domain.ErrValidation},
		{"too long", Request{BusinessProfileID: businessID, WorkerID: workerID, From: now, To: now.AddDate(2, 0, 0)}, domain.ErrInvalidGenerationRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
