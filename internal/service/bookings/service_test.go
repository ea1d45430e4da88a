package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/testutil"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

const (
	workerID   = int64(7)
	businessID = int64(3)
	customerID = int64(501)
)

var now = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store *testutil.Store
	svc   *Service
}

func newFixture() *fixture {
	store := testutil.NewStore()
	svc := NewService(store.Bookings(), store.SlotsRepo(), store.Schedules(), testutil.NewTxManager(store), (*metrics.Metrics)(nil), logger.Nop()).
		WithTimeProvider(testutil.NewFixedClock(now))
	return &fixture{store: store, svc: svc}
}

func (f *fixture) slot(t *testing.T, start time.Time, scheduleID *int64) *domain.AvailabilitySlot {
	t.Helper()
	slot := &domain.AvailabilitySlot{
		WorkerID: workerID, BusinessProfileID: businessID,
		StartTime: start, EndTime: start.Add(time.Hour),
		Status: domain.SlotStatusAvailable, GeneratingScheduleID: scheduleID,
	}
	require.NoError(t, f.store.SlotsRepo().CreateBatch(context.Background(), []*domain.AvailabilitySlot{slot}))
	return slot
}

// book создает бронирование так же, как create_booking: вставка и перевод слота в booked
func (f *fixture) book(t *testing.T, slot *domain.AvailabilitySlot) *domain.Booking {
	t.Helper()
	ctx := context.Background()
	b, err := f.store.Bookings().Create(ctx, &domain.Booking{
		BusinessProfileID: businessID, CustomerID: customerID, ServiceID: 11, WorkerID: workerID,
		AvailabilitySlotID: slot.ID, BookingStartTime: slot.StartTime, BookingEndTime: slot.EndTime,
		Status: domain.StatusPendingConfirmation, ServiceName: "Haircut", PriceAtBooking: 25,
	})
	require.NoError(t, err)
	require.NoError(t, f.store.SlotsRepo().MarkBooked(ctx, slot.ID, b.ID))
	return b
}

func (f *fixture) schedule(t *testing.T, end *time.Time) int64 {
	t.Helper()
	sch, err := domain.NewSchedule(workerID, businessID, domain.ScheduleDetails{
		Title: "Main", IsDefault: true, EffectiveStartDate: now.AddDate(0, -1, 0), EffectiveEndDate: end, TimeZoneID: "UTC",
	})
	require.NoError(t, err)
	created, err := f.store.Schedules().Create(context.Background(), sch)
	require.NoError(t, err)
	return created.ID()
}

func vendor(id int64) *models.TransitionRequest {
	return &models.TransitionRequest{BusinessProfileID: businessID, BookingID: id}
}

func TestService_ConfirmThenComplete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	slot := f.slot(t, now.Add(6*time.Hour), nil)
	b := f.book(t, slot)

	confirmed, err := f.svc.Confirm(ctx, vendor(b.ID))
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), confirmed.Status)

	completed, err := f.svc.Complete(ctx, &models.TransitionRequest{BusinessProfileID: businessID, BookingID: b.ID, NotesByVendor: ptr.Ptr(" paid cash ")})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), completed.Status)
	assert.Equal(t, "paid cash", *completed.NotesByVendor)

	stored, ok := f.store.Slot(slot.ID)
	require.True(t, ok)
	assert.Equal(t, domain.SlotStatusBooked, stored.Status, "completed booking keeps its slot")
	assert.Equal(t, b.ID, *stored.BookingID)
}

func TestService_CancelReleasesSlot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	scheduleID := f.schedule(t, nil)
	slot := f.slot(t, now.Add(6*time.Hour), &scheduleID)
	b := f.book(t, slot)
	_, err := f.svc.Confirm(ctx, vendor(b.ID))
	require.NoError(t, err)

	resp, err := f.svc.CancelByVendor(ctx, &models.CancelRequest{BusinessProfileID: businessID, BookingID: b.ID, CancellationReason: ptr.Ptr("sick")})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelledByVendor), resp.Status)
	assert.Equal(t, "sick", *resp.CancellationReason)
	require.NotNil(t, resp.CancelledAt)
	assert.Equal(t, now.Format(time.RFC3339), *resp.CancelledAt)

	stored, ok := f.store.Slot(slot.ID)
	require.True(t, ok)
	assert.Equal(t, domain.SlotStatusAvailable, stored.Status)
	assert.Nil(t, stored.BookingID)
}

func TestService_CancelRetiresSlotOutsideSchedule(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture) *int64
	}{
		{
			name: "schedule row missing",
			setup: func(t *testing.T, f *fixture) *int64 {
				id := f.schedule(t, nil)
				require.NoError(t, f.store.Schedules().Delete(context.Background(), id, businessID))
				return &id
			},
		},
		{
			name: "schedule ends before slot date",
			setup: func(t *testing.T, f *fixture) *int64 {
				id := f.schedule(t, ptr.Ptr(now.AddDate(0, 0, -1)))
				return &id
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			slot := f.slot(t, now.Add(6*time.Hour), tt.setup(t, f))
			b := f.book(t, slot)

			_, err := f.svc.CancelByCustomer(context.Background(), &models.CancelRequest{CustomerID: customerID, BookingID: b.ID})
			require.NoError(t, err)

			_, ok := f.store.Slot(slot.ID)
			assert.False(t, ok, "slot outside the schedule window is removed instead of reopened")
			stored, _ := f.store.Booking(b.ID)
			assert.Equal(t, domain.StatusCancelledByCustomer, stored.Status)
		})
	}
}

func TestService_TerminalBookingRejectsTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.book(t, f.slot(t, now.Add(6*time.Hour), nil))

	_, err := f.svc.CancelByCustomer(ctx, &models.CancelRequest{CustomerID: customerID, BookingID: b.ID})
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, vendor(b.ID))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, err = f.svc.Complete(ctx, vendor(b.ID))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.MarkNoShow(ctx, vendor(b.ID))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.CancelByVendor(ctx, &models.CancelRequest{BusinessProfileID: businessID, BookingID: b.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, _ := f.store.Booking(b.ID)
	assert.Equal(t, domain.StatusCancelledByCustomer, stored.Status)
}

func TestService_PendingCannotComplete(t *testing.T) {
	f := newFixture()
	b := f.book(t, f.slot(t, now.Add(6*time.Hour), nil))

	_, err := f.svc.Complete(context.Background(), vendor(b.ID))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestService_ScopeHidesForeignBookings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.book(t, f.slot(t, now.Add(6*time.Hour), nil))

	_, err := f.svc.CancelByCustomer(ctx, &models.CancelRequest{CustomerID: customerID + 1, BookingID: b.ID})
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	_, err = f.svc.Confirm(ctx, &models.TransitionRequest{BusinessProfileID: businessID + 1, BookingID: b.ID})
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	_, err = f.svc.GetForCustomer(ctx, customerID+1, b.ID)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	stored, _ := f.store.Booking(b.ID)
	assert.Equal(t, domain.StatusPendingConfirmation, stored.Status)
}

func TestService_GetIncludesDetails(t *testing.T) {
	f := newFixture()
	f.store.AddCustomer(customerID, "Ann", "ann@example.com")
	f.store.AddWorker(workerID, businessID, "Bob")
	b := f.book(t, f.slot(t, now.Add(6*time.Hour), nil))

	resp, err := f.svc.Get(context.Background(), businessID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", *resp.CustomerName)
	assert.Equal(t, "ann@example.com", *resp.CustomerEmail)
	assert.Equal(t, "Bob", *resp.WorkerName)

	_, err = f.svc.Get(context.Background(), businessID, 999)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestService_Reschedule(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	oldSlot := f.slot(t, now.Add(6*time.Hour), nil)
	newSlot := f.slot(t, now.Add(30*time.Hour), nil)
	b := f.book(t, oldSlot)

	_, err := f.svc.Reschedule(ctx, &models.RescheduleRequest{BusinessProfileID: businessID, BookingID: b.ID, NewSlotID: newSlot.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "only confirmed bookings can be rescheduled")

	_, err = f.svc.Confirm(ctx, vendor(b.ID))
	require.NoError(t, err)

	_, err = f.svc.Reschedule(ctx, &models.RescheduleRequest{BusinessProfileID: businessID, BookingID: b.ID, NewSlotID: oldSlot.ID})
	assert.ErrorIs(t, err, domain.ErrRescheduleSameSlot)

	resp, err := f.svc.Reschedule(ctx, &models.RescheduleRequest{BusinessProfileID: businessID, BookingID: b.ID, NewSlotID: newSlot.ID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPendingConfirmation), resp.Status)
	assert.Equal(t, b.ID, *resp.RescheduledFromID)
	assert.Equal(t, newSlot.StartTime, resp.BookingStartTime)

	old, _ := f.store.Booking(b.ID)
	assert.Equal(t, domain.StatusRescheduled, old.Status)

	released, _ := f.store.Slot(oldSlot.ID)
	assert.Equal(t, domain.SlotStatusAvailable, released.Status)
	assert.Nil(t, released.BookingID)

	taken, _ := f.store.Slot(newSlot.ID)
	assert.Equal(t, domain.SlotStatusBooked, taken.Status)
	assert.Equal(t, resp.ID, *taken.BookingID)
}

func TestService_RescheduleToTakenSlotRollsBack(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	oldSlot := f.slot(t, now.Add(6*time.Hour), nil)
	taken := f.slot(t, now.Add(30*time.Hour), nil)
	b := f.book(t, oldSlot)
	f.book(t, taken)
	_, err := f.svc.Confirm(ctx, vendor(b.ID))
	require.NoError(t, err)

	_, err = f.svc.Reschedule(ctx, &models.RescheduleRequest{BusinessProfileID: businessID, BookingID: b.ID, NewSlotID: taken.ID})
	assert.ErrorIs(t, err, domain.ErrSlotNotAvailable)

	stored, _ := f.store.Booking(b.ID)
	assert.Equal(t, domain.StatusConfirmed, stored.Status, "old booking untouched after rollback")
	slot, _ := f.store.Slot(oldSlot.ID)
	assert.Equal(t, domain.SlotStatusBooked, slot.Status)
}

func TestService_Lists(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	first := f.book(t, f.slot(t, now.Add(6*time.Hour), nil))
	f.book(t, f.slot(t, now.Add(30*time.Hour), nil))
	_, err := f.svc.Confirm(ctx, vendor(first.ID))
	require.NoError(t, err)

	all, err := f.svc.ListByBusiness(ctx, &models.ListBusinessBookingsRequest{BusinessProfileID: businessID})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)
	assert.Equal(t, domain.DefaultPageSize, all.Limit)

	confirmed, err := f.svc.ListByBusiness(ctx, &models.ListBusinessBookingsRequest{BusinessProfileID: businessID, Status: ptr.Ptr("confirmed")})
	require.NoError(t, err)
	require.Len(t, confirmed.Bookings, 1)
	assert.Equal(t, first.ID, confirmed.Bookings[0].ID)

	_, err = f.svc.ListByBusiness(ctx, &models.ListBusinessBookingsRequest{BusinessProfileID: businessID, Status: ptr.Ptr("archived")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	mine, err := f.svc.ListByCustomer(ctx, &models.ListCustomerBookingsRequest{CustomerID: customerID, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, mine.Total)
	assert.Len(t, mine.Bookings, 1)
}
