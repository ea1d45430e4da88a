package generate_slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/lock"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	bookingModels "github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/slotsettings"
	"github.com/m04kA/SMC-SchedulingService/internal/testutil"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

const (
	workerID   = int64(7)
	businessID = int64(3)
)

// понедельник
var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time {
	return monday.Add(time.Duration(hour) * time.Hour)
}

type fixture struct {
	store *testutil.Store
	uc    *UseCase
	clock *testutil.FixedClock
}

func newFixture(t *testing.T, locker Locker) *fixture {
	t.Helper()
	store := testutil.NewStore()
	settings := slotsettings.NewService(store.Settings(), slotsettings.Defaults{HorizonDays: 2}, logger.Nop())
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	clock := testutil.NewFixedClock(monday.Add(6 * time.Hour))
	uc := NewUseCase(store.Schedules(), store.SlotsRepo(), store.Workers(), settings, locker, time.Second,
		testutil.NewTxManager(store), (*metrics.Metrics)(nil), logger.Nop()).WithTimeProvider(clock)
	return &fixture{store: store, uc: uc, clock: clock}
}

func (f *fixture) addSchedule(t *testing.T, tz string, breaks ...domain.BreakInput) *domain.Schedule {
	t.Helper()
	sch, err := domain.NewSchedule(workerID, businessID, domain.ScheduleDetails{
		Title:              "Main",
		IsDefault:          true,
		EffectiveStartDate: monday.AddDate(0, 0, -7),
		TimeZoneID:         tz,
	})
	require.NoError(t, err)
	_, err = sch.AddRuleItem(domain.RuleItemInput{
		DayOfWeek:    time.Monday,
		StartTime:    types.MustTimeString("09:00"),
		EndTime:      types.MustTimeString("17:00"),
		IsWorkingDay: true,
		Breaks:       breaks,
	})
	require.NoError(t, err)
	_, err = f.store.Schedules().Create(context.Background(), sch)
	require.NoError(t, err)
	return sch
}

func (f *fixture) generate(t *testing.T, duration int) *Response {
	t.Helper()
	resp, err := f.uc.Execute(context.Background(), &Request{
		WorkerID:            workerID,
		BusinessProfileID:   businessID,
		From:                monday,
		To:                  monday.AddDate(0, 0, 1),
		SlotDurationMinutes: ptr.Ptr(duration),
	})
	require.NoError(t, err)
	return resp
}

func ranges(slots []domain.AvailabilitySlot, generatedOnly bool) []domain.TimeRange {
	result := make([]domain.TimeRange, 0, len(slots))
	for _, s := range slots {
		if generatedOnly && !s.IsGenerated() {
			continue
		}
		result = append(result, domain.TimeRange{Start: s.StartTime.UTC(), End: s.EndTime.UTC()})
	}
	return result
}

func TestExecute_ManualSlotSplitsWorkingDay(t *testing.T) {
	f := newFixture(t, nil)
	f.addSchedule(t, "UTC")

	manual := &domain.AvailabilitySlot{
		WorkerID: workerID, BusinessProfileID: businessID,
		StartTime: at(10), EndTime: at(11), Status: domain.SlotStatusUnavailable,
	}
	require.NoError(t, f.store.SlotsRepo().CreateBatch(context.Background(), []*domain.AvailabilitySlot{manual}))

	resp := f.generate(t, 0)
	assert.Equal(t, 2, resp.Inserted)

	assert.Equal(t, []domain.TimeRange{
		{Start: at(9), End: at(10)},
		{Start: at(11), End: at(17)},
	}, ranges(f.store.Slots(workerID), true))

	stored, ok := f.store.Slot(manual.ID)
	require.True(t, ok)
	assert.Equal(t, domain.SlotStatusUnavailable, stored.Status)
}

func TestExecute_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.addSchedule(t, "UTC", domain.BreakInput{Name: "Lunch", StartTime: types.MustTimeString("12:00"), EndTime: types.MustTimeString("13:00")})

	first := f.generate(t, 60)
	assert.Equal(t, 7, first.Inserted)
	before := f.store.Slots(workerID)

	second := f.generate(t, 60)
	assert.Zero(t, second.Inserted)
	assert.Zero(t, second.Deleted)
	assert.Equal(t, 7, second.Kept)
	assert.Equal(t, before, f.store.Slots(workerID))
}

func TestExecute_NoOverlapsAfterRegeneration(t *testing.T) {
	f := newFixture(t, nil)
	f.addSchedule(t, "UTC")

	f.generate(t, 30)
	f.generate(t, 45)
	f.generate(t, 0)

	slots := f.store.Slots(workerID)
	for i := range slots {
		for j := i + 1; j < len(slots); j++ {
			assert.False(t, slots[i].Range().Overlaps(slots[j].Range()), "slots %d and %d overlap", slots[i].ID, slots[j].ID)
		}
	}
	assert.Equal(t, []domain.TimeRange{{Start: at(9), End: at(17)}}, ranges(slots, true))
}

func TestExecute_BookedSlotSurvivesRegeneration(t *testing.T) {
	f := newFixture(t, nil)
	sch := f.addSchedule(t, "UTC")
	ctx := context.Background()

	f.generate(t, 60)
	var target domain.AvailabilitySlot
	for _, s := range f.store.Slots(workerID) {
		if s.StartTime.Equal(at(14)) {
			target = s
		}
	}
	require.NotZero(t, target.ID)
	require.NoError(t, f.store.SlotsRepo().MarkBooked(ctx, target.ID, 555))

	// Понедельник становится выходным
	loaded, err := f.store.Schedules().GetByID(ctx, sch.ID(), businessID)
	require.NoError(t, err)
	_, err = loaded.AddOverride(domain.OverrideInput{Date: monday, Reason: "Holiday", IsWorkingDay: false})
	require.NoError(t, err)
	require.NoError(t, f.store.Schedules().Save(ctx, loaded))

	resp := f.generate(t, 60)
	assert.Equal(t, 6, resp.Deleted)

	slots := f.store.Slots(workerID)
	require.Len(t, slots, 1)
	assert.Equal(t, target.ID, slots[0].ID)
	assert.Equal(t, domain.SlotStatusBooked, slots[0].Status)
}

func TestExecute_UsesScheduleTimeZone(t *testing.T) {
	f := newFixture(t, nil)
	f.addSchedule(t, "Europe/Moscow")

	f.generate(t, 0)

	// 09:00-17:00 MSK = 06:00-14:00 UTC
	assert.Equal(t, []domain.TimeRange{{Start: at(6), End: at(14)}}, ranges(f.store.Slots(workerID), true))
}

func TestExecute_SettingsDuration(t *testing.T) {
	f := newFixture(t, nil)
	f.addSchedule(t, "UTC")
	_, err := f.store.Settings().Upsert(context.Background(), &domain.SlotSettings{
		BusinessProfileID: businessID, SlotDurationMinutes: 120, HorizonDays: 1,
	})
	require.NoError(t, err)

	require.NoError(t, f.uc.RegenerateWindow(context.Background(), workerID, businessID))

	slots := f.store.Slots(workerID)
	require.Len(t, slots, 4)
	for _, s := range slots {
		assert.Equal(t, 2*time.Hour, s.EndTime.Sub(s.StartTime))
	}
}

func TestExecute_Validation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		req  Request
	}{
		{name: "empty range", req: Request{WorkerID: workerID, BusinessProfileID: businessID, From: monday, To: monday}},
		{name: "too long", req: Request{WorkerID: workerID, BusinessProfileID: businessID, From: monday, To: monday.AddDate(2, 0, 0)}},
		{name: "bad duration", req: Request{WorkerID: workerID, BusinessProfileID: businessID, From: monday, To: monday.AddDate(0, 0, 1), SlotDurationMinutes: ptr.Ptr(3)}},
		{name: "no worker", req: Request{BusinessProfileID: businessID, From: monday, To: monday.AddDate(0, 0, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Execute(context.Background(), &tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return nil, lock.ErrLockTimeout
}

func TestExecute_WorkerBusy(t *testing.T) {
	f := newFixture(t, busyLocker{})
	f.addSchedule(t, "UTC")

	_, err := f.uc.Execute(context.Background(), &Request{
		WorkerID: workerID, BusinessProfileID: businessID,
		From: monday, To: monday.AddDate(0, 0, 1), SlotDurationMinutes: ptr.Ptr(0),
	})
	assert.ErrorIs(t, err, domain.ErrWorkerBusy)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, f.store.Slots(workerID))
}

func TestExecute_SlotOfCancelledBookingIsRegenerated(t *testing.T) {
	f := newFixture(t, nil)
	sch := f.addSchedule(t, "UTC")
	ctx := context.Background()

	f.generate(t, 60)
	var target domain.AvailabilitySlot
	for _, s := range f.store.Slots(workerID) {
		if s.StartTime.Equal(at(9)) {
			target = s
		}
	}
	require.NotZero(t, target.ID)

	b, err := f.store.Bookings().Create(ctx, &domain.Booking{
		BusinessProfileID: businessID, CustomerID: 501, ServiceID: 11, WorkerID: workerID,
		AvailabilitySlotID: target.ID, BookingStartTime: target.StartTime, BookingEndTime: target.EndTime,
		Status: domain.StatusPendingConfirmation, ServiceName: "Haircut",
	})
	require.NoError(t, err)
	require.NoError(t, f.store.SlotsRepo().MarkBooked(ctx, target.ID, b.ID))

	svc := bookings.NewService(f.store.Bookings(), f.store.SlotsRepo(), f.store.Schedules(),
		testutil.NewTxManager(f.store), (*metrics.Metrics)(nil), logger.Nop()).WithTimeProvider(f.clock)
	_, err = svc.CancelByVendor(ctx, &bookingModels.CancelRequest{BusinessProfileID: businessID, BookingID: b.ID})
	require.NoError(t, err)

	// Рабочий день начинается позже, освобожденный слот 09:00 устарел
	loaded, err := f.store.Schedules().GetByID(ctx, sch.ID(), businessID)
	require.NoError(t, err)
	_, err = loaded.UpdateRuleItem(time.Monday, types.MustTimeString("13:00"), types.MustTimeString("17:00"), true)
	require.NoError(t, err)
	require.NoError(t, f.store.Schedules().Save(ctx, loaded))

	resp := f.generate(t, 60)
	assert.Equal(t, 4, resp.Deleted)

	_, ok := f.store.Slot(target.ID)
	assert.False(t, ok)
	assert.Equal(t, []domain.TimeRange{
		{Start: at(13), End: at(14)},
		{Start: at(14), End: at(15)},
		{Start: at(15), End: at(16)},
		{Start: at(16), End: at(17)},
	}, ranges(f.store.Slots(workerID), true))

	stored, ok := f.store.Booking(b.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusCancelledByVendor, stored.Status)
	assert.Equal(t, target.ID, stored.AvailabilitySlotID)
}

func TestExecute_KeepsSlotsOfOtherBusiness(t *testing.T) {
	f := newFixture(t, nil)
	f.addSchedule(t, "UTC")

	f.generate(t, 60)
	before := f.store.Slots(workerID)
	require.Len(t, before, 8)

	resp, err := f.uc.Execute(context.Background(), &Request{
		WorkerID: workerID, BusinessProfileID: 999,
		From: monday, To: monday.AddDate(0, 0, 1), SlotDurationMinutes: ptr.Ptr(60),
	})
	require.NoError(t, err)
	assert.Zero(t, resp.Deleted)
	assert.Zero(t, resp.Inserted)
	assert.Equal(t, before, f.store.Slots(workerID))
}

func TestExecute_RejectsWorkerOfAnotherBusiness(t *testing.T) {
	f := newFixture(t, nil)
	f.addSchedule(t, "UTC")
	f.store.AddWorker(workerID, businessID, "Bob")
	f.generate(t, 60)

	_, err := f.uc.Execute(context.Background(), &Request{
		WorkerID: workerID, BusinessProfileID: 999,
		From: monday, To: monday.AddDate(0, 0, 1), SlotDurationMinutes: ptr.Ptr(60),
	})
	assert.ErrorIs(t, err, domain.ErrWorkerNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, f.store.Slots(workerID), 8)
}
