package schedules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedules/models"
	"github.com/m04kA/SMC-SchedulingService/internal/testutil"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

const (
	workerID   = int64(7)
	businessID = int64(3)
)

// понедельник
var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store *testutil.Store
	regen *testutil.LocalRegenerator
	svc   *Service
}

func newFixture() *fixture {
	store := testutil.NewStore()
	regen := &testutil.LocalRegenerator{}
	svc := NewService(store.Schedules(), store.SlotsRepo(), store.Workers(), regen, testutil.NewTxManager(store), logger.Nop()).
		WithTimeProvider(testutil.NewFixedClock(monday.Add(-24 * time.Hour)))
	return &fixture{store: store, regen: regen, svc: svc}
}

func mondayRule() domain.RuleItemInput {
	return domain.RuleItemInput{
		DayOfWeek:    time.Monday,
		StartTime:    types.MustTimeString("09:00"),
		EndTime:      types.MustTimeString("17:00"),
		IsWorkingDay: true,
		Breaks: []domain.BreakInput{
			{Name: "Lunch", StartTime: types.MustTimeString("12:00"), EndTime: types.MustTimeString("13:00")},
		},
	}
}

func (f *fixture) create(t *testing.T) *models.ScheduleResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), &models.CreateScheduleRequest{
		WorkerID:          workerID,
		BusinessProfileID: businessID,
		Details: domain.ScheduleDetails{
			Title:              "Main",
			IsDefault:          true,
			EffectiveStartDate: monday.AddDate(0, -1, 0),
			TimeZoneID:         "UTC",
		},
		RuleItems: []domain.RuleItemInput{mondayRule()},
	})
	require.NoError(t, err)
	return resp
}

func TestService_CreateAndResolve(t *testing.T) {
	f := newFixture()
	created := f.create(t)

	assert.Equal(t, int64(1), created.Version)
	require.Len(t, created.RuleItems, 1)
	assert.Len(t, created.RuleItems[0].Breaks, 1)
	assert.Equal(t, 1, f.regen.CallCount())

	resp, err := f.svc.ResolveAvailability(context.Background(), created.ID, businessID, monday, monday)
	require.NoError(t, err)
	require.Len(t, resp.Intervals, 2)
	assert.Equal(t, "09:00", resp.Intervals[0].StartTime)
	assert.Equal(t, "12:00", resp.Intervals[0].EndTime)
	assert.Equal(t, "13:00", resp.Intervals[1].StartTime)
	assert.Equal(t, "17:00", resp.Intervals[1].EndTime)
	assert.Equal(t, monday.Add(13*time.Hour), resp.Intervals[1].StartUTC)
}

func TestService_CreateRejectsInvalidAggregate(t *testing.T) {
	f := newFixture()

	rule := mondayRule()
	rule.Breaks = append(rule.Breaks, domain.BreakInput{Name: "Overlap", StartTime: types.MustTimeString("12:30"), EndTime: types.MustTimeString("14:00")})

	_, err := f.svc.Create(context.Background(), &models.CreateScheduleRequest{
		WorkerID: workerID, BusinessProfileID: businessID,
		Details:   domain.ScheduleDetails{Title: "Main", EffectiveStartDate: monday, TimeZoneID: "UTC"},
		RuleItems: []domain.RuleItemInput{rule},
	})
	assert.ErrorIs(t, err, domain.ErrBreakOverlap)
	assert.Zero(t, f.regen.CallCount())
}

func TestService_Overrides(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created := f.create(t)

	_, err := f.svc.AddOverride(ctx, created.ID, businessID, domain.OverrideInput{Date: monday, Reason: "Holiday"})
	require.NoError(t, err)

	_, err = f.svc.AddOverride(ctx, created.ID, businessID, domain.OverrideInput{Date: monday, Reason: "Again"})
	assert.ErrorIs(t, err, domain.ErrDuplicateOverride)
	assert.ErrorIs(t, err, domain.ErrConflict)

	resp, err := f.svc.ResolveAvailability(ctx, created.ID, businessID, monday, monday)
	require.NoError(t, err)
	assert.Empty(t, resp.Intervals)

	require.NoError(t, f.svc.RemoveOverride(ctx, created.ID, businessID, monday))
	assert.ErrorIs(t, f.svc.RemoveOverride(ctx, created.ID, businessID, monday), domain.ErrOverrideNotFound)

	got, err := f.svc.Get(ctx, created.ID, businessID)
	require.NoError(t, err)
	assert.Empty(t, got.Overrides)
	assert.Equal(t, int64(3), got.Version)
}

func TestService_Breaks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created := f.create(t)

	added, err := f.svc.AddBreak(ctx, created.ID, businessID, time.Monday, domain.BreakInput{
		Name: "Coffee", StartTime: types.MustTimeString("15:00"), EndTime: types.MustTimeString("15:15"),
	})
	require.NoError(t, err)

	_, err = f.svc.AddBreak(ctx, created.ID, businessID, time.Monday, domain.BreakInput{
		Name: "Overlap", StartTime: types.MustTimeString("15:10"), EndTime: types.MustTimeString("15:30"),
	})
	assert.ErrorIs(t, err, domain.ErrBreakOverlap)

	_, err = f.svc.AddBreak(ctx, created.ID, businessID, time.Tuesday, domain.BreakInput{
		Name: "Nope", StartTime: types.MustTimeString("10:00"), EndTime: types.MustTimeString("10:30"),
	})
	assert.ErrorIs(t, err, domain.ErrRuleItemNotFound)

	id, err := uuid.Parse(added.ID)
	require.NoError(t, err)
	updated, err := f.svc.UpdateBreak(ctx, created.ID, businessID, time.Monday, id, domain.BreakInput{
		Name: "Coffee", StartTime: types.MustTimeString("16:00"), EndTime: types.MustTimeString("16:30"),
	})
	require.NoError(t, err)
	assert.Equal(t, "16:00", updated.StartTime)

	require.NoError(t, f.svc.RemoveBreak(ctx, created.ID, businessID, time.Monday, id))
	assert.ErrorIs(t, f.svc.RemoveBreak(ctx, created.ID, businessID, time.Monday, id), domain.ErrBreakNotFound)
}

func TestService_SetRuleItem(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created := f.create(t)

	// Перерыв 12:00-13:00 не помещается в новые часы
	_, err := f.svc.SetRuleItem(ctx, created.ID, businessID, &models.SetRuleItemRequest{
		DayOfWeek: time.Monday, StartTime: types.MustTimeString("13:00"), EndTime: types.MustTimeString("18:00"), IsWorkingDay: true,
	})
	assert.ErrorIs(t, err, domain.ErrBreakOutsideRuleItem)

	item, err := f.svc.SetRuleItem(ctx, created.ID, businessID, &models.SetRuleItemRequest{
		DayOfWeek: time.Monday, StartTime: types.MustTimeString("13:00"), EndTime: types.MustTimeString("18:00"), IsWorkingDay: true,
		Breaks: []domain.BreakInput{},
	})
	require.NoError(t, err)
	assert.Empty(t, item.Breaks)
	assert.Equal(t, int(time.Monday), item.DayOfWeek)
	assert.Equal(t, "13:00", item.StartTime)

	_, err = f.svc.SetRuleItem(ctx, created.ID, businessID, &models.SetRuleItemRequest{
		DayOfWeek: time.Sunday, IsWorkingDay: false,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveRuleItem(ctx, created.ID, businessID, time.Sunday))
	assert.ErrorIs(t, f.svc.RemoveRuleItem(ctx, created.ID, businessID, time.Sunday), domain.ErrRuleItemNotFound)
}

func TestService_NotFoundAcrossBusinesses(t *testing.T) {
	f := newFixture()
	created := f.create(t)

	_, err := f.svc.Get(context.Background(), created.ID, businessID+1)
	assert.ErrorIs(t, err, domain.ErrScheduleNotFound)

	err = f.svc.RemoveOverride(context.Background(), created.ID, businessID+1, monday)
	assert.ErrorIs(t, err, domain.ErrScheduleNotFound)
}

func TestService_DefaultFlagIsExclusive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	first := f.create(t)
	second := f.create(t)

	list, err := f.svc.ListByWorker(ctx, workerID, businessID)
	require.NoError(t, err)
	require.Len(t, list.Schedules, 2)
	for _, s := range list.Schedules {
		assert.Equal(t, s.ID == second.ID, s.IsDefault, "schedule %d", s.ID)
	}

	_, err = f.svc.UpdateDetails(ctx, first.ID, businessID, domain.ScheduleDetails{
		Title: "Main again", IsDefault: true, EffectiveStartDate: monday, TimeZoneID: "Europe/Berlin",
	})
	require.NoError(t, err)

	list, err = f.svc.ListByWorker(ctx, workerID, businessID)
	require.NoError(t, err)
	for _, s := range list.Schedules {
		assert.Equal(t, s.ID == first.ID, s.IsDefault, "schedule %d", s.ID)
	}
}

func TestService_DeleteDetachesRemainingSlots(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created := f.create(t)

	generated := func(hour int) *domain.AvailabilitySlot {
		return &domain.AvailabilitySlot{
			WorkerID: workerID, BusinessProfileID: businessID,
			StartTime: monday.Add(time.Duration(hour) * time.Hour), EndTime: monday.Add(time.Duration(hour+1) * time.Hour),
			Status: domain.SlotStatusAvailable, GeneratingScheduleID: ptr.Ptr(created.ID),
		}
	}
	free := generated(9)
	booked := generated(10)
	booked.Status = domain.SlotStatusBooked
	booked.BookingID = ptr.Ptr(int64(42))
	past := generated(-30)
	manual := &domain.AvailabilitySlot{
		WorkerID: workerID, BusinessProfileID: businessID,
		StartTime: monday.Add(11 * time.Hour), EndTime: monday.Add(12 * time.Hour), Status: domain.SlotStatusBreak,
	}
	require.NoError(t, f.store.SlotsRepo().CreateBatch(ctx, []*domain.AvailabilitySlot{free, booked, past, manual}))

	require.NoError(t, f.svc.Delete(ctx, created.ID, businessID))

	_, ok := f.store.Slot(free.ID)
	assert.False(t, ok, "free generated slot is removed")

	kept, ok := f.store.Slot(booked.ID)
	require.True(t, ok)
	assert.Equal(t, domain.SlotStatusBooked, kept.Status)
	assert.Nil(t, kept.GeneratingScheduleID)

	old, ok := f.store.Slot(past.ID)
	require.True(t, ok, "past slots stay as history")
	assert.Nil(t, old.GeneratingScheduleID)

	_, ok = f.store.Slot(manual.ID)
	assert.True(t, ok)

	_, err := f.svc.Get(ctx, created.ID, businessID)
	assert.ErrorIs(t, err, domain.ErrScheduleNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, created.ID, businessID), domain.ErrScheduleNotFound)
}

func TestService_RegenerationFailureKeepsEdit(t *testing.T) {
	f := newFixture()
	created := f.create(t)
	f.regen.Err = errors.New("redis down")

	_, err := f.svc.AddOverride(context.Background(), created.ID, businessID, domain.OverrideInput{Date: monday, Reason: "Holiday"})
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), created.ID, businessID)
	require.NoError(t, err)
	assert.Len(t, got.Overrides, 1)
}

type conflictingRepo struct {
	*testutil.ScheduleRepository
}

func (conflictingRepo) Save(context.Context, *domain.Schedule) error {
	return scheduleRepo.ErrVersionConflict
}

func TestService_ConcurrentModification(t *testing.T) {
	store := testutil.NewStore()
	svc := NewService(conflictingRepo{store.Schedules()}, store.SlotsRepo(), store.Workers(), nil, testutil.NewTxManager(store), logger.Nop())

	created, err := svc.Create(context.Background(), &models.CreateScheduleRequest{
		WorkerID: workerID, BusinessProfileID: businessID,
		Details: domain.ScheduleDetails{Title: "Main", EffectiveStartDate: monday, TimeZoneID: "UTC"},
	})
	require.NoError(t, err)

	_, err = svc.AddOverride(context.Background(), created.ID, businessID, domain.OverrideInput{Date: monday})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestService_CreateRejectsWorkerOfAnotherBusiness(t *testing.T) {
	f := newFixture()
	f.store.AddWorker(workerID, businessID+1, "Bob")

	_, err := f.svc.Create(context.Background(), &models.CreateScheduleRequest{
		WorkerID: workerID, BusinessProfileID: businessID,
		Details: domain.ScheduleDetails{Title: "Main", EffectiveStartDate: monday, TimeZoneID: "UTC"},
	})
	assert.ErrorIs(t, err, domain.ErrWorkerNotFound)

	list, err := f.svc.ListByWorker(context.Background(), workerID, businessID)
	require.NoError(t, err)
	assert.Empty(t, list.Schedules)
	assert.Zero(t, f.regen.CallCount())
}
