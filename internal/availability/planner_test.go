package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

func utc(hour, minute int) time.Time {
	return time.Date(2024, 3, 4, hour, minute, 0, 0, time.UTC)
}

func span(h1, m1, h2, m2 int) domain.TimeRange {
	return domain.TimeRange{Start: utc(h1, m1), End: utc(h2, m2)}
}

func manualSlot(id int64, r domain.TimeRange, status domain.SlotStatus) *domain.AvailabilitySlot {
	return &domain.AvailabilitySlot{ID: id, WorkerID: 1, BusinessProfileID: 1, StartTime: r.Start, EndTime: r.End, Status: status}
}

func generatedSlot(id, scheduleID int64, r domain.TimeRange) *domain.AvailabilitySlot {
	s := manualSlot(id, r, domain.SlotStatusAvailable)
	s.GeneratingScheduleID = ptr.Ptr(scheduleID)
	return s
}

func ranges(slots []*domain.AvailabilitySlot) []domain.TimeRange {
	out := make([]domain.TimeRange, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Range())
	}
	return out
}

// applyPlan имитирует запись плана в хранилище
func applyPlan(existing []*domain.AvailabilitySlot, plan Plan, nextID *int64) []*domain.AvailabilitySlot {
	deleted := make(map[int64]bool)
	for _, d := range plan.Delete {
		deleted[d.ID] = true
	}
	result := make([]*domain.AvailabilitySlot, 0)
	for _, s := range existing {
		if !deleted[s.ID] {
			result = append(result, s)
		}
	}
	for _, ins := range plan.Insert {
		*nextID++
		c := *ins
		c.ID = *nextID
		result = append(result, &c)
	}
	return result
}

func TestBuildPlan_ManualSlotSplitsWorkingDay(t *testing.T) {
	day := span(0, 0, 24, 0)
	manual := manualSlot(1, span(10, 0, 11, 0), domain.SlotStatusUnavailable)
	blockers, replaceable := Partition([]*domain.AvailabilitySlot{manual}, day, 1)

	plan := BuildPlan(PlanInput{
		WorkerID:          1,
		BusinessProfileID: 1,
		Windows:           []Window{{ScheduleID: 7, Range: span(9, 0, 17, 0)}},
		Blockers:          blockers,
		Replaceable:       replaceable,
	})

	assert.Empty(t, plan.Delete)
	assert.Equal(t, []domain.TimeRange{span(9, 0, 10, 0), span(11, 0, 17, 0)}, ranges(plan.Insert))
	for _, s := range plan.Insert {
		assert.Equal(t, domain.SlotStatusAvailable, s.Status)
		assert.Equal(t, int64(7), *s.GeneratingScheduleID)
		assert.Nil(t, s.BookingID)
	}
}

func TestBuildPlan_FixedDurationChunks(t *testing.T) {
	plan := BuildPlan(PlanInput{
		WorkerID:          1,
		BusinessProfileID: 1,
		Windows:           []Window{{ScheduleID: 7, Range: span(9, 0, 11, 45)}},
		Blockers:          []*domain.AvailabilitySlot{manualSlot(1, span(9, 30, 10, 0), domain.SlotStatusBreak)},
		SlotDuration:      30 * time.Minute,
	})

	assert.Equal(t, []domain.TimeRange{
		span(9, 0, 9, 30),
		span(10, 0, 10, 30),
		span(10, 30, 11, 0),
		span(11, 0, 11, 30),
	}, ranges(plan.Insert), "the 15 minute tail is dropped")
}

func TestBuildPlan_IsIdempotent(t *testing.T) {
	generationRange := span(0, 0, 24, 0)
	windows := []Window{
		{ScheduleID: 7, Range: span(9, 0, 12, 0)},
		{ScheduleID: 7, Range: span(13, 0, 17, 0)},
	}
	slots := []*domain.AvailabilitySlot{
		manualSlot(1, span(10, 0, 11, 0), domain.SlotStatusUnavailable),
		generatedSlot(2, 7, span(8, 0, 9, 0)), // устаревший слот прошлой генерации
	}
	nextID := int64(100)

	for run := 0; run < 3; run++ {
		blockers, replaceable := Partition(slots, generationRange, 1)
		plan := BuildPlan(PlanInput{
			WorkerID:          1,
			BusinessProfileID: 1,
			Windows:           windows,
			Blockers:          blockers,
			Replaceable:       replaceable,
			SlotDuration:      time.Hour,
		})

		if run == 0 {
			assert.Len(t, plan.Delete, 1)
			assert.Len(t, plan.Insert, 6)
		} else {
			assert.True(t, plan.IsNoop(), "run %d must not change anything", run)
			assert.Len(t, plan.Keep, 6)
		}
		slots = applyPlan(slots, plan, &nextID)
	}

	assert.Len(t, slots, 7)
	assertNoOverlap(t, slots)
}

func TestBuildPlan_KeepsIdentifiersOfUnchangedSlots(t *testing.T) {
	kept := generatedSlot(5, 7, span(9, 0, 12, 0))
	stale := generatedSlot(6, 7, span(13, 0, 18, 0))

	plan := BuildPlan(PlanInput{
		WorkerID:          1,
		BusinessProfileID: 1,
		Windows: []Window{
			{ScheduleID: 7, Range: span(9, 0, 12, 0)},
			{ScheduleID: 7, Range: span(13, 0, 17, 0)},
		},
		Replaceable: []*domain.AvailabilitySlot{kept, stale},
	})

	require.Len(t, plan.Keep, 1)
	assert.Equal(t, int64(5), plan.Keep[0].ID)
	require.Len(t, plan.Delete, 1)
	assert.Equal(t, int64(6), plan.Delete[0].ID)
	assert.Equal(t, []domain.TimeRange{span(13, 0, 17, 0)}, ranges(plan.Insert))
	assert.Zero(t, plan.Insert[0].ID, "new slots never reuse identifiers")
}

func TestBuildPlan_ScheduleChangeReplacesSlot(t *testing.T) {
	old := generatedSlot(5, 7, span(9, 0, 12, 0))

	plan := BuildPlan(PlanInput{
		WorkerID:    1,
		Windows:     []Window{{ScheduleID: 8, Range: span(9, 0, 12, 0)}},
		Replaceable: []*domain.AvailabilitySlot{old},
	})

	assert.Len(t, plan.Delete, 1)
	require.Len(t, plan.Insert, 1)
	assert.Equal(t, int64(8), *plan.Insert[0].GeneratingScheduleID)
}

func TestPartition(t *testing.T) {
	generationRange := span(8, 0, 20, 0)
	booked := generatedSlot(1, 7, span(9, 0, 10, 0))
	booked.Status = domain.SlotStatusBooked
	booked.BookingID = ptr.Ptr(int64(3))
	manual := manualSlot(2, span(10, 0, 11, 0), domain.SlotStatusAvailable)
	straddling := generatedSlot(3, 7, span(19, 0, 21, 0))
	inside := generatedSlot(4, 7, span(12, 0, 13, 0))

	blockers, replaceable := Partition([]*domain.AvailabilitySlot{booked, manual, straddling, inside}, generationRange, 1)

	assert.ElementsMatch(t, []*domain.AvailabilitySlot{booked, manual, straddling}, blockers)
	assert.Equal(t, []*domain.AvailabilitySlot{inside}, replaceable)
}

func TestPartition_OtherBusinessSlotsOnlyBlock(t *testing.T) {
	generationRange := span(8, 0, 20, 0)
	own := generatedSlot(1, 7, span(9, 0, 10, 0))
	foreign := generatedSlot(2, 9, span(12, 0, 13, 0))
	foreign.BusinessProfileID = 2

	blockers, replaceable := Partition([]*domain.AvailabilitySlot{own, foreign}, generationRange, 1)
	assert.Equal(t, []*domain.AvailabilitySlot{foreign}, blockers)
	assert.Equal(t, []*domain.AvailabilitySlot{own}, replaceable)

	plan := BuildPlan(PlanInput{
		WorkerID:          1,
		BusinessProfileID: 1,
		Windows:           []Window{{ScheduleID: 7, Range: span(11, 0, 14, 0)}},
		Blockers:          blockers,
		Replaceable:       replaceable,
		SlotDuration:      time.Hour,
	})
	assert.Equal(t, []*domain.AvailabilitySlot{own}, plan.Delete)
	assert.Equal(t, []domain.TimeRange{span(11, 0, 12, 0), span(13, 0, 14, 0)}, ranges(plan.Insert))
}

func TestDesiredSlots_OverlappingWindowsDoNotProduceOverlaps(t *testing.T) {
	got := DesiredSlots([]Window{
		{ScheduleID: 1, Range: span(9, 0, 12, 0)},
		{ScheduleID: 2, Range: span(11, 0, 14, 0)},
	}, nil, time.Hour)

	slots := make([]*domain.AvailabilitySlot, 0, len(got))
	for i, w := range got {
		slots = append(slots, manualSlot(int64(i), w.Range, domain.SlotStatusAvailable))
	}
	assertNoOverlap(t, slots)
	assert.Len(t, got, 5)
}

func assertNoOverlap(t *testing.T, slots []*domain.AvailabilitySlot) {
	t.Helper()
	for i := range slots {
		for j := i + 1; j < len(slots); j++ {
			assert.False(t, slots[i].Range().Overlaps(slots[j].Range()),
				"slots %d and %d overlap", slots[i].ID, slots[j].ID)
		}
	}
}

func TestWorkerWindows_ClipsToRangeAndConvertsZone(t *testing.T) {
	s, err := domain.NewSchedule(1, 1, domain.ScheduleDetails{
		Title:              "moscow",
		IsDefault:          true,
		EffectiveStartDate: utc(0, 0).AddDate(0, 0, -7),
		TimeZoneID:         "Europe/Moscow",
	})
	require.NoError(t, err)
	s.MarkPersisted(5, 1, time.Time{}, time.Time{})
	_, err = s.AddRuleItem(domain.RuleItemInput{
		DayOfWeek:    time.Monday,
		StartTime:    "09:00",
		EndTime:      "17:00",
		IsWorkingDay: true,
	})
	require.NoError(t, err)

	// Москва UTC+3: 09:00-17:00 локально это 06:00-14:00 UTC
	windows := WorkerWindows([]*domain.Schedule{s}, span(0, 0, 23, 59))
	require.Len(t, windows, 1)
	assert.Equal(t, int64(5), windows[0].ScheduleID)
	assert.True(t, windows[0].Range.Equal(span(6, 0, 14, 0)))

	clipped := WorkerWindows([]*domain.Schedule{s}, span(10, 0, 12, 0))
	require.Len(t, clipped, 1)
	assert.True(t, clipped[0].Range.Equal(span(10, 0, 12, 0)))

	assert.Empty(t, WorkerWindows([]*domain.Schedule{s}, span(15, 0, 20, 0)))
	assert.Empty(t, WorkerWindows(nil, span(0, 0, 23, 0)))
}
