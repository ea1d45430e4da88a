package availability

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var (
	monday  = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tuesday = monday.AddDate(0, 0, 1)
)

func ts(s string) types.TimeString {
	return types.MustTimeString(s)
}

func newSchedule(t *testing.T, id int64, isDefault bool, start time.Time, end *time.Time) *domain.Schedule {
	t.Helper()
	s, err := domain.NewSchedule(1, 1, domain.ScheduleDetails{
		Title:              "test",
		IsDefault:          isDefault,
		EffectiveStartDate: start,
		EffectiveEndDate:   end,
		TimeZoneID:         "UTC",
	})
	require.NoError(t, err)
	s.MarkPersisted(id, 1, time.Time{}, time.Time{})
	return s
}

func mondayWithLunch(t *testing.T) *domain.Schedule {
	t.Helper()
	s := newSchedule(t, 1, true, monday.AddDate(0, 0, -7), nil)
	_, err := s.AddRuleItem(domain.RuleItemInput{
		DayOfWeek:    time.Monday,
		StartTime:    ts("09:00"),
		EndTime:      ts("17:00"),
		IsWorkingDay: true,
		Breaks:       []domain.BreakInput{{Name: "Обед", StartTime: ts("12:00"), EndTime: ts("13:00")}},
	})
	require.NoError(t, err)
	return s
}

func collect(seq func(func(WorkingInterval) bool)) []WorkingInterval {
	var out []WorkingInterval
	seq(func(wi WorkingInterval) bool {
		out = append(out, wi)
		return true
	})
	return out
}

func TestResolve_MondayWithLunchBreak(t *testing.T) {
	s := mondayWithLunch(t)

	got := collect(Resolve(s, monday, monday))

	require.Len(t, got, 2)
	assert.Equal(t, ts("09:00"), got[0].StartTime)
	assert.Equal(t, ts("12:00"), got[0].EndTime)
	assert.Equal(t, ts("13:00"), got[1].StartTime)
	assert.Equal(t, ts("17:00"), got[1].EndTime)
	assert.Equal(t, monday, got[0].Date)
	assert.Equal(t, int64(1), got[0].ScheduleID)
}

func TestResolve_HolidayOverride(t *testing.T) {
	s := mondayWithLunch(t)
	_, err := s.AddOverride(domain.OverrideInput{Date: monday, Reason: "Holiday"})
	require.NoError(t, err)

	assert.Empty(t, collect(Resolve(s, monday, monday)))

	// следующий понедельник не затронут
	next := monday.AddDate(0, 0, 7)
	assert.Len(t, collect(Resolve(s, next, next)), 2)
}

func TestResolve_WorkingOverrideIgnoresBreaks(t *testing.T) {
	s := mondayWithLunch(t)
	_, err := s.AddOverride(domain.OverrideInput{
		Date:         monday,
		Reason:       "короткий день",
		IsWorkingDay: true,
		StartTime:    ptr.Ptr(ts("11:00")),
		EndTime:      ptr.Ptr(ts("15:00")),
	})
	require.NoError(t, err)

	got := collect(Resolve(s, monday, monday))

	require.Len(t, got, 1)
	assert.Equal(t, ts("11:00"), got[0].StartTime)
	assert.Equal(t, ts("15:00"), got[0].EndTime)
	assert.True(t, got[0].FromOverride)
}

func TestResolve_OverrideOnDayWithoutRule(t *testing.T) {
	s := mondayWithLunch(t)
	_, err := s.AddOverride(domain.OverrideInput{
		Date:         tuesday,
		IsWorkingDay: true,
		StartTime:    ptr.Ptr(ts("10:00")),
		EndTime:      ptr.Ptr(ts("12:00")),
	})
	require.NoError(t, err)

	got := collect(Resolve(s, monday, tuesday))
	require.Len(t, got, 3)
	assert.Equal(t, tuesday, got[2].Date)
}

func TestResolve_SkipsDatesOutsideEffectiveRange(t *testing.T) {
	s := newSchedule(t, 1, true, tuesday, ptr.Ptr(tuesday.AddDate(0, 0, 6)))
	for d := time.Sunday; d <= time.Saturday; d++ {
		_, err := s.AddRuleItem(domain.RuleItemInput{DayOfWeek: d, StartTime: ts("09:00"), EndTime: ts("10:00"), IsWorkingDay: true})
		require.NoError(t, err)
	}

	got := collect(Resolve(s, monday, monday.AddDate(0, 0, 13)))

	require.Len(t, got, 7)
	assert.Equal(t, tuesday, got[0].Date)
	assert.Equal(t, tuesday.AddDate(0, 0, 6), got[6].Date)
}

func TestResolve_NonWorkingAndMissingItems(t *testing.T) {
	s := newSchedule(t, 1, true, monday, nil)
	_, err := s.AddRuleItem(domain.RuleItemInput{DayOfWeek: time.Monday})
	require.NoError(t, err)

	assert.Empty(t, collect(Resolve(s, monday, monday.AddDate(0, 0, 6))))
}

func TestResolve_IsRestartableAndStoppable(t *testing.T) {
	s := mondayWithLunch(t)
	seq := Resolve(s, monday, monday.AddDate(0, 0, 20))

	first := collect(seq)
	second := collect(seq)
	assert.Equal(t, first, second)
	assert.Len(t, first, 6)

	count := 0
	for range seq {
		count++
		if count == 1 {
			break
		}
	}
	assert.Equal(t, 1, count)
}

// Свойство: интервалы одной даты не пересекаются, их сумма равна длительности правила минус перерывы
func TestResolve_RandomBreaksProperty(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		s := newSchedule(t, 1, true, monday, nil)
		startMin := 6*60 + rnd.Intn(4*60)
		endMin := startMin + 60 + rnd.Intn(10*60)
		start, _ := types.NewTimeStringFromMinutes(startMin)
		end, _ := types.NewTimeStringFromMinutes(endMin)

		_, err := s.AddRuleItem(domain.RuleItemInput{DayOfWeek: time.Monday, StartTime: start, EndTime: end, IsWorkingDay: true})
		require.NoError(t, err)

		breakTotal := 0
		for j := 0; j < 5; j++ {
			bs := startMin + rnd.Intn(endMin-startMin)
			be := bs + 5 + rnd.Intn(60)
			if be > endMin {
				continue
			}
			bst, _ := types.NewTimeStringFromMinutes(bs)
			bet, _ := types.NewTimeStringFromMinutes(be)
			if _, err := s.AddBreak(time.Monday, domain.BreakInput{Name: "b", StartTime: bst, EndTime: bet}); err == nil {
				breakTotal += be - bs
			}
		}

		got := ResolveDate(s, monday)

		total := 0
		for k, wi := range got {
			require.True(t, wi.StartTime.IsBefore(wi.EndTime))
			if k > 0 {
				require.False(t, wi.StartTime.IsBefore(got[k-1].EndTime), "intervals overlap")
			}
			total += int(wi.Duration() / time.Minute)
		}
		assert.Equal(t, endMin-startMin-breakTotal, total)
	}
}

func TestSelectSchedule(t *testing.T) {
	base := newSchedule(t, 1, true, monday.AddDate(0, -1, 0), nil)
	summer := newSchedule(t, 2, false, monday, ptr.Ptr(monday.AddDate(0, 0, 6)))
	laterSummer := newSchedule(t, 3, false, tuesday, ptr.Ptr(monday.AddDate(0, 0, 6)))
	all := []*domain.Schedule{base, summer, laterSummer}

	assert.Equal(t, int64(1), SelectSchedule(all, monday.AddDate(0, 0, -1)).ID())
	assert.Equal(t, int64(2), SelectSchedule(all, monday).ID())
	assert.Equal(t, int64(3), SelectSchedule(all, tuesday).ID())
	assert.Equal(t, int64(1), SelectSchedule(all, monday.AddDate(0, 0, 7)).ID())
	assert.Nil(t, SelectSchedule(all, monday.AddDate(0, -2, 0)))
}

func TestResolveWorker_UsesScheduleSelectedPerDate(t *testing.T) {
	base := mondayWithLunch(t)
	special := newSchedule(t, 9, false, monday, ptr.Ptr(monday))
	_, err := special.AddRuleItem(domain.RuleItemInput{DayOfWeek: time.Monday, StartTime: ts("08:00"), EndTime: ts("10:00"), IsWorkingDay: true})
	require.NoError(t, err)

	got := collect(ResolveWorker([]*domain.Schedule{base, special}, monday, monday.AddDate(0, 0, 7)))

	require.Len(t, got, 3)
	assert.Equal(t, int64(9), got[0].ScheduleID)
	assert.Equal(t, int64(1), got[1].ScheduleID)
	assert.Equal(t, monday.AddDate(0, 0, 7), got[1].Date)
}

func TestToUTC(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	r, ok := ToUTC(WorkingInterval{Date: monday, StartTime: ts("09:00"), EndTime: ts("17:00")}, ny)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2024, 3, 4, 22, 0, 0, 0, time.UTC), r.End)

	// 10 марта 2024 в Нью-Йорке 02:00-03:00 не существует, интервал сокращается на час
	dst := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	r, ok = ToUTC(WorkingInterval{Date: dst, StartTime: ts("01:00"), EndTime: ts("04:00")}, ny)
	require.True(t, ok)
	assert.Equal(t, 2*time.Hour, r.Duration())

	r, ok = ToUTC(WorkingInterval{Date: monday, StartTime: ts("22:00"), EndTime: ts("24:00")}, time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), r.End)
}
