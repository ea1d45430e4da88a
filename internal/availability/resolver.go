// Package availability содержит чистые функции расчета рабочего времени и слотов.
// Функции не делают I/O и не имеют побочных эффектов.
package availability

import (
	"iter"
	"sort"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// WorkingInterval рабочий интервал в локальном времени работника на конкретную дату
type WorkingInterval struct {
	ScheduleID   int64
	Date         time.Time // полночь UTC, значима только календарная дата
	StartTime    types.TimeString
	EndTime      types.TimeString
	FromOverride bool
}

// Duration длительность интервала
func (w WorkingInterval) Duration() time.Duration {
	return time.Duration(w.EndTime.Minutes()-w.StartTime.Minutes()) * time.Minute
}

// Resolve разворачивает расписание в рабочие интервалы для дат [from, to] включительно.
//
// Для каждой даты:
//  1. дата вне периода действия расписания пропускается;
//  2. исключение на дату имеет приоритет: выходной - интервалов нет, рабочий - окно исключения
//     без вычета перерывов (перерывы недели на исключения не наследуются);
//  3. иначе берется правило дня недели за вычетом перерывов.
//
// Последовательность ленивая, конечная и может обходиться повторно.
func Resolve(schedule *domain.Schedule, from, to time.Time) iter.Seq[WorkingInterval] {
	return func(yield func(WorkingInterval) bool) {
		for date := range dates(from, to) {
			for _, wi := range ResolveDate(schedule, date) {
				if !yield(wi) {
					return
				}
			}
		}
	}
}

// ResolveDate рабочие интервалы одной даты, отсортированные и непересекающиеся
func ResolveDate(schedule *domain.Schedule, date time.Time) []WorkingInterval {
	day := types.DateOnly(date)
	if !schedule.CoversDate(day) {
		return nil
	}

	if o, ok := schedule.OverrideFor(day); ok {
		if !o.IsWorkingDay || o.StartTime == nil || o.EndTime == nil {
			return nil
		}
		return []WorkingInterval{{
			ScheduleID:   schedule.ID(),
			Date:         day,
			StartTime:    *o.StartTime,
			EndTime:      *o.EndTime,
			FromOverride: true,
		}}
	}

	item, ok := schedule.RuleItemFor(day.Weekday())
	if !ok || !item.IsWorkingDay {
		return nil
	}

	pieces := subtractBreaks(item.StartTime.Minutes(), item.EndTime.Minutes(), item.Breaks)
	result := make([]WorkingInterval, 0, len(pieces))
	for _, p := range pieces {
		start, err := types.NewTimeStringFromMinutes(p.start)
		if err != nil {
			continue
		}
		end, err := types.NewTimeStringFromMinutes(p.end)
		if err != nil {
			continue
		}
		result = append(result, WorkingInterval{
			ScheduleID: schedule.ID(),
			Date:       day,
			StartTime:  start,
			EndTime:    end,
		})
	}
	return result
}

// SelectSchedule выбирает расписание, действующее на дату, среди расписаний одного работника.
// Неосновное расписание, покрывающее дату, важнее основного; среди равных побеждает
// более позднее начало действия, затем больший id. nil - на дату расписания нет.
func SelectSchedule(schedules []*domain.Schedule, date time.Time) *domain.Schedule {
	var best *domain.Schedule
	for _, s := range schedules {
		if !s.CoversDate(date) {
			continue
		}
		if best == nil || outranks(s, best) {
			best = s
		}
	}
	return best
}

// ResolveWorker разворачивает набор расписаний работника, выбирая расписание на каждую дату
func ResolveWorker(schedules []*domain.Schedule, from, to time.Time) iter.Seq[WorkingInterval] {
	return func(yield func(WorkingInterval) bool) {
		for date := range dates(from, to) {
			s := SelectSchedule(schedules, date)
			if s == nil {
				continue
			}
			for _, wi := range ResolveDate(s, date) {
				if !yield(wi) {
					return
				}
			}
		}
	}
}

// ToUTC переводит локальный интервал в абсолютное время по часовому поясу расписания.
// Несуществующее при переходе на летнее время локальное время нормализуется time.Date,
// вырожденный после перевода интервал отбрасывается (ok=false).
func ToUTC(wi WorkingInterval, loc *time.Location) (domain.TimeRange, bool) {
	start := wi.StartTime.On(wi.Date, loc).UTC()
	end := wi.EndTime.On(wi.Date, loc).UTC()
	if !start.Before(end) {
		return domain.TimeRange{}, false
	}
	return domain.TimeRange{Start: start, End: end}, true
}

func outranks(candidate, current *domain.Schedule) bool {
	if candidate.IsDefault() != current.IsDefault() {
		return !candidate.IsDefault()
	}
	if !candidate.EffectiveStartDate().Equal(current.EffectiveStartDate()) {
		return candidate.EffectiveStartDate().After(current.EffectiveStartDate())
	}
	return candidate.ID() > current.ID()
}

// dates календарные даты [from, to] включительно
func dates(from, to time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		last := types.DateOnly(to)
		for d := types.DateOnly(from); !d.After(last); d = d.AddDate(0, 0, 1) {
			if !yield(d) {
				return
			}
		}
	}
}

type minuteRange struct {
	start, end int
}

func subtractBreaks(start, end int, breaks []domain.BreakRule) []minuteRange {
	sorted := make([]minuteRange, 0, len(breaks))
	for _, b := range breaks {
		sorted = append(sorted, minuteRange{start: b.StartTime.Minutes(), end: b.EndTime.Minutes()})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	result := make([]minuteRange, 0, len(sorted)+1)
	cursor := start
	for _, b := range sorted {
		if b.end <= cursor || b.start >= end {
			continue
		}
		if b.start > cursor {
			result = append(result, minuteRange{start: cursor, end: b.start})
		}
		cursor = b.end
		if cursor >= end {
			return result
		}
	}
	if cursor < end {
		result = append(result, minuteRange{start: cursor, end: end})
	}
	return result
}
