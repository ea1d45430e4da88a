package availability

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

// Window рабочее окно в UTC, порожденное расписанием
type Window struct {
	ScheduleID int64
	Range      domain.TimeRange
}

// PlanInput входные данные планировщика для одного работника и одного диапазона
type PlanInput struct {
	WorkerID          int64
	BusinessProfileID int64
	Windows           []Window
	// Blockers слоты, которые генератор не трогает: ручные, забронированные и выходящие за диапазон
	Blockers []*domain.AvailabilitySlot
	// Replaceable слоты прошлой генерации внутри диапазона, кандидаты на замену
	Replaceable  []*domain.AvailabilitySlot
	SlotDuration time.Duration // 0 - один слот на непрерывный интервал
}

// Plan результат сравнения желаемого набора слотов с существующим
type Plan struct {
	Keep   []*domain.AvailabilitySlot
	Delete []*domain.AvailabilitySlot
	Insert []*domain.AvailabilitySlot
}

// IsNoop план ничего не меняет
func (p Plan) IsNoop() bool {
	return len(p.Delete) == 0 && len(p.Insert) == 0
}

// BuildPlan вычисляет желаемые слоты и разницу с существующими.
// Результат детерминирован: повторный запуск на результате первого дает пустой план.
func BuildPlan(in PlanInput) Plan {
	desired := DesiredSlots(in.Windows, blockerRanges(in.Blockers), in.SlotDuration)

	existing := make(map[slotKey][]*domain.AvailabilitySlot, len(in.Replaceable))
	for _, s := range in.Replaceable {
		k := keyOf(s.Range(), scheduleIDOf(s))
		existing[k] = append(existing[k], s)
	}

	plan := Plan{
		Keep:   make([]*domain.AvailabilitySlot, 0),
		Delete: make([]*domain.AvailabilitySlot, 0),
		Insert: make([]*domain.AvailabilitySlot, 0),
	}

	for _, w := range desired {
		k := keyOf(w.Range, w.ScheduleID)
		if matches := existing[k]; len(matches) > 0 {
			plan.Keep = append(plan.Keep, matches[0])
			existing[k] = matches[1:]
			continue
		}
		plan.Insert = append(plan.Insert, &domain.AvailabilitySlot{
			WorkerID:             in.WorkerID,
			BusinessProfileID:    in.BusinessProfileID,
			StartTime:            w.Range.Start,
			EndTime:              w.Range.End,
			Status:               domain.SlotStatusAvailable,
			GeneratingScheduleID: ptr.Ptr(w.ScheduleID),
		})
	}

	for _, rest := range existing {
		plan.Delete = append(plan.Delete, rest...)
	}
	sort.Slice(plan.Delete, func(i, j int) bool { return plan.Delete[i].StartTime.Before(plan.Delete[j].StartTime) })

	return plan
}

// DesiredSlots окна минус blockers, нарезанные на слоты длительностью slotDuration.
// Хвост короче slotDuration отбрасывается. Пересекающиеся окна не дают пересекающихся слотов.
func DesiredSlots(windows []Window, blockers []domain.TimeRange, slotDuration time.Duration) []Window {
	sorted := append([]Window(nil), windows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Range.Start.Before(sorted[j].Range.Start) })

	result := make([]Window, 0)
	var lastEnd time.Time
	for _, w := range sorted {
		for _, piece := range w.Range.Subtract(blockers) {
			for _, chunk := range chunk(piece, slotDuration) {
				if !lastEnd.IsZero() && chunk.Start.Before(lastEnd) {
					continue
				}
				result = append(result, Window{ScheduleID: w.ScheduleID, Range: chunk})
				lastEnd = chunk.End
			}
		}
	}
	return result
}

func chunk(r domain.TimeRange, size time.Duration) []domain.TimeRange {
	if size <= 0 {
		return []domain.TimeRange{r}
	}
	result := make([]domain.TimeRange, 0, int(r.Duration()/size))
	for start := r.Start; !start.Add(size).After(r.End); start = start.Add(size) {
		result = append(result, domain.TimeRange{Start: start, End: start.Add(size)})
	}
	return result
}

func blockerRanges(slots []*domain.AvailabilitySlot) []domain.TimeRange {
	ranges := make([]domain.TimeRange, 0, len(slots))
	for _, s := range slots {
		ranges = append(ranges, s.Range())
	}
	return ranges
}

type slotKey struct {
	start, end int64
	scheduleID int64
}

func keyOf(r domain.TimeRange, scheduleID int64) slotKey {
	return slotKey{start: r.Start.UnixNano(), end: r.End.UnixNano(), scheduleID: scheduleID}
}

func scheduleIDOf(s *domain.AvailabilitySlot) int64 {
	if s.GeneratingScheduleID == nil {
		return 0
	}
	return *s.GeneratingScheduleID
}

// Partition делит слоты, пересекающие диапазон генерации, на неприкосновенные и заменяемые.
// Заменяемый слот: создан генератором этого бизнеса, не забронирован и целиком лежит внутри диапазона.
// Слоты других бизнесов всегда только блокируют время.
func Partition(slots []*domain.AvailabilitySlot, generationRange domain.TimeRange, businessProfileID int64) (blockers, replaceable []*domain.AvailabilitySlot) {
	blockers = make([]*domain.AvailabilitySlot, 0)
	replaceable = make([]*domain.AvailabilitySlot, 0)
	for _, s := range slots {
		if s.BusinessProfileID == businessProfileID && !s.IsFixed() && generationRange.Contains(s.Range()) {
			replaceable = append(replaceable, s)
			continue
		}
		blockers = append(blockers, s)
	}
	return blockers, replaceable
}

// WorkerWindows рабочие окна работника в UTC, обрезанные по rng.
// Локальные даты берутся с запасом в день с каждой стороны: часовой пояс
// может сдвинуть интервал соседней даты внутрь диапазона.
func WorkerWindows(schedules []*domain.Schedule, rng domain.TimeRange) []Window {
	byID := make(map[int64]*domain.Schedule, len(schedules))
	for _, s := range schedules {
		byID[s.ID()] = s
	}

	windows := make([]Window, 0)
	from := rng.Start.AddDate(0, 0, -1)
	to := rng.End.AddDate(0, 0, 1)
	for wi := range ResolveWorker(schedules, from, to) {
		s := byID[wi.ScheduleID]
		utc, ok := ToUTC(wi, s.Location())
		if !ok {
			continue
		}
		clipped, ok := utc.Intersect(rng)
		if !ok {
			continue
		}
		windows = append(windows, Window{ScheduleID: wi.ScheduleID, Range: clipped})
	}
	return windows
}
