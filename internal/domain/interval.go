package domain

import (
	"sort"
	"time"
)

// TimeRange полуоткрытый интервал [Start, End) в абсолютном времени
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange создает интервал, Start должен быть строго раньше End
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if !start.Before(end) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// IsEmpty true для вырожденного интервала
func (r TimeRange) IsEmpty() bool {
	return !r.Start.Before(r.End)
}

// Duration длительность интервала
func (r TimeRange) Duration() time.Duration {
	if r.IsEmpty() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Overlaps пересечение открытых интервалов, соседние интервалы с общей границей не пересекаются
func (r TimeRange) Overlaps(other TimeRange) bool {
	return other.End.After(r.Start) && other.Start.Before(r.End)
}

// Contains other целиком внутри r
func (r TimeRange) Contains(other TimeRange) bool {
	return !other.Start.Before(r.Start) && !other.End.After(r.End)
}

// Intersect общая часть интервалов, ok=false если пересечения нет
func (r TimeRange) Intersect(other TimeRange) (TimeRange, bool) {
	start := r.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := r.End
	if other.End.Before(end) {
		end = other.End
	}
	if !start.Before(end) {
		return TimeRange{}, false
	}
	return TimeRange{Start: start, End: end}, true
}

// Equal совпадение границ как моментов времени (без учета Location)
func (r TimeRange) Equal(other TimeRange) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

// Subtract вычитает из r все blockers и возвращает оставшиеся куски по возрастанию
func (r TimeRange) Subtract(blockers []TimeRange) []TimeRange {
	if r.IsEmpty() {
		return nil
	}

	sorted := make([]TimeRange, 0, len(blockers))
	for _, b := range blockers {
		if r.Overlaps(b) {
			sorted = append(sorted, b)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	result := make([]TimeRange, 0, len(sorted)+1)
	cursor := r.Start
	for _, b := range sorted {
		if b.Start.After(cursor) {
			result = append(result, TimeRange{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
		if !cursor.Before(r.End) {
			return result
		}
	}
	if cursor.Before(r.End) {
		result = append(result, TimeRange{Start: cursor, End: r.End})
	}
	return result
}
