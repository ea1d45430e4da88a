package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// bookable оставляет слоты, начинающиеся не раньше cutoff.
// Слот, который начался или начнется раньше минимального времени до записи, клиенту не показывается.
func bookable(slots []*domain.AvailabilitySlot, cutoff time.Time) []Slot {
	result := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if !s.IsAvailable() || s.StartTime.Before(cutoff) {
			continue
		}
		result = append(result, Slot{
			ID:              s.ID,
			StartTime:       s.StartTime.UTC(),
			EndTime:         s.EndTime.UTC(),
			DurationMinutes: int(s.EndTime.Sub(s.StartTime) / time.Minute),
		})
	}
	return result
}
