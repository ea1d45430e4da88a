package availability

import "github.com/m04kA/SMC-SchedulingService/internal/domain"

// Collides есть ли среди existing слот с блокирующим статусом, пересекающий candidate.
// Пересечение открытое: слоты, соприкасающиеся границами, не конфликтуют.
func Collides(candidate domain.TimeRange, existing []*domain.AvailabilitySlot, blocking []domain.SlotStatus) bool {
	return len(FindCollisions(candidate, existing, blocking)) > 0
}

// FindCollisions все слоты с блокирующим статусом, пересекающие candidate
func FindCollisions(candidate domain.TimeRange, existing []*domain.AvailabilitySlot, blocking []domain.SlotStatus) []*domain.AvailabilitySlot {
	statuses := make(map[domain.SlotStatus]struct{}, len(blocking))
	for _, s := range blocking {
		statuses[s] = struct{}{}
	}

	var collisions []*domain.AvailabilitySlot
	for _, slot := range existing {
		if _, ok := statuses[slot.Status]; !ok {
			continue
		}
		if slot.Range().Overlaps(candidate) {
			collisions = append(collisions, slot)
		}
	}
	return collisions
}

// CollidesWithFixed пересекается ли candidate с ручным или забронированным слотом
func CollidesWithFixed(candidate domain.TimeRange, existing []*domain.AvailabilitySlot) bool {
	for _, slot := range existing {
		if slot.IsFixed() && slot.Range().Overlaps(candidate) {
			return true
		}
	}
	return false
}
