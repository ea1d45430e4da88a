package catalogservice

// Service услуга бизнеса из каталога
type Service struct {
	ID                int64    `json:"id"`
	BusinessProfileID int64    `json:"business_profile_id"`
	Name              string   `json:"name"`
	Price             *float64 `json:"price"`
	DurationMinutes   int      `json:"duration_minutes"`
	IsActive          bool     `json:"is_active"`
	WorkerIDs         []int64  `json:"worker_ids"` // пусто - услугу выполняет любой работник
}

// PriceOrZero цена услуги, 0 если не указана
func (s *Service) PriceOrZero() float64 {
	if s.Price == nil {
		return 0
	}
	return *s.Price
}

// HasWorker может ли работник выполнять услугу
func (s *Service) HasWorker(workerID int64) bool {
	if len(s.WorkerIDs) == 0 {
		return true
	}
	for _, id := range s.WorkerIDs {
		if id == workerID {
			return true
		}
	}
	return false
}

// ErrorResponse модель ошибки от сервиса каталога
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
