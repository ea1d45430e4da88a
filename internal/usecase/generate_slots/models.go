package generate_slots

import "time"

// Request модель запроса на генерацию слотов
type Request struct {
	WorkerID            int64
	BusinessProfileID   int64
	From                time.Time // UTC, включительно
	To                  time.Time // UTC, не включительно
	SlotDurationMinutes *int      // nil - из настроек работника
}

// Response итог генерации
type Response struct {
	WorkerID            int64     `json:"workerId"`
	From                time.Time `json:"from"`
	To                  time.Time `json:"to"`
	SlotDurationMinutes int       `json:"slotDurationMinutes"`
	Inserted            int       `json:"inserted"`
	Deleted             int       `json:"deleted"`
	Kept                int       `json:"kept"`
}
