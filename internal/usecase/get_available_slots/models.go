package get_available_slots

import "time"

// Request модель запроса на получение доступных слотов работника
type Request struct {
	BusinessProfileID int64     // ID бизнеса
	WorkerID          int64     // ID работника
	ServiceID         *int64    // Если задан, проверяется, что работник оказывает услугу
	From              time.Time // Начало периода (UTC), включительно
	To                time.Time // Конец периода (UTC), не включительно
}

// Response модель ответа со списком доступных слотов
type Response struct {
	BusinessProfileID int64     `json:"businessProfileId"`
	WorkerID          int64     `json:"workerId"`
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	Slots             []Slot    `json:"slots"`
}

// Slot свободный слот, который можно забронировать
type Slot struct {
	ID              int64     `json:"id"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes int       `json:"durationMinutes"`
}
