package types

import "time"

// DateLayout формат календарной даты
const DateLayout = "2006-01-02"

// ParseDate парсит "YYYY-MM-DD" в полночь UTC
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DateOnly отбрасывает время, сохраняя календарную дату (результат в UTC)
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate сравнивает календарные даты
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
