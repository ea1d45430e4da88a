package domain

// Default configuration values
const (
	DefaultSlotDurationMinutes     = 0 // 0 = один слот на непрерывный рабочий интервал
	DefaultHorizonDays             = 28
	DefaultMinBookingNoticeMinutes = 0
)

// Business validation constants
const (
	MinSlotDurationMinutes      = 5
	MaxSlotDurationMinutes      = 480 // 8 hours
	MaxHorizonDays              = 180
	MaxBookingNoticeMinutes     = 10080 // 1 week
	MaxGenerationRangeDays      = 366
	MaxTitleLength              = 200
	MaxReasonLength             = 500
	MaxNotesLength              = 1000
	MaxCancellationReasonLength = 500
	MaxPageSize                 = 100
	DefaultPageSize             = 20
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
