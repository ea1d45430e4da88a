package schedules

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedules/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// BreakBody перерыв, время "HH:MM"
type BreakBody struct {
	Name      string `json:"name" validate:"max=100"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// RuleItemBody правило дня недели, dayOfWeek 0 - воскресенье
type RuleItemBody struct {
	DayOfWeek    int         `json:"dayOfWeek" validate:"min=0,max=6"`
	StartTime    string      `json:"startTime"`
	EndTime      string      `json:"endTime"`
	IsWorkingDay bool        `json:"isWorkingDay"`
	Breaks       []BreakBody `json:"breaks,omitempty" validate:"dive"`
}

// OverrideBody исключение на дату YYYY-MM-DD
type OverrideBody struct {
	Date         string  `json:"date" validate:"required"`
	Reason       string  `json:"reason" validate:"max=500"`
	IsWorkingDay bool    `json:"isWorkingDay"`
	StartTime    *string `json:"startTime,omitempty"`
	EndTime      *string `json:"endTime,omitempty"`
}

// DetailsBody атрибуты расписания
type DetailsBody struct {
	Title              string  `json:"title" validate:"required,max=200"`
	IsDefault          bool    `json:"isDefault"`
	EffectiveStartDate string  `json:"effectiveStartDate" validate:"required"`
	EffectiveEndDate   *string `json:"effectiveEndDate,omitempty"`
	TimeZoneID         string  `json:"timeZoneId" validate:"required"`
}

// CreateScheduleBody создание расписания вместе с правилами и исключениями
type CreateScheduleBody struct {
	WorkerID  int64          `json:"workerId" validate:"required,gt=0"`
	Details   DetailsBody    `json:"details"`
	RuleItems []RuleItemBody `json:"ruleItems" validate:"dive"`
	Overrides []OverrideBody `json:"overrides" validate:"dive"`
}

// SetRuleItemBody установка правила дня из пути
// breaks == null сохраняет перерывы существующего правила
type SetRuleItemBody struct {
	StartTime    string       `json:"startTime"`
	EndTime      string       `json:"endTime"`
	IsWorkingDay bool         `json:"isWorkingDay"`
	Breaks       *[]BreakBody `json:"breaks,omitempty"`
}

func (b DetailsBody) toDomain() (domain.ScheduleDetails, error) {
	start, err := handlers.ParseDate(b.EffectiveStartDate)
	if err != nil {
		return domain.ScheduleDetails{}, err
	}
	details := domain.ScheduleDetails{
		Title:              b.Title,
		IsDefault:          b.IsDefault,
		EffectiveStartDate: start,
		TimeZoneID:         b.TimeZoneID,
	}
	if b.EffectiveEndDate != nil {
		end, err := handlers.ParseDate(*b.EffectiveEndDate)
		if err != nil {
			return domain.ScheduleDetails{}, err
		}
		details.EffectiveEndDate = &end
	}
	return details, nil
}

func (b BreakBody) toDomain() (domain.BreakInput, error) {
	start, err := parseClock(b.StartTime)
	if err != nil {
		return domain.BreakInput{}, err
	}
	end, err := parseClock(b.EndTime)
	if err != nil {
		return domain.BreakInput{}, err
	}
	return domain.BreakInput{Name: b.Name, StartTime: start, EndTime: end}, nil
}

func breaksToDomain(items []BreakBody) ([]domain.BreakInput, error) {
	out := make([]domain.BreakInput, 0, len(items))
	for _, b := range items {
		in, err := b.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func (b RuleItemBody) toDomain() (domain.RuleItemInput, error) {
	start, end, err := parseClockRange(b.StartTime, b.EndTime, b.IsWorkingDay)
	if err != nil {
		return domain.RuleItemInput{}, err
	}
	breaks, err := breaksToDomain(b.Breaks)
	if err != nil {
		return domain.RuleItemInput{}, err
	}
	return domain.RuleItemInput{
		DayOfWeek:    time.Weekday(b.DayOfWeek),
		StartTime:    start,
		EndTime:      end,
		IsWorkingDay: b.IsWorkingDay,
		Breaks:       breaks,
	}, nil
}

func (b OverrideBody) toDomain() (domain.OverrideInput, error) {
	date, err := handlers.ParseDate(b.Date)
	if err != nil {
		return domain.OverrideInput{}, err
	}
	in := domain.OverrideInput{Date: date, Reason: b.Reason, IsWorkingDay: b.IsWorkingDay}
	if b.StartTime != nil {
		st, err := parseClock(*b.StartTime)
		if err != nil {
			return domain.OverrideInput{}, err
		}
		in.StartTime = &st
	}
	if b.EndTime != nil {
		et, err := parseClock(*b.EndTime)
		if err != nil {
			return domain.OverrideInput{}, err
		}
		in.EndTime = &et
	}
	return in, nil
}

// ToServiceRequest конвертирует тело в запрос сервиса
func (b *CreateScheduleBody) ToServiceRequest(businessID int64) (*models.CreateScheduleRequest, error) {
	details, err := b.Details.toDomain()
	if err != nil {
		return nil, err
	}
	req := &models.CreateScheduleRequest{
		WorkerID:          b.WorkerID,
		BusinessProfileID: businessID,
		Details:           details,
		RuleItems:         make([]domain.RuleItemInput, 0, len(b.RuleItems)),
		Overrides:         make([]domain.OverrideInput, 0, len(b.Overrides)),
	}
	for _, item := range b.RuleItems {
		in, err := item.toDomain()
		if err != nil {
			return nil, err
		}
		req.RuleItems = append(req.RuleItems, in)
	}
	for _, o := range b.Overrides {
		in, err := o.toDomain()
		if err != nil {
			return nil, err
		}
		req.Overrides = append(req.Overrides, in)
	}
	return req, nil
}

// ToServiceRequest конвертирует тело в запрос сервиса
func (b *SetRuleItemBody) ToServiceRequest(day time.Weekday) (*models.SetRuleItemRequest, error) {
	start, end, err := parseClockRange(b.StartTime, b.EndTime, b.IsWorkingDay)
	if err != nil {
		return nil, err
	}
	req := &models.SetRuleItemRequest{
		DayOfWeek:    day,
		StartTime:    start,
		EndTime:      end,
		IsWorkingDay: b.IsWorkingDay,
	}
	if b.Breaks != nil {
		if req.Breaks, err = breaksToDomain(*b.Breaks); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// parseClockRange время нерабочего дня можно не передавать
func parseClockRange(startRaw, endRaw string, isWorkingDay bool) (types.TimeString, types.TimeString, error) {
	if !isWorkingDay && startRaw == "" && endRaw == "" {
		return "", "", nil
	}
	start, err := parseClock(startRaw)
	if err != nil {
		return "", "", err
	}
	end, err := parseClock(endRaw)
	if err != nil {
		return "", "", err
	}
	return start, end, nil
}

func parseClock(raw string) (types.TimeString, error) {
	t, err := types.NewTimeStringFromString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: time %q must be HH:MM", domain.ErrValidation, raw)
	}
	return t, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// PathWeekday день недели из пути: 0-6 (0 - воскресенье) или имя на английском
func PathWeekday(r *http.Request) (time.Weekday, error) {
	raw := strings.ToLower(handlers.PathString(r, "day"))
	if d, ok := weekdays[raw]; ok {
		return d, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > 6 {
		return 0, fmt.Errorf("%w: day must be 0-6 or a weekday name", domain.ErrValidation)
	}
	return time.Weekday(n), nil
}
