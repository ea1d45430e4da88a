package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Request модели

// CreateScheduleRequest запрос на создание расписания вместе с правилами и исключениями
type CreateScheduleRequest struct {
	WorkerID          int64
	BusinessProfileID int64
	Details           domain.ScheduleDetails
	RuleItems         []domain.RuleItemInput
	Overrides         []domain.OverrideInput
}

// SetRuleItemRequest запрос на установку правила дня недели
// Breaks == nil - перерывы существующего правила сохраняются
type SetRuleItemRequest struct {
	DayOfWeek    time.Weekday
	StartTime    types.TimeString
	EndTime      types.TimeString
	IsWorkingDay bool
	Breaks       []domain.BreakInput
}

// Response модели

// BreakResponse перерыв
type BreakResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// RuleItemResponse правило дня недели
type RuleItemResponse struct {
	ID           string          `json:"id"`
	DayOfWeek    int             `json:"dayOfWeek"` // 0 - воскресенье
	StartTime    string          `json:"startTime,omitempty"`
	EndTime      string          `json:"endTime,omitempty"`
	IsWorkingDay bool            `json:"isWorkingDay"`
	Breaks       []BreakResponse `json:"breaks"`
}

// OverrideResponse исключение на дату
type OverrideResponse struct {
	ID           string  `json:"id"`
	OverrideDate string  `json:"overrideDate"`
	Reason       string  `json:"reason,omitempty"`
	IsWorkingDay bool    `json:"isWorkingDay"`
	StartTime    *string `json:"startTime,omitempty"`
	EndTime      *string `json:"endTime,omitempty"`
}

// ScheduleResponse расписание целиком
type ScheduleResponse struct {
	ID                 int64              `json:"id"`
	WorkerID           int64              `json:"workerId"`
	BusinessProfileID  int64              `json:"businessProfileId"`
	Title              string             `json:"title"`
	IsDefault          bool               `json:"isDefault"`
	EffectiveStartDate string             `json:"effectiveStartDate"`
	EffectiveEndDate   *string            `json:"effectiveEndDate,omitempty"`
	TimeZoneID         string             `json:"timeZoneId"`
	RuleItems          []RuleItemResponse `json:"ruleItems"`
	Overrides          []OverrideResponse `json:"overrides"`
	Version            int64              `json:"version"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// ScheduleListResponse список расписаний
type ScheduleListResponse struct {
	Schedules []ScheduleResponse `json:"schedules"`
}

// IntervalResponse рабочий интервал
type IntervalResponse struct {
	Date         string    `json:"date"`
	StartTime    string    `json:"startTime"`
	EndTime      string    `json:"endTime"`
	StartUTC     time.Time `json:"startUtc"`
	EndUTC       time.Time `json:"endUtc"`
	FromOverride bool      `json:"fromOverride"`
}

// AvailabilityResponse рабочие интервалы расписания за период
type AvailabilityResponse struct {
	ScheduleID int64              `json:"scheduleId"`
	TimeZoneID string             `json:"timeZoneId"`
	From       string             `json:"from"`
	To         string             `json:"to"`
	Intervals  []IntervalResponse `json:"intervals"`
}

// Методы конвертации

// FromDomainBreak конвертирует перерыв в DTO
func FromDomainBreak(b domain.BreakRule) BreakResponse {
	return BreakResponse{
		ID:        b.ID.String(),
		Name:      b.Name,
		StartTime: b.StartTime.String(),
		EndTime:   b.EndTime.String(),
	}
}

// FromDomainRuleItem конвертирует правило в DTO
func FromDomainRuleItem(item domain.ScheduleRuleItem) RuleItemResponse {
	resp := RuleItemResponse{
		ID:           item.ID.String(),
		DayOfWeek:    int(item.DayOfWeek),
		StartTime:    item.StartTime.String(),
		EndTime:      item.EndTime.String(),
		IsWorkingDay: item.IsWorkingDay,
		Breaks:       make([]BreakResponse, 0, len(item.Breaks)),
	}
	for _, b := range item.Breaks {
		resp.Breaks = append(resp.Breaks, FromDomainBreak(b))
	}
	return resp
}

// FromDomainOverride конвертирует исключение в DTO
func FromDomainOverride(o domain.ScheduleOverride) OverrideResponse {
	resp := OverrideResponse{
		ID:           o.ID.String(),
		OverrideDate: o.OverrideDate.Format(domain.DateFormat),
		Reason:       o.Reason,
		IsWorkingDay: o.IsWorkingDay,
	}
	if o.StartTime != nil {
		st := o.StartTime.String()
		resp.StartTime = &st
	}
	if o.EndTime != nil {
		et := o.EndTime.String()
		resp.EndTime = &et
	}
	return resp
}

// FromDomainSchedule конвертирует агрегат в DTO
func FromDomainSchedule(s *domain.Schedule) *ScheduleResponse {
	if s == nil {
		return nil
	}

	resp := &ScheduleResponse{
		ID:                 s.ID(),
		WorkerID:           s.WorkerID(),
		BusinessProfileID:  s.BusinessProfileID(),
		Title:              s.Title(),
		IsDefault:          s.IsDefault(),
		EffectiveStartDate: s.EffectiveStartDate().Format(domain.DateFormat),
		TimeZoneID:         s.TimeZoneID(),
		RuleItems:          make([]RuleItemResponse, 0),
		Overrides:          make([]OverrideResponse, 0),
		Version:            s.Version(),
		CreatedAt:          s.CreatedAt(),
		UpdatedAt:          s.UpdatedAt(),
	}
	if end := s.EffectiveEndDate(); end != nil {
		e := end.Format(domain.DateFormat)
		resp.EffectiveEndDate = &e
	}
	for _, item := range s.RuleItems() {
		resp.RuleItems = append(resp.RuleItems, FromDomainRuleItem(item))
	}
	for _, o := range s.Overrides() {
		resp.Overrides = append(resp.Overrides, FromDomainOverride(o))
	}
	return resp
}

// FromDomainScheduleList конвертирует список расписаний в DTO
func FromDomainScheduleList(list []*domain.Schedule) *ScheduleListResponse {
	resp := &ScheduleListResponse{Schedules: make([]ScheduleResponse, 0, len(list))}
	for _, s := range list {
		resp.Schedules = append(resp.Schedules, *FromDomainSchedule(s))
	}
	return resp
}

// FromWorkingInterval конвертирует рабочий интервал в DTO
func FromWorkingInterval(wi availability.WorkingInterval, utc domain.TimeRange) IntervalResponse {
	return IntervalResponse{
		Date:         wi.Date.Format(domain.DateFormat),
		StartTime:    wi.StartTime.String(),
		EndTime:      wi.EndTime.String(),
		StartUTC:     utc.Start,
		EndUTC:       utc.End,
		FromOverride: wi.FromOverride,
	}
}
