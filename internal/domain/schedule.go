package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// BreakRule именованный перерыв внутри рабочего дня (локальное время работника)
type BreakRule struct {
	ID        uuid.UUID
	Name      string
	StartTime types.TimeString
	EndTime   types.TimeString
}

// ScheduleRuleItem шаблон одного дня недели
type ScheduleRuleItem struct {
	ID           uuid.UUID
	DayOfWeek    time.Weekday
	StartTime    types.TimeString
	EndTime      types.TimeString
	IsWorkingDay bool
	Breaks       []BreakRule
}

// ScheduleOverride исключение на конкретную дату, полностью заменяет правило дня недели
type ScheduleOverride struct {
	ID           uuid.UUID
	OverrideDate time.Time // полночь UTC, значима только календарная дата
	Reason       string
	IsWorkingDay bool
	StartTime    *types.TimeString
	EndTime      *types.TimeString
}

// BreakInput данные перерыва при создании правила
type BreakInput struct {
	Name      string
	StartTime types.TimeString
	EndTime   types.TimeString
}

// RuleItemInput данные правила дня недели
type RuleItemInput struct {
	DayOfWeek    time.Weekday
	StartTime    types.TimeString
	EndTime      types.TimeString
	IsWorkingDay bool
	Breaks       []BreakInput
}

// OverrideInput данные исключения
type OverrideInput struct {
	Date         time.Time
	Reason       string
	IsWorkingDay bool
	StartTime    *types.TimeString
	EndTime      *types.TimeString
}

// ScheduleDetails редактируемые атрибуты корня агрегата
type ScheduleDetails struct {
	Title              string
	IsDefault          bool
	EffectiveStartDate time.Time
	EffectiveEndDate   *time.Time
	TimeZoneID         string
}

// ScheduleData плоское представление агрегата для хранилища
type ScheduleData struct {
	ID                 int64
	WorkerID           int64
	BusinessProfileID  int64
	Title              string
	IsDefault          bool
	EffectiveStartDate time.Time
	EffectiveEndDate   *time.Time
	TimeZoneID         string
	RuleItems          []ScheduleRuleItem
	Overrides          []ScheduleOverride
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Schedule корень агрегата расписания работника.
// Правила, перерывы и исключения меняются только через методы Schedule,
// каждый метод перепроверяет инварианты соседних элементов.
type Schedule struct {
	id                 int64
	workerID           int64
	businessProfileID  int64
	title              string
	isDefault          bool
	effectiveStartDate time.Time
	effectiveEndDate   *time.Time
	timeZoneID         string
	location           *time.Location

	ruleItems map[time.Weekday]*ScheduleRuleItem
	overrides map[string]*ScheduleOverride

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewSchedule создает новое расписание без правил
func NewSchedule(workerID, businessProfileID int64, details ScheduleDetails) (*Schedule, error) {
	if workerID <= 0 {
		return nil, fmt.Errorf("%w: workerId must be positive", ErrValidation)
	}
	if businessProfileID <= 0 {
		return nil, fmt.Errorf("%w: businessProfileId must be positive", ErrValidation)
	}

	s := &Schedule{
		workerID:          workerID,
		businessProfileID: businessProfileID,
		ruleItems:         make(map[time.Weekday]*ScheduleRuleItem),
		overrides:         make(map[string]*ScheduleOverride),
	}
	if err := s.UpdateDetails(details); err != nil {
		return nil, err
	}
	return s, nil
}

// RestoreSchedule собирает агрегат из хранилища, прогоняя данные через те же проверки
func RestoreSchedule(data ScheduleData) (*Schedule, error) {
	s, err := NewSchedule(data.WorkerID, data.BusinessProfileID, ScheduleDetails{
		Title:              data.Title,
		IsDefault:          data.IsDefault,
		EffectiveStartDate: data.EffectiveStartDate,
		EffectiveEndDate:   data.EffectiveEndDate,
		TimeZoneID:         data.TimeZoneID,
	})
	if err != nil {
		return nil, err
	}

	s.id = data.ID
	s.version = data.Version
	s.createdAt = data.CreatedAt
	s.updatedAt = data.UpdatedAt

	for _, item := range data.RuleItems {
		restored, err := buildRuleItem(item.ID, RuleItemInput{
			DayOfWeek:    item.DayOfWeek,
			StartTime:    item.StartTime,
			EndTime:      item.EndTime,
			IsWorkingDay: item.IsWorkingDay,
		})
		if err != nil {
			return nil, err
		}
		if _, exists := s.ruleItems[item.DayOfWeek]; exists {
			return nil, ErrDuplicateRuleItem
		}
		for _, br := range item.Breaks {
			if err := restored.addBreak(br); err != nil {
				return nil, err
			}
		}
		s.ruleItems[item.DayOfWeek] = restored
	}

	for _, o := range data.Overrides {
		restored, err := buildOverride(o.ID, OverrideInput{
			Date:         o.OverrideDate,
			Reason:       o.Reason,
			IsWorkingDay: o.IsWorkingDay,
			StartTime:    o.StartTime,
			EndTime:      o.EndTime,
		})
		if err != nil {
			return nil, err
		}
		key := dateKey(restored.OverrideDate)
		if _, exists := s.overrides[key]; exists {
			return nil, ErrDuplicateOverride
		}
		s.overrides[key] = restored
	}

	return s, nil
}

func (s *Schedule) ID() int64                     { return s.id }
func (s *Schedule) WorkerID() int64               { return s.workerID }
func (s *Schedule) BusinessProfileID() int64      { return s.businessProfileID }
func (s *Schedule) Title() string                 { return s.title }
func (s *Schedule) IsDefault() bool               { return s.isDefault }
func (s *Schedule) EffectiveStartDate() time.Time { return s.effectiveStartDate }
func (s *Schedule) TimeZoneID() string            { return s.timeZoneID }
func (s *Schedule) Location() *time.Location      { return s.location }
func (s *Schedule) Version() int64                { return s.version }
func (s *Schedule) CreatedAt() time.Time          { return s.createdAt }
func (s *Schedule) UpdatedAt() time.Time          { return s.updatedAt }

// EffectiveEndDate nil означает бессрочное расписание
func (s *Schedule) EffectiveEndDate() *time.Time {
	if s.effectiveEndDate == nil {
		return nil
	}
	d := *s.effectiveEndDate
	return &d
}

// MarkPersisted проставляет идентификатор и версию после записи в хранилище
func (s *Schedule) MarkPersisted(id, version int64, createdAt, updatedAt time.Time) {
	s.id = id
	s.version = version
	s.createdAt = createdAt
	s.updatedAt = updatedAt
}

// CoversDate дата внутри [effectiveStartDate, effectiveEndDate]
func (s *Schedule) CoversDate(date time.Time) bool {
	d := types.DateOnly(date)
	if d.Before(s.effectiveStartDate) {
		return false
	}
	if s.effectiveEndDate != nil && d.After(*s.effectiveEndDate) {
		return false
	}
	return true
}

// RuleItemFor правило для дня недели (копия)
func (s *Schedule) RuleItemFor(day time.Weekday) (ScheduleRuleItem, bool) {
	item, ok := s.ruleItems[day]
	if !ok {
		return ScheduleRuleItem{}, false
	}
	return item.clone(), true
}

// OverrideFor исключение на дату (копия)
func (s *Schedule) OverrideFor(date time.Time) (ScheduleOverride, bool) {
	o, ok := s.overrides[dateKey(date)]
	if !ok {
		return ScheduleOverride{}, false
	}
	return o.clone(), true
}

// RuleItems правила, отсортированные по дню недели
func (s *Schedule) RuleItems() []ScheduleRuleItem {
	items := make([]ScheduleRuleItem, 0, len(s.ruleItems))
	for _, item := range s.ruleItems {
		items = append(items, item.clone())
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DayOfWeek < items[j].DayOfWeek })
	return items
}

// Overrides исключения, отсортированные по дате
func (s *Schedule) Overrides() []ScheduleOverride {
	overrides := make([]ScheduleOverride, 0, len(s.overrides))
	for _, o := range s.overrides {
		overrides = append(overrides, o.clone())
	}
	sort.Slice(overrides, func(i, j int) bool { return overrides[i].OverrideDate.Before(overrides[j].OverrideDate) })
	return overrides
}

// Snapshot плоская копия агрегата для записи в хранилище
func (s *Schedule) Snapshot() ScheduleData {
	return ScheduleData{
		ID:                 s.id,
		WorkerID:           s.workerID,
		BusinessProfileID:  s.businessProfileID,
		Title:              s.title,
		IsDefault:          s.isDefault,
		EffectiveStartDate: s.effectiveStartDate,
		EffectiveEndDate:   s.EffectiveEndDate(),
		TimeZoneID:         s.timeZoneID,
		RuleItems:          s.RuleItems(),
		Overrides:          s.Overrides(),
		Version:            s.version,
		CreatedAt:          s.createdAt,
		UpdatedAt:          s.updatedAt,
	}
}

// UpdateDetails меняет заголовок, флаг по умолчанию, период действия и часовой пояс
func (s *Schedule) UpdateDetails(details ScheduleDetails) error {
	title := strings.TrimSpace(details.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len(title) > MaxTitleLength {
		return fmt.Errorf("%w: title must be at most %d characters", ErrValidation, MaxTitleLength)
	}
	if details.EffectiveStartDate.IsZero() {
		return fmt.Errorf("%w: effectiveStartDate is required", ErrValidation)
	}

	start := types.DateOnly(details.EffectiveStartDate)
	var end *time.Time
	if details.EffectiveEndDate != nil {
		e := types.DateOnly(*details.EffectiveEndDate)
		if e.Before(start) {
			return ErrInvalidEffectiveRange
		}
		end = &e
	}

	if strings.TrimSpace(details.TimeZoneID) == "" {
		return fmt.Errorf("%w: timeZoneId is required", ErrInvalidTimeZone)
	}
	loc, err := time.LoadLocation(details.TimeZoneID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimeZone, details.TimeZoneID)
	}

	s.title = title
	s.isDefault = details.IsDefault
	s.effectiveStartDate = start
	s.effectiveEndDate = end
	s.timeZoneID = details.TimeZoneID
	s.location = loc
	return nil
}

// AddRuleItem добавляет правило дня недели, на день допускается одно правило
func (s *Schedule) AddRuleItem(input RuleItemInput) (ScheduleRuleItem, error) {
	if input.DayOfWeek < time.Sunday || input.DayOfWeek > time.Saturday {
		return ScheduleRuleItem{}, ErrInvalidDayOfWeek
	}
	if _, exists := s.ruleItems[input.DayOfWeek]; exists {
		return ScheduleRuleItem{}, ErrDuplicateRuleItem
	}

	item, err := buildRuleItem(uuid.New(), input)
	if err != nil {
		return ScheduleRuleItem{}, err
	}
	for _, b := range input.Breaks {
		if err := item.addBreak(BreakRule{ID: uuid.New(), Name: b.Name, StartTime: b.StartTime, EndTime: b.EndTime}); err != nil {
			return ScheduleRuleItem{}, err
		}
	}

	s.ruleItems[input.DayOfWeek] = item
	return item.clone(), nil
}

// UpdateRuleItem меняет часы и флаг рабочего дня, существующие перерывы должны остаться внутри новых часов
func (s *Schedule) UpdateRuleItem(day time.Weekday, startTime, endTime types.TimeString, isWorkingDay bool) (ScheduleRuleItem, error) {
	current, ok := s.ruleItems[day]
	if !ok {
		return ScheduleRuleItem{}, ErrRuleItemNotFound
	}

	updated, err := buildRuleItem(current.ID, RuleItemInput{
		DayOfWeek:    day,
		StartTime:    startTime,
		EndTime:      endTime,
		IsWorkingDay: isWorkingDay,
	})
	if err != nil {
		return ScheduleRuleItem{}, err
	}
	for _, b := range current.Breaks {
		if err := updated.addBreak(b); err != nil {
			return ScheduleRuleItem{}, err
		}
	}

	s.ruleItems[day] = updated
	return updated.clone(), nil
}

// RemoveRuleItem удаляет правило дня недели вместе с перерывами
func (s *Schedule) RemoveRuleItem(day time.Weekday) error {
	if _, ok := s.ruleItems[day]; !ok {
		return ErrRuleItemNotFound
	}
	delete(s.ruleItems, day)
	return nil
}

// AddBreak добавляет перерыв в правило дня недели
func (s *Schedule) AddBreak(day time.Weekday, input BreakInput) (BreakRule, error) {
	item, ok := s.ruleItems[day]
	if !ok {
		return BreakRule{}, ErrRuleItemNotFound
	}
	if !item.IsWorkingDay {
		return BreakRule{}, ErrBreakOnDayOff
	}

	br := BreakRule{ID: uuid.New(), Name: strings.TrimSpace(input.Name), StartTime: input.StartTime, EndTime: input.EndTime}
	if err := item.addBreak(br); err != nil {
		return BreakRule{}, err
	}
	return br, nil
}

// UpdateBreak меняет перерыв, проверяя пересечения с остальными перерывами того же дня
func (s *Schedule) UpdateBreak(day time.Weekday, breakID uuid.UUID, input BreakInput) (BreakRule, error) {
	item, ok := s.ruleItems[day]
	if !ok {
		return BreakRule{}, ErrRuleItemNotFound
	}
	idx := item.breakIndex(breakID)
	if idx < 0 {
		return BreakRule{}, ErrBreakNotFound
	}

	updated := BreakRule{ID: breakID, Name: strings.TrimSpace(input.Name), StartTime: input.StartTime, EndTime: input.EndTime}
	if err := item.validateBreak(updated, breakID); err != nil {
		return BreakRule{}, err
	}

	item.Breaks[idx] = updated
	item.sortBreaks()
	return updated, nil
}

// RemoveBreak удаляет перерыв
func (s *Schedule) RemoveBreak(day time.Weekday, breakID uuid.UUID) error {
	item, ok := s.ruleItems[day]
	if !ok {
		return ErrRuleItemNotFound
	}
	idx := item.breakIndex(breakID)
	if idx < 0 {
		return ErrBreakNotFound
	}
	item.Breaks = append(item.Breaks[:idx], item.Breaks[idx+1:]...)
	return nil
}

// AddOverride добавляет исключение на дату, на дату допускается одно исключение
func (s *Schedule) AddOverride(input OverrideInput) (ScheduleOverride, error) {
	o, err := buildOverride(uuid.New(), input)
	if err != nil {
		return ScheduleOverride{}, err
	}

	key := dateKey(o.OverrideDate)
	if _, exists := s.overrides[key]; exists {
		return ScheduleOverride{}, ErrDuplicateOverride
	}

	s.overrides[key] = o
	return o.clone(), nil
}

// RemoveOverride удаляет исключение на дату
func (s *Schedule) RemoveOverride(date time.Time) error {
	key := dateKey(date)
	if _, ok := s.overrides[key]; !ok {
		return ErrOverrideNotFound
	}
	delete(s.overrides, key)
	return nil
}

func buildRuleItem(id uuid.UUID, input RuleItemInput) (*ScheduleRuleItem, error) {
	if input.DayOfWeek < time.Sunday || input.DayOfWeek > time.Saturday {
		return nil, ErrInvalidDayOfWeek
	}

	item := &ScheduleRuleItem{
		ID:           id,
		DayOfWeek:    input.DayOfWeek,
		IsWorkingDay: input.IsWorkingDay,
		Breaks:       make([]BreakRule, 0),
	}

	if !input.IsWorkingDay {
		if len(input.Breaks) > 0 {
			return nil, ErrBreaksOnDayOff
		}
		// часы выходного дня не используются, но сохраняются, если переданы корректно
		if !input.StartTime.IsZero() && !input.EndTime.IsZero() {
			if err := validateClockRange(input.StartTime, input.EndTime); err == nil {
				item.StartTime = input.StartTime
				item.EndTime = input.EndTime
			}
		}
		return item, nil
	}

	if err := validateClockRange(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}
	item.StartTime = input.StartTime
	item.EndTime = input.EndTime
	return item, nil
}

func buildOverride(id uuid.UUID, input OverrideInput) (*ScheduleOverride, error) {
	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: overrideDate is required", ErrValidation)
	}
	reason := strings.TrimSpace(input.Reason)
	if len(reason) > MaxReasonLength {
		return nil, fmt.Errorf("%w: reason must be at most %d characters", ErrValidation, MaxReasonLength)
	}

	o := &ScheduleOverride{
		ID:           id,
		OverrideDate: types.DateOnly(input.Date),
		Reason:       reason,
		IsWorkingDay: input.IsWorkingDay,
	}

	if !input.IsWorkingDay {
		return o, nil
	}

	if input.StartTime == nil || input.EndTime == nil || input.StartTime.IsZero() || input.EndTime.IsZero() {
		return nil, ErrOverrideTimesRequired
	}
	if err := validateClockRange(*input.StartTime, *input.EndTime); err != nil {
		return nil, err
	}
	start, end := *input.StartTime, *input.EndTime
	o.StartTime = &start
	o.EndTime = &end
	return o, nil
}

func validateClockRange(start, end types.TimeString) error {
	if err := start.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := end.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !start.IsBefore(end) {
		return ErrInvalidTimeRange
	}
	return nil
}

func (i *ScheduleRuleItem) addBreak(br BreakRule) error {
	if err := i.validateBreak(br, uuid.Nil); err != nil {
		return err
	}
	i.Breaks = append(i.Breaks, br)
	i.sortBreaks()
	return nil
}

// validateBreak проверяет границы перерыва и пересечения с соседями, кроме перерыва exclude
func (i *ScheduleRuleItem) validateBreak(br BreakRule, exclude uuid.UUID) error {
	if !i.IsWorkingDay {
		return ErrBreaksOnDayOff
	}
	if err := validateClockRange(br.StartTime, br.EndTime); err != nil {
		return err
	}
	if br.StartTime.IsBefore(i.StartTime) || br.EndTime.IsAfter(i.EndTime) {
		return ErrBreakOutsideRuleItem
	}
	for _, other := range i.Breaks {
		if other.ID == exclude {
			continue
		}
		if br.StartTime.IsBefore(other.EndTime) && br.EndTime.IsAfter(other.StartTime) {
			return ErrBreakOverlap
		}
	}
	return nil
}

func (i *ScheduleRuleItem) breakIndex(id uuid.UUID) int {
	for idx, b := range i.Breaks {
		if b.ID == id {
			return idx
		}
	}
	return -1
}

func (i *ScheduleRuleItem) sortBreaks() {
	sort.Slice(i.Breaks, func(a, b int) bool { return i.Breaks[a].StartTime.IsBefore(i.Breaks[b].StartTime) })
}

func (i *ScheduleRuleItem) clone() ScheduleRuleItem {
	c := *i
	c.Breaks = append(make([]BreakRule, 0, len(i.Breaks)), i.Breaks...)
	return c
}

func (o *ScheduleOverride) clone() ScheduleOverride {
	c := *o
	if o.StartTime != nil {
		st := *o.StartTime
		c.StartTime = &st
	}
	if o.EndTime != nil {
		et := *o.EndTime
		c.EndTime = &et
	}
	return c
}

func dateKey(date time.Time) string {
	return date.Format(DateFormat)
}

// WorkerRef работник в рамках бизнеса
type WorkerRef struct {
	WorkerID          int64
	BusinessProfileID int64
}
