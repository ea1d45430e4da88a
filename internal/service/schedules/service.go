package schedules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/internal/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedules/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Service сервис редактирования расписаний работников.
// Каждое изменение: одна транзакция, загрузка агрегата с блокировкой строки,
// метод агрегата, запись целиком с проверкой версии.
type Service struct {
	scheduleRepo ScheduleRepository
	slotRepo     SlotRepository
	workerRepo   WorkerRepository
	regenerator  SlotRegenerator // nil - слоты перегенерирует только cron
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(
	scheduleRepo ScheduleRepository,
	slotRepo SlotRepository,
	workerRepo WorkerRepository,
	regenerator SlotRegenerator,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		slotRepo:     slotRepo,
		workerRepo:   workerRepo,
		regenerator:  regenerator,
		txManager:    txManager,
		timeProvider: realTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// Create создает расписание вместе с правилами и исключениями
func (s *Service) Create(ctx context.Context, req *models.CreateScheduleRequest) (*models.ScheduleResponse, error) {
	s.logger.Info("Create: creating schedule for worker=%d, business=%d", req.WorkerID, req.BusinessProfileID)

	// 1. Собираем агрегат, все инварианты проверяются методами Schedule
	schedule, err := domain.NewSchedule(req.WorkerID, req.BusinessProfileID, req.Details)
	if err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}
	for _, item := range req.RuleItems {
		if _, err := schedule.AddRuleItem(item); err != nil {
			s.logger.Warn("Create: invalid rule item for day=%d: %v", item.DayOfWeek, err)
			return nil, err
		}
	}
	for _, o := range req.Overrides {
		if _, err := schedule.AddOverride(o); err != nil {
			s.logger.Warn("Create: invalid override: %v", err)
			return nil, err
		}
	}

	// 2. Работник должен принадлежать бизнесу
	belongs, err := s.workerRepo.BelongsToBusiness(ctx, req.WorkerID, req.BusinessProfileID)
	if err != nil {
		s.logger.Error("Create: failed to check worker=%d: %v", req.WorkerID, err)
		return nil, fmt.Errorf("%w: Create - check worker: %v", ErrInternal, err)
	}
	if !belongs {
		s.logger.Warn("Create: worker=%d does not belong to business=%d", req.WorkerID, req.BusinessProfileID)
		return nil, domain.ErrWorkerNotFound
	}

	// 3. Сохраняем
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		if schedule.IsDefault() {
			if err := s.scheduleRepo.ClearDefaultForWorker(txCtx, req.WorkerID, req.BusinessProfileID, 0); err != nil {
				return fmt.Errorf("%w: Create - clear default: %v", ErrInternal, err)
			}
		}
		if _, err := s.scheduleRepo.Create(txCtx, schedule); err != nil {
			return fmt.Errorf("%w: Create - repository error: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Create: %v", err)
		return nil, err
	}

	s.logger.Info("Create: created schedule id=%d", schedule.ID())
	s.regenerate(ctx, "Create", schedule.WorkerID(), schedule.BusinessProfileID())
	return models.FromDomainSchedule(schedule), nil
}

// Get возвращает расписание бизнеса
func (s *Service) Get(ctx context.Context, id, businessProfileID int64) (*models.ScheduleResponse, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, id, businessProfileID)
	if err != nil {
		return nil, s.repoError("Get", err)
	}
	return models.FromDomainSchedule(schedule), nil
}

// ListByWorker все расписания работника
func (s *Service) ListByWorker(ctx context.Context, workerID, businessProfileID int64) (*models.ScheduleListResponse, error) {
	list, err := s.scheduleRepo.ListByWorker(ctx, workerID, businessProfileID)
	if err != nil {
		return nil, s.repoError("ListByWorker", err)
	}
	return models.FromDomainScheduleList(list), nil
}

// UpdateDetails меняет заголовок, период действия, часовой пояс и флаг основного расписания
func (s *Service) UpdateDetails(ctx context.Context, id, businessProfileID int64, details domain.ScheduleDetails) (*models.ScheduleResponse, error) {
	schedule, err := s.mutate(ctx, "UpdateDetails", id, businessProfileID, func(sch *domain.Schedule) error {
		return sch.UpdateDetails(details)
	})
	if err != nil {
		return nil, err
	}
	return models.FromDomainSchedule(schedule), nil
}

// Delete удаляет расписание.
// Будущие свободные слоты расписания удаляются. У оставшихся (забронированных и прошедших)
// ссылка на расписание обнуляется, дальше они ведут себя как ручные.
func (s *Service) Delete(ctx context.Context, id, businessProfileID int64) error {
	s.logger.Info("Delete: deleting schedule id=%d", id)

	var workerID int64
	var removed, detached int64
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		schedule, err := s.scheduleRepo.GetByID(txCtx, id, businessProfileID)
		if err != nil {
			return s.repoError("Delete", err)
		}
		workerID = schedule.WorkerID()

		removed, err = s.slotRepo.DeleteUnbookedBySchedule(txCtx, id, s.timeProvider.Now().UTC())
		if err != nil {
			return fmt.Errorf("%w: Delete - delete slots: %v", ErrInternal, err)
		}
		detached, err = s.slotRepo.ClearGeneratingSchedule(txCtx, id)
		if err != nil {
			return fmt.Errorf("%w: Delete - detach slots: %v", ErrInternal, err)
		}
		if err := s.scheduleRepo.Delete(txCtx, id, businessProfileID); err != nil {
			return s.repoError("Delete", err)
		}
		return nil
	})
	if err != nil {
		s.logError("Delete", err)
		return err
	}

	s.logger.Info("Delete: deleted schedule id=%d, removed %d free slots, detached %d", id, removed, detached)
	s.regenerate(ctx, "Delete", workerID, businessProfileID)
	return nil
}

// SetRuleItem создает или заменяет правило дня недели.
// Если Breaks == nil, перерывы существующего правила сохраняются и должны уместиться в новые часы.
func (s *Service) SetRuleItem(ctx context.Context, id, businessProfileID int64, req *models.SetRuleItemRequest) (*models.RuleItemResponse, error) {
	var result domain.ScheduleRuleItem
	_, err := s.mutate(ctx, "SetRuleItem", id, businessProfileID, func(sch *domain.Schedule) error {
		_, exists := sch.RuleItemFor(req.DayOfWeek)

		if exists && req.Breaks == nil {
			item, err := sch.UpdateRuleItem(req.DayOfWeek, req.StartTime, req.EndTime, req.IsWorkingDay)
			result = item
			return err
		}

		if exists {
			if err := sch.RemoveRuleItem(req.DayOfWeek); err != nil {
				return err
			}
		}
		item, err := sch.AddRuleItem(domain.RuleItemInput{
			DayOfWeek:    req.DayOfWeek,
			StartTime:    req.StartTime,
			EndTime:      req.EndTime,
			IsWorkingDay: req.IsWorkingDay,
			Breaks:       req.Breaks,
		})
		result = item
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := models.FromDomainRuleItem(result)
	return &resp, nil
}

// RemoveRuleItem удаляет правило дня недели
func (s *Service) RemoveRuleItem(ctx context.Context, id, businessProfileID int64, day time.Weekday) error {
	_, err := s.mutate(ctx, "RemoveRuleItem", id, businessProfileID, func(sch *domain.Schedule) error {
		return sch.RemoveRuleItem(day)
	})
	return err
}

// AddBreak добавляет перерыв в правило дня недели
func (s *Service) AddBreak(ctx context.Context, id, businessProfileID int64, day time.Weekday, input domain.BreakInput) (*models.BreakResponse, error) {
	var result domain.BreakRule
	_, err := s.mutate(ctx, "AddBreak", id, businessProfileID, func(sch *domain.Schedule) error {
		br, err := sch.AddBreak(day, input)
		result = br
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := models.FromDomainBreak(result)
	return &resp, nil
}

// UpdateBreak меняет перерыв
func (s *Service) UpdateBreak(ctx context.Context, id, businessProfileID int64, day time.Weekday, breakID uuid.UUID, input domain.BreakInput) (*models.BreakResponse, error) {
	var result domain.BreakRule
	_, err := s.mutate(ctx, "UpdateBreak", id, businessProfileID, func(sch *domain.Schedule) error {
		br, err := sch.UpdateBreak(day, breakID, input)
		result = br
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := models.FromDomainBreak(result)
	return &resp, nil
}

// RemoveBreak удаляет перерыв
func (s *Service) RemoveBreak(ctx context.Context, id, businessProfileID int64, day time.Weekday, breakID uuid.UUID) error {
	_, err := s.mutate(ctx, "RemoveBreak", id, businessProfileID, func(sch *domain.Schedule) error {
		return sch.RemoveBreak(day, breakID)
	})
	return err
}

// AddOverride добавляет исключение на дату
func (s *Service) AddOverride(ctx context.Context, id, businessProfileID int64, input domain.OverrideInput) (*models.OverrideResponse, error) {
	var result domain.ScheduleOverride
	_, err := s.mutate(ctx, "AddOverride", id, businessProfileID, func(sch *domain.Schedule) error {
		o, err := sch.AddOverride(input)
		result = o
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := models.FromDomainOverride(result)
	return &resp, nil
}

// RemoveOverride удаляет исключение на дату
func (s *Service) RemoveOverride(ctx context.Context, id, businessProfileID int64, date time.Time) error {
	_, err := s.mutate(ctx, "RemoveOverride", id, businessProfileID, func(sch *domain.Schedule) error {
		return sch.RemoveOverride(date)
	})
	return err
}

// ResolveAvailability рабочие интервалы расписания за даты [from, to] включительно
func (s *Service) ResolveAvailability(ctx context.Context, id, businessProfileID int64, from, to time.Time) (*models.AvailabilityResponse, error) {
	from, to = types.DateOnly(from), types.DateOnly(to)
	if to.Before(from) {
		return nil, domain.ErrInvalidTimeRange
	}
	if to.Sub(from) > time.Duration(domain.MaxGenerationRangeDays)*24*time.Hour {
		return nil, fmt.Errorf("%w: at most %d days", domain.ErrInvalidGenerationRange, domain.MaxGenerationRangeDays)
	}

	schedule, err := s.scheduleRepo.GetByID(ctx, id, businessProfileID)
	if err != nil {
		return nil, s.repoError("ResolveAvailability", err)
	}

	resp := &models.AvailabilityResponse{
		ScheduleID: schedule.ID(),
		TimeZoneID: schedule.TimeZoneID(),
		From:       from.Format(domain.DateFormat),
		To:         to.Format(domain.DateFormat),
		Intervals:  make([]models.IntervalResponse, 0),
	}
	for wi := range availability.Resolve(schedule, from, to) {
		utc, ok := availability.ToUTC(wi, schedule.Location())
		if !ok {
			continue
		}
		resp.Intervals = append(resp.Intervals, models.FromWorkingInterval(wi, utc))
	}
	return resp, nil
}

// mutate загружает агрегат под блокировкой, применяет fn и записывает его целиком
func (s *Service) mutate(ctx context.Context, op string, id, businessProfileID int64, fn func(*domain.Schedule) error) (*domain.Schedule, error) {
	s.logger.Info("%s: schedule id=%d", op, id)

	var result *domain.Schedule
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		schedule, err := s.scheduleRepo.GetByID(txCtx, id, businessProfileID)
		if err != nil {
			return s.repoError(op, err)
		}

		if err := fn(schedule); err != nil {
			return err
		}

		if schedule.IsDefault() {
			if err := s.scheduleRepo.ClearDefaultForWorker(txCtx, schedule.WorkerID(), businessProfileID, schedule.ID()); err != nil {
				return fmt.Errorf("%w: %s - clear default: %v", ErrInternal, op, err)
			}
		}

		if err := s.scheduleRepo.Save(txCtx, schedule); err != nil {
			return s.repoError(op, err)
		}
		result = schedule
		return nil
	})
	if err != nil {
		s.logError(op, err)
		return nil, err
	}

	s.logger.Info("%s: schedule id=%d saved, version=%d", op, id, result.Version())
	s.regenerate(ctx, op, result.WorkerID(), businessProfileID)
	return result, nil
}

// regenerate ошибки перегенерации не отменяют уже сохраненное изменение
func (s *Service) regenerate(ctx context.Context, op string, workerID, businessProfileID int64) {
	if s.regenerator == nil {
		return
	}
	if err := s.regenerator.RegenerateWindow(ctx, workerID, businessProfileID); err != nil {
		s.logger.Warn("%s: slot regeneration for worker=%d failed: %v", op, workerID, err)
	}
}

func (s *Service) repoError(op string, err error) error {
	switch {
	case errors.Is(err, scheduleRepo.ErrScheduleNotFound):
		return domain.ErrScheduleNotFound
	case errors.Is(err, scheduleRepo.ErrVersionConflict):
		return domain.ErrConcurrentModification
	}
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

func (s *Service) logError(op string, err error) {
	if errors.Is(err, ErrInternal) {
		s.logger.Error("%s: %v", op, err)
		return
	}
	s.logger.Warn("%s: %v", op, err)
}
