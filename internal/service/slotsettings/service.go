package slotsettings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	settingsRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slotsettings"
	"github.com/m04kA/SMC-SchedulingService/internal/service/slotsettings/models"
)

// Defaults значения из config.toml для бизнеса без собственных настроек
type Defaults struct {
	SlotDurationMinutes     int
	HorizonDays             int
	MinBookingNoticeMinutes int
}

// Service сервис настроек генерации слотов
// Иерархия: работник > бизнес > значения сервиса
type Service struct {
	repo     SettingsRepository
	defaults Defaults
	logger   Logger
}

// NewService создает новый экземпляр сервиса настроек
func NewService(repo SettingsRepository, defaults Defaults, logger Logger) *Service {
	return &Service{
		repo:     repo,
		defaults: defaults,
		logger:   logger,
	}
}

// Resolve действующие настройки работника с учетом иерархии
func (s *Service) Resolve(ctx context.Context, businessProfileID, workerID int64) (*domain.SlotSettings, error) {
	settings, err := s.repo.GetWithHierarchy(ctx, businessProfileID, workerID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, settingsRepo.ErrSettingsNotFound) {
		s.logger.Error("Resolve: repository error for business=%d, worker=%d: %v", businessProfileID, workerID, err)
		return nil, fmt.Errorf("%w: Resolve - repository error: %v", ErrInternal, err)
	}

	return domain.DefaultSlotSettings(
		businessProfileID,
		s.defaults.SlotDurationMinutes,
		s.defaults.HorizonDays,
		s.defaults.MinBookingNoticeMinutes,
	), nil
}

// MaxHorizonDays самый длинный горизонт генерации среди всех уровней, включая значения сервиса
func (s *Service) MaxHorizonDays(ctx context.Context) (int, error) {
	days, err := s.repo.MaxHorizonDays(ctx)
	if err != nil {
		s.logger.Error("MaxHorizonDays: repository error: %v", err)
		return 0, fmt.Errorf("%w: MaxHorizonDays - repository error: %v", ErrInternal, err)
	}
	return max(days, s.defaults.HorizonDays), nil
}

// Get действующие настройки для уровня (бизнес или работник)
func (s *Service) Get(ctx context.Context, businessProfileID int64, workerID *int64) (*models.SettingsResponse, error) {
	s.logger.Info("Get: fetching slot settings for business=%d, worker=%v", businessProfileID, workerID)

	if workerID != nil {
		settings, err := s.Resolve(ctx, businessProfileID, *workerID)
		if err != nil {
			return nil, err
		}
		return models.FromDomain(settings), nil
	}

	settings, err := s.repo.GetByScope(ctx, businessProfileID, nil)
	if err != nil {
		if errors.Is(err, settingsRepo.ErrSettingsNotFound) {
			return models.FromDomain(domain.DefaultSlotSettings(
				businessProfileID,
				s.defaults.SlotDurationMinutes,
				s.defaults.HorizonDays,
				s.defaults.MinBookingNoticeMinutes,
			)), nil
		}
		s.logger.Error("Get: repository error for business=%d: %v", businessProfileID, err)
		return nil, fmt.Errorf("%w: Get - repository error: %v", ErrInternal, err)
	}

	return models.FromDomain(settings), nil
}

// List все сохраненные настройки бизнеса
func (s *Service) List(ctx context.Context, businessProfileID int64) (*models.SettingsListResponse, error) {
	list, err := s.repo.ListByBusiness(ctx, businessProfileID)
	if err != nil {
		s.logger.Error("List: repository error for business=%d: %v", businessProfileID, err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	response := &models.SettingsListResponse{Settings: make([]models.SettingsResponse, 0, len(list))}
	for _, item := range list {
		response.Settings = append(response.Settings, *models.FromDomain(item))
	}
	return response, nil
}

// Upsert создает или изменяет настройки уровня
// Не переданные поля наследуются от текущих действующих настроек
func (s *Service) Upsert(ctx context.Context, req *models.UpsertSettingsRequest) (*models.SettingsResponse, error) {
	s.logger.Info("Upsert: updating slot settings for business=%d, worker=%v", req.BusinessProfileID, req.WorkerID)

	// 1. Текущие действующие значения
	var base *domain.SlotSettings
	var err error
	if req.WorkerID != nil {
		base, err = s.Resolve(ctx, req.BusinessProfileID, *req.WorkerID)
	} else {
		base, err = s.repo.GetByScope(ctx, req.BusinessProfileID, nil)
		if errors.Is(err, settingsRepo.ErrSettingsNotFound) {
			base, err = s.Resolve(ctx, req.BusinessProfileID, 0)
		}
	}
	if err != nil {
		s.logger.Error("Upsert: failed to resolve current settings: %v", err)
		return nil, fmt.Errorf("%w: Upsert - resolve current settings: %v", ErrInternal, err)
	}

	// 2. Накладываем переданные поля
	settings := &domain.SlotSettings{
		BusinessProfileID:       req.BusinessProfileID,
		WorkerID:                req.WorkerID,
		SlotDurationMinutes:     base.SlotDurationMinutes,
		HorizonDays:             base.HorizonDays,
		MinBookingNoticeMinutes: base.MinBookingNoticeMinutes,
	}
	if req.SlotDurationMinutes != nil {
		settings.SlotDurationMinutes = *req.SlotDurationMinutes
	}
	if req.HorizonDays != nil {
		settings.HorizonDays = *req.HorizonDays
	}
	if req.MinBookingNoticeMinutes != nil {
		settings.MinBookingNoticeMinutes = *req.MinBookingNoticeMinutes
	}

	// 3. Валидация
	if err := settings.Validate(); err != nil {
		s.logger.Warn("Upsert: validation failed: %v", err)
		return nil, err
	}

	// 4. Сохраняем
	saved, err := s.repo.Upsert(ctx, settings)
	if err != nil {
		s.logger.Error("Upsert: repository error: %v", err)
		return nil, fmt.Errorf("%w: Upsert - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Upsert: saved slot settings id=%d", saved.ID)
	return models.FromDomain(saved), nil
}

// Delete удаляет настройки уровня, после чего действует уровень выше
func (s *Service) Delete(ctx context.Context, businessProfileID int64, workerID *int64) error {
	if err := s.repo.DeleteByScope(ctx, businessProfileID, workerID); err != nil {
		if errors.Is(err, settingsRepo.ErrSettingsNotFound) {
			return domain.ErrSlotSettingsNotFound
		}
		s.logger.Error("Delete: repository error: %v", err)
		return fmt.Errorf("%w: Delete - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Delete: removed slot settings for business=%d, worker=%v", businessProfileID, workerID)
	return nil
}
