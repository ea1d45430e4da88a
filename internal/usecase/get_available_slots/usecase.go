package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
)

// UseCase use case для получения доступных слотов работника
type UseCase struct {
	slotRepo     SlotRepository
	settings     SettingsProvider
	catalog      CatalogClient
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	slotRepo SlotRepository,
	settings SettingsProvider,
	catalog CatalogClient,
	logger Logger,
) *UseCase {
	return &UseCase{
		slotRepo:     slotRepo,
		settings:     settings,
		catalog:      catalog,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: business=%d, worker=%d, from=%s, to=%s",
		req.BusinessProfileID, req.WorkerID, req.From.Format(domain.DateFormat), req.To.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now().UTC()

	// 3. Если указана услуга, работник должен ее оказывать
	if req.ServiceID != nil {
		service, err := uc.catalog.GetService(ctx, req.BusinessProfileID, *req.ServiceID)
		if err != nil {
			if errors.Is(err, catalogservice.ErrServiceNotFound) {
				uc.logger.Warn("GetAvailableSlots: service id=%d not found", *req.ServiceID)
				return nil, domain.ErrServiceNotFound
			}
			uc.logger.Error("GetAvailableSlots: failed to get service id=%d: %v", *req.ServiceID, err)
			return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
		}
		if err := validateService(service, req.WorkerID); err != nil {
			uc.logger.Warn("GetAvailableSlots: service id=%d rejected for worker=%d: %v", *req.ServiceID, req.WorkerID, err)
			return nil, err
		}
	}

	// 4. Минимальное время до начала слота
	settings, err := uc.settings.Resolve(ctx, req.BusinessProfileID, req.WorkerID)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to resolve settings: %v", err)
		return nil, fmt.Errorf("%w: failed to resolve settings: %v", ErrInternal, err)
	}
	cutoff := now.Add(settings.MinBookingNotice())

	// 5. Свободные слоты работника в периоде
	business := req.BusinessProfileID
	slots, err := uc.slotRepo.List(ctx, domain.SlotFilter{
		WorkerID:          req.WorkerID,
		BusinessProfileID: &business,
		Range:             domain.TimeRange{Start: req.From.UTC(), End: req.To.UTC()},
		Statuses:          []domain.SlotStatus{domain.SlotStatusAvailable},
	})
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list slots: %v", err)
		return nil, fmt.Errorf("%w: failed to list slots: %v", ErrInternal, err)
	}

	// 6. Отбрасываем слоты, которые уже нельзя забронировать
	result := bookable(slots, cutoff)

	uc.logger.Info("GetAvailableSlots: found %d bookable slots for worker=%d", len(result), req.WorkerID)

	return &Response{
		BusinessProfileID: req.BusinessProfileID,
		WorkerID:          req.WorkerID,
		From:              req.From.UTC(),
		To:                req.To.UTC(),
		Slots:             result,
	}, nil
}
