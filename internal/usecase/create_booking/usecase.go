package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	slotRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	slotRepo     SlotRepository
	settings     SettingsProvider
	catalog      CatalogClient
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	settings SettingsProvider,
	catalog CatalogClient,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		slotRepo:     slotRepo,
		settings:     settings,
		catalog:      catalog,
		txManager:    txManager,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания бронирования.
// Слот переводится в booked условным UPDATE в той же транзакции, что и вставка бронирования:
// из двух одновременных запросов на один слот успешен ровно один, второй получает Conflict.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: customer=%d, business=%d, service=%d, slot=%d",
		req.CustomerID, req.BusinessProfileID, req.ServiceID, req.SlotID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now().UTC()

	// 3. Слот (без блокировки): нужен работник для проверок вне транзакции
	slot, err := uc.slotRepo.GetByID(ctx, req.SlotID, req.BusinessProfileID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			uc.logger.Warn("CreateBooking: slot id=%d not found", req.SlotID)
			return nil, domain.ErrSlotNotFound
		}
		uc.logger.Error("CreateBooking: failed to get slot id=%d: %v", req.SlotID, err)
		return nil, fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
	}

	// 4. Получаем услугу
	service, err := uc.catalog.GetService(ctx, req.BusinessProfileID, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogservice.ErrServiceNotFound) {
			uc.logger.Warn("CreateBooking: service id=%d not found", req.ServiceID)
			return nil, domain.ErrServiceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	// 5. Услуга доступна у этого работника
	if err := validateService(service, req.BusinessProfileID, slot.WorkerID); err != nil {
		uc.logger.Warn("CreateBooking: service id=%d rejected for worker=%d: %v", req.ServiceID, slot.WorkerID, err)
		return nil, err
	}

	// 6. Минимальное время до начала слота
	settings, err := uc.settings.Resolve(ctx, req.BusinessProfileID, slot.WorkerID)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to resolve settings: %v", err)
		return nil, fmt.Errorf("%w: failed to resolve settings: %v", ErrInternal, err)
	}
	if err := validateNotice(slot, now, settings.MinBookingNotice()); err != nil {
		uc.logger.Warn("CreateBooking: slot id=%d starts too soon", req.SlotID)
		return nil, err
	}

	var result *domain.Booking

	// 7. Бронирование и слот меняются атомарно
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 7.1. Слот под блокировкой
		locked, err := uc.slotRepo.GetByID(txCtx, req.SlotID, req.BusinessProfileID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				return domain.ErrSlotNotFound
			}
			return fmt.Errorf("%w: failed to lock slot: %v", ErrInternal, err)
		}
		if !locked.IsAvailable() {
			return domain.ErrSlotNotAvailable
		}

		// 7.2. Бронирование со снимком времени слота
		booking := &domain.Booking{
			BusinessProfileID:  req.BusinessProfileID,
			CustomerID:         req.CustomerID,
			ServiceID:          req.ServiceID,
			WorkerID:           locked.WorkerID,
			AvailabilitySlotID: locked.ID,
			BookingStartTime:   locked.StartTime,
			BookingEndTime:     locked.EndTime,
			Status:             domain.StatusPendingConfirmation,
			ServiceName:        service.Name,
			PriceAtBooking:     service.PriceOrZero(),
			NotesByCustomer:    req.NotesByCustomer,
		}
		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrSlotAlreadyHeld) {
				return domain.ErrSlotNotAvailable
			}
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		// 7.3. available -> booked одним условным обновлением
		if err := uc.slotRepo.MarkBooked(txCtx, locked.ID, created.ID); err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotAvailable) {
				return domain.ErrSlotNotAvailable
			}
			return fmt.Errorf("%w: failed to mark slot booked: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		if errors.Is(err, domain.ErrSlotNotAvailable) {
			uc.metrics.IncBookingConflicts()
			uc.logger.Warn("CreateBooking: slot id=%d is no longer available", req.SlotID)
		} else if errors.Is(err, ErrInternal) {
			uc.logger.Error("CreateBooking: %v", err)
		}
		return nil, err
	}

	uc.metrics.IncBookingsCreated()
	uc.logger.Info("CreateBooking: successfully created booking id=%d for slot id=%d", result.ID, req.SlotID)
	return toResponse(result), nil
}
