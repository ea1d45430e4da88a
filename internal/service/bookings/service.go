package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	scheduleRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/schedule"
	slotRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

// Service сервис жизненного цикла бронирований.
// Каждый переход статуса и связанное с ним изменение слота выполняются в одной транзакции.
type Service struct {
	bookingRepo  BookingRepository
	slotRepo     SlotRepository
	scheduleRepo ScheduleRepository
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	scheduleRepo ScheduleRepository,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		slotRepo:     slotRepo,
		scheduleRepo: scheduleRepo,
		txManager:    txManager,
		metrics:      metrics,
		timeProvider: realTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// scope кто выполняет операцию: бизнес (вендор) или клиент.
// Чужое бронирование выглядит как несуществующее.
type scope struct {
	businessProfileID int64
	customerID        int64
}

func (sc scope) owns(b *domain.Booking) bool {
	if sc.customerID > 0 {
		return b.CustomerID == sc.customerID
	}
	return b.BusinessProfileID == sc.businessProfileID
}

// Get бронирование бизнеса с данными клиента и работника
func (s *Service) Get(ctx context.Context, businessProfileID, id int64) (*models.BookingResponse, error) {
	return s.get(ctx, "Get", scope{businessProfileID: businessProfileID}, id)
}

// GetForCustomer бронирование клиента
func (s *Service) GetForCustomer(ctx context.Context, customerID, id int64) (*models.BookingResponse, error) {
	return s.get(ctx, "GetForCustomer", scope{customerID: customerID}, id)
}

func (s *Service) get(ctx context.Context, op string, sc scope, id int64) (*models.BookingResponse, error) {
	s.logger.Info("%s: fetching booking id=%d", op, id)

	details, err := s.bookingRepo.GetDetails(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, id)
			return nil, domain.ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	if !sc.owns(&details.Booking) {
		s.logger.Warn("%s: booking id=%d is out of caller scope", op, id)
		return nil, domain.ErrBookingNotFound
	}

	return models.FromDomainDetails(details), nil
}

// ListByBusiness бронирования бизнеса с фильтрацией и пагинацией
func (s *Service) ListByBusiness(ctx context.Context, req *models.ListBusinessBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("ListByBusiness: fetching bookings for business=%d", req.BusinessProfileID)

	if req.BusinessProfileID <= 0 {
		return nil, fmt.Errorf("%w: businessProfileId must be positive", domain.ErrValidation)
	}
	if req.From != nil && req.To != nil && !req.From.Before(*req.To) {
		return nil, domain.ErrInvalidTimeRange
	}

	filter := domain.BookingFilter{
		BusinessProfileID: req.BusinessProfileID,
		WorkerID:          req.WorkerID,
		ServiceID:         req.ServiceID,
		CustomerID:        req.CustomerID,
		From:              req.From,
		To:                req.To,
		Limit:             req.Limit,
		Offset:            req.Offset,
	}
	if req.Status != nil {
		status, err := domain.ParseBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("ListByBusiness: invalid status=%s", *req.Status)
			return nil, err
		}
		filter.Status = &status
	}

	return s.list(ctx, "ListByBusiness", filter)
}

// ListByCustomer история бронирований клиента по всем бизнесам
func (s *Service) ListByCustomer(ctx context.Context, req *models.ListCustomerBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("ListByCustomer: fetching bookings for customer=%d", req.CustomerID)

	if req.CustomerID <= 0 {
		return nil, fmt.Errorf("%w: customerId must be positive", domain.ErrValidation)
	}

	customerID := req.CustomerID
	filter := domain.BookingFilter{
		CustomerID: &customerID,
		Limit:      req.Limit,
		Offset:     req.Offset,
	}
	if req.Status != nil {
		status, err := domain.ParseBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("ListByCustomer: invalid status=%s", *req.Status)
			return nil, err
		}
		filter.Status = &status
	}

	return s.list(ctx, "ListByCustomer", filter)
}

func (s *Service) list(ctx context.Context, op string, filter domain.BookingFilter) (*models.BookingListResponse, error) {
	filter.Normalize()

	page, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("%s: repository error: %v", op, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}

	s.logger.Info("%s: fetched %d of %d bookings", op, len(page.Items), page.Total)
	return models.FromDomainPage(page), nil
}

// Confirm PendingConfirmation -> Confirmed
func (s *Service) Confirm(ctx context.Context, req *models.TransitionRequest) (*models.BookingResponse, error) {
	return s.vendorTransition(ctx, "Confirm", req, domain.StatusConfirmed)
}

// Complete Confirmed -> Completed, слот остается забронированным как история
func (s *Service) Complete(ctx context.Context, req *models.TransitionRequest) (*models.BookingResponse, error) {
	return s.vendorTransition(ctx, "Complete", req, domain.StatusCompleted)
}

// MarkNoShow Confirmed -> NoShow, слот остается забронированным
func (s *Service) MarkNoShow(ctx context.Context, req *models.TransitionRequest) (*models.BookingResponse, error) {
	return s.vendorTransition(ctx, "MarkNoShow", req, domain.StatusNoShow)
}

func (s *Service) vendorTransition(ctx context.Context, op string, req *models.TransitionRequest, to domain.BookingStatus) (*models.BookingResponse, error) {
	s.logger.Info("%s: booking id=%d, business=%d", op, req.BookingID, req.BusinessProfileID)

	notes, err := normalizeText(req.NotesByVendor, domain.MaxNotesLength, "notesByVendor")
	if err != nil {
		return nil, err
	}

	booking, err := s.apply(ctx, op, scope{businessProfileID: req.BusinessProfileID}, req.BookingID,
		func(b *domain.Booking) error {
			if err := b.TransitionTo(to); err != nil {
				return err
			}
			if notes != nil {
				b.NotesByVendor = notes
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return models.FromDomainBooking(booking), nil
}

// CancelByCustomer отмена клиентом своего бронирования, слот освобождается
func (s *Service) CancelByCustomer(ctx context.Context, req *models.CancelRequest) (*models.BookingResponse, error) {
	return s.cancel(ctx, "CancelByCustomer", scope{customerID: req.CustomerID}, req, domain.StatusCancelledByCustomer)
}

// CancelByVendor отмена бизнесом, слот освобождается
func (s *Service) CancelByVendor(ctx context.Context, req *models.CancelRequest) (*models.BookingResponse, error) {
	return s.cancel(ctx, "CancelByVendor", scope{businessProfileID: req.BusinessProfileID}, req, domain.StatusCancelledByVendor)
}

func (s *Service) cancel(ctx context.Context, op string, sc scope, req *models.CancelRequest, status domain.BookingStatus) (*models.BookingResponse, error) {
	s.logger.Info("%s: booking id=%d", op, req.BookingID)

	reason, err := normalizeText(req.CancellationReason, domain.MaxCancellationReasonLength, "cancellationReason")
	if err != nil {
		return nil, err
	}
	now := s.timeProvider.Now().UTC()

	booking, err := s.apply(ctx, op, sc, req.BookingID, func(b *domain.Booking) error {
		return b.Cancel(status, reason, now)
	})
	if err != nil {
		return nil, err
	}
	return models.FromDomainBooking(booking), nil
}

// Reschedule переносит подтвержденное бронирование на другой свободный слот.
// Старое бронирование становится Rescheduled, его слот освобождается,
// новое бронирование создается в PendingConfirmation со ссылкой на старое.
func (s *Service) Reschedule(ctx context.Context, req *models.RescheduleRequest) (*models.BookingResponse, error) {
	s.logger.Info("Reschedule: booking id=%d to slot id=%d, business=%d", req.BookingID, req.NewSlotID, req.BusinessProfileID)

	if req.NewSlotID <= 0 {
		return nil, fmt.Errorf("%w: newSlotId must be positive", domain.ErrValidation)
	}

	var created *domain.Booking
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Старое бронирование -> Rescheduled, его слот освобождается
		old, err := s.transition(txCtx, scope{businessProfileID: req.BusinessProfileID}, req.BookingID, func(b *domain.Booking) error {
			if b.AvailabilitySlotID == req.NewSlotID {
				return domain.ErrRescheduleSameSlot
			}
			return b.TransitionTo(domain.StatusRescheduled)
		})
		if err != nil {
			return err
		}

		// 2. Новый слот под блокировкой
		slot, err := s.slotRepo.GetByID(txCtx, req.NewSlotID, req.BusinessProfileID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				return domain.ErrSlotNotFound
			}
			return fmt.Errorf("%w: Reschedule - lock slot: %v", ErrInternal, err)
		}
		if !slot.IsAvailable() {
			return domain.ErrSlotNotAvailable
		}

		// 3. Новое бронирование и слот, как при создании
		next := &domain.Booking{
			BusinessProfileID:  old.BusinessProfileID,
			CustomerID:         old.CustomerID,
			ServiceID:          old.ServiceID,
			WorkerID:           slot.WorkerID,
			AvailabilitySlotID: slot.ID,
			BookingStartTime:   slot.StartTime,
			BookingEndTime:     slot.EndTime,
			Status:             domain.StatusPendingConfirmation,
			ServiceName:        old.ServiceName,
			PriceAtBooking:     old.PriceAtBooking,
			NotesByCustomer:    old.NotesByCustomer,
			RescheduledFromID:  &old.ID,
		}
		created, err = s.bookingRepo.Create(txCtx, next)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrSlotAlreadyHeld) {
				return domain.ErrSlotNotAvailable
			}
			return fmt.Errorf("%w: Reschedule - create booking: %v", ErrInternal, err)
		}
		if err := s.slotRepo.MarkBooked(txCtx, slot.ID, created.ID); err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotAvailable) {
				return domain.ErrSlotNotAvailable
			}
			return fmt.Errorf("%w: Reschedule - mark slot booked: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotNotAvailable) {
			s.metrics.IncBookingConflicts()
		}
		s.logError("Reschedule", err)
		return nil, err
	}

	s.metrics.IncBookingTransition(string(domain.StatusRescheduled))
	s.metrics.IncBookingsCreated()
	s.logger.Info("Reschedule: booking id=%d moved to booking id=%d", req.BookingID, created.ID)
	return models.FromDomainBooking(created), nil
}

// apply выполняет переход в собственной транзакции
func (s *Service) apply(ctx context.Context, op string, sc scope, id int64, mutate func(b *domain.Booking) error) (*domain.Booking, error) {
	var result *domain.Booking
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		b, err := s.transition(txCtx, sc, id, mutate)
		result = b
		return err
	})
	if err != nil {
		s.logError(op, err)
		return nil, err
	}

	s.metrics.IncBookingTransition(string(result.Status))
	s.logger.Info("%s: booking id=%d is now %s", op, id, result.Status)
	return result, nil
}

// transition загружает бронирование с блокировкой строки, применяет mutate,
// записывает статус условным обновлением и освобождает слот, если новый статус этого требует.
// Должна вызываться внутри транзакции.
func (s *Service) transition(txCtx context.Context, sc scope, id int64, mutate func(b *domain.Booking) error) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(txCtx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: get booking: %v", ErrInternal, err)
	}
	if !sc.owns(b) {
		return nil, domain.ErrBookingNotFound
	}

	from := b.Status
	if err := mutate(b); err != nil {
		return nil, err
	}

	if err := s.bookingRepo.UpdateStatus(txCtx, b, from); err != nil {
		if errors.Is(err, bookingRepo.ErrStatusConflict) {
			return nil, domain.ErrConcurrentModification
		}
		return nil, fmt.Errorf("%w: update status: %v", ErrInternal, err)
	}

	if b.Status.ReleasesSlot() {
		if err := s.freeSlot(txCtx, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// freeSlot освобождает слот бронирования.
// Сгенерированный слот удаляется, если его расписание больше не покрывает дату слота,
// иначе слот снова становится available. Слот удаленного расписания отвязан от него
// и освобождается как ручной.
func (s *Service) freeSlot(txCtx context.Context, b *domain.Booking) error {
	slot, err := s.slotRepo.GetByID(txCtx, b.AvailabilitySlotID, b.BusinessProfileID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			s.logger.Warn("freeSlot: slot id=%d of booking id=%d is gone", b.AvailabilitySlotID, b.ID)
			return nil
		}
		return fmt.Errorf("%w: get slot: %v", ErrInternal, err)
	}
	if slot.BookingID == nil || *slot.BookingID != b.ID {
		s.logger.Warn("freeSlot: slot id=%d is not held by booking id=%d", slot.ID, b.ID)
		return nil
	}

	if err := s.slotRepo.Release(txCtx, slot.ID, b.ID); err != nil {
		return fmt.Errorf("%w: release slot: %v", ErrInternal, err)
	}

	retired, err := s.isRetired(txCtx, slot)
	if err != nil {
		return err
	}
	if !retired {
		return nil
	}
	if err := s.slotRepo.Delete(txCtx, slot.ID); err != nil {
		return fmt.Errorf("%w: delete retired slot: %v", ErrInternal, err)
	}
	s.logger.Info("freeSlot: removed slot id=%d outside its schedule", slot.ID)
	return nil
}

func (s *Service) isRetired(txCtx context.Context, slot *domain.AvailabilitySlot) (bool, error) {
	if !slot.IsGenerated() {
		return false, nil
	}
	schedule, err := s.scheduleRepo.GetByID(txCtx, *slot.GeneratingScheduleID, slot.BusinessProfileID)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("%w: get schedule: %v", ErrInternal, err)
	}
	return !schedule.CoversDate(slot.StartTime.In(schedule.Location())), nil
}

func (s *Service) logError(op string, err error) {
	if errors.Is(err, ErrInternal) {
		s.logger.Error("%s: %v", op, err)
		return
	}
	s.logger.Warn("%s: rejected: %v", op, err)
}

// normalizeText обрезает пробелы, пустая строка превращается в nil
func normalizeText(text *string, maxLen int, field string) (*string, error) {
	if text == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*text)
	if len(trimmed) > maxLen {
		return nil, fmt.Errorf("%w: %s must be at most %d characters", domain.ErrValidation, field, maxLen)
	}
	if trimmed == "" {
		return nil, nil
	}
	return &trimmed, nil
}
