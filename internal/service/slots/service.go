package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	slotRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-SchedulingService/internal/service/slots/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

// Service сервис ручного управления слотами
type Service struct {
	slotRepo   SlotRepository
	workerRepo WorkerRepository
	txManager  TransactionManager
	logger     Logger
}

// NewService создает новый экземпляр сервиса слотов
func NewService(slotRepo SlotRepository, workerRepo WorkerRepository, txManager TransactionManager, logger Logger) *Service {
	return &Service{
		slotRepo:   slotRepo,
		workerRepo: workerRepo,
		txManager:  txManager,
		logger:     logger,
	}
}

// CreateManual создает слот вручную
// Слот не должен пересекаться ни с одним слотом работника в блокирующем статусе
func (s *Service) CreateManual(ctx context.Context, req *models.CreateSlotRequest) (*models.SlotResponse, error) {
	s.logger.Info("CreateManual: worker=%d, business=%d, %s - %s, status=%s",
		req.WorkerID, req.BusinessProfileID, req.StartTime.Format(time.RFC3339), req.EndTime.Format(time.RFC3339), req.Status)

	// 1. Валидация
	if !isManualStatus(req.Status) {
		s.logger.Warn("CreateManual: status=%s is not allowed for manual slots", req.Status)
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidSlotStatus, req.Status)
	}
	slot := &domain.AvailabilitySlot{
		WorkerID:          req.WorkerID,
		BusinessProfileID: req.BusinessProfileID,
		StartTime:         req.StartTime.UTC(),
		EndTime:           req.EndTime.UTC(),
		Status:            req.Status,
	}
	if err := slot.Validate(); err != nil {
		s.logger.Warn("CreateManual: validation failed: %v", err)
		return nil, err
	}

	// 2. Работник должен принадлежать бизнесу
	belongs, err := s.workerRepo.BelongsToBusiness(ctx, req.WorkerID, req.BusinessProfileID)
	if err != nil {
		s.logger.Error("CreateManual: failed to check worker=%d: %v", req.WorkerID, err)
		return nil, fmt.Errorf("%w: CreateManual - check worker: %v", ErrInternal, err)
	}
	if !belongs {
		s.logger.Warn("CreateManual: worker=%d does not belong to business=%d", req.WorkerID, req.BusinessProfileID)
		return nil, domain.ErrWorkerNotFound
	}

	// 3. Проверка пересечений и вставка под блокировкой работника
	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		if err := s.slotRepo.LockWorker(txCtx, req.WorkerID); err != nil {
			return fmt.Errorf("%w: CreateManual - lock worker: %v", ErrInternal, err)
		}

		collides, err := s.slotRepo.HasCollision(txCtx, req.WorkerID, slot.Range(), domain.BlockingSlotStatuses, nil)
		if err != nil {
			return fmt.Errorf("%w: CreateManual - collision check: %v", ErrInternal, err)
		}
		if collides {
			return domain.ErrSlotCollision
		}

		if _, err := s.slotRepo.Create(txCtx, slot); err != nil {
			return fmt.Errorf("%w: CreateManual - create: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotCollision) {
			s.logger.Warn("CreateManual: collision for worker=%d", req.WorkerID)
		} else {
			s.logger.Error("CreateManual: %v", err)
		}
		return nil, err
	}

	s.logger.Info("CreateManual: created slot id=%d", slot.ID)
	return models.FromDomainSlot(slot), nil
}

// Get возвращает слот бизнеса
func (s *Service) Get(ctx context.Context, slotID, businessProfileID int64) (*models.SlotResponse, error) {
	slot, err := s.slotRepo.GetByID(ctx, slotID, businessProfileID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return nil, domain.ErrSlotNotFound
		}
		s.logger.Error("Get: repository error for slot id=%d: %v", slotID, err)
		return nil, fmt.Errorf("%w: Get - repository error: %v", ErrInternal, err)
	}
	return models.FromDomainSlot(slot), nil
}

// List слоты работника, пересекающие период
func (s *Service) List(ctx context.Context, req *models.ListSlotsRequest) (*models.SlotListResponse, error) {
	rng, err := domain.NewTimeRange(req.From.UTC(), req.To.UTC())
	if err != nil {
		return nil, err
	}
	for _, st := range req.Statuses {
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidSlotStatus, st)
		}
	}

	list, err := s.slotRepo.List(ctx, domain.SlotFilter{
		WorkerID:          req.WorkerID,
		BusinessProfileID: ptr.Ptr(req.BusinessProfileID),
		Range:             rng,
		Statuses:          req.Statuses,
	})
	if err != nil {
		s.logger.Error("List: repository error for worker=%d: %v", req.WorkerID, err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainSlotList(list), nil
}

// Delete удаляет слот
// Забронированный слот освобождается только отменой бронирования
func (s *Service) Delete(ctx context.Context, slotID, businessProfileID int64) error {
	s.logger.Info("Delete: deleting slot id=%d", slotID)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		slot, err := s.slotRepo.GetByID(txCtx, slotID, businessProfileID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				return domain.ErrSlotNotFound
			}
			return fmt.Errorf("%w: Delete - get slot: %v", ErrInternal, err)
		}
		if slot.IsBooked() {
			return domain.ErrBookedSlotDeletion
		}

		if err := s.slotRepo.Delete(txCtx, slotID); err != nil {
			if errors.Is(err, slotRepo.ErrSlotBooked) {
				return domain.ErrBookedSlotDeletion
			}
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				return domain.ErrSlotNotFound
			}
			return fmt.Errorf("%w: Delete - delete: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			s.logger.Error("Delete: %v", err)
		} else {
			s.logger.Warn("Delete: slot id=%d: %v", slotID, err)
		}
		return err
	}

	s.logger.Info("Delete: deleted slot id=%d", slotID)
	return nil
}

func isManualStatus(status domain.SlotStatus) bool {
	for _, st := range domain.ManualSlotStatuses {
		if st == status {
			return true
		}
	}
	return false
}
