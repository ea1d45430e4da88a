package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

var slotColumns = []string{
	"id",
	"worker_id",
	"business_profile_id",
	"start_time",
	"end_time",
	"status",
	"booking_id",
	"generating_schedule_id",
	"created_at",
	"updated_at",
}

// Repository репозиторий слотов доступности
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// LockWorker берет транзакционную advisory-блокировку на работника.
// Все изменения слотов одного работника (генерация, ручные слоты, бронирование)
// выполняются под этой блокировкой и не чередуются.
func (r *Repository) LockWorker(ctx context.Context, workerID int64) error {
	tx, ok := dbmetrics.TxFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", workerID); err != nil {
		return fmt.Errorf("%w: LockWorker - worker=%d: %v", ErrExecQuery, workerID, err)
	}
	return nil
}

// Create создает один слот
func (r *Repository) Create(ctx context.Context, slot *domain.AvailabilitySlot) (*domain.AvailabilitySlot, error) {
	if err := r.CreateBatch(ctx, []*domain.AvailabilitySlot{slot}); err != nil {
		return nil, err
	}
	return slot, nil
}

// CreateBatch вставляет слоты одним запросом и проставляет им id
func (r *Repository) CreateBatch(ctx context.Context, slots []*domain.AvailabilitySlot) error {
	if len(slots) == 0 {
		return nil
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	insertBuilder := psqlbuilder.Insert("availability_slots").
		Columns(
			"worker_id",
			"business_profile_id",
			"start_time",
			"end_time",
			"status",
			"booking_id",
			"generating_schedule_id",
		)
	for _, s := range slots {
		insertBuilder = insertBuilder.Values(
			s.WorkerID,
			s.BusinessProfileID,
			s.StartTime.UTC(),
			s.EndTime.UTC(),
			s.Status,
			s.BookingID,
			s.GeneratingScheduleID,
		)
	}

	query, args, err := insertBuilder.Suffix("RETURNING id, created_at, updated_at").ToSql()
	if err != nil {
		return fmt.Errorf("%w: CreateBatch - build insert query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: CreateBatch - execute insert: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	// PostgreSQL возвращает RETURNING в порядке VALUES
	i := 0
	for rows.Next() {
		if i >= len(slots) {
			return fmt.Errorf("%w: CreateBatch - unexpected extra row", ErrScanRow)
		}
		if err := rows.Scan(&slots[i].ID, &slots[i].CreatedAt, &slots[i].UpdatedAt); err != nil {
			return fmt.Errorf("%w: CreateBatch - scan row: %v", ErrScanRow, err)
		}
		i++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: CreateBatch - rows error: %v", ErrExecQuery, err)
	}

	return nil
}

// GetByID получает слот бизнеса по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id, businessProfileID int64) (*domain.AvailabilitySlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From("availability_slots").
		Where(squirrel.Eq{"id": id, "business_profile_id": businessProfileID})
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan slot: %v", ErrScanRow, err)
	}

	return slot, nil
}

// List слоты работника, пересекающие filter.Range, отсортированные по началу
func (r *Repository) List(ctx context.Context, filter domain.SlotFilter) ([]*domain.AvailabilitySlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From("availability_slots").
		Where(squirrel.Eq{"worker_id": filter.WorkerID}).
		Where(squirrel.Lt{"start_time": filter.Range.End.UTC()}).
		Where(squirrel.Gt{"end_time": filter.Range.Start.UTC()}).
		OrderBy("start_time ASC", "id ASC")

	if filter.BusinessProfileID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"business_profile_id": *filter.BusinessProfileID})
	}
	if len(filter.Statuses) > 0 {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(filter.Statuses)})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]*domain.AvailabilitySlot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan row: %v", ErrScanRow, err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}

// HasCollision есть ли у работника слот с одним из статусов, пересекающий rng
// Соседние слоты (конец одного равен началу другого) не пересекаются
func (r *Repository) HasCollision(ctx context.Context, workerID int64, rng domain.TimeRange, statuses []domain.SlotStatus, excludeID *int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("1").
		From("availability_slots").
		Where(squirrel.Eq{"worker_id": workerID, "status": statusStrings(statuses)}).
		Where(squirrel.Lt{"start_time": rng.End.UTC()}).
		Where(squirrel.Gt{"end_time": rng.Start.UTC()}).
		Limit(1)
	if excludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: HasCollision - build select query: %v", ErrBuildQuery, err)
	}

	var one int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: HasCollision - execute query: %v", ErrExecQuery, err)
	}
	return true, nil
}

// MarkBooked атомарно переводит слот из available в booked.
// Если слот уже не available, ни одна строка не меняется и возвращается ErrSlotNotAvailable.
func (r *Repository) MarkBooked(ctx context.Context, id, bookingID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("availability_slots").
		Set("status", domain.SlotStatusBooked).
		Set("booking_id", bookingID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": domain.SlotStatusAvailable}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkBooked - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: MarkBooked - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: MarkBooked - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSlotNotAvailable
	}

	return nil
}

// Release возвращает слот в available, если его держит указанное бронирование
func (r *Repository) Release(ctx context.Context, id, bookingID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("availability_slots").
		Set("status", domain.SlotStatusAvailable).
		Set("booking_id", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "booking_id": bookingID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Release - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Release - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Release - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSlotNotFound
	}

	return nil
}

// Delete удаляет незабронированный слот
// Забронированный слот не удаляется: ErrSlotBooked
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("availability_slots").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.NotEq{"status": domain.SlotStatusBooked}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		exists, err := r.exists(ctx, executor, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrSlotNotFound
		}
		return ErrSlotBooked
	}

	return nil
}

func (r *Repository) exists(ctx context.Context, executor DBExecutor, id int64) (bool, error) {
	query, args, err := psqlbuilder.Select("1").
		From("availability_slots").
		Where(squirrel.Eq{"id": id}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: exists - build select query: %v", ErrBuildQuery, err)
	}

	var exists bool
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: exists - slot id=%d: %v", ErrScanRow, id, err)
	}
	return exists, nil
}

// DeleteByIDs удаляет незабронированные слоты, возвращает количество удаленных
func (r *Repository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("availability_slots").
		Where(squirrel.Eq{"id": ids}).
		Where(squirrel.NotEq{"status": domain.SlotStatusBooked}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteByIDs - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteByIDs - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteByIDs - get rows affected: %v", ErrExecQuery, err)
	}
	return rowsAffected, nil
}

// DeleteUnbookedBySchedule удаляет незабронированные слоты расписания, начинающиеся не раньше from
func (r *Repository) DeleteUnbookedBySchedule(ctx context.Context, scheduleID int64, from time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("availability_slots").
		Where(squirrel.Eq{"generating_schedule_id": scheduleID}).
		Where(squirrel.NotEq{"status": domain.SlotStatusBooked}).
		Where(squirrel.GtOrEq{"start_time": from.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteUnbookedBySchedule - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteUnbookedBySchedule - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteUnbookedBySchedule - get rows affected: %v", ErrExecQuery, err)
	}
	return rowsAffected, nil
}

// ClearGeneratingSchedule отвязывает оставшиеся слоты от удаляемого расписания.
// Дальше такие слоты ведут себя как ручные.
func (r *Repository) ClearGeneratingSchedule(ctx context.Context, scheduleID int64) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("availability_slots").
		Set("generating_schedule_id", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"generating_schedule_id": scheduleID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: ClearGeneratingSchedule - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: ClearGeneratingSchedule - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: ClearGeneratingSchedule - get rows affected: %v", ErrExecQuery, err)
	}
	return rowsAffected, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*domain.AvailabilitySlot, error) {
	var slot domain.AvailabilitySlot
	var bookingID, scheduleID sql.NullInt64

	err := row.Scan(
		&slot.ID,
		&slot.WorkerID,
		&slot.BusinessProfileID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Status,
		&bookingID,
		&scheduleID,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.StartTime = slot.StartTime.UTC()
	slot.EndTime = slot.EndTime.UTC()
	if bookingID.Valid {
		slot.BookingID = &bookingID.Int64
	}
	if scheduleID.Valid {
		slot.GeneratingScheduleID = &scheduleID.Int64
	}
	return &slot, nil
}

func statusStrings(statuses []domain.SlotStatus) []string {
	result := make([]string, len(statuses))
	for i, s := range statuses {
		result[i] = string(s)
	}
	return result
}
