package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

// uniqueViolation код ошибки PostgreSQL для нарушения уникального индекса
const uniqueViolation = "23505"

var bookingColumns = []string{
	"b.id",
	"b.business_profile_id",
	"b.customer_id",
	"b.service_id",
	"b.worker_id",
	"b.availability_slot_id",
	"b.booking_start_time",
	"b.booking_end_time",
	"b.status",
	"b.service_name",
	"b.price_at_booking",
	"b.notes_by_customer",
	"b.notes_by_vendor",
	"b.cancellation_reason",
	"b.cancelled_at",
	"b.rescheduled_from_id",
	"b.created_at",
	"b.updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Вызывается в одной транзакции с MarkBooked слота.
// Частичный уникальный индекс по availability_slot_id не дает двум активным бронированиям
// держать один слот, нарушение возвращается как ErrSlotAlreadyHeld.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"business_profile_id",
			"customer_id",
			"service_id",
			"worker_id",
			"availability_slot_id",
			"booking_start_time",
			"booking_end_time",
			"status",
			"service_name",
			"price_at_booking",
			"notes_by_customer",
			"notes_by_vendor",
			"rescheduled_from_id",
		).
		Values(
			booking.BusinessProfileID,
			booking.CustomerID,
			booking.ServiceID,
			booking.WorkerID,
			booking.AvailabilitySlotID,
			booking.BookingStartTime.UTC(),
			booking.BookingEndTime.UTC(),
			booking.Status,
			booking.ServiceName,
			booking.PriceAtBooking,
			booking.NotesByCustomer,
			booking.NotesByVendor,
			booking.RescheduledFromID,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrSlotAlreadyHeld
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return booking, nil
}

// GetByID получает бронирование по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings b").
		Where(squirrel.Eq{"b.id": id})
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// GetDetails бронирование с именами клиента и работника
func (r *Repository) GetDetails(ctx context.Context, id int64) (*domain.BookingDetails, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := detailsSelect().
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetDetails - build select query: %v", ErrBuildQuery, err)
	}

	details, err := scanDetails(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetDetails - scan booking: %v", ErrScanRow, err)
	}

	return details, nil
}

// List бронирования бизнеса или клиента с фильтрацией и пагинацией
// BusinessProfileID = 0 и заданный CustomerID - выборка по клиенту
func (r *Repository) List(ctx context.Context, filter domain.BookingFilter) (*domain.BookingPage, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	filter.Normalize()

	where := squirrel.And{}
	if filter.BusinessProfileID > 0 {
		where = append(where, squirrel.Eq{"b.business_profile_id": filter.BusinessProfileID})
	}
	if filter.WorkerID != nil {
		where = append(where, squirrel.Eq{"b.worker_id": *filter.WorkerID})
	}
	if filter.ServiceID != nil {
		where = append(where, squirrel.Eq{"b.service_id": *filter.ServiceID})
	}
	if filter.CustomerID != nil {
		where = append(where, squirrel.Eq{"b.customer_id": *filter.CustomerID})
	}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"b.status": *filter.Status})
	}
	if filter.From != nil {
		where = append(where, squirrel.GtOrEq{"b.booking_start_time": filter.From.UTC()})
	}
	if filter.To != nil {
		where = append(where, squirrel.Lt{"b.booking_start_time": filter.To.UTC()})
	}

	countQuery, countArgs, err := psqlbuilder.Select("COUNT(*)").
		From("bookings b").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build count query: %v", ErrBuildQuery, err)
	}

	var total int
	if err := executor.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("%w: List - execute count: %v", ErrExecQuery, err)
	}

	query, args, err := detailsSelect().
		Where(where).
		OrderBy("b.booking_start_time DESC", "b.id DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	items := make([]*domain.BookingDetails, 0)
	for rows.Next() {
		details, err := scanDetails(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan row: %v", ErrScanRow, err)
		}
		items = append(items, details)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %v", ErrScanRow, err)
	}

	return &domain.BookingPage{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// UpdateStatus меняет статус, если текущий статус равен from
// Иначе возвращает ErrStatusConflict
func (r *Repository) UpdateStatus(ctx context.Context, booking *domain.Booking, from domain.BookingStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", booking.Status).
		Set("notes_by_vendor", booking.NotesByVendor).
		Set("cancellation_reason", booking.CancellationReason).
		Set("cancelled_at", booking.CancelledAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": booking.ID, "status": from}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	var updatedAt time.Time
	err = executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStatusConflict
	}
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	booking.UpdatedAt = updatedAt
	return nil
}

// HasActiveForSlot держит ли слот какое-либо активное бронирование
func (r *Repository) HasActiveForSlot(ctx context.Context, slotID int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("1").
		From("bookings").
		Where(squirrel.Eq{"availability_slot_id": slotID}).
		Where(squirrel.NotEq{"status": releasedStatuses()}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: HasActiveForSlot - build select query: %v", ErrBuildQuery, err)
	}

	var one int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: HasActiveForSlot - execute query: %v", ErrExecQuery, err)
	}
	return true, nil
}

func detailsSelect() squirrel.SelectBuilder {
	columns := append(append([]string{}, bookingColumns...), "c.name", "c.email", "w.name")
	return psqlbuilder.Select(columns...).
		From("bookings b").
		LeftJoin("customers c ON c.id = b.customer_id").
		LeftJoin("workers w ON w.id = b.worker_id")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func bookingDest(b *domain.Booking, rescheduledFrom *sql.NullInt64) []interface{} {
	return []interface{}{
		&b.ID,
		&b.BusinessProfileID,
		&b.CustomerID,
		&b.ServiceID,
		&b.WorkerID,
		&b.AvailabilitySlotID,
		&b.BookingStartTime,
		&b.BookingEndTime,
		&b.Status,
		&b.ServiceName,
		&b.PriceAtBooking,
		&b.NotesByCustomer,
		&b.NotesByVendor,
		&b.CancellationReason,
		&b.CancelledAt,
		rescheduledFrom,
		&b.CreatedAt,
		&b.UpdatedAt,
	}
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var rescheduledFrom sql.NullInt64

	if err := row.Scan(bookingDest(&b, &rescheduledFrom)...); err != nil {
		return nil, err
	}
	normalize(&b, rescheduledFrom)
	return &b, nil
}

func scanDetails(row rowScanner) (*domain.BookingDetails, error) {
	var d domain.BookingDetails
	var rescheduledFrom sql.NullInt64

	dest := append(bookingDest(&d.Booking, &rescheduledFrom), &d.CustomerName, &d.CustomerEmail, &d.WorkerName)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	normalize(&d.Booking, rescheduledFrom)
	return &d, nil
}

func normalize(b *domain.Booking, rescheduledFrom sql.NullInt64) {
	b.BookingStartTime = b.BookingStartTime.UTC()
	b.BookingEndTime = b.BookingEndTime.UTC()
	if rescheduledFrom.Valid {
		b.RescheduledFromID = &rescheduledFrom.Int64
	}
}

func releasedStatuses() []string {
	return []string{
		string(domain.StatusCancelledByCustomer),
		string(domain.StatusCancelledByVendor),
		string(domain.StatusRescheduled),
	}
}
