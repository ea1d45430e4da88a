package slotsettings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

var settingsColumns = []string{
	"id",
	"business_profile_id",
	"worker_id",
	"slot_duration_minutes",
	"horizon_days",
	"min_booking_notice_minutes",
	"created_at",
	"updated_at",
}

// Repository репозиторий настроек генерации слотов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория настроек
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Upsert создает или обновляет настройки для пары (бизнес, работник)
// workerID = nil - настройки уровня бизнеса
func (r *Repository) Upsert(ctx context.Context, settings *domain.SlotSettings) (*domain.SlotSettings, error) {
	existing, err := r.GetByScope(ctx, settings.BusinessProfileID, settings.WorkerID)
	if err != nil && !errors.Is(err, ErrSettingsNotFound) {
		return nil, err
	}
	if existing != nil {
		return r.Update(ctx, existing.ID, settings)
	}
	return r.Create(ctx, settings)
}

// Create создает настройки
func (r *Repository) Create(ctx context.Context, settings *domain.SlotSettings) (*domain.SlotSettings, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("slot_settings").
		Columns(
			"business_profile_id",
			"worker_id",
			"slot_duration_minutes",
			"horizon_days",
			"min_booking_notice_minutes",
		).
		Values(
			settings.BusinessProfileID,
			settings.WorkerID,
			settings.SlotDurationMinutes,
			settings.HorizonDays,
			settings.MinBookingNoticeMinutes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&settings.ID, &settings.CreatedAt, &settings.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return settings, nil
}

// GetByScope точное совпадение по бизнесу и работнику (NULL - уровень бизнеса)
func (r *Repository) GetByScope(ctx context.Context, businessProfileID int64, workerID *int64) (*domain.SlotSettings, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(settingsColumns...).
		From("slot_settings").
		Where(squirrel.Eq{"business_profile_id": businessProfileID})

	if workerID == nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"worker_id": nil})
	} else {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"worker_id": *workerID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByScope - build select query: %v", ErrBuildQuery, err)
	}

	settings, err := scanSettings(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByScope - scan settings: %v", ErrScanRow, err)
	}

	return settings, nil
}

// GetWithHierarchy настройки с учетом приоритета:
// 1. Настройки работника (businessProfileID, workerID)
// 2. Настройки бизнеса (businessProfileID, NULL)
//
// Если настроек нет ни на одном уровне, возвращает ErrSettingsNotFound
func (r *Repository) GetWithHierarchy(ctx context.Context, businessProfileID, workerID int64) (*domain.SlotSettings, error) {
	settings, err := r.GetByScope(ctx, businessProfileID, &workerID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, ErrSettingsNotFound) {
		return nil, fmt.Errorf("%w: GetWithHierarchy - worker level: %v", ErrExecQuery, err)
	}

	settings, err = r.GetByScope(ctx, businessProfileID, nil)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, ErrSettingsNotFound) {
		return nil, fmt.Errorf("%w: GetWithHierarchy - business level: %v", ErrExecQuery, err)
	}

	return nil, ErrSettingsNotFound
}

// MaxHorizonDays наибольший горизонт среди всех сохраненных настроек, 0 если настроек нет
func (r *Repository) MaxHorizonDays(ctx context.Context) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COALESCE(MAX(horizon_days), 0)").
		From("slot_settings").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: MaxHorizonDays - build select query: %v", ErrBuildQuery, err)
	}

	var days int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&days); err != nil {
		return 0, fmt.Errorf("%w: MaxHorizonDays - scan: %v", ErrScanRow, err)
	}
	return days, nil
}

// ListByBusiness все настройки бизнеса, уровень бизнеса первым
func (r *Repository) ListByBusiness(ctx context.Context, businessProfileID int64) ([]*domain.SlotSettings, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(settingsColumns...).
		From("slot_settings").
		Where(squirrel.Eq{"business_profile_id": businessProfileID}).
		OrderBy("worker_id ASC NULLS FIRST").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByBusiness - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByBusiness - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make([]*domain.SlotSettings, 0)
	for rows.Next() {
		settings, err := scanSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByBusiness - scan row: %v", ErrScanRow, err)
		}
		result = append(result, settings)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByBusiness - rows error: %v", ErrScanRow, err)
	}

	return result, nil
}

// Update обновляет значения настроек
func (r *Repository) Update(ctx context.Context, id int64, settings *domain.SlotSettings) (*domain.SlotSettings, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slot_settings").
		Set("slot_duration_minutes", settings.SlotDurationMinutes).
		Set("horizon_days", settings.HorizonDays).
		Set("min_booking_notice_minutes", settings.MinBookingNoticeMinutes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&settings.CreatedAt, &settings.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	settings.ID = id
	return settings, nil
}

// DeleteByScope удаляет настройки уровня (бизнес, работник)
func (r *Repository) DeleteByScope(ctx context.Context, businessProfileID int64, workerID *int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	deleteBuilder := psqlbuilder.Delete("slot_settings").
		Where(squirrel.Eq{"business_profile_id": businessProfileID})
	if workerID == nil {
		deleteBuilder = deleteBuilder.Where(squirrel.Eq{"worker_id": nil})
	} else {
		deleteBuilder = deleteBuilder.Where(squirrel.Eq{"worker_id": *workerID})
	}

	query, args, err := deleteBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: DeleteByScope - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: DeleteByScope - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: DeleteByScope - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSettings(row rowScanner) (*domain.SlotSettings, error) {
	var settings domain.SlotSettings
	var workerID sql.NullInt64

	err := row.Scan(
		&settings.ID,
		&settings.BusinessProfileID,
		&workerID,
		&settings.SlotDurationMinutes,
		&settings.HorizonDays,
		&settings.MinBookingNoticeMinutes,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if workerID.Valid {
		settings.WorkerID = &workerID.Int64
	}
	return &settings, nil
}
