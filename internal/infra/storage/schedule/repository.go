package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var scheduleColumns = []string{
	"id",
	"worker_id",
	"business_profile_id",
	"title",
	"is_default",
	"effective_start_date",
	"effective_end_date",
	"time_zone_id",
	"version",
	"created_at",
	"updated_at",
}

// Repository репозиторий агрегата расписания.
// Агрегат читается и пишется целиком: корень, правила, перерывы и исключения.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новое расписание вместе с дочерними элементами
// Должен вызываться внутри транзакции, иначе дочерние элементы пишутся без атомарности
func (r *Repository) Create(ctx context.Context, s *domain.Schedule) (*domain.Schedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	data := s.Snapshot()

	query, args, err := psqlbuilder.Insert("schedules").
		Columns(
			"worker_id",
			"business_profile_id",
			"title",
			"is_default",
			"effective_start_date",
			"effective_end_date",
			"time_zone_id",
			"version",
		).
		Values(
			data.WorkerID,
			data.BusinessProfileID,
			data.Title,
			data.IsDefault,
			data.EffectiveStartDate,
			data.EffectiveEndDate,
			data.TimeZoneID,
			1,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var id int64
	var createdAt, updatedAt time.Time
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&id, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	if err := r.insertChildren(ctx, executor, id, data); err != nil {
		return nil, err
	}

	s.MarkPersisted(id, 1, createdAt, updatedAt)
	return s, nil
}

// GetByID загружает расписание бизнеса
// Внутри транзакции строка корня блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id, businessProfileID int64) (*domain.Schedule, error) {
	schedules, err := r.list(ctx, "GetByID", squirrel.Eq{"id": id, "business_profile_id": businessProfileID}, dbmetrics.IsInTransaction(ctx))
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, ErrScheduleNotFound
	}
	return schedules[0], nil
}

// ListByWorker все расписания работника
func (r *Repository) ListByWorker(ctx context.Context, workerID, businessProfileID int64) ([]*domain.Schedule, error) {
	return r.list(ctx, "ListByWorker", squirrel.Eq{"worker_id": workerID, "business_profile_id": businessProfileID}, false)
}

// ListActiveByWorker расписания работника, период действия которых пересекает [from, to]
func (r *Repository) ListActiveByWorker(ctx context.Context, workerID, businessProfileID int64, from, to time.Time) ([]*domain.Schedule, error) {
	where := squirrel.And{
		squirrel.Eq{"worker_id": workerID, "business_profile_id": businessProfileID},
		squirrel.LtOrEq{"effective_start_date": types.DateOnly(to)},
		squirrel.Or{
			squirrel.Eq{"effective_end_date": nil},
			squirrel.GtOrEq{"effective_end_date": types.DateOnly(from)},
		},
	}
	return r.list(ctx, "ListActiveByWorker", where, false)
}

// ListWorkersWithActiveSchedules работники, у которых есть расписание, действующее в [from, to]
func (r *Repository) ListWorkersWithActiveSchedules(ctx context.Context, from, to time.Time) ([]domain.WorkerRef, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("DISTINCT worker_id", "business_profile_id").
		From("schedules").
		Where(squirrel.LtOrEq{"effective_start_date": types.DateOnly(to)}).
		Where(squirrel.Or{
			squirrel.Eq{"effective_end_date": nil},
			squirrel.GtOrEq{"effective_end_date": types.DateOnly(from)},
		}).
		OrderBy("business_profile_id ASC", "worker_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListWorkersWithActiveSchedules - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListWorkersWithActiveSchedules - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	workers := make([]domain.WorkerRef, 0)
	for rows.Next() {
		var w domain.WorkerRef
		if err := rows.Scan(&w.WorkerID, &w.BusinessProfileID); err != nil {
			return nil, fmt.Errorf("%w: ListWorkersWithActiveSchedules - scan row: %v", ErrScanRow, err)
		}
		workers = append(workers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListWorkersWithActiveSchedules - rows error: %v", ErrScanRow, err)
	}

	return workers, nil
}

// Save записывает агрегат целиком.
// Корень обновляется только при совпадении версии, дочерние элементы пересоздаются.
// При расхождении версии возвращает ErrVersionConflict.
func (r *Repository) Save(ctx context.Context, s *domain.Schedule) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	data := s.Snapshot()

	query, args, err := psqlbuilder.Update("schedules").
		Set("title", data.Title).
		Set("is_default", data.IsDefault).
		Set("effective_start_date", data.EffectiveStartDate).
		Set("effective_end_date", data.EffectiveEndDate).
		Set("time_zone_id", data.TimeZoneID).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": data.ID, "version": data.Version}).
		Suffix("RETURNING version, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Save - build update query: %v", ErrBuildQuery, err)
	}

	var version int64
	var updatedAt time.Time
	err = executor.QueryRowContext(ctx, query, args...).Scan(&version, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("%w: Save - execute update: %v", ErrExecQuery, err)
	}

	// Перерывы удаляются каскадно вместе с правилами
	for _, table := range []string{"schedule_rule_items", "schedule_overrides"} {
		query, args, err := psqlbuilder.Delete(table).Where(squirrel.Eq{"schedule_id": data.ID}).ToSql()
		if err != nil {
			return fmt.Errorf("%w: Save - build delete %s query: %v", ErrBuildQuery, table, err)
		}
		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: Save - delete %s: %v", ErrExecQuery, table, err)
		}
	}

	if err := r.insertChildren(ctx, executor, data.ID, data); err != nil {
		return err
	}

	s.MarkPersisted(data.ID, version, data.CreatedAt, updatedAt)
	return nil
}

// ClearDefaultForWorker снимает флаг по умолчанию с остальных расписаний работника
func (r *Repository) ClearDefaultForWorker(ctx context.Context, workerID, businessProfileID, exceptID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("schedules").
		Set("is_default", false).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"worker_id": workerID, "business_profile_id": businessProfileID, "is_default": true}).
		Where(squirrel.NotEq{"id": exceptID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: ClearDefaultForWorker - build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: ClearDefaultForWorker - execute update: %v", ErrExecQuery, err)
	}
	return nil
}

// Delete удаляет расписание; дочерние элементы удаляются каскадно,
// у слотов generating_schedule_id обнуляется внешним ключом
func (r *Repository) Delete(ctx context.Context, id, businessProfileID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("schedules").
		Where(squirrel.Eq{"id": id, "business_profile_id": businessProfileID}).
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
		return ErrScheduleNotFound
	}
	return nil
}

// list загружает корни по условию и достраивает дочерние элементы
func (r *Repository) list(ctx context.Context, op string, where squirrel.Sqlizer, forUpdate bool) ([]*domain.Schedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(scheduleColumns...).
		From("schedules").
		Where(where).
		OrderBy("id ASC")
	if forUpdate {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}

	roots := make([]*domain.ScheduleData, 0)
	for rows.Next() {
		var data domain.ScheduleData
		var endDate sql.NullTime
		if err := rows.Scan(
			&data.ID,
			&data.WorkerID,
			&data.BusinessProfileID,
			&data.Title,
			&data.IsDefault,
			&data.EffectiveStartDate,
			&endDate,
			&data.TimeZoneID,
			&data.Version,
			&data.CreatedAt,
			&data.UpdatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: %s - scan schedule: %v", ErrScanRow, op, err)
		}
		data.EffectiveStartDate = types.DateOnly(data.EffectiveStartDate)
		if endDate.Valid {
			d := types.DateOnly(endDate.Time)
			data.EffectiveEndDate = &d
		}
		roots = append(roots, &data)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}
	rows.Close()

	if len(roots) == 0 {
		return []*domain.Schedule{}, nil
	}

	if err := r.loadChildren(ctx, executor, roots); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	schedules := make([]*domain.Schedule, 0, len(roots))
	for _, data := range roots {
		s, err := domain.RestoreSchedule(*data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - schedule id=%d: %v", ErrCorruptedData, op, data.ID, err)
		}
		schedules = append(schedules, s)
	}
	return schedules, nil
}

func (r *Repository) loadChildren(ctx context.Context, executor DBExecutor, roots []*domain.ScheduleData) error {
	byID := make(map[int64]*domain.ScheduleData, len(roots))
	ids := make([]int64, 0, len(roots))
	for _, data := range roots {
		byID[data.ID] = data
		ids = append(ids, data.ID)
	}

	// Правила
	query, args, err := psqlbuilder.Select("id", "schedule_id", "day_of_week", "start_time", "end_time", "is_working_day").
		From("schedule_rule_items").
		Where(squirrel.Eq{"schedule_id": ids}).
		OrderBy("schedule_id ASC", "day_of_week ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: build rule items query: %v", ErrBuildQuery, err)
	}

	type itemRef struct {
		scheduleID int64
		index      int
	}
	items := make(map[uuid.UUID]itemRef)
	itemIDs := make([]uuid.UUID, 0)

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: select rule items: %v", ErrExecQuery, err)
	}
	for rows.Next() {
		var item domain.ScheduleRuleItem
		var scheduleID int64
		var day int
		if err := rows.Scan(&item.ID, &scheduleID, &day, &item.StartTime, &item.EndTime, &item.IsWorkingDay); err != nil {
			rows.Close()
			return fmt.Errorf("%w: scan rule item: %v", ErrScanRow, err)
		}
		item.DayOfWeek = time.Weekday(day)
		data := byID[scheduleID]
		data.RuleItems = append(data.RuleItems, item)
		items[item.ID] = itemRef{scheduleID: scheduleID, index: len(data.RuleItems) - 1}
		itemIDs = append(itemIDs, item.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("%w: rule items rows error: %v", ErrScanRow, err)
	}
	rows.Close()

	// Перерывы
	if len(itemIDs) > 0 {
		query, args, err = psqlbuilder.Select("id", "rule_item_id", "name", "start_time", "end_time").
			From("schedule_breaks").
			Where(squirrel.Eq{"rule_item_id": itemIDs}).
			OrderBy("start_time ASC").
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: build breaks query: %v", ErrBuildQuery, err)
		}

		rows, err = executor.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%w: select breaks: %v", ErrExecQuery, err)
		}
		for rows.Next() {
			var br domain.BreakRule
			var itemID uuid.UUID
			if err := rows.Scan(&br.ID, &itemID, &br.Name, &br.StartTime, &br.EndTime); err != nil {
				rows.Close()
				return fmt.Errorf("%w: scan break: %v", ErrScanRow, err)
			}
			ref, ok := items[itemID]
			if !ok {
				continue
			}
			item := &byID[ref.scheduleID].RuleItems[ref.index]
			item.Breaks = append(item.Breaks, br)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("%w: breaks rows error: %v", ErrScanRow, err)
		}
		rows.Close()
	}

	// Исключения
	query, args, err = psqlbuilder.Select("id", "schedule_id", "override_date", "reason", "is_working_day", "start_time", "end_time").
		From("schedule_overrides").
		Where(squirrel.Eq{"schedule_id": ids}).
		OrderBy("override_date ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: build overrides query: %v", ErrBuildQuery, err)
	}

	rows, err = executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: select overrides: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o domain.ScheduleOverride
		var scheduleID int64
		var start, end sql.NullString
		if err := rows.Scan(&o.ID, &scheduleID, &o.OverrideDate, &o.Reason, &o.IsWorkingDay, &start, &end); err != nil {
			return fmt.Errorf("%w: scan override: %v", ErrScanRow, err)
		}
		o.OverrideDate = types.DateOnly(o.OverrideDate)
		if o.StartTime, err = nullTime(start); err != nil {
			return fmt.Errorf("%w: override start_time: %v", ErrScanRow, err)
		}
		if o.EndTime, err = nullTime(end); err != nil {
			return fmt.Errorf("%w: override end_time: %v", ErrScanRow, err)
		}
		byID[scheduleID].Overrides = append(byID[scheduleID].Overrides, o)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: overrides rows error: %v", ErrScanRow, err)
	}

	return nil
}

func (r *Repository) insertChildren(ctx context.Context, executor DBExecutor, scheduleID int64, data domain.ScheduleData) error {
	if len(data.RuleItems) > 0 {
		itemsInsert := psqlbuilder.Insert("schedule_rule_items").
			Columns("id", "schedule_id", "day_of_week", "start_time", "end_time", "is_working_day")
		breaksInsert := psqlbuilder.Insert("schedule_breaks").
			Columns("id", "rule_item_id", "name", "start_time", "end_time")
		breaksCount := 0

		for _, item := range data.RuleItems {
			itemsInsert = itemsInsert.Values(item.ID, scheduleID, int(item.DayOfWeek), item.StartTime, item.EndTime, item.IsWorkingDay)
			for _, br := range item.Breaks {
				breaksInsert = breaksInsert.Values(br.ID, item.ID, br.Name, br.StartTime, br.EndTime)
				breaksCount++
			}
		}

		query, args, err := itemsInsert.ToSql()
		if err != nil {
			return fmt.Errorf("%w: insert rule items - build query: %v", ErrBuildQuery, err)
		}
		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: insert rule items: %v", ErrExecQuery, err)
		}

		if breaksCount > 0 {
			query, args, err := breaksInsert.ToSql()
			if err != nil {
				return fmt.Errorf("%w: insert breaks - build query: %v", ErrBuildQuery, err)
			}
			if _, err := executor.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("%w: insert breaks: %v", ErrExecQuery, err)
			}
		}
	}

	if len(data.Overrides) > 0 {
		overridesInsert := psqlbuilder.Insert("schedule_overrides").
			Columns("id", "schedule_id", "override_date", "reason", "is_working_day", "start_time", "end_time")
		for _, o := range data.Overrides {
			overridesInsert = overridesInsert.Values(o.ID, scheduleID, o.OverrideDate, o.Reason, o.IsWorkingDay, o.StartTime, o.EndTime)
		}

		query, args, err := overridesInsert.ToSql()
		if err != nil {
			return fmt.Errorf("%w: insert overrides - build query: %v", ErrBuildQuery, err)
		}
		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: insert overrides: %v", ErrExecQuery, err)
		}
	}

	return nil
}

func nullTime(s sql.NullString) (*types.TimeString, error) {
	if !s.Valid {
		return nil, nil
	}
	var t types.TimeString
	if err := t.Scan(s.String); err != nil {
		return nil, err
	}
	return &t, nil
}
