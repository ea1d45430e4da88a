package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

// Repository справочник работников, который наполняет сервис бизнесов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория работников
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// BelongsToBusiness проверяет, что работник не закреплен за другим бизнесом.
// Работник, которого еще нет в справочнике, принимается любым бизнесом.
func (r *Repository) BelongsToBusiness(ctx context.Context, workerID, businessProfileID int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("business_profile_id").
		From("workers").
		Where(squirrel.Eq{"id": workerID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: BelongsToBusiness - build select query: %v", ErrBuildQuery, err)
	}

	var owner int64
	err = executor.QueryRowContext(ctx, query, args...).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: BelongsToBusiness - worker=%d: %v", ErrScanRow, workerID, err)
	}

	return owner == businessProfileID, nil
}
