package schedules

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedules/models"
)

type ScheduleService interface {
	Create(ctx context.Context, req *models.CreateScheduleRequest) (*models.ScheduleResponse, error)
	Get(ctx context.Context, id, businessProfileID int64) (*models.ScheduleResponse, error)
	ListByWorker(ctx context.Context, workerID, businessProfileID int64) (*models.ScheduleListResponse, error)
	UpdateDetails(ctx context.Context, id, businessProfileID int64, details domain.ScheduleDetails) (*models.ScheduleResponse, error)
	Delete(ctx context.Context, id, businessProfileID int64) error

	SetRuleItem(ctx context.Context, id, businessProfileID int64, req *models.SetRuleItemRequest) (*models.RuleItemResponse, error)
	RemoveRuleItem(ctx context.Context, id, businessProfileID int64, day time.Weekday) error
	AddBreak(ctx context.Context, id, businessProfileID int64, day time.Weekday, input domain.BreakInput) (*models.BreakResponse, error)
	UpdateBreak(ctx context.Context, id, businessProfileID int64, day time.Weekday, breakID uuid.UUID, input domain.BreakInput) (*models.BreakResponse, error)
	RemoveBreak(ctx context.Context, id, businessProfileID int64, day time.Weekday, breakID uuid.UUID) error

	AddOverride(ctx context.Context, id, businessProfileID int64, input domain.OverrideInput) (*models.OverrideResponse, error)
	RemoveOverride(ctx context.Context, id, businessProfileID int64, date time.Time) error

	ResolveAvailability(ctx context.Context, id, businessProfileID int64, from, to time.Time) (*models.AvailabilityResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
