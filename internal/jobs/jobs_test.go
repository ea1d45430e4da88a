package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/slotsettings"
	"github.com/m04kA/SMC-SchedulingService/internal/service/slotsettings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/testutil"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

var now = time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC)

type staticWorkers struct {
	refs     []domain.WorkerRef
	err      error
	from, to time.Time
}

func (s *staticWorkers) ListWorkersWithActiveSchedules(_ context.Context, from, to time.Time) ([]domain.WorkerRef, error) {
	s.from, s.to = from, to
	return s.refs, s.err
}

type staticHorizon int

func (h staticHorizon) MaxHorizonDays(context.Context) (int, error) { return int(h), nil }

type flakyRegenerator struct {
	testutil.LocalRegenerator
	failWorker int64
}

func (r *flakyRegenerator) RegenerateWindow(ctx context.Context, workerID, businessProfileID int64) error {
	_ = r.LocalRegenerator.RegenerateWindow(ctx, workerID, businessProfileID)
	if workerID == r.failWorker {
		return errors.New("boom")
	}
	return nil
}

func TestRegenerationJob_ContinuesPastFailures(t *testing.T) {
	workers := &staticWorkers{refs: []domain.WorkerRef{
		{WorkerID: 1, BusinessProfileID: 10},
		{WorkerID: 2, BusinessProfileID: 10},
		{WorkerID: 3, BusinessProfileID: 20},
	}}
	regen := &flakyRegenerator{failWorker: 2}
	job := NewRegenerationJob(workers, regen, staticHorizon(14), logger.Nop()).WithTimeProvider(testutil.NewFixedClock(now))

	result, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{Workers: 3, Failed: 1}, result)
	assert.Equal(t, 3, regen.CallCount())
	assert.Equal(t, [2]int64{3, 20}, regen.Calls[2])
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), workers.from)
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), workers.to)
}

func TestRegenerationJob_ListError(t *testing.T) {
	job := NewRegenerationJob(&staticWorkers{err: errors.New("db down")}, &testutil.LocalRegenerator{}, staticHorizon(14), logger.Nop())

	_, err := job.Run(context.Background())
	assert.Error(t, err)
}

func TestRegenerationJob_StopsOnCancel(t *testing.T) {
	workers := &staticWorkers{refs: []domain.WorkerRef{{WorkerID: 1, BusinessProfileID: 10}, {WorkerID: 2, BusinessProfileID: 10}}}
	regen := &testutil.LocalRegenerator{}
	job := NewRegenerationJob(workers, regen, staticHorizon(14), logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := job.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, regen.CallCount())
}

func TestRegenerationJob_WindowCoversLongestHorizon(t *testing.T) {
	store := testutil.NewStore()
	ctx := context.Background()
	svc := slotsettings.NewService(store.Settings(), slotsettings.Defaults{HorizonDays: 14}, logger.Nop())
	_, err := svc.Upsert(ctx, &models.UpsertSettingsRequest{BusinessProfileID: 1, WorkerID: ptr.Ptr(int64(5)), HorizonDays: ptr.Ptr(30)})
	require.NoError(t, err)

	workers := &staticWorkers{}
	job := NewRegenerationJob(workers, &testutil.LocalRegenerator{}, svc, logger.Nop()).WithTimeProvider(testutil.NewFixedClock(now))

	_, err = job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), workers.to)
}

func TestRegenerationJob_StopsWhenHorizonUnavailable(t *testing.T) {
	workers := &staticWorkers{}
	regen := &testutil.LocalRegenerator{}
	job := NewRegenerationJob(workers, regen, failingHorizon{}, logger.Nop())

	_, err := job.Run(context.Background())
	assert.Error(t, err)
	assert.True(t, workers.to.IsZero())
	assert.Zero(t, regen.CallCount())
}

type failingHorizon struct{}

func (failingHorizon) MaxHorizonDays(context.Context) (int, error) { return 0, errors.New("db down") }

func TestNewScheduler_RejectsInvalidExpression(t *testing.T) {
	job := NewRegenerationJob(&staticWorkers{}, &testutil.LocalRegenerator{}, staticHorizon(14), logger.Nop())

	_, err := NewScheduler(job, "every tuesday", nil, logger.Nop())
	assert.Error(t, err)
}

func TestScheduler_RunStopsWithContext(t *testing.T) {
	job := NewRegenerationJob(&staticWorkers{}, &testutil.LocalRegenerator{}, staticHorizon(14), logger.Nop())
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	s, err := NewScheduler(job, "0 3 * * *", loc, logger.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
