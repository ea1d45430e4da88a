package slotsettings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/slotsettings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/testutil"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

func newService() *Service {
	store := testutil.NewStore()
	return NewService(store.Settings(), Defaults{SlotDurationMinutes: 0, HorizonDays: 28}, logger.Nop())
}

func TestService_ResolveFallsBackToDefaults(t *testing.T) {
	svc := newService()

	settings, err := svc.Resolve(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 28, settings.HorizonDays)
	assert.Zero(t, settings.SlotDurationMinutes)
	assert.Zero(t, settings.ID)
}

func TestService_Hierarchy(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Upsert(ctx, &models.UpsertSettingsRequest{BusinessProfileID: 1, SlotDurationMinutes: ptr.Ptr(30)})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, &models.UpsertSettingsRequest{BusinessProfileID: 1, WorkerID: ptr.Ptr(int64(5)), HorizonDays: ptr.Ptr(7)})
	require.NoError(t, err)

	worker, err := svc.Resolve(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 30, worker.SlotDurationMinutes, "inherited from business level")
	assert.Equal(t, 7, worker.HorizonDays)

	other, err := svc.Resolve(ctx, 1, 6)
	require.NoError(t, err)
	assert.Equal(t, 30, other.SlotDurationMinutes)
	assert.Equal(t, 28, other.HorizonDays)

	require.NoError(t, svc.Delete(ctx, 1, ptr.Ptr(int64(5))))
	worker, err = svc.Resolve(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 28, worker.HorizonDays)
}

func TestService_UpsertValidation(t *testing.T) {
	svc := newService()

	_, err := svc.Upsert(context.Background(), &models.UpsertSettingsRequest{BusinessProfileID: 1, SlotDurationMinutes: ptr.Ptr(3)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	err = svc.Delete(context.Background(), 1, nil)
	assert.ErrorIs(t, err, domain.ErrSlotSettingsNotFound)
}

func TestService_MaxHorizonDays(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	days, err := svc.MaxHorizonDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 28, days)

	_, err = svc.Upsert(ctx, &models.UpsertSettingsRequest{BusinessProfileID: 1, WorkerID: ptr.Ptr(int64(5)), HorizonDays: ptr.Ptr(60)})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, &models.UpsertSettingsRequest{BusinessProfileID: 2, HorizonDays: ptr.Ptr(7)})
	require.NoError(t, err)

	days, err = svc.MaxHorizonDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, days)
}
