package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

func TestBookingStatus_Transitions(t *testing.T) {
	allowed := map[BookingStatus][]BookingStatus{
		StatusPendingConfirmation: {StatusConfirmed, StatusCancelledByCustomer, StatusCancelledByVendor},
		StatusConfirmed:           {StatusCompleted, StatusNoShow, StatusCancelledByCustomer, StatusCancelledByVendor, StatusRescheduled},
	}

	for _, from := range AllBookingStatuses {
		for _, to := range AllBookingStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestBookingStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPendingConfirmation.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
	for _, s := range []BookingStatus{StatusCompleted, StatusNoShow, StatusCancelledByCustomer, StatusCancelledByVendor, StatusRescheduled} {
		assert.True(t, s.IsTerminal(), s)
	}
}

func TestBooking_TransitionTo(t *testing.T) {
	b := &Booking{Status: StatusPendingConfirmation}

	require.NoError(t, b.TransitionTo(StatusConfirmed))
	require.NoError(t, b.TransitionTo(StatusCompleted))

	err := b.TransitionTo(StatusCancelledByCustomer)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.Equal(t, StatusCompleted, b.Status)
}

func TestBooking_Cancel(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	b := &Booking{Status: StatusConfirmed}

	require.NoError(t, b.Cancel(StatusCancelledByVendor, ptr.Ptr("мастер заболел"), now))
	assert.Equal(t, StatusCancelledByVendor, b.Status)
	assert.Equal(t, "мастер заболел", *b.CancellationReason)
	assert.Equal(t, now, *b.CancelledAt)
	assert.False(t, b.IsActive())

	assert.ErrorIs(t, b.Cancel(StatusCancelledByCustomer, nil, now), ErrInvalidTransition)
	assert.ErrorIs(t, (&Booking{Status: StatusConfirmed}).Cancel(StatusCompleted, nil, now), ErrValidation)
}

func TestParseBookingStatus(t *testing.T) {
	s, err := ParseBookingStatus("no_show")
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, s)

	_, err = ParseBookingStatus("in_progress")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAvailabilitySlot_Validate(t *testing.T) {
	start := time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC)
	slot := AvailabilitySlot{WorkerID: 1, BusinessProfileID: 2, StartTime: start, EndTime: start.Add(time.Hour), Status: SlotStatusBooked}

	assert.ErrorIs(t, slot.Validate(), ErrInvalidSlotStatus, "booked without booking id")

	slot.BookingID = ptr.Ptr(int64(9))
	assert.NoError(t, slot.Validate())
	assert.True(t, slot.IsFixed())

	slot.Status = SlotStatusAvailable
	assert.ErrorIs(t, slot.Validate(), ErrInvalidSlotStatus, "available with booking id")

	slot.BookingID = nil
	slot.GeneratingScheduleID = ptr.Ptr(int64(3))
	assert.NoError(t, slot.Validate())
	assert.False(t, slot.IsFixed())
}
