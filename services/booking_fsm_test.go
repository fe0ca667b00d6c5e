package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-booking/models"
)

func TestTransition_AllowedPaths(t *testing.T) {
	cases := []struct {
		from    models.BookingStatus
		ev      BookingEvent
		to      models.BookingStatus
		effects []Effect
	}{
		{models.BookingPending, EventConfirm, models.BookingConfirmed, []Effect{EffectSetConfirmedBy}},
		{models.BookingPending, EventCancel, models.BookingCancelled, []Effect{EffectSetCancelled, EffectReleaseRooms}},
		{models.BookingConfirmed, EventCheckIn, models.BookingCheckedIn, []Effect{EffectSetCheckedInAt, EffectOccupyRooms}},
		{models.BookingConfirmed, EventNoShow, models.BookingNoShow, []Effect{EffectReleaseRooms}},
		{models.BookingCheckedIn, EventCheckOut, models.BookingCheckedOut, []Effect{EffectSetCheckedOutAt, EffectRoomsToCleaning}},
		{models.BookingCheckedIn, EventCancel, models.BookingCancelled, []Effect{EffectSetCancelled, EffectReleaseRooms}},
		{models.BookingCheckedOut, EventComplete, models.BookingCompleted, []Effect{}},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"/"+string(tc.ev), func(t *testing.T) {
			to, effects, err := Transition(tc.from, tc.ev)
			require.NoError(t, err)
			assert.Equal(t, tc.to, to)
			assert.Equal(t, tc.effects, effects)
		})
	}
}

func TestTransition_RejectsTerminalAndSkips(t *testing.T) {
	rejected := []struct {
		from models.BookingStatus
		ev   BookingEvent
	}{
		{models.BookingCancelled, EventCancel},
		{models.BookingCompleted, EventCancel},
		{models.BookingNoShow, EventConfirm},
		{models.BookingPending, EventCheckIn},
		{models.BookingPending, EventCheckOut},
		{models.BookingCheckedIn, EventNoShow},
		{models.BookingCheckedOut, EventCancel},
		{models.BookingConfirmed, EventConfirm},
	}
	for _, tc := range rejected {
		to, effects, err := Transition(tc.from, tc.ev)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s/%s", tc.from, tc.ev)
		assert.Equal(t, tc.from, to)
		assert.Nil(t, effects)
	}
}

func TestTransition_EffectsAreCopies(t *testing.T) {
	_, effects, err := Transition(models.BookingPending, EventCancel)
	require.NoError(t, err)
	effects[0] = EffectOccupyRooms

	_, again, _ := Transition(models.BookingPending, EventCancel)
	assert.Equal(t, EffectSetCancelled, again[0])
}

func TestEventForTarget(t *testing.T) {
	ev, err := EventForTarget(models.BookingCheckedOut)
	require.NoError(t, err)
	assert.Equal(t, EventCheckOut, ev)

	_, err = EventForTarget(models.BookingPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
