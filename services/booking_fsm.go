package services

import "hotel-booking/models"

// BookingEvent is an action requested against a booking.
type BookingEvent string

const (
	EventConfirm  BookingEvent = "confirm"
	EventCheckIn  BookingEvent = "check_in"
	EventCheckOut BookingEvent = "check_out"
	EventComplete BookingEvent = "complete"
	EventCancel   BookingEvent = "cancel"
	EventNoShow   BookingEvent = "no_show"
)

// Effect is a side effect that must be applied in the same transaction as
// the status change it belongs to.
type Effect int

const (
	EffectSetConfirmedBy Effect = iota + 1
	EffectSetCheckedInAt
	EffectOccupyRooms
	EffectSetCheckedOutAt
	EffectRoomsToCleaning
	EffectSetCancelled
	EffectReleaseRooms
)

// transitionKey indexes the transition table by current status and event.
type transitionKey struct {
	from  models.BookingStatus
	event BookingEvent
}

// transitionRule is the resulting status and the effects to apply with it.
type transitionRule struct {
	to      models.BookingStatus
	effects []Effect
}

var cancelEffects = []Effect{EffectSetCancelled, EffectReleaseRooms}

var bookingTransitions = map[transitionKey]transitionRule{
	{models.BookingPending, EventConfirm}: {models.BookingConfirmed, []Effect{EffectSetConfirmedBy}},
	{models.BookingPending, EventCancel}:  {models.BookingCancelled, cancelEffects},
	{models.BookingPending, EventNoShow}:  {models.BookingNoShow, []Effect{EffectReleaseRooms}},

	{models.BookingConfirmed, EventCheckIn}: {models.BookingCheckedIn, []Effect{EffectSetCheckedInAt, EffectOccupyRooms}},
	{models.BookingConfirmed, EventCancel}:  {models.BookingCancelled, cancelEffects},
	{models.BookingConfirmed, EventNoShow}:  {models.BookingNoShow, []Effect{EffectReleaseRooms}},

	{models.BookingCheckedIn, EventCheckOut}: {models.BookingCheckedOut, []Effect{EffectSetCheckedOutAt, EffectRoomsToCleaning}},
	{models.BookingCheckedIn, EventCancel}:   {models.BookingCancelled, cancelEffects},

	{models.BookingCheckedOut, EventComplete}: {models.BookingCompleted, nil},
}

// Transition is the single source of truth for the booking lifecycle.
func Transition(from models.BookingStatus, ev BookingEvent) (models.BookingStatus, []Effect, error) {
	rule, ok := bookingTransitions[transitionKey{from, ev}]
	if !ok {
		return from, nil, ErrInvalidTransition.WithMessage("订单状态 %s 不允许执行 %s", from, ev)
	}
	effects := make([]Effect, len(rule.effects))
	copy(effects, rule.effects)
	return rule.to, effects, nil
}

// EventForTarget maps a requested target status to the event that reaches it.
func EventForTarget(to models.BookingStatus) (BookingEvent, error) {
	switch to {
	case models.BookingConfirmed:
		return EventConfirm, nil
	case models.BookingCheckedIn:
		return EventCheckIn, nil
	case models.BookingCheckedOut:
		return EventCheckOut, nil
	case models.BookingCompleted:
		return EventComplete, nil
	case models.BookingCancelled:
		return EventCancel, nil
	case models.BookingNoShow:
		return EventNoShow, nil
	}
	return "", ErrInvalidTransition.WithMessage("无法将订单状态设置为 %s", to)
}
