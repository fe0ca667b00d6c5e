package events

import (
	"context"
	"sync"
	"time"
)

const (
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"
	BookingRoomsAssigned = "booking.rooms_assigned"
	BookingDeleted       = "booking.deleted"
	ReviewSubmitted      = "review.submitted"
)

// Event is the JSON message published for every committed booking change.
type Event struct {
	Type      string                 `json:"type"`
	BookingID uint                   `json:"bookingId"`
	StoreID   uint                   `json:"storeId"`
	Status    string                 `json:"status,omitempty"`
	Actor     string                 `json:"actor,omitempty"`
	At        time.Time              `json:"at"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Publisher delivers events after the database transaction commits.
// Failures are reported to the caller, which logs and moves on.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (m *MemoryPublisher) Publish(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

func (m *MemoryPublisher) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Types returns the event types in publish order.
func (m *MemoryPublisher) Types() []string {
	evs := m.Events()
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}
