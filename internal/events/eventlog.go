package events

import "sync"

// Persister defines how an event is durably stored.
type Persister interface {
	Append(event Event) error
}

// EventLog is the in-memory append-only log of domain events, write-through
// to an optional persister. Events are immutable once appended.
type EventLog struct {
	mu        sync.RWMutex
	events    []Event
	persister Persister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister Persister) *EventLog {
	return &EventLog{
		events:    make([]Event, 0),
		persister: persister,
	}
}

// Append adds a new event to the log.
func (el *EventLog) Append(event Event) {
	el.mu.Lock()
	el.events = append(el.events, event)
	el.mu.Unlock()

	if el.persister != nil {
		// Write-through; the persister owns its own error reporting.
		go func(e Event) {
			_ = el.persister.Append(e)
		}(event)
	}
}

// AppendAll appends a batch in order.
func (el *EventLog) AppendAll(evs []Event) {
	for _, e := range evs {
		el.Append(e)
	}
}

// ByPlayer returns all events for a specific player.
func (el *EventLog) ByPlayer(playerID string) []Event {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []Event
	for _, e := range el.events {
		if e.PlayerID == playerID {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns the full history for state auditing and the push shell.
func (el *EventLog) Replay() []Event {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.events
}

// Len returns the number of appended events.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}
