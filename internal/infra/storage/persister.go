package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/luparagames/omerta/internal/events"
	"github.com/luparagames/omerta/internal/platform/logger"
	"github.com/luparagames/omerta/internal/platform/metrics"
)

// EventPersister bridges the in-memory event log to an EventRepository.
// The event log calls Append from its write-through goroutine, so the
// engine never blocks on the database.
type EventPersister struct {
	repo    EventRepository
	log     *logger.Logger
	met     *metrics.Collector
	timeout time.Duration
}

func NewEventPersister(repo EventRepository, log *logger.Logger, met *metrics.Collector) *EventPersister {
	return &EventPersister{
		repo:    repo,
		log:     log,
		met:     met,
		timeout: 5 * time.Second,
	}
}

// Append writes one event row. Errors are logged and counted, never
// propagated into the engine.
func (p *EventPersister) Append(event events.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	started := time.Now()
	err := p.repo.Append(ctx, toStored(event))
	p.met.RecordEventWrite(time.Since(started), err)
	if err != nil {
		p.log.Error("event write failed for %s/%s: %v", event.PlayerID, event.Type, err)
	}
	return err
}

// toStored flattens the typed payload into the generic persisted form.
func toStored(e events.Event) StoredEvent {
	out := StoredEvent{
		ID:        e.ID,
		PlayerID:  e.PlayerID,
		Timestamp: e.Timestamp,
		EventType: string(e.Type),
		EntityID:  e.EntityID,
	}
	if e.Payload != nil {
		if raw, err := json.Marshal(e.Payload); err == nil {
			_ = json.Unmarshal(raw, &out.Payload)
		}
	}
	if out.Payload == nil {
		out.Payload = map[string]interface{}{}
	}
	return out
}

var _ events.Persister = (*EventPersister)(nil)
