// Package storage is the persistence layer. It implements the repository
// pattern so the engine stays pure: the engine never imports this package,
// the server shell wires repositories to the event log and the snapshot
// ticker.
package storage

import (
	"context"
	"time"
)

// StoredEvent mirrors the domain event structure for persistence.
type StoredEvent struct {
	ID        string                 `json:"id" db:"id"`
	PlayerID  string                 `json:"player_id" db:"player_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	EventType string                 `json:"event_type" db:"event_type"`
	EntityID  string                 `json:"entity_id" db:"entity_id"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
}

// EventRepository is the immutable ledger of committed domain events.
type EventRepository interface {
	// Append adds a new event. Events are never updated or deleted.
	Append(ctx context.Context, event StoredEvent) error

	// GetByPlayerID retrieves a player's full history for replay.
	GetByPlayerID(ctx context.Context, playerID string) ([]StoredEvent, error)

	// GetByEventType retrieves a player's events of one type.
	GetByEventType(ctx context.Context, playerID, eventType string) ([]StoredEvent, error)
}

// PlayerRecord is the persisted form of one player's state tree: a few
// queryable columns plus the full session snapshot as a compressed blob.
type PlayerRecord struct {
	PlayerID  string    `json:"player_id" db:"player_id"`
	Name      string    `json:"name" db:"name"`
	Level     int       `json:"level" db:"level"`
	Rank      string    `json:"rank" db:"rank"`
	Cash      float64   `json:"cash" db:"cash"`
	Respect   int64     `json:"respect" db:"respect"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// State is the zstd-compressed JSON session snapshot.
	State []byte `json:"-" db:"state"`
}

// PlayerRepository stores and loads player records.
type PlayerRepository interface {
	// Upsert writes the record, replacing any previous state.
	Upsert(ctx context.Context, record PlayerRecord) error

	// Get retrieves one record, nil if the player is unknown.
	Get(ctx context.Context, playerID string) (*PlayerRecord, error)

	// List retrieves every known player, without state blobs.
	List(ctx context.Context) ([]PlayerRecord, error)
}
