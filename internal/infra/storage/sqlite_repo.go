package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event StoredEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, player_id, timestamp, event_type, entity_id, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.PlayerID, event.Timestamp, event.EventType,
		event.EntityID, string(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]StoredEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		var payloadStr string
		err := rows.Scan(&e.ID, &e.PlayerID, &e.Timestamp, &e.EventType, &e.EntityID, &payloadStr)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetByPlayerID(ctx context.Context, playerID string) ([]StoredEvent, error) {
	query := `SELECT id, player_id, timestamp, event_type, entity_id, payload FROM events WHERE player_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, playerID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, playerID, eventType string) ([]StoredEvent, error) {
	query := `SELECT id, player_id, timestamp, event_type, entity_id, payload FROM events WHERE player_id = ? AND event_type = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, playerID, eventType)
}

// ---------------------------------------------------------
// SQLitePlayerRepository
// ---------------------------------------------------------

type SQLitePlayerRepository struct {
	db *sql.DB
}

func NewSQLitePlayerRepository(db *sql.DB) *SQLitePlayerRepository {
	return &SQLitePlayerRepository{db: db}
}

func (r *SQLitePlayerRepository) Upsert(ctx context.Context, record PlayerRecord) error {
	query := `
		INSERT INTO players (player_id, name, level, rank, cash, respect, updated_at, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET
			name=excluded.name,
			level=excluded.level,
			rank=excluded.rank,
			cash=excluded.cash,
			respect=excluded.respect,
			updated_at=excluded.updated_at,
			state=excluded.state
	`
	_, err := r.db.ExecContext(ctx, query,
		record.PlayerID, record.Name, record.Level, record.Rank,
		record.Cash, record.Respect, record.UpdatedAt, record.State,
	)
	return err
}

func (r *SQLitePlayerRepository) Get(ctx context.Context, playerID string) (*PlayerRecord, error) {
	query := `SELECT player_id, name, level, rank, cash, respect, updated_at, state FROM players WHERE player_id = ?`
	var rec PlayerRecord
	err := r.db.QueryRowContext(ctx, query, playerID).Scan(
		&rec.PlayerID, &rec.Name, &rec.Level, &rec.Rank, &rec.Cash, &rec.Respect, &rec.UpdatedAt, &rec.State,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *SQLitePlayerRepository) List(ctx context.Context) ([]PlayerRecord, error) {
	query := `SELECT player_id, name, level, rank, cash, respect, updated_at FROM players ORDER BY respect DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PlayerRecord
	for rows.Next() {
		var rec PlayerRecord
		if err := rows.Scan(&rec.PlayerID, &rec.Name, &rec.Level, &rec.Rank, &rec.Cash, &rec.Respect, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

var (
	_ EventRepository  = (*SQLiteEventRepository)(nil)
	_ PlayerRepository = (*SQLitePlayerRepository)(nil)
)
