package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// InitPostgres connects to PostgreSQL and creates the schemas. Selected
// over SQLite when OMERTA_DATABASE_URL is set.
func InitPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	schemas := []string{
		`CREATE TABLE IF NOT EXISTS players (
			player_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			level INTEGER NOT NULL DEFAULT 1,
			rank TEXT NOT NULL DEFAULT 'Soldato',
			cash DOUBLE PRECISION NOT NULL DEFAULT 0,
			respect BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL,
			state BYTEA
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			event_type TEXT NOT NULL,
			entity_id TEXT NOT NULL DEFAULT '',
			payload JSONB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_player_id ON events(player_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(player_id, event_type);`,
	}
	for _, query := range schemas {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return nil, fmt.Errorf("failed to create schemas: %w", err)
		}
	}
	return db, nil
}

// PostgresEventRepository implements EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

func (r *PostgresEventRepository) Append(ctx context.Context, event StoredEvent) error {
	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, player_id, timestamp, event_type, entity_id, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.PlayerID, event.Timestamp, event.EventType, event.EntityID, payloadJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *PostgresEventRepository) GetByPlayerID(ctx context.Context, playerID string) ([]StoredEvent, error) {
	query := `
		SELECT id, player_id, timestamp, event_type, entity_id, payload
		FROM events
		WHERE player_id = $1
		ORDER BY timestamp ASC
	`
	return r.queryEvents(ctx, query, playerID)
}

func (r *PostgresEventRepository) GetByEventType(ctx context.Context, playerID, eventType string) ([]StoredEvent, error) {
	query := `
		SELECT id, player_id, timestamp, event_type, entity_id, payload
		FROM events
		WHERE player_id = $1 AND event_type = $2
		ORDER BY timestamp ASC
	`
	return r.queryEvents(ctx, query, playerID, eventType)
}

func (r *PostgresEventRepository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]StoredEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		var payloadJSON []byte
		var entityID sql.NullString

		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Timestamp, &e.EventType, &entityID, &payloadJSON); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if entityID.Valid {
			e.EntityID = entityID.String
		}
		if err := json.Unmarshal(payloadJSON, &e.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// PostgresPlayerRepository implements PlayerRepository using PostgreSQL.
type PostgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) *PostgresPlayerRepository {
	return &PostgresPlayerRepository{db: db}
}

func (r *PostgresPlayerRepository) Upsert(ctx context.Context, record PlayerRecord) error {
	query := `
		INSERT INTO players (player_id, name, level, rank, cash, respect, updated_at, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (player_id) DO UPDATE SET
			name = EXCLUDED.name,
			level = EXCLUDED.level,
			rank = EXCLUDED.rank,
			cash = EXCLUDED.cash,
			respect = EXCLUDED.respect,
			updated_at = EXCLUDED.updated_at,
			state = EXCLUDED.state
	`
	_, err := r.db.ExecContext(ctx, query,
		record.PlayerID, record.Name, record.Level, record.Rank,
		record.Cash, record.Respect, record.UpdatedAt, record.State,
	)
	return err
}

func (r *PostgresPlayerRepository) Get(ctx context.Context, playerID string) (*PlayerRecord, error) {
	query := `SELECT player_id, name, level, rank, cash, respect, updated_at, state FROM players WHERE player_id = $1`
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

func (r *PostgresPlayerRepository) List(ctx context.Context) ([]PlayerRecord, error) {
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
	_ EventRepository  = (*PostgresEventRepository)(nil)
	_ PlayerRepository = (*PostgresPlayerRepository)(nil)
)
