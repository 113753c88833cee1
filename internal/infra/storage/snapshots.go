package storage

import (
	"context"
	"fmt"

	"github.com/luparagames/omerta/internal/engine"
)

// RecordFromSnapshot flattens a session snapshot into its persisted
// form: queryable columns plus the compressed full state.
func RecordFromSnapshot(snap *engine.Snapshot) (PlayerRecord, error) {
	state, err := EncodeBlob(snap)
	if err != nil {
		return PlayerRecord{}, err
	}
	return PlayerRecord{
		PlayerID:  snap.Player.ID,
		Name:      snap.Player.Name,
		Level:     snap.Player.Level,
		Rank:      snap.Player.Rank.String(),
		Cash:      snap.Player.Cash,
		Respect:   snap.Player.Respect,
		UpdatedAt: snap.TakenAt,
		State:     state,
	}, nil
}

// SnapshotFromRecord restores the full session snapshot from a record.
func SnapshotFromRecord(rec *PlayerRecord) (*engine.Snapshot, error) {
	var snap engine.Snapshot
	if err := DecodeBlob(rec.State, &snap); err != nil {
		return nil, fmt.Errorf("player %s: %w", rec.PlayerID, err)
	}
	return &snap, nil
}

// SaveSession persists one session's current state.
func SaveSession(ctx context.Context, repo PlayerRepository, sess *engine.Session) error {
	rec, err := RecordFromSnapshot(sess.Snapshot())
	if err != nil {
		return err
	}
	return repo.Upsert(ctx, rec)
}
