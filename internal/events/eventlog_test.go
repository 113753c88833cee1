package events

import (
	"sync"
	"testing"
	"time"
)

type capturePersister struct {
	mu   sync.Mutex
	got  []Event
	done chan struct{}
	want int
}

func (p *capturePersister) Append(e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, e)
	if len(p.got) == p.want {
		close(p.done)
	}
	return nil
}

func TestEventLogAppendAndFilter(t *testing.T) {
	log := NewEventLog(nil)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	log.Append(New(TypeCrimeResolved, "P1", "pickpocket", at, nil))
	log.Append(New(TypeBuildStarted, "P2", "pizzeria", at, nil))
	log.Append(New(TypeLevelUp, "P1", "", at, nil))

	if log.Len() != 3 {
		t.Errorf("Expected 3 events in log, got %d", log.Len())
	}

	mine := log.ByPlayer("P1")
	if len(mine) != 2 {
		t.Fatalf("Expected 2 events for P1, got %d", len(mine))
	}
	if mine[0].Type != TypeCrimeResolved || mine[1].Type != TypeLevelUp {
		t.Errorf("Expected P1 events in append order, got %s then %s", mine[0].Type, mine[1].Type)
	}

	if len(log.ByPlayer("P3")) != 0 {
		t.Errorf("Expected no events for unknown player")
	}
}

func TestEventLogWriteThrough(t *testing.T) {
	p := &capturePersister{done: make(chan struct{}), want: 2}
	log := NewEventLog(p)
	at := time.Now()

	log.AppendAll([]Event{
		New(TypeAttackStarted, "P1", "docks", at, nil),
		New(TypeTerritoryCaptured, "P1", "docks", at, nil),
	})

	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("Persister never received the appended events")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.got) != 2 {
		t.Fatalf("Expected 2 persisted events, got %d", len(p.got))
	}
}

func TestNewFillsIdentity(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e := New(TypeRankPromoted, "P1", "", at, RankPromotedPayload{Rank: "Caporegime"})

	if e.ID == "" {
		t.Error("Expected a generated event id")
	}
	if !e.Timestamp.Equal(at) {
		t.Errorf("Expected timestamp %v, got %v", at, e.Timestamp)
	}
	if e.PlayerID != "P1" || e.Type != TypeRankPromoted {
		t.Errorf("Expected identity fields to round-trip, got %+v", e)
	}

	other := New(TypeRankPromoted, "P1", "", at, nil)
	if other.ID == e.ID {
		t.Error("Expected distinct ids for distinct events")
	}
}
