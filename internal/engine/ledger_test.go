package engine

import (
	"errors"
	"testing"
	"time"
)

func TestLedgerExclusivityPerEntity(t *testing.T) {
	l := NewLedger()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	first := &TimedAction{Kind: ActionBuild, EntityID: "pizzeria", StartedAt: now, Duration: time.Minute}
	if err := l.Start(first); err != nil {
		t.Fatalf("Expected first start to succeed, got %v", err)
	}

	second := &TimedAction{Kind: ActionUpgrade, EntityID: "pizzeria", StartedAt: now, Duration: time.Minute}
	if err := l.Start(second); !errors.Is(err, ErrActionInProgress) {
		t.Errorf("Expected ErrActionInProgress for second action on same entity, got %v", err)
	}

	other := &TimedAction{Kind: ActionBuild, EntityID: "casino", StartedAt: now, Duration: time.Minute}
	if err := l.Start(other); err != nil {
		t.Errorf("Expected start on a different entity to succeed, got %v", err)
	}
}

func TestLedgerDueOrdering(t *testing.T) {
	l := NewLedger()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// Inserted out of chronological order; ties broken by insertion.
	late := &TimedAction{Kind: ActionBuild, EntityID: "c", StartedAt: base.Add(2 * time.Second), Duration: time.Second}
	tieA := &TimedAction{Kind: ActionBuild, EntityID: "a", StartedAt: base, Duration: time.Second}
	tieB := &TimedAction{Kind: ActionBuild, EntityID: "b", StartedAt: base, Duration: time.Second}
	for _, a := range []*TimedAction{late, tieA, tieB} {
		if err := l.Start(a); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
	}

	due := l.Due(base.Add(time.Minute))
	if len(due) != 3 {
		t.Fatalf("Expected 3 due actions, got %d", len(due))
	}
	// late was inserted first but starts last; ties keep insertion order.
	got := []string{due[0].EntityID, due[1].EntityID, due[2].EntityID}
	if got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("Expected due order [a b c] by StartedAt then insertion, got %v", got)
	}
}

func TestLedgerDueExcludesUnripe(t *testing.T) {
	l := NewLedger()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	a := &TimedAction{Kind: ActionBuild, EntityID: "a", StartedAt: base, Duration: 10 * time.Second}
	if err := l.Start(a); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if due := l.Due(base.Add(5 * time.Second)); len(due) != 0 {
		t.Errorf("Expected no due actions at t+5s, got %d", len(due))
	}
	// Exactly at the completion instant counts as due.
	if due := l.Due(base.Add(10 * time.Second)); len(due) != 1 {
		t.Errorf("Expected 1 due action exactly at ETA, got %d", len(due))
	}
}

func TestLedgerTakeIsIdempotent(t *testing.T) {
	l := NewLedger()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	a := &TimedAction{Kind: ActionBuild, EntityID: "a", StartedAt: base, Duration: time.Second}
	if err := l.Start(a); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if !l.Take(a) {
		t.Error("Expected first Take to report the action present")
	}
	if l.Take(a) {
		t.Error("Expected second Take to be a no-op")
	}
	if l.Len() != 0 {
		t.Errorf("Expected empty ledger after Take, got %d entries", l.Len())
	}
}

func TestTimedActionProgress(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a := &TimedAction{Kind: ActionBuild, EntityID: "a", StartedAt: base, Duration: 5 * time.Second}

	if p := a.Progress(base.Add(2 * time.Second)); p != 0.4 {
		t.Errorf("Expected progress 0.4 at t+2s of 5s, got %v", p)
	}
	if p := a.Progress(base.Add(time.Minute)); p != 1 {
		t.Errorf("Expected progress clamped to 1 past ETA, got %v", p)
	}
	if p := a.Progress(base.Add(-time.Second)); p != 0 {
		t.Errorf("Expected progress clamped to 0 before start, got %v", p)
	}
}

func TestLedgerRestorePreservesTieBreak(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	actions := []*TimedAction{
		{Kind: ActionBuild, EntityID: "a", StartedAt: base, Duration: time.Second},
		{Kind: ActionBuild, EntityID: "b", StartedAt: base, Duration: time.Second},
	}

	restored := NewLedgerFrom(actions)
	due := restored.Due(base.Add(time.Minute))
	if len(due) != 2 || due[0].EntityID != "a" || due[1].EntityID != "b" {
		t.Errorf("Expected restored tie-break order [a b], got %v", due)
	}
}
