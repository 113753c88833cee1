package engine

import (
	"sort"
	"time"

	"github.com/luparagames/omerta/internal/domain/territory"
)

// ActionKind tags the variant of a pending timed action.
type ActionKind string

const (
	ActionBuild   ActionKind = "build"
	ActionUpgrade ActionKind = "upgrade"
	ActionAttack  ActionKind = "attack"
)

// AttackOrder carries the parameters fixed at the moment an attack was
// launched. Strength is computed once at start; later unit or attribute
// changes do not alter an attack already in flight.
type AttackOrder struct {
	UnitID     string           `json:"unit_id"`
	Soldiers   int              `json:"soldiers"`
	Strength   float64          `json:"strength"`
	PrevStatus territory.Status `json:"prev_status"`
}

// TimedAction is one pending entry in the ledger. Completion is derived
// from StartedAt+Duration against the current clock; nothing ticks.
type TimedAction struct {
	Kind      ActionKind    `json:"kind"`
	EntityID  string        `json:"entity_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Attack    *AttackOrder  `json:"attack,omitempty"`

	seq uint64
}

// Due reports whether the action has reached its completion instant.
func (a *TimedAction) Due(now time.Time) bool {
	return !now.Before(a.StartedAt.Add(a.Duration))
}

// ETA is the instant the action completes.
func (a *TimedAction) ETA() time.Time { return a.StartedAt.Add(a.Duration) }

// Progress reports completion in [0,1].
func (a *TimedAction) Progress(now time.Time) float64 {
	if a.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(a.StartedAt)) / float64(a.Duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func (a *TimedAction) clone() *TimedAction {
	c := *a
	if a.Attack != nil {
		atk := *a.Attack
		c.Attack = &atk
	}
	return &c
}

// Ledger holds the pending timed actions of a single session. At most
// one action may be pending per entity. The ledger itself is not
// goroutine safe; the owning session serializes access.
type Ledger struct {
	seq     uint64
	actions []*TimedAction
}

func NewLedger() *Ledger { return &Ledger{} }

// NewLedgerFrom restores a ledger from persisted actions. Insertion
// order of the slice becomes the tie-break order for simultaneous
// completions, so persist and restore in ledger order.
func NewLedgerFrom(actions []*TimedAction) *Ledger {
	l := &Ledger{}
	for _, a := range actions {
		c := a.clone()
		c.seq = l.seq
		l.seq++
		l.actions = append(l.actions, c)
	}
	return l
}

// Start registers a new pending action. It fails if the target entity
// already has one in flight.
func (l *Ledger) Start(a *TimedAction) error {
	if l.Pending(a.EntityID) != nil {
		return ErrActionInProgress
	}
	a.seq = l.seq
	l.seq++
	l.actions = append(l.actions, a)
	return nil
}

// Pending returns the in-flight action for an entity, or nil.
func (l *Ledger) Pending(entityID string) *TimedAction {
	for _, a := range l.actions {
		if a.EntityID == entityID {
			return a
		}
	}
	return nil
}

// Due returns the actions that have completed by now, ordered by
// StartedAt with insertion order breaking ties. Catch-up replays them
// in exactly this order.
func (l *Ledger) Due(now time.Time) []*TimedAction {
	var due []*TimedAction
	for _, a := range l.actions {
		if a.Due(now) {
			due = append(due, a)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if !due[i].StartedAt.Equal(due[j].StartedAt) {
			return due[i].StartedAt.Before(due[j].StartedAt)
		}
		return due[i].seq < due[j].seq
	})
	return due
}

// Take removes the action and reports whether it was still present.
// Resolvers call Take first so a double resolution is a no-op.
func (l *Ledger) Take(a *TimedAction) bool {
	for i, e := range l.actions {
		if e == a || (e.EntityID == a.EntityID && e.seq == a.seq) {
			l.actions = append(l.actions[:i], l.actions[i+1:]...)
			return true
		}
	}
	return false
}

// All returns clones of every pending action in ledger order, for
// snapshots.
func (l *Ledger) All() []*TimedAction {
	out := make([]*TimedAction, 0, len(l.actions))
	for _, a := range l.actions {
		out = append(out, a.clone())
	}
	return out
}

func (l *Ledger) Len() int { return len(l.actions) }
