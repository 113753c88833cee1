// Package territory defines contested map areas and their ownership
// state machine. This package is PURE and must NOT import infrastructure.
package territory

// Owner tags who currently controls a territory.
type Owner string

const (
	OwnerPlayer  Owner = "player"
	OwnerEnemy   Owner = "enemy"
	OwnerNeutral Owner = "neutral"
)

// Status is the territory state machine:
// Owned/Enemy/Neutral -> Attacking -> Owned on success, previous on failure.
type Status string

const (
	StatusOwned     Status = "owned"
	StatusEnemy     Status = "enemy"
	StatusNeutral   Status = "neutral"
	StatusAttacking Status = "attacking"
)

// StatusForOwner maps an owner tag to its resting status.
func StatusForOwner(o Owner) Status {
	switch o {
	case OwnerPlayer:
		return StatusOwned
	case OwnerEnemy:
		return StatusEnemy
	}
	return StatusNeutral
}

// Territory is a contested map area. The assigned unit is a weak reference
// by id; the territory does not own the unit's lifecycle, and the unit holds
// the inverse reference which must stay mutually consistent.
type Territory struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Owner  Owner  `json:"owner"`
	Status Status `json:"status"`

	// Income is cash per hour while owned by the player.
	Income float64 `json:"income"`
	// XPRate is experience per hour while owned by the player.
	XPRate float64 `json:"xp_rate"`

	Defense  float64 `json:"defense"`
	Garrison int     `json:"garrison"`

	AssignedUnitID string `json:"assigned_unit_id,omitempty"`
}

// OwnedByPlayer reports whether the territory currently produces for the player.
func (t *Territory) OwnedByPlayer() bool {
	return t.Owner == OwnerPlayer && t.Status == StatusOwned
}

// Clone returns a copy.
func (t *Territory) Clone() *Territory {
	out := *t
	return &out
}
