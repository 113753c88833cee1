// Package unit defines the subordinate crews (caporegimes) a player commands.
// This package is PURE and must NOT import any infrastructure packages.
package unit

// Caporegime is a subordinate unit: a lieutenant with a garrison of soldiers.
// TerritoryID is a weak reference, the inverse of Territory.AssignedUnitID;
// the two must stay mutually consistent.
type Caporegime struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Level    int     `json:"level"`
	Garrison int     `json:"garrison"`
	Capacity int     `json:"capacity"`
	Strength float64 `json:"strength"` // per-soldier combat strength

	// FamilyID is empty for an unaffiliated unit.
	FamilyID string `json:"family_id,omitempty"`

	// Earnings accrued from the assigned territory's take.
	Earnings float64 `json:"earnings"`

	TerritoryID string `json:"territory_id,omitempty"`
}

// Assigned reports whether the unit garrisons a territory.
func (c *Caporegime) Assigned() bool {
	return c.TerritoryID != ""
}

// RoomFor reports how many more soldiers the unit can hold.
func (c *Caporegime) RoomFor() int {
	if c.Garrison >= c.Capacity {
		return 0
	}
	return c.Capacity - c.Garrison
}

// CombatStrength is the strength the unit projects with n committed soldiers.
func (c *Caporegime) CombatStrength(soldiers int) float64 {
	return float64(soldiers) * c.Strength * (1 + 0.1*float64(c.Level-1))
}

// Clone returns a copy.
func (c *Caporegime) Clone() *Caporegime {
	out := *c
	return &out
}
