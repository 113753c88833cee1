// Package business defines the income-producing ventures a player owns.
// This package is PURE and must NOT import any infrastructure packages.
package business

import "time"

// Feature is an unlockable income booster. Multipliers compose
// multiplicatively, and only while the feature is both unlocked and active.
type Feature struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Cost       float64 `json:"cost"`
	Multiplier float64 `json:"multiplier"`
	Unlocked   bool    `json:"unlocked"`
	Active     bool    `json:"active"`
}

// Business is a single venture. Level 0 means the lot is bought but the
// venture is not yet constructed; construction takes it to level 1.
type Business struct {
	ID        string `json:"id"`
	CatalogID string `json:"catalog_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`

	// BaseIncome is cash per hour at level 1, before modifiers.
	BaseIncome float64 `json:"base_income"`

	Level    int `json:"level"`
	MaxLevel int `json:"max_level"`

	// Efficiency scales income in [0, 100] independent of level.
	Efficiency float64 `json:"efficiency"`

	BuildCost         float64       `json:"build_cost"`
	BuildDuration     time.Duration `json:"build_duration"`
	UpgradeDuration   time.Duration `json:"upgrade_duration"`
	UpgradeCostFactor float64       `json:"upgrade_cost_factor"`

	Features []Feature `json:"features"`
}

// Built reports whether construction has completed at least once.
func (b *Business) Built() bool {
	return b.Level > 0
}

// CurrentIncome is the derived cash-per-hour rate:
// baseIncome × level × (efficiency/100) × Π(active feature multipliers).
// It is recomputed on demand, never stored.
func (b *Business) CurrentIncome() float64 {
	if b.Level <= 0 {
		return 0
	}
	income := b.BaseIncome * float64(b.Level) * (b.Efficiency / 100)
	for _, f := range b.Features {
		if f.Unlocked && f.Active {
			income *= f.Multiplier
		}
	}
	return income
}

// NextCost is the cash price of the next level step: the build cost for an
// unbuilt venture, otherwise the upgrade cost compounding per level.
func (b *Business) NextCost() float64 {
	if !b.Built() {
		return b.BuildCost
	}
	cost := b.BuildCost
	for i := 0; i < b.Level; i++ {
		cost *= b.UpgradeCostFactor
	}
	return cost
}

// NextDuration is how long the next level step takes.
func (b *Business) NextDuration() time.Duration {
	if !b.Built() {
		return b.BuildDuration
	}
	return b.UpgradeDuration
}

// Feature returns a pointer to the feature with the given id, nil if absent.
func (b *Business) Feature(id string) *Feature {
	for i := range b.Features {
		if b.Features[i].ID == id {
			return &b.Features[i]
		}
	}
	return nil
}

// Clone returns a deep copy.
func (b *Business) Clone() *Business {
	out := *b
	out.Features = make([]Feature, len(b.Features))
	copy(out.Features, b.Features)
	return &out
}
