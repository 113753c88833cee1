// Package tuning holds the externally supplied engine tuning knobs.
// The engine treats these as read-only input, loaded once at startup.
package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	// Offline catch-up ceiling. Elapsed time beyond this is discarded,
	// bounding catch-up cost and clock-tampering payoff.
	MaxOfflineCatchupHours int `yaml:"max_offline_catchup_hours"`

	// Energy
	EnergyRegenPerHour float64 `yaml:"energy_regen_per_hour"`
	BaseMaxEnergy      float64 `yaml:"base_max_energy"`
	MaxEnergyPerLevel  float64 `yaml:"max_energy_per_level"`

	// Progression
	AttributePointsPerLevel int `yaml:"attribute_points_per_level"`
	BaseMaxCrew             int `yaml:"base_max_crew"`
	MaxCrewPerLevel         int `yaml:"max_crew_per_level"`

	// Combat
	SoldierLossFraction float64 `yaml:"soldier_loss_fraction"`
	AttackSeconds       int     `yaml:"attack_seconds"`

	// Units
	UnitEarningsCut float64 `yaml:"unit_earnings_cut"`
	SoldierCost     float64 `yaml:"soldier_cost"`

	// Persistence / transport shells
	SnapshotEverySeconds int `yaml:"snapshot_every_seconds"`
	ClientSendBuffer     int `yaml:"client_send_buffer"`
	BroadcastBuffer      int `yaml:"broadcast_buffer"`
}

// Default returns the shipped balance.
func Default() Tuning {
	return Tuning{
		MaxOfflineCatchupHours:  48,
		EnergyRegenPerHour:      12,
		BaseMaxEnergy:           100,
		MaxEnergyPerLevel:       5,
		AttributePointsPerLevel: 3,
		BaseMaxCrew:             20,
		MaxCrewPerLevel:         10,
		SoldierLossFraction:     0.25,
		AttackSeconds:           900,
		UnitEarningsCut:         0.1,
		SoldierCost:             250,
		SnapshotEverySeconds:    30,
		ClientSendBuffer:        64,
		BroadcastBuffer:         256,
	}
}

// Load reads tuning from a YAML file, starting from defaults so a partial
// file only overrides what it names.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Validate rejects values the engine cannot run with.
func (t Tuning) Validate() error {
	if t.MaxOfflineCatchupHours <= 0 {
		return fmt.Errorf("max_offline_catchup_hours must be positive, got %d", t.MaxOfflineCatchupHours)
	}
	if t.EnergyRegenPerHour < 0 {
		return fmt.Errorf("energy_regen_per_hour must not be negative, got %v", t.EnergyRegenPerHour)
	}
	if t.BaseMaxEnergy <= 0 {
		return fmt.Errorf("base_max_energy must be positive, got %v", t.BaseMaxEnergy)
	}
	if t.AttackSeconds <= 0 {
		return fmt.Errorf("attack_seconds must be positive, got %d", t.AttackSeconds)
	}
	if t.SoldierLossFraction < 0 || t.SoldierLossFraction > 1 {
		return fmt.Errorf("soldier_loss_fraction must be in [0,1], got %v", t.SoldierLossFraction)
	}
	if t.UnitEarningsCut < 0 || t.UnitEarningsCut > 1 {
		return fmt.Errorf("unit_earnings_cut must be in [0,1], got %v", t.UnitEarningsCut)
	}
	return nil
}

// MaxOfflineCatchup is the ceiling as a duration.
func (t Tuning) MaxOfflineCatchup() time.Duration {
	return time.Duration(t.MaxOfflineCatchupHours) * time.Hour
}
