// Package player defines the root domain entity of the simulation.
// This package is PURE and must NOT import any infrastructure packages
// (network, events, platform).
package player

import "time"

// Rank is the ordered family hierarchy a player climbs.
type Rank int

const (
	RankSoldato Rank = iota
	RankCaporegime
	RankConsigliere
	RankSottocapo
	RankCapo
)

func (r Rank) String() string {
	switch r {
	case RankSoldato:
		return "Soldato"
	case RankCaporegime:
		return "Caporegime"
	case RankConsigliere:
		return "Consigliere"
	case RankSottocapo:
		return "Sottocapo"
	case RankCapo:
		return "Capo"
	}
	return "Unknown"
}

// RankFromString maps a persisted rank name back to its ordinal.
func RankFromString(s string) Rank {
	switch s {
	case "Caporegime":
		return RankCaporegime
	case "Consigliere":
		return RankConsigliere
	case "Sottocapo":
		return RankSottocapo
	case "Capo":
		return RankCapo
	}
	return RankSoldato
}

// Attributes are the trainable stats attribute points are spent on.
type Attributes struct {
	Strength     int `json:"strength"`
	Defense      int `json:"defense"`
	Speed        int `json:"speed"`
	Intelligence int `json:"intelligence"`
	Charisma     int `json:"charisma"`
}

// Counters track lifetime totals used by mission requirements.
type Counters struct {
	CrimesCommitted     int `json:"crimes_committed"`
	CrimesSucceeded     int `json:"crimes_succeeded"`
	BuildsCompleted     int `json:"builds_completed"`
	TerritoriesCaptured int `json:"territories_captured"`
}

// State is the authoritative per-player progression state.
// All timestamps are absolute instants; elapsed time is always recomputed
// from now minus the stored instant, never accumulated by subtraction.
type State struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Progression
	Level            int     `json:"level"`
	Experience       float64 `json:"experience"`
	ExperienceToNext float64 `json:"experience_to_next"`
	Rank             Rank    `json:"rank"`
	AttributePoints  int     `json:"attribute_points"`
	Attributes       Attributes `json:"attributes"`

	// Economy
	Cash           float64 `json:"cash"`
	Respect        int64   `json:"respect"`
	PremiumBalance int64   `json:"premium_balance"`

	// Energy, bounded [0, MaxEnergy], regenerates over time.
	Energy    float64 `json:"energy"`
	MaxEnergy float64 `json:"max_energy"`

	// Level-derived cap on total crew garrison.
	MaxCrew int `json:"max_crew"`

	LastIncomeCollection time.Time `json:"last_income_collection"`

	// Per-crime cooldown anchors, keyed by crime catalog id.
	CrimeLastUsed map[string]time.Time `json:"crime_last_used"`

	Counters Counters `json:"counters"`
}

// New creates a fresh level-1 player.
func New(id, name string) *State {
	return &State{
		ID:            id,
		Name:          name,
		Level:         1,
		Rank:          RankSoldato,
		CrimeLastUsed: make(map[string]time.Time),
	}
}

// CanAfford reports whether the player holds at least amount cash.
func (s *State) CanAfford(amount float64) bool {
	return s.Cash >= amount
}

// SpendCash deducts amount, flooring at zero. Callers must validate
// with CanAfford first.
func (s *State) SpendCash(amount float64) {
	s.Cash -= amount
	if s.Cash < 0 {
		s.Cash = 0
	}
}

// AddEnergy adjusts energy within [0, MaxEnergy].
func (s *State) AddEnergy(delta float64) {
	s.Energy += delta
	if s.Energy > s.MaxEnergy {
		s.Energy = s.MaxEnergy
	}
	if s.Energy < 0 {
		s.Energy = 0
	}
}

// LastUsed returns the cooldown anchor for a crime, zero if never committed.
func (s *State) LastUsed(crimeID string) time.Time {
	return s.CrimeLastUsed[crimeID]
}

// MarkUsed advances the cooldown anchor for a crime.
func (s *State) MarkUsed(crimeID string, now time.Time) {
	if s.CrimeLastUsed == nil {
		s.CrimeLastUsed = make(map[string]time.Time)
	}
	s.CrimeLastUsed[crimeID] = now
}

// Clone returns a deep copy for torn-read-free snapshots.
func (s *State) Clone() *State {
	out := *s
	out.CrimeLastUsed = make(map[string]time.Time, len(s.CrimeLastUsed))
	for k, v := range s.CrimeLastUsed {
		out.CrimeLastUsed[k] = v
	}
	return &out
}
