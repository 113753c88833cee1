// Package mission defines one-way completable objectives evaluated against a
// player snapshot. This package is PURE and must NOT import infrastructure.
package mission

// RequirementKind selects which snapshot field a mission tracks.
type RequirementKind string

const (
	RequireLevel       RequirementKind = "level"
	RequireCash        RequirementKind = "cash"
	RequireRespect     RequirementKind = "respect"
	RequireCrimes      RequirementKind = "crimes"
	RequireBuilds      RequirementKind = "builds"
	RequireTerritories RequirementKind = "territories"
)

// Requirement is a predicate over player snapshot fields.
type Requirement struct {
	Kind   RequirementKind `json:"kind"`
	Target float64         `json:"target"`
}

// Observation is the read side of a requirement: the current counted
// values as observed on a player snapshot.
type Observation struct {
	Level               int
	Cash                float64
	Respect             int64
	CrimesCommitted     int
	BuildsCompleted     int
	TerritoriesCaptured int
}

// Reward granted once on completion.
type Reward struct {
	Cash    float64 `json:"cash"`
	XP      float64 `json:"xp"`
	Respect int64   `json:"respect"`
}

// Mission is read-mostly: completion is a one-way transition and the
// progress counter is bounded by MaxProgress, never exceeding it.
type Mission struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	Requirement Requirement `json:"requirement"`
	Reward      Reward      `json:"reward"`

	Progress    int  `json:"progress"`
	MaxProgress int  `json:"max_progress"`
	Completed   bool `json:"completed"`
}

// observed extracts the tracked value for this mission's requirement.
func (m *Mission) observed(obs Observation) float64 {
	switch m.Requirement.Kind {
	case RequireLevel:
		return float64(obs.Level)
	case RequireCash:
		return obs.Cash
	case RequireRespect:
		return float64(obs.Respect)
	case RequireCrimes:
		return float64(obs.CrimesCommitted)
	case RequireBuilds:
		return float64(obs.BuildsCompleted)
	case RequireTerritories:
		return float64(obs.TerritoriesCaptured)
	}
	return 0
}

// Advance updates the bounded progress counter from a snapshot and reports
// whether this call completed the mission. Progress never decreases and a
// completed mission never reverts.
func (m *Mission) Advance(obs Observation) bool {
	if m.Completed {
		return false
	}

	current := int(m.observed(obs))
	if current > m.Progress {
		m.Progress = current
	}
	if m.Progress >= m.MaxProgress {
		m.Progress = m.MaxProgress
		m.Completed = true
		return true
	}
	return false
}

// Clone returns a copy.
func (m *Mission) Clone() *Mission {
	out := *m
	return &out
}
