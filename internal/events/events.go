// Package events defines the domain events the engine emits and an
// append-only log of them. Events are returned synchronously from engine
// operations; the log exists for persistence and for the push shell.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type categorizes a domain event.
type Type string

const (
	TypeIncomeCollected   Type = "INCOME_COLLECTED"
	TypeBuildStarted      Type = "BUILD_STARTED"
	TypeBuildCompleted    Type = "BUILD_COMPLETED"
	TypeUpgradeStarted    Type = "UPGRADE_STARTED"
	TypeUpgradeCompleted  Type = "UPGRADE_COMPLETED"
	TypeCrimeResolved     Type = "CRIME_RESOLVED"
	TypeAttackStarted     Type = "ATTACK_STARTED"
	TypeTerritoryCaptured Type = "TERRITORY_CAPTURED"
	TypeAttackRepelled    Type = "ATTACK_REPELLED"
	TypeLevelUp           Type = "LEVEL_UP"
	TypeRankPromoted      Type = "RANK_PROMOTED"
	TypeMissionCompleted  Type = "MISSION_COMPLETED"
	TypeUnitAssigned      Type = "UNIT_ASSIGNED"
	TypeUnitUnassigned    Type = "UNIT_UNASSIGNED"
	TypeSoldiersRecruited Type = "SOLDIERS_RECRUITED"
	TypeClockAnomaly      Type = "CLOCK_ANOMALY"
)

// IncomeCollectedPayload reports an accrual window applied to a player.
type IncomeCollectedPayload struct {
	Cash           float64 `json:"cash"`
	XP             float64 `json:"xp"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// BuildPayload reports a construction or upgrade step.
type BuildPayload struct {
	BusinessID string  `json:"business_id"`
	Level      int     `json:"level"`
	Income     float64 `json:"income"`
}

// CrimeResolvedPayload reports the outcome of a committed crime.
type CrimeResolvedPayload struct {
	CrimeID string  `json:"crime_id"`
	Success bool    `json:"success"`
	Reward  float64 `json:"reward"`
	XP      float64 `json:"xp"`
}

// AttackPayload reports a territory attack start or resolution.
type AttackPayload struct {
	TerritoryID string  `json:"territory_id"`
	UnitID      string  `json:"unit_id,omitempty"`
	Soldiers    int     `json:"soldiers"`
	Strength    float64 `json:"strength"`
	Defense     float64 `json:"defense"`
	Losses      int     `json:"losses,omitempty"`
}

// LevelUpPayload reports one or more level gains from a single resolution.
type LevelUpPayload struct {
	NewLevel      int `json:"new_level"`
	LevelsGained  int `json:"levels_gained"`
	PointsGranted int `json:"points_granted"`
}

// RankPromotedPayload reports a rank change.
type RankPromotedPayload struct {
	Rank string `json:"rank"`
}

// MissionCompletedPayload reports a one-way mission completion.
type MissionCompletedPayload struct {
	MissionID   string  `json:"mission_id"`
	RewardCash  float64 `json:"reward_cash"`
	RewardXP    float64 `json:"reward_xp"`
	RewardResp  int64   `json:"reward_respect"`
}

// UnitAssignmentPayload reports a unit/territory assignment change.
type UnitAssignmentPayload struct {
	UnitID      string `json:"unit_id"`
	TerritoryID string `json:"territory_id,omitempty"`
}

// SoldiersRecruitedPayload reports a garrison purchase.
type SoldiersRecruitedPayload struct {
	UnitID   string  `json:"unit_id"`
	Soldiers int     `json:"soldiers"`
	Cost     float64 `json:"cost"`
}

// ClockAnomalyPayload reports a negative-elapsed observation. Diagnostic
// only; the engine clamps the elapsed to zero and continues.
type ClockAnomalyPayload struct {
	LastSeen time.Time `json:"last_seen"`
	Now      time.Time `json:"now"`
}

// Event is an immutable record of something the engine committed.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      Type      `json:"type"`
	PlayerID  string    `json:"player_id"`
	EntityID  string    `json:"entity_id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
}

// New builds an event with a fresh id.
func New(t Type, playerID, entityID string, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: at,
		Type:      t,
		PlayerID:  playerID,
		EntityID:  entityID,
		Payload:   payload,
	}
}
