package engine

import (
	"github.com/luparagames/omerta/internal/catalog"
	"github.com/luparagames/omerta/internal/domain/player"
	"github.com/luparagames/omerta/internal/tuning"
)

// LevelResult describes what a grant of experience did to the player.
type LevelResult struct {
	LevelsGained  int
	PointsGranted int
	NewLevel      int
	NewRank       player.Rank
	Promoted      bool
}

// ApplyExperience grants xp and resolves every level-up it causes in
// one pass, carrying overflow experience into the next level. Curve
// thresholds are whole numbers, so granting experience in parts lands
// on the same state as one combined grant. Level-derived caps and the
// rank are recomputed before returning; the invariant on exit is
// Experience < ExperienceToNext.
func ApplyExperience(p *player.State, xp float64, curve *catalog.LevelCurve, tun tuning.Tuning) LevelResult {
	if p.ExperienceToNext <= 0 {
		p.ExperienceToNext = curve.XPToNext(p.Level)
	}
	if xp > 0 {
		p.Experience += xp
	}

	res := LevelResult{}
	for p.Experience >= p.ExperienceToNext {
		p.Experience -= p.ExperienceToNext
		p.Level++
		p.AttributePoints += tun.AttributePointsPerLevel
		res.LevelsGained++
		res.PointsGranted += tun.AttributePointsPerLevel
		p.ExperienceToNext = curve.XPToNext(p.Level)
	}

	p.MaxEnergy = tun.BaseMaxEnergy + tun.MaxEnergyPerLevel*float64(p.Level-1)
	if p.Energy > p.MaxEnergy {
		p.Energy = p.MaxEnergy
	}
	p.MaxCrew = tun.BaseMaxCrew + tun.MaxCrewPerLevel*(p.Level-1)

	prev := p.Rank
	p.Rank = curve.RankAt(p.Level)
	res.NewLevel = p.Level
	res.NewRank = p.Rank
	res.Promoted = p.Rank != prev
	return res
}

// SpendAttributePoint allocates one unspent point to the named
// attribute.
func SpendAttributePoint(p *player.State, attribute string) error {
	if p.AttributePoints <= 0 {
		return ErrRequirementNotMet
	}
	switch attribute {
	case "strength":
		p.Attributes.Strength++
	case "defense":
		p.Attributes.Defense++
	case "speed":
		p.Attributes.Speed++
	case "intelligence":
		p.Attributes.Intelligence++
	case "charisma":
		p.Attributes.Charisma++
	default:
		return ErrNotFound
	}
	p.AttributePoints--
	return nil
}
