package catalog

import (
	"fmt"
	"math"
	"sort"

	"github.com/luparagames/omerta/internal/domain/player"
)

// RankThreshold promotes a player to Rank once Level >= MinLevel.
type RankThreshold struct {
	Rank     string `json:"rank"`
	MinLevel int    `json:"min_level"`
}

// CurveSpec is the serialized form of the leveling curve: an optional
// hand-tuned table for early levels, extended by base_xp * level^growth.
type CurveSpec struct {
	BaseXP float64         `json:"base_xp"`
	Growth float64         `json:"growth"`
	Table  []float64       `json:"table,omitempty"`
	Ranks  []RankThreshold `json:"ranks,omitempty"`
}

// LevelCurve is the required-XP curve. XPToNext is strictly increasing in
// level, which guarantees the multi-level-up loop in the progression
// resolver terminates. All values are whole points so experience arithmetic
// stays exact.
type LevelCurve struct {
	spec  CurveSpec
	ranks []RankThreshold // sorted by MinLevel ascending
}

// NewLevelCurve validates a spec and builds the curve.
func NewLevelCurve(spec CurveSpec) (*LevelCurve, error) {
	if spec.BaseXP <= 0 {
		return nil, fmt.Errorf("level curve: base_xp must be positive, got %v", spec.BaseXP)
	}
	if spec.Growth < 1 {
		return nil, fmt.Errorf("level curve: growth must be >= 1, got %v", spec.Growth)
	}
	for i := 1; i < len(spec.Table); i++ {
		if spec.Table[i] <= spec.Table[i-1] {
			return nil, fmt.Errorf("level curve: table not strictly increasing at index %d", i)
		}
	}
	if n := len(spec.Table); n > 0 {
		ext := extension(spec, n+1)
		if ext <= spec.Table[n-1] {
			return nil, fmt.Errorf("level curve: polynomial extension %v not above table tail %v", ext, spec.Table[n-1])
		}
	}

	ranks := make([]RankThreshold, len(spec.Ranks))
	copy(ranks, spec.Ranks)
	sort.Slice(ranks, func(i, j int) bool { return ranks[i].MinLevel < ranks[j].MinLevel })

	return &LevelCurve{spec: spec, ranks: ranks}, nil
}

func extension(spec CurveSpec, level int) float64 {
	return math.Floor(spec.BaseXP * math.Pow(float64(level), spec.Growth))
}

// XPToNext returns the experience required to leave the given level.
func (c *LevelCurve) XPToNext(level int) float64 {
	if level < 1 {
		level = 1
	}
	if level <= len(c.spec.Table) {
		return math.Floor(c.spec.Table[level-1])
	}
	return extension(c.spec, level)
}

// RankAt returns the rank a player of the given level holds.
func (c *LevelCurve) RankAt(level int) player.Rank {
	rank := player.RankSoldato
	for _, t := range c.ranks {
		if level >= t.MinLevel {
			rank = player.RankFromString(t.Rank)
		}
	}
	return rank
}
