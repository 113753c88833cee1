package engine

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/luparagames/omerta/internal/catalog"
	"github.com/luparagames/omerta/internal/domain/player"
	"github.com/luparagames/omerta/internal/tuning"
)

func TestApplyExperienceSingleLevel(t *testing.T) {
	cats := catalog.Default()
	tun := tuning.Default()
	p := player.New("p1", "Tony")

	res := ApplyExperience(p, 150, cats.Curve, tun)
	if res.LevelsGained != 1 || p.Level != 2 {
		t.Fatalf("Expected one level gained, got levels=%d level=%d", res.LevelsGained, p.Level)
	}
	if p.Experience != 50 {
		t.Errorf("Expected 50 leftover xp, got %v", p.Experience)
	}
	if p.AttributePoints != tun.AttributePointsPerLevel {
		t.Errorf("Expected %d attribute points, got %d", tun.AttributePointsPerLevel, p.AttributePoints)
	}
}

func TestApplyExperienceMultiLevelOverflow(t *testing.T) {
	cats := catalog.Default()
	tun := tuning.Default()
	p := player.New("p1", "Tony")

	// Pin the player one point short of level 2, then grant a lump that
	// clears several thresholds in one resolution.
	ApplyExperience(p, 0, cats.Curve, tun)
	p.Experience = p.ExperienceToNext - 1

	res := ApplyExperience(p, p.ExperienceToNext*3+5, cats.Curve, tun)
	if res.LevelsGained < 2 {
		t.Fatalf("Expected at least two levels from one grant, got %d", res.LevelsGained)
	}
	// 99 + 305 = 404: level 1 takes 100, level 2 takes 250, leaving 54.
	if p.Level != 3 {
		t.Errorf("Expected level 3, got %d", p.Level)
	}
	if p.Experience != 54 {
		t.Errorf("Expected 54 leftover xp, got %v", p.Experience)
	}
	if p.Experience >= p.ExperienceToNext {
		t.Errorf("Leftover xp %v must stay below the next threshold %v", p.Experience, p.ExperienceToNext)
	}
}

func TestApplyExperienceRecomputesCaps(t *testing.T) {
	cats := catalog.Default()
	tun := tuning.Default()
	p := player.New("p1", "Tony")

	ApplyExperience(p, 150, cats.Curve, tun)
	wantEnergy := tun.BaseMaxEnergy + tun.MaxEnergyPerLevel
	if p.MaxEnergy != wantEnergy {
		t.Errorf("Expected max energy %v at level 2, got %v", wantEnergy, p.MaxEnergy)
	}
	wantCrew := tun.BaseMaxCrew + tun.MaxCrewPerLevel
	if p.MaxCrew != wantCrew {
		t.Errorf("Expected max crew %d at level 2, got %d", wantCrew, p.MaxCrew)
	}
}

func TestApplyExperiencePromotesRank(t *testing.T) {
	cats := catalog.Default()
	tun := tuning.Default()
	p := player.New("p1", "Tony")

	// 100+250+500+900 carries level 1 to level 5, the Caporegime floor.
	res := ApplyExperience(p, 1750, cats.Curve, tun)
	if p.Level != 5 {
		t.Fatalf("Expected level 5, got %d", p.Level)
	}
	if !res.Promoted || p.Rank != player.RankCaporegime {
		t.Errorf("Expected promotion to Caporegime, got promoted=%t rank=%s", res.Promoted, p.Rank)
	}
}

func TestApplyExperienceSplitIdempotent(t *testing.T) {
	cats := catalog.Default()
	tun := tuning.Default()

	rapid.Check(t, func(rt *rapid.T) {
		a := float64(rapid.IntRange(0, 5000).Draw(rt, "a"))
		b := float64(rapid.IntRange(0, 5000).Draw(rt, "b"))

		whole := player.New("p1", "Tony")
		split := player.New("p2", "Paulie")

		ApplyExperience(whole, a+b, cats.Curve, tun)
		ApplyExperience(split, a, cats.Curve, tun)
		ApplyExperience(split, b, cats.Curve, tun)

		if whole.Level != split.Level {
			rt.Fatalf("level diverged: whole=%d split=%d", whole.Level, split.Level)
		}
		if whole.Experience != split.Experience {
			rt.Fatalf("experience diverged: whole=%v split=%v", whole.Experience, split.Experience)
		}
		if whole.AttributePoints != split.AttributePoints {
			rt.Fatalf("points diverged: whole=%d split=%d", whole.AttributePoints, split.AttributePoints)
		}
	})
}

func TestSpendAttributePoint(t *testing.T) {
	p := player.New("p1", "Tony")
	if err := SpendAttributePoint(p, "strength"); err != ErrRequirementNotMet {
		t.Errorf("Expected ErrRequirementNotMet with no points, got %v", err)
	}

	p.AttributePoints = 2
	if err := SpendAttributePoint(p, "strength"); err != nil {
		t.Fatalf("Expected spend to succeed, got %v", err)
	}
	if p.Attributes.Strength != 1 || p.AttributePoints != 1 {
		t.Errorf("Expected strength 1 and 1 point left, got %d and %d", p.Attributes.Strength, p.AttributePoints)
	}
	if err := SpendAttributePoint(p, "luck"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for unknown attribute, got %v", err)
	}
}
