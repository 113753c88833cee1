package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/luparagames/omerta/internal/catalog"
	"github.com/luparagames/omerta/internal/domain/business"
	"github.com/luparagames/omerta/internal/domain/mission"
	"github.com/luparagames/omerta/internal/domain/player"
	"github.com/luparagames/omerta/internal/domain/territory"
	"github.com/luparagames/omerta/internal/domain/unit"
)

// NewPlayerTree seeds the full state tree for a brand-new player from
// the static catalogs: every business as an unbuilt lot, the map as
// seeded, one starting caporegime, and the opening mission chain.
// Iteration is sorted by id so two fresh players start identical.
func NewPlayerTree(id, name string, cats *catalog.Catalogs) ([]*business.Business, []*territory.Territory, []*unit.Caporegime, []*mission.Mission) {
	var businesses []*business.Business
	for _, defID := range sortedKeys(cats.Businesses.ByID) {
		def := cats.Businesses.ByID[defID]
		businesses = append(businesses, BusinessFromDef(def))
	}

	var terrs []*territory.Territory
	for _, defID := range sortedKeys(cats.Territories.ByID) {
		def := cats.Territories.ByID[defID]
		terrs = append(terrs, TerritoryFromDef(def))
	}

	units := []*unit.Caporegime{{
		ID:       uuid.NewString(),
		Name:     "First Crew",
		Level:    1,
		Garrison: 5,
		Capacity: 20,
		Strength: 2,
	}}

	missions := StarterMissions()
	return businesses, terrs, units, missions
}

// BusinessFromDef instantiates an unbuilt venture from its archetype.
func BusinessFromDef(def catalog.BusinessDef) *business.Business {
	b := &business.Business{
		ID:                def.ID,
		CatalogID:         def.ID,
		Name:              def.Name,
		Category:          def.Category,
		BaseIncome:        def.BaseIncome,
		Level:             0,
		MaxLevel:          def.MaxLevel,
		Efficiency:        100,
		BuildCost:         def.BuildCost,
		BuildDuration:     time.Duration(def.BuildSeconds) * time.Second,
		UpgradeDuration:   time.Duration(def.UpgradeSeconds) * time.Second,
		UpgradeCostFactor: def.UpgradeCostFactor,
	}
	for _, f := range def.Features {
		b.Features = append(b.Features, business.Feature{
			ID:         f.ID,
			Name:       f.Name,
			Cost:       f.Cost,
			Multiplier: f.Multiplier,
		})
	}
	return b
}

// TerritoryFromDef instantiates a map territory from its seed.
func TerritoryFromDef(def catalog.TerritoryDef) *territory.Territory {
	owner := territory.Owner(def.Owner)
	return &territory.Territory{
		ID:      def.ID,
		Name:    def.Name,
		Owner:   owner,
		Status:  territory.StatusForOwner(owner),
		Income:  def.Income,
		XPRate:  def.XPRate,
		Defense: def.Defense,
	}
}

// StarterMissions is the opening objective chain every new player gets.
func StarterMissions() []*mission.Mission {
	return []*mission.Mission{
		{
			ID:          "first_blood",
			Title:       "First Blood",
			Requirement: mission.Requirement{Kind: mission.RequireCrimes, Target: 3},
			Reward:      mission.Reward{Cash: 500, XP: 50, Respect: 5},
			MaxProgress: 3,
		},
		{
			ID:          "open_for_business",
			Title:       "Open for Business",
			Requirement: mission.Requirement{Kind: mission.RequireBuilds, Target: 1},
			Reward:      mission.Reward{Cash: 1000, XP: 100, Respect: 10},
			MaxProgress: 1,
		},
		{
			ID:          "made_man",
			Title:       "Made Man",
			Requirement: mission.Requirement{Kind: mission.RequireLevel, Target: 5},
			Reward:      mission.Reward{Cash: 2500, XP: 0, Respect: 25},
			MaxProgress: 5,
		},
		{
			ID:          "turf_war",
			Title:       "Turf War",
			Requirement: mission.Requirement{Kind: mission.RequireTerritories, Target: 1},
			Reward:      mission.Reward{Cash: 5000, XP: 250, Respect: 50},
			MaxProgress: 1,
		},
	}
}

// NewPlayer creates the root player entity with the starting bankroll.
func NewPlayer(id, name string, startingCash float64) *player.State {
	p := player.New(id, name)
	p.Cash = startingCash
	return p
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
