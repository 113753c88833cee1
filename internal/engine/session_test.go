package engine

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/luparagames/omerta/internal/catalog"
	"github.com/luparagames/omerta/internal/domain/business"
	"github.com/luparagames/omerta/internal/domain/mission"
	"github.com/luparagames/omerta/internal/domain/territory"
	"github.com/luparagames/omerta/internal/domain/unit"
	"github.com/luparagames/omerta/internal/events"
	"github.com/luparagames/omerta/internal/tuning"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	clock *FakeClock
	sess  *Session
	elog  *events.EventLog
}

func newFixture(cash float64, seed int64, businesses []*business.Business, terrs []*territory.Territory, units []*unit.Caporegime, missions []*mission.Mission) *fixture {
	clock := NewFakeClock(testStart)
	elog := events.NewEventLog(nil)
	sess := NewSession(SessionConfig{
		Clock:       clock,
		Rand:        rand.New(rand.NewSource(seed)),
		Tuning:      tuning.Default(),
		Catalogs:    catalog.Default(),
		EventLog:    elog,
		Player:      NewPlayer("p1", "Tony", cash),
		Businesses:  businesses,
		Territories: terrs,
		Units:       units,
		Missions:    missions,
	})
	return &fixture{clock: clock, sess: sess, elog: elog}
}

func quickBusiness() *business.Business {
	return &business.Business{
		ID:                "corner_store",
		Name:              "Corner Store",
		BaseIncome:        120,
		MaxLevel:          10,
		Efficiency:        100,
		BuildCost:         100,
		BuildDuration:     5 * time.Second,
		UpgradeDuration:   10 * time.Second,
		UpgradeCostFactor: 1.5,
	}
}

func hasEvent(evs []events.Event, typ events.Type) bool {
	for _, e := range evs {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func TestBuildEndToEnd(t *testing.T) {
	f := newFixture(100, 1, []*business.Business{quickBusiness()}, nil, nil, nil)

	evs, err := f.sess.StartBuild("corner_store")
	if err != nil {
		t.Fatalf("StartBuild failed: %v", err)
	}
	if !hasEvent(evs, events.TypeBuildStarted) {
		t.Error("Expected a BUILD_STARTED event")
	}
	if snap := f.sess.Snapshot(); snap.Player.Cash != 0 {
		t.Errorf("Expected cash deducted up front, got %v", snap.Player.Cash)
	}

	// Two seconds in: still building, 40% done.
	f.clock.Advance(2 * time.Second)
	if _, _, err := f.sess.CatchUp(); err != nil {
		t.Fatalf("CatchUp failed: %v", err)
	}
	snap := f.sess.Snapshot()
	if snap.Businesses[0].Level != 0 {
		t.Fatalf("Expected business still unbuilt at t+2s, got level %d", snap.Businesses[0].Level)
	}
	if len(snap.Actions) != 1 {
		t.Fatalf("Expected one pending action, got %d", len(snap.Actions))
	}
	if p := snap.Actions[0].Progress(f.clock.Now()); math.Abs(p-0.4) > 1e-9 {
		t.Errorf("Expected progress 0.4 at t+2s, got %v", p)
	}

	// At the five second mark the build lands.
	f.clock.Advance(3 * time.Second)
	recap, evs, err := f.sess.CatchUp()
	if err != nil {
		t.Fatalf("CatchUp failed: %v", err)
	}
	if !hasEvent(evs, events.TypeBuildCompleted) {
		t.Error("Expected a BUILD_COMPLETED event")
	}
	if len(recap.Resolved) != 1 || recap.Resolved[0].EntityID != "corner_store" {
		t.Errorf("Expected the build in the recap, got %+v", recap.Resolved)
	}

	snap = f.sess.Snapshot()
	if snap.Businesses[0].Level != 1 {
		t.Errorf("Expected level 1 after resolution, got %d", snap.Businesses[0].Level)
	}
	if snap.Player.Cash != 0 {
		t.Errorf("Expected cash still 0, got %v", snap.Player.Cash)
	}
	if got := snap.Businesses[0].CurrentIncome(); got != 120 {
		t.Errorf("Expected income at base rate 120, got %v", got)
	}
	if len(snap.Actions) != 0 {
		t.Errorf("Expected ledger cleared, got %d actions", len(snap.Actions))
	}
}

func TestStartBuildWhileBuildingLeavesCashUnchanged(t *testing.T) {
	f := newFixture(500, 1, []*business.Business{quickBusiness()}, nil, nil, nil)

	if _, err := f.sess.StartBuild("corner_store"); err != nil {
		t.Fatalf("StartBuild failed: %v", err)
	}
	before := f.sess.Snapshot().Player.Cash

	_, err := f.sess.StartBuild("corner_store")
	if !errors.Is(err, ErrActionInProgress) {
		t.Fatalf("Expected ErrActionInProgress, got %v", err)
	}
	if got := f.sess.Snapshot().Player.Cash; got != before {
		t.Errorf("Expected cash unchanged after rejection, got %v want %v", got, before)
	}
}

func TestStartBuildInsufficientFunds(t *testing.T) {
	f := newFixture(50, 1, []*business.Business{quickBusiness()}, nil, nil, nil)

	_, err := f.sess.StartBuild("corner_store")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	snap := f.sess.Snapshot()
	if snap.Player.Cash != 50 || len(snap.Actions) != 0 {
		t.Error("Expected a rejected start to change nothing")
	}
}

func TestUpgradeRequiresBuilt(t *testing.T) {
	f := newFixture(10000, 1, []*business.Business{quickBusiness()}, nil, nil, nil)

	if _, err := f.sess.StartUpgrade("corner_store"); !errors.Is(err, ErrRequirementNotMet) {
		t.Fatalf("Expected ErrRequirementNotMet upgrading an unbuilt venture, got %v", err)
	}
	if _, err := f.sess.StartBuild("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unknown business, got %v", err)
	}
}

func TestCatchUpAppliesOneConsistentWindow(t *testing.T) {
	b := quickBusiness()
	b.Level = 1
	terr := &territory.Territory{ID: "docks", Owner: territory.OwnerPlayer, Status: territory.StatusOwned, Income: 300, XPRate: 5}
	f := newFixture(0, 1, []*business.Business{b}, []*territory.Territory{terr}, nil, nil)

	// Anchor the collection timestamp, then drain some energy.
	if _, _, err := f.sess.CatchUp(); err != nil {
		t.Fatalf("CatchUp failed: %v", err)
	}
	f.sess.player.Energy = 10

	f.clock.Advance(2 * time.Hour)
	recap, evs, err := f.sess.CatchUp()
	if err != nil {
		t.Fatalf("CatchUp failed: %v", err)
	}

	// One two hour window drives cash, xp, and energy together.
	if math.Abs(recap.CashEarned-840) > 1e-9 {
		t.Errorf("Expected 840 cash over two hours, got %v", recap.CashEarned)
	}
	if math.Abs(recap.XPEarned-10) > 1e-9 {
		t.Errorf("Expected 10 xp over two hours, got %v", recap.XPEarned)
	}
	tun := tuning.Default()
	wantEnergy := 2 * tun.EnergyRegenPerHour
	if math.Abs(recap.EnergyRestored-wantEnergy) > 1e-9 {
		t.Errorf("Expected %v energy restored, got %v", wantEnergy, recap.EnergyRestored)
	}
	if !hasEvent(evs, events.TypeIncomeCollected) {
		t.Error("Expected an INCOME_COLLECTED event")
	}

	snap := f.sess.Snapshot()
	if !snap.Player.LastIncomeCollection.Equal(f.clock.Now()) {
		t.Errorf("Expected collection timestamp moved to now, got %s", snap.Player.LastIncomeCollection)
	}
}

func TestCatchUpBeyondCeilingMatchesCeiling(t *testing.T) {
	build := func(extra time.Duration) *Snapshot {
		b := quickBusiness()
		b.Level = 1
		terr := &territory.Territory{ID: "docks", Owner: territory.OwnerPlayer, Status: territory.StatusOwned, Income: 300, XPRate: 5}
		f := newFixture(0, 1, []*business.Business{b}, []*territory.Territory{terr}, nil, nil)
		if _, _, err := f.sess.CatchUp(); err != nil {
			t.Fatalf("CatchUp failed: %v", err)
		}
		f.clock.Advance(tuning.Default().MaxOfflineCatchup() + extra)
		recap, _, err := f.sess.CatchUp()
		if err != nil {
			t.Fatalf("CatchUp failed: %v", err)
		}
		if extra > 0 && !recap.Clamped {
			t.Error("Expected the recap to report clamping beyond the ceiling")
		}
		return f.sess.Snapshot()
	}

	atCeiling := build(0)
	beyond := build(100 * time.Hour)

	if atCeiling.Player.Cash != beyond.Player.Cash {
		t.Errorf("Expected identical cash at and beyond the ceiling, got %v vs %v", atCeiling.Player.Cash, beyond.Player.Cash)
	}
	if atCeiling.Player.Experience != beyond.Player.Experience || atCeiling.Player.Level != beyond.Player.Level {
		t.Error("Expected identical progression at and beyond the ceiling")
	}
	if atCeiling.Player.Energy != beyond.Player.Energy {
		t.Errorf("Expected identical energy at and beyond the ceiling, got %v vs %v", atCeiling.Player.Energy, beyond.Player.Energy)
	}
}

func TestCatchUpTwiceIsHarmless(t *testing.T) {
	b := quickBusiness()
	b.Level = 1
	f := newFixture(0, 1, []*business.Business{b}, nil, nil, nil)

	f.clock.Advance(time.Hour)
	if _, _, err := f.sess.CatchUp(); err != nil {
		t.Fatalf("CatchUp failed: %v", err)
	}
	cash := f.sess.Snapshot().Player.Cash

	recap, _, err := f.sess.CatchUp()
	if err != nil {
		t.Fatalf("CatchUp failed: %v", err)
	}
	if recap.CashEarned != 0 {
		t.Errorf("Expected empty second window, earned %v", recap.CashEarned)
	}
	if got := f.sess.Snapshot().Player.Cash; got != cash {
		t.Errorf("Expected cash unchanged by back-to-back catch-up, got %v want %v", got, cash)
	}
}

func TestCatchUpReportsClockAnomaly(t *testing.T) {
	f := newFixture(0, 1, nil, nil, nil, nil)

	if _, _, err := f.sess.CatchUp(); err != nil {
		t.Fatalf("CatchUp failed: %v", err)
	}
	f.clock.Set(testStart.Add(-time.Hour))

	recap, evs, err := f.sess.CatchUp()
	if err != nil {
		t.Fatalf("CatchUp failed: %v", err)
	}
	if !recap.ClockAnomaly {
		t.Error("Expected the recap to flag the rolled-back clock")
	}
	if recap.CashEarned != 0 || recap.Elapsed != 0 {
		t.Errorf("Expected empty window on rollback, got cash=%v elapsed=%s", recap.CashEarned, recap.Elapsed)
	}
	if !hasEvent(evs, events.TypeClockAnomaly) {
		t.Error("Expected a CLOCK_ANOMALY event")
	}
}

func TestCrimeFlowCompletesMission(t *testing.T) {
	missions := []*mission.Mission{{
		ID:          "first_blood",
		Title:       "First Blood",
		Requirement: mission.Requirement{Kind: mission.RequireCrimes, Target: 3},
		Reward:      mission.Reward{Cash: 500, XP: 50, Respect: 5},
		MaxProgress: 3,
	}}
	f := newFixture(0, 1, nil, nil, nil, missions)

	var last []events.Event
	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Minute)
		_, evs, err := f.sess.CommitCrime("pickpocket")
		if err != nil {
			t.Fatalf("CommitCrime %d failed: %v", i, err)
		}
		if !hasEvent(evs, events.TypeCrimeResolved) {
			t.Error("Expected a CRIME_RESOLVED event")
		}
		last = evs
	}

	if !hasEvent(last, events.TypeMissionCompleted) {
		t.Error("Expected the third crime to complete the mission")
	}
	snap := f.sess.Snapshot()
	if !snap.Missions[0].Completed {
		t.Error("Expected mission marked completed")
	}
	if snap.Player.Counters.CrimesCommitted != 3 {
		t.Errorf("Expected 3 crimes counted, got %d", snap.Player.Counters.CrimesCommitted)
	}
	// Mission cash lands on top of whatever the crimes paid.
	if snap.Player.Cash < 500 {
		t.Errorf("Expected at least the 500 mission reward banked, got %v", snap.Player.Cash)
	}
}

func TestAttackFlowThroughSession(t *testing.T) {
	terr := &territory.Territory{ID: "docks", Owner: territory.OwnerEnemy, Status: territory.StatusEnemy, Income: 300, Defense: 40}
	capo := &unit.Caporegime{ID: "u1", Name: "First Crew", Level: 1, Garrison: 30, Capacity: 40, Strength: 2}
	f := newFixture(0, 1, nil, []*territory.Territory{terr}, []*unit.Caporegime{capo}, nil)

	evs, err := f.sess.StartAttack("docks", "u1", 25)
	if err != nil {
		t.Fatalf("StartAttack failed: %v", err)
	}
	if !hasEvent(evs, events.TypeAttackStarted) {
		t.Error("Expected an ATTACK_STARTED event")
	}

	if _, err := f.sess.StartAttack("docks", "u1", 5); !errors.Is(err, ErrActionInProgress) {
		t.Errorf("Expected ErrActionInProgress for a second attack, got %v", err)
	}

	f.clock.Advance(time.Duration(tuning.Default().AttackSeconds) * time.Second)
	recap, evs, err := f.sess.CatchUp()
	if err != nil {
		t.Fatalf("CatchUp failed: %v", err)
	}
	if !hasEvent(evs, events.TypeTerritoryCaptured) {
		t.Error("Expected a TERRITORY_CAPTURED event")
	}
	if len(recap.Resolved) != 1 || !recap.Resolved[0].Success {
		t.Errorf("Expected a successful attack in the recap, got %+v", recap.Resolved)
	}

	snap := f.sess.Snapshot()
	if snap.Territories[0].Owner != territory.OwnerPlayer {
		t.Errorf("Expected territory captured, owner is %s", snap.Territories[0].Owner)
	}
	if snap.Player.Counters.TerritoriesCaptured != 1 {
		t.Errorf("Expected capture counted, got %d", snap.Player.Counters.TerritoriesCaptured)
	}
}

func TestRecruitSoldiers(t *testing.T) {
	capo := &unit.Caporegime{ID: "u1", Level: 1, Garrison: 5, Capacity: 30, Strength: 2}
	f := newFixture(10000, 1, nil, nil, []*unit.Caporegime{capo}, nil)
	tun := tuning.Default()

	evs, err := f.sess.RecruitSoldiers("u1", 10)
	if err != nil {
		t.Fatalf("RecruitSoldiers failed: %v", err)
	}
	if !hasEvent(evs, events.TypeSoldiersRecruited) {
		t.Error("Expected a SOLDIERS_RECRUITED event")
	}
	snap := f.sess.Snapshot()
	if snap.Units[0].Garrison != 15 {
		t.Errorf("Expected garrison 15, got %d", snap.Units[0].Garrison)
	}
	if want := 10000 - 10*tun.SoldierCost; snap.Player.Cash != want {
		t.Errorf("Expected cash %v after recruiting, got %v", want, snap.Player.Cash)
	}

	// Capacity and crew cap both gate further hires: room for 15 more,
	// but the level-1 crew cap sits at 20 total.
	if _, err := f.sess.RecruitSoldiers("u1", 16); !errors.Is(err, ErrRequirementNotMet) {
		t.Errorf("Expected ErrRequirementNotMet beyond capacity, got %v", err)
	}
	if _, err := f.sess.RecruitSoldiers("u1", 10); !errors.Is(err, ErrRequirementNotMet) {
		t.Errorf("Expected ErrRequirementNotMet beyond the crew cap, got %v", err)
	}
}

func TestAssignUnit(t *testing.T) {
	owned := &territory.Territory{ID: "little_italy", Owner: territory.OwnerPlayer, Status: territory.StatusOwned, Income: 200}
	enemy := &territory.Territory{ID: "uptown", Owner: territory.OwnerEnemy, Status: territory.StatusEnemy, Income: 900}
	capo := &unit.Caporegime{ID: "u1", Level: 1, Garrison: 5, Capacity: 20, Strength: 2}
	f := newFixture(0, 1, nil, []*territory.Territory{owned, enemy}, []*unit.Caporegime{capo}, nil)

	if _, err := f.sess.AssignUnit("u1", "uptown"); !errors.Is(err, ErrRequirementNotMet) {
		t.Fatalf("Expected ErrRequirementNotMet posting to enemy turf, got %v", err)
	}

	evs, err := f.sess.AssignUnit("u1", "little_italy")
	if err != nil {
		t.Fatalf("AssignUnit failed: %v", err)
	}
	if !hasEvent(evs, events.TypeUnitAssigned) {
		t.Error("Expected a UNIT_ASSIGNED event")
	}
	snap := f.sess.Snapshot()
	if snap.Units[0].TerritoryID != "little_italy" || snap.Territories[0].AssignedUnitID != "u1" {
		t.Error("Expected both sides of the posting recorded")
	}

	if _, err := f.sess.AssignUnit("u1", ""); err != nil {
		t.Fatalf("unassign failed: %v", err)
	}
	snap = f.sess.Snapshot()
	if snap.Units[0].TerritoryID != "" || snap.Territories[0].AssignedUnitID != "" {
		t.Error("Expected posting cleared on both sides")
	}
}

func TestUnlockFeature(t *testing.T) {
	b := quickBusiness()
	b.Level = 1
	b.Features = []business.Feature{{ID: "back_room", Name: "Back Room", Cost: 2500, Multiplier: 1.5}}
	f := newFixture(3000, 1, []*business.Business{b}, nil, nil, nil)

	if _, err := f.sess.UnlockFeature("corner_store", "slots"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unknown feature, got %v", err)
	}
	if _, err := f.sess.UnlockFeature("corner_store", "back_room"); err != nil {
		t.Fatalf("UnlockFeature failed: %v", err)
	}

	snap := f.sess.Snapshot()
	if got := snap.Businesses[0].CurrentIncome(); got != 180 {
		t.Errorf("Expected income 180 with the multiplier active, got %v", got)
	}
	if snap.Player.Cash != 500 {
		t.Errorf("Expected cash 500 after unlock, got %v", snap.Player.Cash)
	}
	if _, err := f.sess.UnlockFeature("corner_store", "back_room"); !errors.Is(err, ErrRequirementNotMet) {
		t.Errorf("Expected ErrRequirementNotMet re-unlocking, got %v", err)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	b := quickBusiness()
	b.Level = 1
	f := newFixture(1000, 1, []*business.Business{b}, nil, nil, nil)

	snap := f.sess.Snapshot()
	snap.Player.Cash = -999
	snap.Businesses[0].Level = 99

	fresh := f.sess.Snapshot()
	if fresh.Player.Cash != 1000 {
		t.Errorf("Expected session state untouched by snapshot edits, cash is %v", fresh.Player.Cash)
	}
	if fresh.Businesses[0].Level != 1 {
		t.Errorf("Expected business untouched by snapshot edits, level is %d", fresh.Businesses[0].Level)
	}
}

func TestEventsAppendedToLog(t *testing.T) {
	f := newFixture(100, 1, []*business.Business{quickBusiness()}, nil, nil, nil)

	if _, err := f.sess.StartBuild("corner_store"); err != nil {
		t.Fatalf("StartBuild failed: %v", err)
	}
	byPlayer := f.elog.ByPlayer("p1")
	if len(byPlayer) == 0 {
		t.Fatal("Expected operation events in the log")
	}
	if byPlayer[len(byPlayer)-1].Type != events.TypeBuildStarted {
		t.Errorf("Expected BUILD_STARTED last in the log, got %s", byPlayer[len(byPlayer)-1].Type)
	}
}
