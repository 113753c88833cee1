package engine

import (
	"math/rand"
	"sync"
	"time"

	"github.com/luparagames/omerta/internal/catalog"
	"github.com/luparagames/omerta/internal/domain/business"
	"github.com/luparagames/omerta/internal/domain/mission"
	"github.com/luparagames/omerta/internal/domain/player"
	"github.com/luparagames/omerta/internal/domain/territory"
	"github.com/luparagames/omerta/internal/domain/unit"
	"github.com/luparagames/omerta/internal/events"
	"github.com/luparagames/omerta/internal/platform/logger"
	"github.com/luparagames/omerta/internal/platform/metrics"
	"github.com/luparagames/omerta/internal/tuning"
)

// Recap summarizes what happened while the player was away. The UI
// shows it once after a catch-up.
type Recap struct {
	Elapsed           time.Duration  `json:"elapsed"`
	Clamped           bool           `json:"clamped"`
	ClockAnomaly      bool           `json:"clock_anomaly"`
	CashEarned        float64        `json:"cash_earned"`
	XPEarned          float64        `json:"xp_earned"`
	EnergyRestored    float64        `json:"energy_restored"`
	LevelsGained      int            `json:"levels_gained"`
	Resolved          []RecapAction  `json:"resolved,omitempty"`
	MissionsCompleted []string       `json:"missions_completed,omitempty"`
}

// RecapAction is one timed action that landed during catch-up.
type RecapAction struct {
	Kind     ActionKind `json:"kind"`
	EntityID string     `json:"entity_id"`
	Success  bool       `json:"success"`
}

// SessionConfig wires one player's session. Clock, Rand, Logger, and
// Metrics default when nil; Catalogs and Player are required.
type SessionConfig struct {
	Clock    Clock
	Rand     *rand.Rand
	Tuning   tuning.Tuning
	Catalogs *catalog.Catalogs
	Logger   *logger.Logger
	Metrics  *metrics.Collector
	EventLog *events.EventLog

	Player      *player.State
	Businesses  []*business.Business
	Territories []*territory.Territory
	Units       []*unit.Caporegime
	Missions    []*mission.Mission
	Ledger      *Ledger
}

// Session owns the full state tree of one player and serializes every
// operation on it. All public methods take the lock, validate against a
// consistent view, then commit; events produced by an operation are
// returned to the caller and appended to the event log.
type Session struct {
	mu    sync.Mutex
	clock Clock
	tun   tuning.Tuning
	cat   *catalog.Catalogs
	log   *logger.Logger
	met   *metrics.Collector
	elog  *events.EventLog

	player       *player.State
	businesses   []*business.Business
	businessIdx  map[string]*business.Business
	territories  []*territory.Territory
	territoryIdx map[string]*territory.Territory
	units        map[string]*unit.Caporegime
	unitOrder    []string
	missions     []*mission.Mission
	ledger       *Ledger

	crimes   *CrimeSystem
	builds   *BuildSystem
	attacks  *AttackSystem
	missionS *MissionSystem
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewCollector()
	}
	if cfg.Ledger == nil {
		cfg.Ledger = NewLedger()
	}

	s := &Session{
		clock:        cfg.Clock,
		tun:          cfg.Tuning,
		cat:          cfg.Catalogs,
		log:          cfg.Logger,
		met:          cfg.Metrics,
		elog:         cfg.EventLog,
		player:       cfg.Player,
		businesses:   cfg.Businesses,
		businessIdx:  make(map[string]*business.Business, len(cfg.Businesses)),
		territories:  cfg.Territories,
		territoryIdx: make(map[string]*territory.Territory, len(cfg.Territories)),
		units:        make(map[string]*unit.Caporegime, len(cfg.Units)),
		missions:     cfg.Missions,
		ledger:       cfg.Ledger,
	}
	for _, b := range cfg.Businesses {
		s.businessIdx[b.ID] = b
	}
	for _, t := range cfg.Territories {
		s.territoryIdx[t.ID] = t
	}
	for _, u := range cfg.Units {
		s.units[u.ID] = u
		s.unitOrder = append(s.unitOrder, u.ID)
	}

	s.crimes = NewCrimeSystem(cfg.Catalogs.Crimes, cfg.Rand, cfg.Logger)
	s.builds = NewBuildSystem(cfg.Logger)
	s.attacks = NewAttackSystem(cfg.Tuning, cfg.Logger)
	s.missionS = NewMissionSystem(cfg.Logger)

	// Derive level-dependent caps for a fresh or restored player.
	ApplyExperience(s.player, 0, cfg.Catalogs.Curve, cfg.Tuning)
	if s.player.Energy == 0 && s.player.LastIncomeCollection.IsZero() {
		s.player.Energy = s.player.MaxEnergy
	}
	return s
}

// PlayerID identifies the session owner.
func (s *Session) PlayerID() string { return s.player.ID }

func (s *Session) emit(evs []events.Event) {
	if s.elog != nil && len(evs) > 0 {
		s.elog.AppendAll(evs)
	}
}

// CatchUp advances the session to now: one consistent elapsed window
// feeds income, energy regeneration, and the resolution of every due
// timed action, then the collection timestamp moves to now. Calling it
// twice in a row is harmless; the second window is empty.
func (s *Session) CatchUp() (Recap, []events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	started := time.Now()

	now := s.clock.Now()
	recap, evs := s.catchUpLocked(now)

	s.met.RecordCatchUp(time.Since(started))
	s.met.RecordOp(false)
	s.emit(evs)
	return recap, evs, nil
}

// catchUpLocked is the single code path for passage of time. Every
// operation funnels through it before acting so no state is ever
// touched with a stale clock.
func (s *Session) catchUpLocked(now time.Time) (Recap, []events.Event) {
	p := s.player
	var evs []events.Event

	elapsed, clamped, anomaly := ElapsedSince(p.LastIncomeCollection, now, s.tun.MaxOfflineCatchup())
	recap := Recap{Elapsed: elapsed, Clamped: clamped, ClockAnomaly: anomaly}

	if anomaly {
		s.met.RecordClockAnomaly()
		s.log.Warn("clock anomaly for %s: last collection %s is after now %s", p.ID, p.LastIncomeCollection, now)
		evs = append(evs, events.New(events.TypeClockAnomaly, p.ID, "", now, events.ClockAnomalyPayload{
			LastSeen: p.LastIncomeCollection,
			Now:      now,
		}))
	}

	// Compute the whole window first, then commit.
	acc := Accrue(p, s.businesses, s.territories, s.units, s.tun, elapsed)
	regen := RegenEnergy(s.tun, elapsed)

	p.Cash += acc.Cash
	p.AddEnergy(regen)
	for id, cut := range acc.UnitEarnings {
		if u, ok := s.units[id]; ok {
			u.Earnings += cut
		}
	}
	recap.CashEarned = acc.Cash
	recap.XPEarned = acc.XP
	recap.EnergyRestored = regen

	if elapsed > 0 {
		evs = append(evs, events.New(events.TypeIncomeCollected, p.ID, "", now, events.IncomeCollectedPayload{
			Cash:           acc.Cash,
			XP:             acc.XP,
			ElapsedSeconds: elapsed.Seconds(),
		}))
	}

	evs = append(evs, s.applyXPLocked(acc.XP, now, &recap)...)

	for _, a := range s.ledger.Due(now) {
		resolved, success, more := s.resolveLocked(a, now)
		if !resolved {
			continue
		}
		recap.Resolved = append(recap.Resolved, RecapAction{Kind: a.Kind, EntityID: a.EntityID, Success: success})
		evs = append(evs, more...)
	}

	// A rolled-back clock must not drag the anchor backwards, or the
	// same window would accrue again once the clock recovers.
	if !anomaly {
		p.LastIncomeCollection = now
	}

	mevs := s.evaluateMissionsLocked(now, &recap)
	evs = append(evs, mevs...)
	return recap, evs
}

// applyXPLocked grants experience and emits the level and rank events
// it causes.
func (s *Session) applyXPLocked(xp float64, now time.Time, recap *Recap) []events.Event {
	if xp <= 0 {
		return nil
	}
	res := ApplyExperience(s.player, xp, s.cat.Curve, s.tun)
	if res.LevelsGained == 0 {
		return nil
	}
	if recap != nil {
		recap.LevelsGained += res.LevelsGained
	}
	evs := []events.Event{events.New(events.TypeLevelUp, s.player.ID, "", now, events.LevelUpPayload{
		NewLevel:      res.NewLevel,
		LevelsGained:  res.LevelsGained,
		PointsGranted: res.PointsGranted,
	})}
	if res.Promoted {
		evs = append(evs, events.New(events.TypeRankPromoted, s.player.ID, "", now, events.RankPromotedPayload{
			Rank: res.NewRank.String(),
		}))
	}
	return evs
}

// resolveLocked settles one due ledger entry.
func (s *Session) resolveLocked(a *TimedAction, now time.Time) (resolved, success bool, evs []events.Event) {
	p := s.player
	switch a.Kind {
	case ActionBuild, ActionUpgrade:
		b, ok := s.businessIdx[a.EntityID]
		if !ok {
			s.ledger.Take(a)
			return false, false, nil
		}
		if !s.builds.Resolve(b, a, s.ledger) {
			return false, false, nil
		}
		p.Counters.BuildsCompleted++
		typ := events.TypeBuildCompleted
		if a.Kind == ActionUpgrade {
			typ = events.TypeUpgradeCompleted
		}
		evs = append(evs, events.New(typ, p.ID, b.ID, now, events.BuildPayload{
			BusinessID: b.ID,
			Level:      b.Level,
			Income:     b.CurrentIncome(),
		}))
		return true, true, evs

	case ActionAttack:
		t, ok := s.territoryIdx[a.EntityID]
		if !ok {
			s.ledger.Take(a)
			return false, false, nil
		}
		var u *unit.Caporegime
		if a.Attack != nil {
			u = s.units[a.Attack.UnitID]
		}
		res, done := s.attacks.Resolve(t, u, a, s.ledger)
		if !done {
			return false, false, nil
		}
		payload := events.AttackPayload{
			TerritoryID: t.ID,
			UnitID:      a.Attack.UnitID,
			Soldiers:    a.Attack.Soldiers,
			Strength:    res.Strength,
			Defense:     res.Defense,
			Losses:      res.Losses,
		}
		if res.Captured {
			p.Counters.TerritoriesCaptured++
			p.Respect += 1 + int64(res.Defense/10)
			evs = append(evs, events.New(events.TypeTerritoryCaptured, p.ID, t.ID, now, payload))
		} else {
			evs = append(evs, events.New(events.TypeAttackRepelled, p.ID, t.ID, now, payload))
		}
		return true, res.Captured, evs
	}
	return false, false, nil
}

// evaluateMissionsLocked completes any missions the current state
// satisfies and grants their rewards.
func (s *Session) evaluateMissionsLocked(now time.Time, recap *Recap) []events.Event {
	var evs []events.Event
	for _, m := range s.missionS.Evaluate(s.player, s.missions) {
		s.player.Cash += m.Reward.Cash
		s.player.Respect += m.Reward.Respect
		evs = append(evs, events.New(events.TypeMissionCompleted, s.player.ID, m.ID, now, events.MissionCompletedPayload{
			MissionID:  m.ID,
			RewardCash: m.Reward.Cash,
			RewardXP:   m.Reward.XP,
			RewardResp: m.Reward.Respect,
		}))
		evs = append(evs, s.applyXPLocked(m.Reward.XP, now, recap)...)
		if recap != nil {
			recap.MissionsCompleted = append(recap.MissionsCompleted, m.ID)
		}
	}
	return evs
}

// CollectIncome banks the passive income accrued since the last
// collection. It is the tap-to-collect form of CatchUp.
func (s *Session) CollectIncome() (float64, []events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	recap, evs := s.catchUpLocked(now)
	s.met.RecordOp(false)
	s.emit(evs)
	return recap.CashEarned, evs, nil
}

// finishOp records the op metric and returns err unchanged.
func (s *Session) finishOp(err error) error {
	s.met.RecordOp(err != nil)
	return err
}

// reject ends a failed operation. The catch-up events still happened
// and still reach the log; only the operation itself is refused.
func (s *Session) reject(evs []events.Event, err error) ([]events.Event, error) {
	s.emit(evs)
	return evs, s.finishOp(err)
}

// StartBuild launches first-time construction of an unbuilt business.
func (s *Session) StartBuild(businessID string) ([]events.Event, error) {
	return s.startWork(businessID, ActionBuild, events.TypeBuildStarted)
}

// StartUpgrade launches the next level step on a built business.
func (s *Session) StartUpgrade(businessID string) ([]events.Event, error) {
	return s.startWork(businessID, ActionUpgrade, events.TypeUpgradeStarted)
}

func (s *Session) startWork(businessID string, kind ActionKind, evType events.Type) ([]events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	_, evs := s.catchUpLocked(now)

	b, ok := s.businessIdx[businessID]
	if !ok {
		return s.reject(evs, ErrNotFound)
	}
	if _, err := s.builds.Start(s.player, b, kind, now, s.ledger); err != nil {
		return s.reject(evs, err)
	}
	evs = append(evs, events.New(evType, s.player.ID, b.ID, now, events.BuildPayload{
		BusinessID: b.ID,
		Level:      b.Level,
		Income:     b.CurrentIncome(),
	}))
	s.emit(evs)
	return evs, s.finishOp(nil)
}

// CommitCrime rolls an instant crime and applies its outcome.
func (s *Session) CommitCrime(crimeID string) (CrimeOutcome, []events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	_, evs := s.catchUpLocked(now)

	out, err := s.crimes.Commit(s.player, crimeID, now)
	if err != nil {
		s.emit(evs)
		return out, evs, s.finishOp(err)
	}
	evs = append(evs, events.New(events.TypeCrimeResolved, s.player.ID, crimeID, now, events.CrimeResolvedPayload{
		CrimeID: crimeID,
		Success: out.Success,
		Reward:  out.CashReward,
		XP:      out.XPReward,
	}))
	if out.Success {
		evs = append(evs, s.applyXPLocked(out.XPReward, now, nil)...)
	}
	evs = append(evs, s.evaluateMissionsLocked(now, nil)...)
	s.emit(evs)
	return out, evs, s.finishOp(nil)
}

// StartAttack launches a deterministic territory attack with soldiers
// drawn from the given unit.
func (s *Session) StartAttack(territoryID, unitID string, soldiers int) ([]events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	_, evs := s.catchUpLocked(now)

	t, ok := s.territoryIdx[territoryID]
	if !ok {
		return s.reject(evs, ErrNotFound)
	}
	u, ok := s.units[unitID]
	if !ok {
		return s.reject(evs, ErrNotFound)
	}
	a, err := s.attacks.Start(s.player, t, u, soldiers, now, s.ledger)
	if err != nil {
		return s.reject(evs, err)
	}
	evs = append(evs, events.New(events.TypeAttackStarted, s.player.ID, t.ID, now, events.AttackPayload{
		TerritoryID: t.ID,
		UnitID:      u.ID,
		Soldiers:    soldiers,
		Strength:    a.Attack.Strength,
		Defense:     t.Defense,
	}))
	s.emit(evs)
	return evs, s.finishOp(nil)
}

// AssignUnit posts a caporegime to a player-owned territory, detaching
// any previous posting on either side. An empty territoryID unassigns.
func (s *Session) AssignUnit(unitID, territoryID string) ([]events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	_, evs := s.catchUpLocked(now)

	u, ok := s.units[unitID]
	if !ok {
		return s.reject(evs, ErrNotFound)
	}

	if territoryID == "" {
		if u.TerritoryID != "" {
			if old, ok := s.territoryIdx[u.TerritoryID]; ok {
				old.AssignedUnitID = ""
			}
			u.TerritoryID = ""
			evs = append(evs, events.New(events.TypeUnitUnassigned, s.player.ID, u.ID, now, events.UnitAssignmentPayload{UnitID: u.ID}))
		}
		s.emit(evs)
		return evs, s.finishOp(nil)
	}

	t, ok := s.territoryIdx[territoryID]
	if !ok {
		return s.reject(evs, ErrNotFound)
	}
	if !t.OwnedByPlayer() {
		return s.reject(evs, ErrRequirementNotMet)
	}

	if u.TerritoryID != "" {
		if old, ok := s.territoryIdx[u.TerritoryID]; ok {
			old.AssignedUnitID = ""
		}
	}
	if t.AssignedUnitID != "" {
		if prev, ok := s.units[t.AssignedUnitID]; ok {
			prev.TerritoryID = ""
		}
	}
	u.TerritoryID = t.ID
	t.AssignedUnitID = u.ID
	evs = append(evs, events.New(events.TypeUnitAssigned, s.player.ID, u.ID, now, events.UnitAssignmentPayload{
		UnitID:      u.ID,
		TerritoryID: t.ID,
	}))
	s.emit(evs)
	return evs, s.finishOp(nil)
}

// RecruitSoldiers buys soldiers into a unit's garrison, bounded by the
// unit's capacity and the player's crew cap.
func (s *Session) RecruitSoldiers(unitID string, count int) ([]events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	_, evs := s.catchUpLocked(now)

	u, ok := s.units[unitID]
	if !ok {
		return s.reject(evs, ErrNotFound)
	}
	if count <= 0 || count > u.RoomFor() {
		return s.reject(evs, ErrRequirementNotMet)
	}
	total := count
	for _, other := range s.units {
		total += other.Garrison
	}
	for _, t := range s.territories {
		if t.OwnedByPlayer() {
			total += t.Garrison
		}
	}
	if total > s.player.MaxCrew {
		return s.reject(evs, ErrRequirementNotMet)
	}
	cost := float64(count) * s.tun.SoldierCost
	if !s.player.CanAfford(cost) {
		return s.reject(evs, ErrInsufficientFunds)
	}

	s.player.SpendCash(cost)
	u.Garrison += count
	evs = append(evs, events.New(events.TypeSoldiersRecruited, s.player.ID, u.ID, now, events.SoldiersRecruitedPayload{
		UnitID:   u.ID,
		Soldiers: count,
		Cost:     cost,
	}))
	s.emit(evs)
	return evs, s.finishOp(nil)
}

// UnlockFeature buys a business feature. Unlocking activates it.
func (s *Session) UnlockFeature(businessID, featureID string) ([]events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	_, evs := s.catchUpLocked(now)

	b, ok := s.businessIdx[businessID]
	if !ok {
		return s.reject(evs, ErrNotFound)
	}
	f := b.Feature(featureID)
	if f == nil {
		return s.reject(evs, ErrNotFound)
	}
	if !b.Built() || f.Unlocked {
		return s.reject(evs, ErrRequirementNotMet)
	}
	if !s.player.CanAfford(f.Cost) {
		return s.reject(evs, ErrInsufficientFunds)
	}

	s.player.SpendCash(f.Cost)
	f.Unlocked = true
	f.Active = true
	s.emit(evs)
	return evs, s.finishOp(nil)
}

// SpendAttribute allocates one unspent attribute point.
func (s *Session) SpendAttribute(attribute string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishOp(SpendAttributePoint(s.player, attribute))
}

// Snapshot is a deep copy of the session's state tree, safe to read
// and serialize outside the lock.
type Snapshot struct {
	Player      *player.State            `json:"player"`
	Businesses  []*business.Business     `json:"businesses"`
	Territories []*territory.Territory   `json:"territories"`
	Units       []*unit.Caporegime       `json:"units"`
	Missions    []*mission.Mission       `json:"missions"`
	Actions     []*TimedAction           `json:"actions"`
	TakenAt     time.Time                `json:"taken_at"`
}

// Snapshot captures the current state tree under the lock.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		Player:  s.player.Clone(),
		Actions: s.ledger.All(),
		TakenAt: s.clock.Now(),
	}
	for _, b := range s.businesses {
		snap.Businesses = append(snap.Businesses, b.Clone())
	}
	for _, t := range s.territories {
		snap.Territories = append(snap.Territories, t.Clone())
	}
	for _, id := range s.unitOrder {
		snap.Units = append(snap.Units, s.units[id].Clone())
	}
	for _, m := range s.missions {
		snap.Missions = append(snap.Missions, m.Clone())
	}
	return snap
}
