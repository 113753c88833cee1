package engine

import (
	"math"
	"time"

	"github.com/luparagames/omerta/internal/domain/player"
	"github.com/luparagames/omerta/internal/domain/territory"
	"github.com/luparagames/omerta/internal/domain/unit"
	"github.com/luparagames/omerta/internal/platform/logger"
	"github.com/luparagames/omerta/internal/tuning"
)

// AttackResult is the deterministic outcome of a resolved attack.
type AttackResult struct {
	TerritoryID string
	Captured    bool
	Strength    float64
	Defense     float64
	Losses      int
	Survivors   int
}

// AttackSystem launches and resolves territory attacks. Outcomes are
// deterministic: attacker strength must strictly exceed the defense, a
// tie is a defense hold.
type AttackSystem struct {
	tun tuning.Tuning
	log *logger.Logger
}

func NewAttackSystem(tun tuning.Tuning, log *logger.Logger) *AttackSystem {
	return &AttackSystem{tun: tun, log: log}
}

// Start validates and launches an attack. The committed soldiers leave
// the unit immediately, and strength is locked in at launch. The
// territory is flagged attacking so a second attack on it is rejected
// by the ledger.
func (s *AttackSystem) Start(p *player.State, t *territory.Territory, u *unit.Caporegime, soldiers int, now time.Time, l *Ledger) (*TimedAction, error) {
	if t.OwnedByPlayer() {
		return nil, ErrRequirementNotMet
	}
	if l.Pending(t.ID) != nil {
		return nil, ErrActionInProgress
	}
	if soldiers <= 0 || soldiers > u.Garrison {
		return nil, ErrInsufficientForces
	}

	strength := u.CombatStrength(soldiers) * (1 + float64(p.Attributes.Strength)/100)
	a := &TimedAction{
		Kind:      ActionAttack,
		EntityID:  t.ID,
		StartedAt: now,
		Duration:  time.Duration(s.tun.AttackSeconds) * time.Second,
		Attack: &AttackOrder{
			UnitID:     u.ID,
			Soldiers:   soldiers,
			Strength:   strength,
			PrevStatus: t.Status,
		},
	}
	if err := l.Start(a); err != nil {
		return nil, err
	}
	u.Garrison -= soldiers
	t.Status = territory.StatusAttacking
	s.log.Info("attack launched on %s by unit %s: %d soldiers, strength %.1f vs defense %.1f", t.ID, u.ID, soldiers, strength, t.Defense)
	return a, nil
}

// Resolve settles a due attack. On capture the territory flips to the
// player and the committed soldiers stay as its garrison. On a repelled
// attack the territory reverts to its pre-attack status and the
// survivors walk home; the loss fraction is floored so small raids
// always bring someone back.
func (s *AttackSystem) Resolve(t *territory.Territory, u *unit.Caporegime, a *TimedAction, l *Ledger) (AttackResult, bool) {
	if !l.Take(a) {
		return AttackResult{}, false
	}
	order := a.Attack
	res := AttackResult{
		TerritoryID: t.ID,
		Strength:    order.Strength,
		Defense:     t.Defense,
		Captured:    order.Strength > t.Defense,
	}

	if res.Captured {
		t.Owner = territory.OwnerPlayer
		t.Status = territory.StatusOwned
		t.Defense = order.Strength
		t.Garrison = order.Soldiers
		res.Survivors = order.Soldiers
	} else {
		t.Status = order.PrevStatus
		res.Losses = int(math.Floor(float64(order.Soldiers) * s.tun.SoldierLossFraction))
		res.Survivors = order.Soldiers - res.Losses
		if u != nil {
			u.Garrison += res.Survivors
		}
	}

	s.log.Info("attack on %s resolved: captured=%t strength=%.1f defense=%.1f losses=%d", t.ID, res.Captured, res.Strength, res.Defense, res.Losses)
	return res, true
}
