package engine

import (
	"math"
	"math/rand"
	"time"

	"github.com/luparagames/omerta/internal/catalog"
	"github.com/luparagames/omerta/internal/domain/player"
	"github.com/luparagames/omerta/internal/platform/logger"
)

// CrimeOutcome is the immediate result of a committed crime.
type CrimeOutcome struct {
	CrimeID    string
	Success    bool
	CashReward float64
	XPReward   float64
	EnergyCost float64
	Roll       float64
}

// CrimeSystem resolves instant probabilistic crimes. The random source
// is injected so scripted runs and tests replay identically.
type CrimeSystem struct {
	defs catalog.CrimeCatalog
	rng  *rand.Rand
	log  *logger.Logger
}

func NewCrimeSystem(defs catalog.CrimeCatalog, rng *rand.Rand, log *logger.Logger) *CrimeSystem {
	return &CrimeSystem{defs: defs, rng: rng, log: log}
}

// Commit validates every gate, then rolls and applies the outcome.
// Validation order is fixed: existence, level, cooldown, energy. A
// rejected commit changes nothing, not even the cooldown stamp. Energy
// is spent and the cooldown starts win or lose; the cash reward and
// experience land only on success.
func (s *CrimeSystem) Commit(p *player.State, crimeID string, now time.Time) (CrimeOutcome, error) {
	def, ok := s.defs.ByID[crimeID]
	if !ok {
		return CrimeOutcome{}, ErrNotFound
	}
	if p.Level < def.RequiredLevel {
		return CrimeOutcome{}, ErrRequirementNotMet
	}
	if last := p.LastUsed(crimeID); !last.IsZero() {
		ready := last.Add(time.Duration(def.CooldownSeconds) * time.Second)
		if now.Before(ready) {
			return CrimeOutcome{}, ErrCooldownActive
		}
	}
	if p.Energy < def.EnergyCost {
		return CrimeOutcome{}, ErrInsufficientEnergy
	}

	// roll is in [0,1), so a chance of 1 always succeeds and 0 never does.
	roll := s.rng.Float64()
	chance := def.SuccessRate * (1 + float64(p.Attributes.Intelligence)/200)
	if chance > 1 {
		chance = 1
	}

	out := CrimeOutcome{
		CrimeID:    crimeID,
		Success:    roll < chance,
		EnergyCost: def.EnergyCost,
		Roll:       roll,
	}

	p.AddEnergy(-def.EnergyCost)
	p.MarkUsed(crimeID, now)
	p.Counters.CrimesCommitted++

	if out.Success {
		spread := def.MaxReward - def.MinReward
		out.CashReward = math.Floor(def.MinReward + s.rng.Float64()*spread)
		out.XPReward = def.XPReward
		p.Cash += out.CashReward
		p.Respect += 1 + int64(def.XPReward/10)
		p.Counters.CrimesSucceeded++
	}

	s.log.Info("crime %s by %s: success=%t roll=%.3f cash=%.0f", crimeID, p.ID, out.Success, roll, out.CashReward)
	return out, nil
}
