package engine

import (
	"time"

	"github.com/luparagames/omerta/internal/domain/business"
	"github.com/luparagames/omerta/internal/domain/player"
	"github.com/luparagames/omerta/internal/domain/territory"
	"github.com/luparagames/omerta/internal/domain/unit"
	"github.com/luparagames/omerta/internal/tuning"
)

// Accrual is the passive yield of one elapsed window, computed before
// anything is committed. UnitEarnings is bookkeeping only: a capo's cut
// is tracked on the capo and never deducted from the player.
type Accrual struct {
	Cash         float64
	XP           float64
	UnitEarnings map[string]float64
}

// Accrue computes the passive income and experience earned over elapsed
// without mutating anything. Rates are per hour; the result is strictly
// linear in elapsed, so splitting a window into parts accrues the same
// totals as the whole.
func Accrue(p *player.State, businesses []*business.Business, terrs []*territory.Territory, units map[string]*unit.Caporegime, tun tuning.Tuning, elapsed time.Duration) Accrual {
	acc := Accrual{UnitEarnings: make(map[string]float64)}
	if elapsed <= 0 {
		return acc
	}
	hours := elapsed.Hours()
	charisma := 1 + float64(p.Attributes.Charisma)/200

	var cashPerHour, xpPerHour float64
	for _, b := range businesses {
		cashPerHour += b.CurrentIncome()
	}
	for _, t := range terrs {
		if !t.OwnedByPlayer() {
			continue
		}
		rate := t.Income
		if u, ok := units[t.AssignedUnitID]; ok && t.AssignedUnitID != "" {
			rate *= 1 + 0.05*float64(u.Level)
			acc.UnitEarnings[u.ID] += rate * tun.UnitEarningsCut * hours
		}
		cashPerHour += rate
		xpPerHour += t.XPRate
	}

	acc.Cash = cashPerHour * charisma * hours
	acc.XP = xpPerHour * hours
	return acc
}

// RegenEnergy is the energy restored over elapsed at the tuned hourly
// rate. The cap is applied on commit, not here.
func RegenEnergy(tun tuning.Tuning, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return tun.EnergyRegenPerHour * elapsed.Hours()
}
