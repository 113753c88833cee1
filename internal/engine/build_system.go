package engine

import (
	"time"

	"github.com/luparagames/omerta/internal/domain/business"
	"github.com/luparagames/omerta/internal/domain/player"
	"github.com/luparagames/omerta/internal/platform/logger"
)

// BuildSystem starts and resolves construction and upgrade work on
// businesses.
type BuildSystem struct {
	log *logger.Logger
}

func NewBuildSystem(log *logger.Logger) *BuildSystem {
	return &BuildSystem{log: log}
}

// Start validates and launches a construction or upgrade step. The
// exclusivity check runs before the cash check so a rejected start
// never costs anything. Cash is deducted up front; the level lands when
// the action resolves.
func (s *BuildSystem) Start(p *player.State, b *business.Business, kind ActionKind, now time.Time, l *Ledger) (*TimedAction, error) {
	if l.Pending(b.ID) != nil {
		return nil, ErrActionInProgress
	}
	switch kind {
	case ActionBuild:
		if b.Built() {
			return nil, ErrRequirementNotMet
		}
	case ActionUpgrade:
		if !b.Built() {
			return nil, ErrRequirementNotMet
		}
		if b.Level >= b.MaxLevel {
			return nil, ErrRequirementNotMet
		}
	}
	cost := b.NextCost()
	if !p.CanAfford(cost) {
		return nil, ErrInsufficientFunds
	}

	a := &TimedAction{
		Kind:      kind,
		EntityID:  b.ID,
		StartedAt: now,
		Duration:  b.NextDuration(),
	}
	if err := l.Start(a); err != nil {
		return nil, err
	}
	p.SpendCash(cost)
	s.log.Info("%s started on %s (cost %.0f, done in %s)", kind, b.ID, cost, a.Duration)
	return a, nil
}

// Resolve lands a due construction step. Taking the action out of the
// ledger first makes a repeated resolve a no-op.
func (s *BuildSystem) Resolve(b *business.Business, a *TimedAction, l *Ledger) bool {
	if !l.Take(a) {
		return false
	}
	b.Level++
	s.log.Info("%s completed on %s, now level %d", a.Kind, b.ID, b.Level)
	return true
}
