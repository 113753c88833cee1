package engine

import (
	"github.com/luparagames/omerta/internal/domain/mission"
	"github.com/luparagames/omerta/internal/domain/player"
	"github.com/luparagames/omerta/internal/platform/logger"
)

// MissionSystem advances mission progress against observed player
// state. Progress only moves forward; a completed mission never
// reopens.
type MissionSystem struct {
	log *logger.Logger
}

func NewMissionSystem(log *logger.Logger) *MissionSystem {
	return &MissionSystem{log: log}
}

func observe(p *player.State) mission.Observation {
	return mission.Observation{
		Level:                p.Level,
		Cash:                 p.Cash,
		Respect:              p.Respect,
		CrimesCommitted:      p.Counters.CrimesCommitted,
		BuildsCompleted:      p.Counters.BuildsCompleted,
		TerritoriesCaptured:  p.Counters.TerritoriesCaptured,
	}
}

// Evaluate re-checks every open mission and returns the ones that just
// completed. Rewards are granted by the caller so experience flows
// through the one leveling path.
func (s *MissionSystem) Evaluate(p *player.State, missions []*mission.Mission) []*mission.Mission {
	obs := observe(p)
	var completed []*mission.Mission
	for _, m := range missions {
		if m.Advance(obs) {
			completed = append(completed, m)
			s.log.Info("mission completed: %s by %s", m.ID, p.ID)
		}
	}
	return completed
}
