package engine

import (
	"sync"

	"github.com/luparagames/omerta/internal/platform/logger"
)

// Service is the registry of live sessions, one per connected player.
// Session internals stay serialized by each session's own lock; the
// service lock only guards the registry map.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      *logger.Logger
}

func NewService(log *logger.Logger) *Service {
	return &Service{
		sessions: make(map[string]*Session),
		log:      log,
	}
}

// Register adds or replaces the session for its player.
func (s *Service) Register(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.PlayerID()] = sess
	s.mu.Unlock()
	s.log.Info("session registered for %s", sess.PlayerID())
}

// Unregister drops a player's session.
func (s *Service) Unregister(playerID string) {
	s.mu.Lock()
	delete(s.sessions, playerID)
	s.mu.Unlock()
}

// Session looks up the live session for a player.
func (s *Service) Session(playerID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[playerID]
	return sess, ok
}

// Each calls fn for every live session. Used by the snapshot ticker.
func (s *Service) Each(fn func(*Session)) {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()
	for _, sess := range sessions {
		fn(sess)
	}
}

// Len reports the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
