package bot

import (
	"sync"
	"time"

	"github.com/vkoritsas/go-paygate-bot/internal/domain"
)

// session tracks where one user is in the purchase conversation: the plan
// they picked and, once they chose a payment method, which method we are
// expecting proof for. Sessions are in-memory only; a restart simply sends
// the user back to /start.
type session struct {
	Plan     domain.Plan
	Method   domain.Method
	Deadline time.Time
}

// sessionStore is a mutex-guarded map of per-user conversation state.
type sessionStore struct {
	mu sync.Mutex
	m  map[int64]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{m: make(map[int64]*session)}
}

// get returns a copy of the user's session, zero when none exists.
func (s *sessionStore) get(userID int64) session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.m[userID]; ok {
		return *sess
	}
	return session{}
}

// setPlan records a plan choice and clears any earlier method selection.
func (s *sessionStore) setPlan(userID int64, plan domain.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = &session{Plan: plan}
}

// setMethod records the chosen payment method and the proof deadline.
func (s *sessionStore) setMethod(userID int64, method domain.Method, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[userID]
	if !ok {
		return
	}
	sess.Method = method
	sess.Deadline = deadline
}

// reset drops the user's session.
func (s *sessionStore) reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}
