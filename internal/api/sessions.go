package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adpulse/campaign-dashboard/internal/dashboard"
	"github.com/adpulse/campaign-dashboard/internal/pkg/logger"
)

type session struct {
	controller *dashboard.Controller
	lastAccess time.Time
}

// SessionRegistry owns one dashboard controller per client session.
// Sessions that go untouched for the TTL are swept and dropped; the client
// recreates its session on the next mount.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*session
	factory  func() *dashboard.Controller
	ttl      time.Duration
	onCount  func(n int)
}

// NewSessionRegistry creates a registry. factory builds a fresh controller
// for each new session; onCount (optional) is invoked with the session
// count whenever it changes.
func NewSessionRegistry(factory func() *dashboard.Controller, ttl time.Duration, onCount func(n int)) *SessionRegistry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionRegistry{
		sessions: make(map[string]*session),
		factory:  factory,
		ttl:      ttl,
		onCount:  onCount,
	}
}

// Create builds a new controller, bootstraps it and runs its initial fetch
// cycle, then registers it under a fresh session id.
func (r *SessionRegistry) Create(ctx context.Context) (string, *dashboard.Controller) {
	ctrl := r.factory()
	ctrl.Bootstrap(ctx)
	ctrl.RunCycle(ctx)

	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &session{controller: ctrl, lastAccess: time.Now()}
	n := len(r.sessions)
	r.mu.Unlock()

	r.countChanged(n)
	logger.Info("session created", "session_id", id, "active", n)
	return id, ctrl
}

// Get returns the controller for a session id and refreshes its idle timer.
func (r *SessionRegistry) Get(id string) (*dashboard.Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastAccess = time.Now()
	return s.controller, true
}

// Delete removes a session. Returns false if the id is unknown.
func (r *SessionRegistry) Delete(id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if ok {
		r.countChanged(n)
		logger.Info("session deleted", "session_id", id, "active", n)
	}
	return ok
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle beyond the TTL and returns how many were removed.
func (r *SessionRegistry) Sweep(now time.Time) int {
	r.mu.Lock()
	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.lastAccess) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if removed > 0 {
		r.countChanged(n)
		logger.Info("session sweep", "removed", removed, "active", n)
	}
	return removed
}

// Run sweeps on the given interval until ctx is canceled.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

func (r *SessionRegistry) countChanged(n int) {
	if r.onCount != nil {
		r.onCount(n)
	}
}
