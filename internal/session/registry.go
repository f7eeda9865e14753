package session

import (
	"log/slog"
	"sync"
	"time"
)

// Registry is the shared clientID -> Session mapping. Individual fields
// of a Session are only mutated while holding that client's lock in the
// state machine; the registry lock covers map access alone, so no client
// ever waits on another client's transition.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Get returns the live session for a client, or nil.
func (r *Registry) Get(clientID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[clientID]
}

// Put installs a session, replacing any prior one for the same client.
// A client can never have two live sessions.
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ClientID] = s
}

func (r *Registry) Delete(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, clientID)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle removes sessions without activity for at least ttl and
// returns how many were dropped. Completed sessions age out the same
// way; their stale buttons are already rejected by the session-id check.
func (r *Registry) EvictIdle(ttl time.Duration) int {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for clientID, s := range r.sessions {
		if s.IdleFor(now) >= ttl {
			delete(r.sessions, clientID)
			evicted++
			slog.Debug("Session evicted", "client_id", clientID, "state", s.State, "idle", s.IdleFor(now))
		}
	}
	return evicted
}
