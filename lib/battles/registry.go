package battles

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds the live sessions of this process. Sessions are never persisted: a
// closed or expired session is simply forgotten.
type Registry struct {
	deps SessionDeps
	ttl  time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(deps SessionDeps, ttl time.Duration) *Registry {
	return &Registry{
		deps:     deps,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Open creates a dormant session for viewing a battle.
func (r *Registry) Open(battle_id string) *Session {
	deps := r.deps
	session := NewSession(uuid.New().String(), battle_id, &deps)

	r.mu.Lock()
	r.sessions[session.ID()] = session
	r.mu.Unlock()

	slog.Debug("Session opened", "session_id", session.ID(), "battle_id", battle_id)
	return session
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	slog.Debug("Session closed", "session_id", id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep forgets sessions left idle for longer than the registry ttl.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, session := range r.sessions {
		if session.idle(now, r.ttl) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("Expired idle sessions", "count", removed)
	}
	return removed
}

func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			r.Sweep(now)
		case <-ctx.Done():
			return
		}
	}
}
