package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"torrentcore/internal/domain/ports"
)

// Registry is an in-memory session registry. Sessions are created with a
// privilege level and expire after a fixed TTL; expired sessions stop being
// valid without explicit logout.
type Registry struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]session
}

type session struct {
	level     ports.AuthLevel
	expiresAt time.Time
}

// DefaultTTL is applied when no TTL is configured.
const DefaultTTL = 24 * time.Hour

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]session),
	}
}

// Create registers a new session and returns its id.
func (r *Registry) Create(level ports.AuthLevel) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	id := hex.EncodeToString(buf)

	r.mu.Lock()
	r.sessions[id] = session{level: level, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return id, nil
}

// Revoke invalidates a session immediately.
func (r *Registry) Revoke(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

func (r *Registry) IsValid(sessionID string) bool {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	return ok && r.now().Before(s.expiresAt)
}

func (r *Registry) Level(sessionID string) ports.AuthLevel {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok || !r.now().Before(s.expiresAt) {
		return ports.AuthLevelNone
	}
	return s.level
}

// Prune drops expired sessions. Call periodically; validity checks do not
// depend on it.
func (r *Registry) Prune() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if !now.Before(s.expiresAt) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
