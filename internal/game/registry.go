package game

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Registry owns the live sessions. Lookups take the read lock; creation
// upgrades to the write lock with a double check so concurrent joiners of
// the same id share one session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*registryEntry
	cfg      Config
	log      *slog.Logger
}

type registryEntry struct {
	session *Session
	cancel  context.CancelFunc
}

// NewRegistry builds an empty registry; cfg is applied to every session it
// creates.
func NewRegistry(cfg Config, log *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*registryEntry),
		cfg:      cfg,
		log:      log,
	}
}

// Get returns the session for id, or nil.
func (r *Registry) Get(id string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.sessions[id]; ok {
		return entry.session
	}
	return nil
}

// GetOrCreate returns the session for id, creating and starting it on first
// reference.
func (r *Registry) GetOrCreate(id string) (*Session, error) {
	if s := r.Get(id); s != nil {
		return s, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[id]; ok {
		return entry.session, nil
	}

	s, err := NewSession(id, r.cfg, r.log)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	r.sessions[id] = &registryEntry{session: s, cancel: cancel}
	r.log.Info("session created", slog.String("session", id))
	return s, nil
}

// Remove stops and forgets the session for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[id]; ok {
		entry.cancel()
		delete(r.sessions, id)
	}
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Shutdown stops every session.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.sessions {
		entry.cancel()
		delete(r.sessions, id)
	}
}

// Sweep periodically reaps sessions that have been idle past ttl, freeing
// abandoned lobbies and finished games. Blocks until ctx is canceled.
func (r *Registry) Sweep(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce(ttl)
		}
	}
}

func (r *Registry) sweepOnce(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.sessions {
		if entry.session.LastActivity().After(cutoff) {
			continue
		}
		entry.cancel()
		delete(r.sessions, id)
		r.log.Info("session expired", slog.String("session", id))
	}
}
