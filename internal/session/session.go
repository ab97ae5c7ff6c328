// Package session keeps the explicit per-login context handed to every
// report call. Sessions are stored server side and addressed by an opaque id.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ccpp/internal/core"
	"ccpp/internal/metrics"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, s core.Session) error
	Get(ctx context.Context, id string) (core.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Manager issues, resolves and ends sessions.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager builds a manager. ttl <= 0 issues sessions that never expire.
func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// Start opens a session for an authenticated user.
func (m *Manager) Start(ctx context.Context, username, identity string, isAdmin bool) (core.Session, error) {
	now := m.now().UTC()
	s := core.Session{
		ID:        uuid.NewString(),
		Username:  username,
		Identity:  identity,
		IsAdmin:   isAdmin,
		CreatedAt: now,
	}
	if m.ttl > 0 {
		s.ExpiresAt = now.Add(m.ttl)
	}
	if err := s.Validate(); err != nil {
		return core.Session{}, err
	}
	if err := m.store.Create(ctx, s); err != nil {
		return core.Session{}, fmt.Errorf("create session: %w", err)
	}
	metrics.ActiveSessions.Inc()
	return s, nil
}

// Lookup resolves a session id. Expired sessions are deleted and reported as
// core.ErrSessionExpired.
func (m *Manager) Lookup(ctx context.Context, id string) (core.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Session{}, ErrNotFound
	}
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return core.Session{}, err
	}
	if s.Expired(m.now()) {
		if m.store.Delete(ctx, id) == nil {
			metrics.ActiveSessions.Dec()
		}
		return core.Session{}, core.ErrSessionExpired
	}
	return s, nil
}

// End deletes a session. Ending an unknown session is not an error.
func (m *Manager) End(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	err := m.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err == nil {
		metrics.ActiveSessions.Dec()
	}
	return err
}

// Purge drops expired sessions.
func (m *Manager) Purge(ctx context.Context) (int, error) {
	n, err := m.store.DeleteExpired(ctx, m.now())
	if n > 0 {
		metrics.ActiveSessions.Sub(float64(n))
	}
	return n, err
}

// Sweeper lets a cache.Manager purge expired sessions on its schedule.
type Sweeper struct {
	manager *Manager
	timeout time.Duration
}

// Sweeper returns a cleaner bounded by timeout per pass.
func (m *Manager) Sweeper(timeout time.Duration) Sweeper {
	return Sweeper{manager: m, timeout: timeout}
}

// CleanExpired implements cache.Cleaner.
func (s Sweeper) CleanExpired() int {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	n, err := s.manager.Purge(ctx)
	if err != nil {
		slog.Warn("Session purge failed", "error", err, "removed", n)
	}
	return n
}

// MemoryStore keeps sessions in a map.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]core.Session
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]core.Session{}}
}

func (m *MemoryStore) Create(_ context.Context, s core.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (core.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return core.Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}
