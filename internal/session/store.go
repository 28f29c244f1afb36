// Package session provides the in-memory store for browser sessions. A
// session holds one user's login label, uploaded dataset and latest mining
// results; nothing is persisted, and expired sessions are swept in the
// background.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fridell/cartlens/pkg/models"
)

// Default configuration values.
const (
	DefaultTTL           = 2 * time.Hour
	DefaultSweepInterval = 5 * time.Minute
)

// Config contains session store configuration.
type Config struct {
	// TTL is how long an idle session survives.
	TTL time.Duration

	// SweepInterval is how often expired sessions are collected.
	SweepInterval time.Duration
}

// DefaultConfig returns the default session store configuration.
func DefaultConfig() Config {
	return Config{
		TTL:           DefaultTTL,
		SweepInterval: DefaultSweepInterval,
	}
}

// Store is an in-memory session store, safe for concurrent use.
type Store struct {
	cfg      Config
	sessions map[string]*models.Session
	mu       sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a session store and starts its background sweeper.
func New(cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	s := &Store{
		cfg:      cfg,
		sessions: make(map[string]*models.Session),
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	go s.sweep()
	return s
}

// Create starts a new session for the given username label.
func (s *Store) Create(ctx context.Context, username string) (*models.Session, error) {
	if username == "" {
		return nil, models.ErrEmptyUsername
	}

	now := s.now()
	sess := &models.Session{
		ID:       uuid.NewString(),
		Username: username,
		Created:  now,
		LastSeen: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess, nil
}

// Get returns a snapshot of the session for an ID, refreshing its last-seen
// timestamp. The snapshot is taken under the lock and is safe to read
// concurrently with later Updates: mutations replace the stored session's
// fields wholesale, never the slices or structs a snapshot already holds.
// Expired sessions are treated as gone.
func (s *Store) Get(ctx context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	now := s.now()
	if sess.Expired(now, s.cfg.TTL) {
		delete(s.sessions, id)
		return nil, models.ErrSessionExpired
	}
	sess.Touch(now)
	snapshot := *sess
	return &snapshot, nil
}

// Update applies fn to the session under the store lock. The pipeline runs
// synchronously inside fn, so a slider change replaces the session's results
// wholesale before any other request observes them. fn must assign fresh
// slices and pointers rather than mutate existing ones, since snapshots
// handed out by Get still reference the old values.
func (s *Store) Update(ctx context.Context, id string, fn func(*models.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return models.ErrSessionNotFound
	}
	now := s.now()
	if sess.Expired(now, s.cfg.TTL) {
		delete(s.sessions, id)
		return models.ErrSessionExpired
	}
	sess.Touch(now)
	return fn(sess)
}

// Delete discards a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return models.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the background sweeper.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

// sweep collects expired sessions until Close.
func (s *Store) sweep() {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.collectExpired()
		}
	}
}

// collectExpired removes every session idle past the TTL.
func (s *Store) collectExpired() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.Expired(now, s.cfg.TTL) {
			delete(s.sessions, id)
		}
	}
}
