package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultTTL          = time.Hour
	defaultReapInterval = 5 * time.Minute
)

// Store is the session lifecycle contract used by the orchestrator. Sessions
// live in process memory; there is no persistence.
type Store interface {
	// GetOrCreate returns the session for id, creating one when id is empty
	// or unknown. The second result reports whether a session was created.
	GetOrCreate(id string) (*Session, bool)
	// Get returns an existing session.
	Get(id string) (*Session, bool)
	// Evict removes a session.
	Evict(id string)
	// Len reports the number of live sessions.
	Len() int
}

// StoreOption customizes a MemoryStore.
type StoreOption func(*MemoryStore)

// WithTTL sets the idle lifetime after which the reaper evicts a session.
// Zero disables reaping.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *MemoryStore) {
		s.ttl = ttl
	}
}

// WithReapInterval sets how often the reaper sweeps.
func WithReapInterval(interval time.Duration) StoreOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.reapInterval = interval
		}
	}
}

// WithClock replaces the time source. Test seam.
func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// MemoryStore keeps sessions in a process-wide map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl          time.Duration
	reapInterval time.Duration
	now          func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		sessions:     make(map[string]*Session),
		ttl:          defaultTTL,
		reapInterval: defaultReapInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) GetOrCreate(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			// Restart the idle clock before handing the session out, so a
			// sweep cannot evict it before the caller locks it. A failed
			// TryLock means a turn is in flight, which the sweep skips too.
			if sess.TryLock() {
				sess.UpdatedAt = s.now()
				sess.Unlock()
			}
			return sess, false
		}
	} else {
		id = uuid.NewString()
	}

	sess := NewSession(id, s.now())
	s.sessions[id] = sess
	return sess, true
}

func (s *MemoryStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *MemoryStore) Evict(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartReaper runs a background sweep that evicts sessions idle past the TTL.
// It returns immediately; the goroutine stops when ctx is done. No-op when
// the TTL is zero.
func (s *MemoryStore) StartReaper(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(s.reapInterval)
	go func() {
		defer ticker.Stop()
		log.Info().Dur("ttl", s.ttl).Dur("interval", s.reapInterval).Msg("session reaper started")
		for {
			select {
			case <-ticker.C:
				s.Reap()
			case <-ctx.Done():
				log.Info().Msg("session reaper stopped")
				return
			}
		}
	}()
}

// Reap evicts every idle session past the TTL and reports how many were
// removed. Sessions with a turn in flight are skipped and picked up on a
// later sweep.
func (s *MemoryStore) Reap() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	reaped := 0
	for id, sess := range s.sessions {
		if !sess.TryLock() {
			continue
		}
		idle := sess.UpdatedAt.Before(cutoff)
		sess.Unlock()
		if idle {
			delete(s.sessions, id)
			reaped++
		}
	}
	if reaped > 0 {
		log.Debug().Int("reaped", reaped).Int("live", len(s.sessions)).Msg("idle sessions evicted")
	}
	return reaped
}
