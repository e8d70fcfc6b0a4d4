// Package session holds per-conversation message history with TTL eviction.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flightlinehq/flightline/internal/llm"
)

const (
	// DefaultTTL matches the conversational attention span we promise
	// clients: an hour of inactivity ends the thread.
	DefaultTTL = 60 * time.Minute

	// DefaultSweepInterval is how often the background sweeper scans for
	// expired sessions.
	DefaultSweepInterval = 5 * time.Minute
)

// state is the mutable record for one session key. The mutex serializes
// concurrent operations on the same key; different keys never contend.
type state struct {
	mu           sync.Mutex
	messages     []llm.Message
	language     string
	lastAccessed time.Time
}

// Store is an in-memory session table with TTL-based eviction. Construct
// with NewStore, call Start to run the sweeper, Stop at shutdown.
// Conversation state is deliberately not durable across restarts.
type Store struct {
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*state

	stop chan struct{}
	done chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the idle lifetime of a session.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithSweepInterval overrides how often expired sessions are collected.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) { s.interval = d }
}

// WithClock injects a time source for deterministic eviction tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		ttl:      DefaultTTL,
		interval: DefaultSweepInterval,
		now:      time.Now,
		log:      log.With().Str("component", "session").Logger(),
		sessions: make(map[string]*state),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the background eviction sweeper.
func (s *Store) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweeper and waits for it to exit.
func (s *Store) Stop() {
	close(s.stop)
	<-s.done
}

// get returns the live state for a key, creating it if absent. Expired
// sessions are treated as absent even before the sweeper has run.
func (s *Store) get(id string, create bool) *state {
	now := s.now()

	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok && !s.expired(st, now) {
		return st
	}

	if !create {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok = s.sessions[id]
	if ok && !s.expired(st, now) {
		return st
	}
	st = &state{lastAccessed: now}
	s.sessions[id] = st
	return st
}

func (s *Store) expired(st *state, now time.Time) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return now.Sub(st.lastAccessed) > s.ttl
}

// Append adds a message to a session's history, creating the session on
// first use and refreshing its TTL.
func (s *Store) Append(id string, msg llm.Message) {
	st := s.get(id, true)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.messages = append(st.messages, msg)
	st.lastAccessed = s.now()
}

// History returns a copy of the session's ordered message history, oldest
// first. An unknown or expired session yields an empty slice.
func (s *Store) History(id string) []llm.Message {
	st := s.get(id, false)
	if st == nil {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.lastAccessed = s.now()
	out := make([]llm.Message, len(st.messages))
	copy(out, st.messages)
	return out
}

// Clear removes a session entirely.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Language returns the session's sticky language hint, or "" if none has
// been detected yet.
func (s *Store) Language(id string) string {
	st := s.get(id, false)
	if st == nil {
		return ""
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.language
}

// SetLanguage records the session's detected language for later turns.
func (s *Store) SetLanguage(id, lang string) {
	st := s.get(id, true)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.language = lang
	st.lastAccessed = s.now()
}

// Count returns the number of live (unexpired) sessions.
func (s *Store) Count() int {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, st := range s.sessions {
		if !s.expired(st, now) {
			n++
		}
	}
	return n
}

// Sweep evicts every session idle past the TTL. Runs periodically from
// Start, exported so tests and shutdown paths can force a pass.
func (s *Store) Sweep() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, st := range s.sessions {
		if s.expired(st, now) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.log.Debug().Int("evicted", evicted).Int("remaining", len(s.sessions)).
			Msg("session sweep complete")
	}
}
