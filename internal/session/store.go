// Package session holds generated calendars until they are downloaded.
//
// Entries live for a fixed TTL. Expired entries are removed by a passive
// sweep that runs on Put; nothing runs in the background, so a store that
// stops receiving writes keeps its expired entries in memory until the next
// Put. Sessions are local to the process: behind a load balancer a download
// must reach the instance that created it.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

const (
	DefaultTTL   = 10 * time.Minute
	DefaultGrace = time.Second
)

// Meta is the descriptive data stored next to the calendar content.
type Meta struct {
	EventCount int
	CityName   string
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long an entry stays retrievable.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithGrace sets the delay between a successful Get and deletion.
func WithGrace(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.grace = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the UUIDv7 key generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithAfterFunc replaces time.AfterFunc for scheduling deferred deletes.
func WithAfterFunc(after func(time.Duration, func())) Option {
	return func(s *Store) {
		if after != nil {
			s.afterFunc = after
		}
	}
}

// Store is a mutex-guarded map of sessions keyed by time-ordered IDs.
type Store struct {
	mu        sync.Mutex
	entries   map[string]model.CalendarSession
	lastSweep time.Time

	ttl       time.Duration
	grace     time.Duration
	now       func() time.Time
	newID     func() string
	afterFunc func(time.Duration, func())
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]model.CalendarSession),
		ttl:     DefaultTTL,
		grace:   DefaultGrace,
		now:     time.Now,
		newID:   newTimeOrderedID,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores content under a fresh key and sweeps expired entries.
func (s *Store) Put(content string, meta Meta) model.CalendarSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := s.sweepLocked(now)

	sess := model.CalendarSession{
		ID:         s.newID(),
		Content:    content,
		EventCount: meta.EventCount,
		CityName:   meta.CityName,
		CreatedAt:  now,
	}
	s.entries[sess.ID] = sess

	appLog.Info("session stored",
		"session_id", sess.ID,
		"event_count", sess.EventCount,
		"city", sess.CityName,
		"swept", removed,
		"live", len(s.entries),
	)
	return sess
}

// Get returns the live entry for id and schedules its deletion after the
// grace delay. Unknown or expired IDs yield model.ErrNotFound.
func (s *Store) Get(id string) (model.CalendarSession, error) {
	s.mu.Lock()
	sess, ok := s.entries[id]
	if ok && s.expired(sess, s.now()) {
		delete(s.entries, id)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return model.CalendarSession{}, fmt.Errorf("%w: session %q does not exist or has expired", model.ErrNotFound, id)
	}

	s.afterFunc(s.grace, func() { s.delete(id) })
	return sess, nil
}

// Sweep removes every expired entry and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

// Len reports the number of stored entries, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// LastSweep reports when the store last swept.
func (s *Store) LastSweep() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSweep
}

func (s *Store) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; ok {
		delete(s.entries, id)
		appLog.Debug("session consumed", "session_id", id)
	}
}

func (s *Store) sweepLocked(now time.Time) int {
	removed := 0
	for id, sess := range s.entries {
		if s.expired(sess, now) {
			delete(s.entries, id)
			removed++
		}
	}
	s.lastSweep = now
	return removed
}

func (s *Store) expired(sess model.CalendarSession, now time.Time) bool {
	return now.Sub(sess.CreatedAt) > s.ttl
}

// newTimeOrderedID returns a UUIDv7, falling back to v4 if the clock source
// fails.
func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
