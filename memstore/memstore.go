package memstore

import (
	"regexp"
	"sync"
	"time"

	"github.com/arthvani/arthvani/logging"
)

// entry is the internal representation of one stored value.
type entry struct {
	value     any
	storedAt  time.Time
	expiresAt time.Time // zero means no expiry
}

// Store is a concurrency-safe in-memory key/value cache. Entries set with a
// TTL are actively evicted by a per-key timer when the TTL elapses, so memory
// does not grow unbounded under a steady stream of ephemeral sessions; Get
// additionally treats an expired-but-not-yet-fired entry as absent and evicts
// it, so readers never observe stale values regardless of timer scheduling.
type Store struct {
	mu     sync.RWMutex
	items  map[string]entry
	timers map[string]*time.Timer
	logger logging.Logger
}

// Options configures construction of a Store.
type Options struct {
	Logger logging.Logger
}

// New constructs an empty store with optional overrides.
func New(optFns ...func(o *Options)) *Store {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		items:  make(map[string]entry),
		timers: make(map[string]*time.Timer),
		logger: opts.Logger,
	}
}

// Set stores a value under key. A ttl > 0 schedules active eviction after the
// duration; ttl <= 0 stores the value without expiry. Overwriting a key
// replaces any previously scheduled eviction.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}

	now := time.Now()
	e := entry{value: value, storedAt: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
		s.timers[key] = time.AfterFunc(ttl, func() {
			s.evict(key)
		})
	}
	s.items[key] = e
}

// Get returns the value stored under key. An expired entry is evicted and
// reported as absent.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !time.Now().Before(e.expiresAt) {
		s.evict(key)
		return nil, false
	}
	return e.value, true
}

// Delete removes the key and cancels its eviction timer. It reports whether
// the key was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
	_, existed := s.items[key]
	delete(s.items, key)
	return existed
}

// Has reports whether a live (non-expired) entry exists for key.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns all live keys, optionally filtered by a regular expression
// pattern. An empty pattern matches everything; an invalid pattern yields an
// empty result.
func (s *Store) Keys(pattern string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var re *regexp.Regexp
	if pattern != "" {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			s.logger.Warn("memstore: invalid key pattern %q: %v", pattern, err)
			return nil
		}
	}

	now := time.Now()
	keys := make([]string, 0, len(s.items))
	for k, e := range s.items {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			continue
		}
		if re == nil || re.MatchString(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Len returns the number of stored entries, including any whose eviction
// timer has not fired yet.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear removes all entries and cancels all eviction timers.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = make(map[string]*time.Timer)
	s.items = make(map[string]entry)
}

// evict removes a key if it is still expired at the time of the call. A key
// overwritten after the timer was scheduled is left untouched.
func (s *Store) evict(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		return
	}
	if e.expiresAt.IsZero() || time.Now().Before(e.expiresAt) {
		return
	}
	delete(s.items, key)
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
	s.logger.Debug("memstore: evicted expired key %s", key)
}
