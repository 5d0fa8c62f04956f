package store

import (
	"sort"
	"sync"
	"time"

	"github.com/obsidianstack/fail2ban-exporter/internal/fail2ban"
)

// Entry is the latest known state of one jail.
type Entry struct {
	Jail  string
	Stats fail2ban.JailStats

	// LastError is the most recent fetch failure; cleared on success.
	LastError string

	// UpdatedAt is the time of the last successful fetch.
	UpdatedAt time.Time

	// SeenAt is the time the jail last appeared in discovery.
	SeenAt time.Time
}

// Liveness is the outcome of the most recent discovery.
type Liveness struct {
	Up       bool
	Err      string
	PolledAt time.Time
	Jails    int
	Failed   int
}

// Store is a thread-safe in-memory jail store, keyed by jail name.
type Store struct {
	mu       sync.RWMutex
	data     map[string]*Entry
	liveness Liveness
	now      func() time.Time // injectable for deterministic tests
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		data: make(map[string]*Entry),
		now:  time.Now,
	}
}

// PutStats records a successful fetch for jail.
func (s *Store) PutStats(jail string, st fail2ban.JailStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryFor(jail)
	now := s.now()
	e.Stats = st
	e.LastError = ""
	e.UpdatedAt = now
	e.SeenAt = now
}

// PutError records a failed fetch for jail. Previous stats are kept.
func (s *Store) PutError(jail string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryFor(jail)
	e.LastError = err.Error()
	e.SeenAt = s.now()
}

// SetLiveness records the outcome of a poll cycle.
func (s *Store) SetLiveness(l Liveness) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.PolledAt.IsZero() {
		l.PolledAt = s.now()
	}
	s.liveness = l
}

// Liveness returns the outcome of the most recent poll cycle.
func (s *Store) Liveness() Liveness {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveness
}

// Get returns a copy of the Entry for jail and whether it exists.
func (s *Store) Get(jail string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[jail]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// List returns copies of all entries sorted by jail name.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.data))
	for _, e := range s.data {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Jail < out[j].Jail })
	return out
}

// Count returns the number of jails ever recorded.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// entryFor must be called with mu held for writing.
func (s *Store) entryFor(jail string) *Entry {
	if e, ok := s.data[jail]; ok {
		return e
	}
	e := &Entry{Jail: jail}
	s.data[jail] = e
	return e
}
