package progress

import (
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"
)

// Key identifies one aliyah of one reading.
type Key struct {
	Title  string
	Number int
}

// Record is the completion state of one aliyah. A record exists only once
// the aliyah has been marked at least once.
type Record struct {
	IsComplete    bool
	DateCompleted *time.Time
}

// Backend reads and replaces the whole progress mapping.
type Backend interface {
	ReadAll() (map[Key]Record, error)
	WriteAll(map[Key]Record) error
	Close() error
}

// Store is a cached, write-through view of a Backend. It is safe for
// concurrent use within one process.
type Store struct {
	backend Backend
	log     *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	cache  map[Key]Record
	loaded bool
}

func NewStore(backend Backend, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Store{
		backend: backend,
		log:     log,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Open builds a Store over the named backend ("csv" or "sqlite").
func Open(kind, path string, log *slog.Logger) (*Store, error) {
	var (
		b   Backend
		err error
	)
	switch kind {
	case "", "csv":
		b = NewCSVBackend(path)
	case "sqlite":
		b, err = OpenSQLiteBackend(path)
	default:
		return nil, fmt.Errorf("unknown progress backend %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return NewStore(b, log), nil
}

// Load returns a copy of the full mapping.
func (s *Store) Load() (map[Key]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	return maps.Clone(s.cache), nil
}

// MarkComplete marks an aliyah complete. An aliyah that is already complete
// keeps its original timestamp and nothing is written.
func (s *Store) MarkComplete(title string, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}

	key := Key{Title: title, Number: number}
	if rec, ok := s.cache[key]; ok && rec.IsComplete {
		return nil
	}
	ts := s.now()
	return s.writeLocked(key, Record{IsComplete: true, DateCompleted: &ts})
}

// MarkIncomplete clears completion. It is a no-op for an aliyah that was
// never marked.
func (s *Store) MarkIncomplete(title string, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}

	key := Key{Title: title, Number: number}
	rec, ok := s.cache[key]
	if !ok || (!rec.IsComplete && rec.DateCompleted == nil) {
		return nil
	}
	return s.writeLocked(key, Record{})
}

// Invalidate drops the cache; the next call rereads the backend.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
	s.loaded = false
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	m, err := s.backend.ReadAll()
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	if m == nil {
		m = make(map[Key]Record)
	}
	s.cache = m
	s.loaded = true
	return nil
}

// writeLocked persists the mapping with key set to rec. The cache is only
// replaced once the backend write succeeds.
func (s *Store) writeLocked(key Key, rec Record) error {
	next := maps.Clone(s.cache)
	next[key] = rec
	if err := s.backend.WriteAll(next); err != nil {
		s.log.Error("progress write failed", "title", key.Title, "aliyah", key.Number, "error", err)
		return fmt.Errorf("save progress: %w", err)
	}
	s.cache = next
	s.log.Info("progress updated", "title", key.Title, "aliyah", key.Number, "complete", rec.IsComplete)
	return nil
}
