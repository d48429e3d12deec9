package state

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store intended for tests, examples and short
// sessions. Records are copied on the way in and out.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Record
	latest   map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string][]Record{},
		latest:   map[string]Record{},
	}
}

func (s *MemoryStore) Append(_ context.Context, record Record) error {
	record = normalizeRecord(record)
	if err := validateRecord(record); err != nil {
		return err
	}
	key, _ := record.Ref().Identifier()
	record = cloneRecord(record)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[record.Session] = append(s.sessions[record.Session], record)
	s.latest[key] = record
	return nil
}

func (s *MemoryStore) Latest(_ context.Context, ref Ref) (Record, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Record{}, false, err
	}
	s.mu.RLock()
	record, ok := s.latest[key]
	s.mu.RUnlock()
	if !ok {
		return Record{}, false, nil
	}
	return cloneRecord(record), true, nil
}

func (s *MemoryStore) List(_ context.Context, session string) ([]Record, error) {
	session = strings.TrimSpace(session)
	if session == "" {
		return nil, ErrSessionRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.sessions[session]
	out := make([]Record, 0, len(records))
	for _, record := range records {
		out = append(out, cloneRecord(record))
	}
	return out, nil
}
