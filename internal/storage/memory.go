package storage

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"patternlab/internal/genome"
	"patternlab/internal/model"
)

// MemoryStore keeps everything in process. Specimens live in an LRU so the
// registry stays bounded across long-running engines.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	retention   Retention
	sessions    []model.Session
	specimens   *lru.Cache[string, *genome.Genome]
	breeding    []model.BreedingEvent
}

// NewMemoryStore creates an in-memory store with the given retention
func NewMemoryStore(r Retention) *MemoryStore {
	return &MemoryStore{retention: r.withDefaults()}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	cache, err := lru.New[string, *genome.Genome](s.retention.Specimens)
	if err != nil {
		return fmt.Errorf("create specimen cache: %w", err)
	}
	s.specimens = cache
	s.initialized = true
	return nil
}

func (s *MemoryStore) SaveSession(_ context.Context, session model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	session.Generations = append([]model.GenerationRecord(nil), session.Generations...)
	for i := range s.sessions {
		if s.sessions[i].ID == session.ID {
			s.sessions[i] = session
			return nil
		}
	}
	s.sessions = append(s.sessions, session)
	if keep := keepCount(len(s.sessions), s.retention.Sessions); keep < len(s.sessions) {
		s.sessions = append([]model.Session(nil), s.sessions[len(s.sessions)-keep:]...)
	}
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (model.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return model.Session{}, false, ErrNotInitialized
	}

	for _, session := range s.sessions {
		if session.ID == id {
			return session, true, nil
		}
	}
	return model.Session{}, false, nil
}

func (s *MemoryStore) ListSessions(_ context.Context) ([]model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return append([]model.Session(nil), s.sessions...), nil
}

func (s *MemoryStore) SaveSpecimens(_ context.Context, specimens []*genome.Genome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	for _, g := range specimens {
		if g == nil {
			continue
		}
		s.specimens.Add(g.ID, copyGenome(g))
	}
	return nil
}

func (s *MemoryStore) GetSpecimen(_ context.Context, id string) (*genome.Genome, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, false, ErrNotInitialized
	}

	g, ok := s.specimens.Get(id)
	if !ok {
		return nil, false, nil
	}
	return copyGenome(g), true, nil
}

func (s *MemoryStore) CountSpecimens(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return 0, ErrNotInitialized
	}
	return s.specimens.Len(), nil
}

func (s *MemoryStore) SaveBreedingEvent(_ context.Context, event model.BreedingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	s.breeding = append(s.breeding, event)
	if keep := keepCount(len(s.breeding), s.retention.BreedingEvents); keep < len(s.breeding) {
		s.breeding = append([]model.BreedingEvent(nil), s.breeding[len(s.breeding)-keep:]...)
	}
	return nil
}

func (s *MemoryStore) ListBreedingEvents(_ context.Context) ([]model.BreedingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return append([]model.BreedingEvent(nil), s.breeding...), nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	s.sessions = nil
	s.breeding = nil
	s.specimens.Purge()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
