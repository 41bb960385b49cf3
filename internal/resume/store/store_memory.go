package store

import (
	"context"
	"slices"
	"sync"

	"talentmatch/internal/resume/models"
	"talentmatch/pkg/domain"
)

// InMemoryStore keeps résumés in insertion order, newest first. It is safe
// for concurrent access and returns copies, never its own records.
type InMemoryStore struct {
	mu      sync.RWMutex
	resumes []models.Resume
}

// NewInMemoryStore constructs a store holding seed, in order.
func NewInMemoryStore(seed ...models.Resume) *InMemoryStore {
	s := &InMemoryStore{resumes: make([]models.Resume, 0, len(seed))}
	for _, r := range seed {
		s.resumes = append(s.resumes, r.Clone())
	}
	return s
}

// Add prepends r.
func (s *InMemoryStore) Add(_ context.Context, r models.Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(r.ID) >= 0 {
		return ErrAlreadyExists
	}
	s.resumes = slices.Insert(s.resumes, 0, r.Clone())
	return nil
}

// Remove deletes the résumé with id.
func (s *InMemoryStore) Remove(_ context.Context, id domain.ResumeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	s.resumes = slices.Delete(s.resumes, i, i+1)
	return nil
}

// Update applies fn to a copy of the résumé and stores the copy if fn
// succeeds. fn runs under the store lock and must not call the store.
func (s *InMemoryStore) Update(_ context.Context, id domain.ResumeID, fn func(*models.Resume) error) (models.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return models.Resume{}, ErrNotFound
	}
	updated := s.resumes[i].Clone()
	if err := fn(&updated); err != nil {
		return models.Resume{}, err
	}
	updated.ID = id
	s.resumes[i] = updated
	return updated.Clone(), nil
}

// FindByID returns the résumé with id or ErrNotFound.
func (s *InMemoryStore) FindByID(_ context.Context, id domain.ResumeID) (models.Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return models.Resume{}, ErrNotFound
	}
	return s.resumes[i].Clone(), nil
}

// List returns the résumés matching filter, newest first.
func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]models.Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Resume, 0, len(s.resumes))
	for _, r := range s.resumes {
		if filter.Match(r) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// Clear removes every résumé.
func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes = s.resumes[:0]
	return nil
}

// Count returns the number of résumés.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resumes), nil
}

func (s *InMemoryStore) indexLocked(id domain.ResumeID) int {
	return slices.IndexFunc(s.resumes, func(r models.Resume) bool { return r.ID == id })
}
