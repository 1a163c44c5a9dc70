// Package store persists saved comparison scenarios keyed by an opaque user
// token, so the web UI can keep comparisons server-side instead of in
// cookies.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/loantools/loancalc/internal/engine"
	"github.com/loantools/loancalc/pkg/constants"
)

// SavedScenario is one stored comparison entry.
type SavedScenario struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Summary   engine.Summary         `json:"summary"`
	Schedule  []engine.ScheduleEntry `json:"schedule"`
	CreatedAt time.Time              `json:"created_at"`
}

// Store is the persistence boundary for saved comparisons. Implementations
// must treat an empty user token as "no user": List returns nothing and
// mutations are no-ops.
type Store interface {
	List(ctx context.Context, userToken string) ([]SavedScenario, error)
	Add(ctx context.Context, userToken string, scenario SavedScenario) error
	Remove(ctx context.Context, userToken, id string) error
	Clear(ctx context.Context, userToken string) error
}

// MemoryStore is an in-memory Store used when no redis address is configured
// and in tests.
type MemoryStore struct {
	mu         sync.Mutex
	scenarios  map[string][]SavedScenario
	maxPerUser int
}

// NewMemoryStore creates an empty in-memory store with the default per-user
// cap.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scenarios:  make(map[string][]SavedScenario),
		maxPerUser: constants.MaxSavedComparisons,
	}
}

// List returns the user's saved scenarios, oldest first.
func (s *MemoryStore) List(_ context.Context, userToken string) ([]SavedScenario, error) {
	if userToken == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make([]SavedScenario, len(s.scenarios[userToken]))
	copy(saved, s.scenarios[userToken])
	return saved, nil
}

// Add appends a scenario and trims the oldest entries beyond the per-user
// cap.
func (s *MemoryStore) Add(_ context.Context, userToken string, scenario SavedScenario) error {
	if userToken == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenarios[userToken] = trim(append(s.scenarios[userToken], scenario), s.maxPerUser)
	return nil
}

// Remove deletes one scenario by id.
func (s *MemoryStore) Remove(_ context.Context, userToken, id string) error {
	if userToken == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := s.scenarios[userToken]
	for i, scenario := range saved {
		if scenario.ID == id {
			s.scenarios[userToken] = append(saved[:i], saved[i+1:]...)
			break
		}
	}
	return nil
}

// Clear deletes all of a user's scenarios.
func (s *MemoryStore) Clear(_ context.Context, userToken string) error {
	if userToken == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scenarios, userToken)
	return nil
}

// trim keeps the newest max entries, preserving oldest-first order.
func trim(saved []SavedScenario, max int) []SavedScenario {
	if max <= 0 || len(saved) <= max {
		return saved
	}
	sort.SliceStable(saved, func(i, j int) bool { return saved[i].CreatedAt.Before(saved[j].CreatedAt) })
	return saved[len(saved)-max:]
}
