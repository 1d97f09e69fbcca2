package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"benefits/internal/application/models"
	"benefits/internal/benefit"
	id "benefits/pkg/domain"
	"benefits/pkg/platform/sentinel"
)

// pairKey is the lifetime-uniqueness key.
type pairKey struct {
	beneficiaryID id.BeneficiaryID
	benefitCode   benefit.Code
}

// MemoryStore keeps applications in process memory. Used by unit tests and
// local development; the mutex gives it the same winner-takes-all semantics
// as the Postgres unique index under concurrent creates.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[id.ApplicationID]*models.Application
	pairIndex map[pairKey]id.ApplicationID
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		byID:      make(map[id.ApplicationID]*models.Application),
		pairIndex: make(map[pairKey]id.ApplicationID),
	}
}

func (s *MemoryStore) Create(_ context.Context, app *models.Application) error {
	if app == nil {
		return fmt.Errorf("application is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{beneficiaryID: app.BeneficiaryID, benefitCode: app.BenefitCode}
	if _, exists := s.pairIndex[key]; exists {
		return fmt.Errorf("application for %s/%s: %w",
			app.BeneficiaryID, app.BenefitCode, sentinel.ErrDuplicate)
	}

	clone := *app
	s.byID[app.ID] = &clone
	s.pairIndex[key] = app.ID
	return nil
}

func (s *MemoryStore) Get(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, exists := s.byID[appID]
	if !exists {
		return nil, fmt.Errorf("application %s: %w", appID, sentinel.ErrNotFound)
	}
	clone := *app
	return &clone, nil
}

func (s *MemoryStore) ListByBeneficiary(_ context.Context, beneficiaryID id.BeneficiaryID) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Application
	for _, app := range s.byID {
		if app.BeneficiaryID == beneficiaryID {
			clone := *app
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProgramYear > out[j].ProgramYear
	})
	return out, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, app *models.Application, expected models.Status) error {
	if app == nil {
		return fmt.Errorf("application is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.byID[app.ID]
	if !exists {
		return fmt.Errorf("application %s: %w", app.ID, sentinel.ErrNotFound)
	}
	if current.Status != expected {
		return fmt.Errorf("application %s status is %s, expected %s: %w",
			app.ID, current.Status, expected, sentinel.ErrInvalidState)
	}

	clone := *app
	s.byID[app.ID] = &clone
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q Query) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Application
	for _, app := range s.byID {
		if q.Matches(app) {
			clone := *app
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProgramYear != out[j].ProgramYear {
			return out[i].ProgramYear > out[j].ProgramYear
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
