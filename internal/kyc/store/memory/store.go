// Package memory is the in-process application store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"verity/internal/kyc/models"
	id "verity/pkg/domain"
	"verity/pkg/platform/sentinel"
)

// numShards spreads per-application write locks so unrelated applications
// never wait on each other.
const numShards = 64

// Store keeps applications in a map. Reads and writes copy, so callers never
// share state with the store.
type Store struct {
	mu     sync.RWMutex
	apps   map[id.ApplicationID]*models.Application
	shards [numShards]sync.Mutex
}

func New() *Store {
	return &Store{apps: make(map[id.ApplicationID]*models.Application)}
}

func (s *Store) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; ok {
		return fmt.Errorf("application %s: %w", app.ID, sentinel.ErrConflict)
	}
	s.apps[app.ID] = app.Clone()
	return nil
}

func (s *Store) FindByID(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, fmt.Errorf("application %s: %w", appID, sentinel.ErrNotFound)
	}
	return app.Clone(), nil
}

func (s *Store) Update(_ context.Context, app *models.Application) error {
	shard := s.shard(app.ID)
	shard.Lock()
	defer shard.Unlock()
	return s.put(app)
}

func (s *Store) Delete(_ context.Context, appID id.ApplicationID) error {
	shard := s.shard(appID)
	shard.Lock()
	defer shard.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[appID]; !ok {
		return fmt.Errorf("application %s: %w", appID, sentinel.ErrNotFound)
	}
	delete(s.apps, appID)
	return nil
}

func (s *Store) List(_ context.Context) ([]*models.Application, error) {
	s.mu.RLock()
	out := make([]*models.Application, 0, len(s.apps))
	for _, app := range s.apps {
		out = append(out, app.Clone())
	}
	s.mu.RUnlock()

	models.SortNewestFirst(out)
	return out, nil
}

// Execute serializes read-validate-mutate-write cycles per application.
func (s *Store) Execute(ctx context.Context, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error) {
	shard := s.shard(appID)
	shard.Lock()
	defer shard.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	app, err := s.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(app); err != nil {
			return nil, err
		}
	}
	mutate(app)
	if err := s.put(app); err != nil {
		return nil, err
	}
	return app.Clone(), nil
}

func (s *Store) put(app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; !ok {
		return fmt.Errorf("application %s: %w", app.ID, sentinel.ErrNotFound)
	}
	s.apps[app.ID] = app.Clone()
	return nil
}

func (s *Store) shard(appID id.ApplicationID) *sync.Mutex {
	return &s.shards[fnv32(appID.String())%numShards]
}

// fnv32 is FNV-1a.
func fnv32(s string) uint32 {
	const (
		offset = 2166136261
		prime  = 16777619
	)
	h := uint32(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}
