package linked

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps linked entities in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	entities map[uuid.UUID]Entity
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entities: make(map[uuid.UUID]Entity)}
}

func (r *MemoryRepository) Insert(_ context.Context, e Entity) (Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	r.entities[e.ID] = e
	return e, nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[id]
	if !ok {
		return Entity{}, ErrNotFound
	}
	return e, nil
}

func (r *MemoryRepository) List(_ context.Context, kind Kind) ([]Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entity, 0, len(r.entities))
	for _, e := range r.entities {
		if kind == "" || e.Kind == kind {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, id uuid.UUID, in UpdateInput) (Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[id]
	if !ok {
		return Entity{}, ErrNotFound
	}
	if in.NameAr != nil {
		e.NameAr = *in.NameAr
	}
	if in.NameEn != nil {
		e.NameEn = *in.NameEn
	}
	if in.BranchID != nil {
		e.BranchID = *in.BranchID
	}
	if in.Rate != nil {
		e.Rate = *in.Rate
	}
	e.UpdatedAt = time.Now()
	r.entities[id] = e
	return e, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entities[id]; !ok {
		return ErrNotFound
	}
	delete(r.entities, id)
	return nil
}

func (r *MemoryRepository) FindBySubAccount(_ context.Context, accountID uuid.UUID) (Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entities {
		if e.SubAccountID != nil && *e.SubAccountID == accountID {
			return e, nil
		}
	}
	return Entity{}, ErrNotFound
}
