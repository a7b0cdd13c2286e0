package fiscalyears

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps fiscal years in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	years  map[int64]FiscalYear
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{years: make(map[int64]FiscalYear)}
}

func (r *MemoryRepository) sorted(filter func(FiscalYear) bool) []FiscalYear {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FiscalYear, 0, len(r.years))
	for _, fy := range r.years {
		if filter == nil || filter(fy) {
			out = append(out, fy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out
}

// List returns all years, most recent first.
func (r *MemoryRepository) List(context.Context) ([]FiscalYear, error) {
	return r.sorted(nil), nil
}

// ListActive returns open years, most recent first.
func (r *MemoryRepository) ListActive(context.Context) ([]FiscalYear, error) {
	return r.sorted(FiscalYear.IsActive), nil
}

// Get returns the year with id.
func (r *MemoryRepository) Get(_ context.Context, id int64) (FiscalYear, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fy, ok := r.years[id]
	if !ok {
		return FiscalYear{}, ErrNotFound
	}
	return fy, nil
}

// Insert stores a new year.
func (r *MemoryRepository) Insert(_ context.Context, in CreateInput) (FiscalYear, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fy := range r.years {
		if fy.Code == in.Code {
			return FiscalYear{}, ErrDuplicateCode
		}
	}
	r.nextID++
	now := time.Now()
	fy := FiscalYear{
		ID:        r.nextID,
		Code:      in.Code,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Status:    in.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.years[fy.ID] = fy
	return fy, nil
}
