package audit

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

// MemoryLog records audit entries in process and serves them as a timeline.
// It mirrors every entry to an optional slog auditor.
type MemoryLog struct {
	mu     sync.RWMutex
	rows   []TimelineRow
	mirror shared.SlogAuditor
}

// NewMemoryLog constructs an empty MemoryLog.
func NewMemoryLog(logger *slog.Logger) *MemoryLog {
	return &MemoryLog{mirror: shared.SlogAuditor{Logger: logger}}
}

// Record stores the entry after validating it.
func (m *MemoryLog) Record(ctx context.Context, log shared.AuditLog) error {
	if err := m.mirror.Record(ctx, log); err != nil {
		return err
	}
	if log.At.IsZero() {
		log.At = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, TimelineRow{
		At:       log.At,
		ActorID:  log.ActorID,
		Action:   log.Action,
		Entity:   log.Entity,
		EntityID: log.EntityID,
		Meta:     log.Meta,
	})
	return nil
}

func (m *MemoryLog) Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	matched := make([]TimelineRow, 0, len(m.rows))
	for i := len(m.rows) - 1; i >= 0; i-- {
		if f.matches(m.rows[i]) {
			matched = append(matched, m.rows[i])
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].At.After(matched[j].At) })
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}
