package audit

import (
	"time"
)

// TimelineFilters menampung filter dasar untuk audit timeline.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  int64
	Entity   string
	EntityID string
	Action   string
	Page     int
	PageSize int
}

func (f TimelineFilters) matches(row TimelineRow) bool {
	if !f.From.IsZero() && row.At.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !row.At.Before(f.To) {
		return false
	}
	if f.ActorID != 0 && row.ActorID != f.ActorID {
		return false
	}
	if f.Entity != "" && row.Entity != f.Entity {
		return false
	}
	if f.EntityID != "" && row.EntityID != f.EntityID {
		return false
	}
	if f.Action != "" && row.Action != f.Action {
		return false
	}
	return true
}

// TimelineRow mewakili satu baris audit timeline.
type TimelineRow struct {
	At       time.Time      `json:"at"`
	ActorID  int64          `json:"actor_id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// PagingInfo menyimpan metadata pagination sederhana.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result membungkus hasil timeline dengan informasi paging.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}
