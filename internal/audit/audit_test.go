package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-coa/internal/rbac"
	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func seededLog(t *testing.T, n int) *MemoryLog {
	t.Helper()
	log := NewMemoryLog(nil)
	for i := 0; i < n; i++ {
		entity := "account"
		if i%2 == 1 {
			entity = "linked_entity"
		}
		require.NoError(t, log.Record(context.Background(), shared.AuditLog{
			ActorID:  int64(i%3 + 1),
			Action:   entity + ".create",
			Entity:   entity,
			EntityID: fmt.Sprintf("id-%d", i),
			Meta:     map[string]any{"seq": i},
			At:       base.Add(time.Duration(i) * time.Minute),
		}))
	}
	return log
}

func TestTimelinePagingNewestFirst(t *testing.T) {
	svc := NewService(seededLog(t, 5))

	first, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Rows, 2)
	assert.Equal(t, "id-4", first.Rows[0].EntityID)
	assert.Equal(t, "id-3", first.Rows[1].EntityID)
	assert.Equal(t, PagingInfo{Page: 1, PageSize: 2, HasNext: true, NextPage: 2}, first.Paging)

	last, err := svc.Timeline(context.Background(), TimelineFilters{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, last.Rows, 1)
	assert.Equal(t, "id-0", last.Rows[0].EntityID)
	assert.False(t, last.Paging.HasNext)
	assert.Equal(t, 2, last.Paging.PrevPage)
}

func TestTimelineClampsPageSize(t *testing.T) {
	svc := NewService(seededLog(t, 1))
	result, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, result.Paging.PageSize)
}

func TestTimelineFilters(t *testing.T) {
	svc := NewService(seededLog(t, 6))

	result, err := svc.Timeline(context.Background(), TimelineFilters{Entity: "linked_entity"})
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)
	for _, row := range result.Rows {
		assert.Equal(t, "linked_entity", row.Entity)
	}

	result, err = svc.Timeline(context.Background(), TimelineFilters{From: base.Add(2 * time.Minute), To: base.Add(4 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "id-3", result.Rows[0].EntityID)

	result, err = svc.Timeline(context.Background(), TimelineFilters{EntityID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.NotNil(t, result.Rows)
}

func TestMemoryLogRejectsIncompleteEntries(t *testing.T) {
	log := NewMemoryLog(nil)
	err := log.Record(context.Background(), shared.AuditLog{Action: "account.create"})
	require.Error(t, err)
	rows, err := log.Window(context.Background(), TimelineFilters{}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func newRouter(svc *Service) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := rbac.Middleware{Grants: rbac.DefaultRoleGrants(), Logger: logger}
	r := chi.NewRouter()
	r.Use(mw.ActorMiddleware)
	r.Route("/audit", NewHandler(logger, svc, mw).MountRoutes)
	return r
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(rbac.HeaderActorID, "4")
	req.Header.Set(rbac.HeaderActorRole, rbac.RoleViewer)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerTimeline(t *testing.T) {
	router := newRouter(NewService(seededLog(t, 4)))

	rec := get(router, "/audit?entity=account&page_size=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var body Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "id-2", body.Rows[0].EntityID)
	assert.True(t, body.Paging.HasNext)
}

func TestHandlerRejectsBadFilters(t *testing.T) {
	router := newRouter(NewService(seededLog(t, 1)))
	for _, target := range []string{
		"/audit?from=yesterday",
		"/audit?from=2025-03-02T00:00:00Z&to=2025-03-01T00:00:00Z",
		"/audit?from=2024-01-01T00:00:00Z&to=2025-01-01T00:00:00Z",
		"/audit?page=two",
	} {
		rec := get(router, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandlerRequiresViewer(t *testing.T) {
	router := newRouter(NewService(seededLog(t, 1)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
