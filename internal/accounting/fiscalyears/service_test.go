package fiscalyears

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-coa/internal/rbac"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestListActiveReturnsOpenYearsMostRecentFirst(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{Code: "2023", StartDate: date(2023, 1, 1), EndDate: date(2023, 12, 31), Status: StatusClosed})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Code: "2024", StartDate: date(2024, 1, 1), EndDate: date(2024, 12, 31)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Code: "2025", StartDate: date(2025, 1, 1), EndDate: date(2025, 12, 31)})
	require.NoError(t, err)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "2025", active[0].Code)
	assert.Equal(t, "2024", active[1].Code)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCreateValidates(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Code: " ", StartDate: date(2025, 1, 1), EndDate: date(2025, 12, 31)})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, CreateInput{Code: "2025", StartDate: date(2025, 12, 31), EndDate: date(2025, 1, 1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	fy, err := svc.Create(ctx, CreateInput{Code: "2025", StartDate: date(2025, 1, 1), EndDate: date(2025, 12, 31)})
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, fy.Status)
	_, err = svc.Create(ctx, CreateInput{Code: "2025", StartDate: date(2025, 1, 1), EndDate: date(2025, 12, 31)})
	assert.ErrorIs(t, err, ErrDuplicateCode)

	_, err = svc.Get(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandlerCreateAndReadActive(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	m := rbac.Middleware{Grants: rbac.DefaultRoleGrants()}
	r := chi.NewRouter()
	r.Use(m.ActorMiddleware)
	r.Route("/fiscal-years", NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, m).MountRoutes)

	req := httptest.NewRequest(http.MethodPost, "/fiscal-years", strings.NewReader(`{"code":"2025","start_date":"2025-01-01","end_date":"2025-12-31"}`))
	req.Header.Set(rbac.HeaderActorID, "1")
	req.Header.Set(rbac.HeaderActorRole, rbac.RoleAdmin)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/fiscal-years/active", nil)
	req.Header.Set(rbac.HeaderActorID, "2")
	req.Header.Set(rbac.HeaderActorRole, rbac.RoleViewer)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":"2025"`)
}
