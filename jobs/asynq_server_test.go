package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-coa/internal/rbac"
	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

type stubEnqueuer struct {
	calls    int
	payloads []COAIntegrityPayload
}

func (s *stubEnqueuer) EnqueueCOAIntegrity(_ context.Context, payload COAIntegrityPayload) (*asynq.TaskInfo, error) {
	s.calls++
	s.payloads = append(s.payloads, payload)
	return &asynq.TaskInfo{ID: "task-" + strconv.Itoa(s.calls), Queue: QueueDefault}, nil
}

func newJobsRouter(h *Handler) http.Handler {
	mw := rbac.Middleware{Grants: rbac.DefaultRoleGrants(), Logger: quietLogger()}
	r := chi.NewRouter()
	r.Use(mw.ActorMiddleware)
	r.Route("/jobs", h.MountRoutes)
	return r
}

func TestJobsHealthReportsQueueDepth(t *testing.T) {
	h := NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 4, Active: 1}}, nil, quietLogger(), rbac.Middleware{Logger: quietLogger()})
	rec := httptest.NewRecorder()
	newJobsRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":4,"active":1,"retry":0}`, rec.Body.String())
}

func TestJobsHealthInspectorFailure(t *testing.T) {
	h := NewHandler(stubInspector{err: errors.New("redis down")}, nil, quietLogger(), rbac.Middleware{Logger: quietLogger()})
	rec := httptest.NewRecorder()
	newJobsRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestJobsEnqueueIntegrityRequiresEditPermission(t *testing.T) {
	enq := &stubEnqueuer{}
	h := NewHandler(nil, enq, quietLogger(), rbac.Middleware{Grants: rbac.DefaultRoleGrants(), Logger: quietLogger()})
	router := newJobsRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/jobs/coa-integrity", nil)
	req.Header.Set(rbac.HeaderActorID, "9")
	req.Header.Set(rbac.HeaderActorCapabilities, shared.PermCOAView)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, enq.calls)

	req = httptest.NewRequest(http.MethodPost, "/jobs/coa-integrity", nil)
	req.Header.Set(rbac.HeaderActorID, "9")
	req.Header.Set(rbac.HeaderActorCapabilities, shared.PermCOAEdit)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"task_id":"task-1","queue":"default"}`, rec.Body.String())
	require.Len(t, enq.payloads, 1)
	assert.Equal(t, "api", enq.payloads[0].Trigger)
}

func TestJobsEnqueueWithoutQueue(t *testing.T) {
	h := NewHandler(nil, nil, quietLogger(), rbac.Middleware{Grants: rbac.DefaultRoleGrants(), Logger: quietLogger()})
	req := httptest.NewRequest(http.MethodPost, "/jobs/coa-integrity", nil)
	req.Header.Set(rbac.HeaderActorID, "1")
	req.Header.Set(rbac.HeaderActorRole, rbac.RoleAdmin)
	rec := httptest.NewRecorder()
	newJobsRouter(h).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
