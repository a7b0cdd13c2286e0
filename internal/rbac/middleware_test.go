package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

func serve(m Middleware, guard func(http.Handler) http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	var seen shared.Actor
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = shared.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(seen.Role))
	})
	handler := m.ActorMiddleware(guard(final))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestRequireAnyAcceptsExplicitCapability(t *testing.T) {
	m := Middleware{Grants: DefaultRoleGrants()}
	rr := serve(m, m.RequireAny(shared.PermCOAEdit), map[string]string{
		HeaderActorID:           "7",
		HeaderActorCapabilities: "finance.coa.view, FINANCE.COA.EDIT",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAnyResolvesRoleGrants(t *testing.T) {
	m := Middleware{Grants: DefaultRoleGrants()}
	rr := serve(m, m.RequireAny(shared.PermLinkedEdit), map[string]string{
		HeaderActorID:   "7",
		HeaderActorRole: "Accountant",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Accountant", rr.Body.String())
}

func TestRequireAllRejectsMissingCapability(t *testing.T) {
	m := Middleware{Grants: DefaultRoleGrants()}
	rr := serve(m, m.RequireAll(shared.PermCOAView, shared.PermCOAEdit), map[string]string{
		HeaderActorID:   "7",
		HeaderActorRole: RoleViewer,
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireAnyWithoutActorIsUnauthorized(t *testing.T) {
	m := Middleware{}
	rr := serve(m, m.RequireAny(shared.PermCOAView), nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestActorMiddlewareRejectsMalformedID(t *testing.T) {
	m := Middleware{}
	rr := serve(m, m.RequireAny(), map[string]string{HeaderActorID: "abc"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
