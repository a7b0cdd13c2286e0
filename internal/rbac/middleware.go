package rbac

import (
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/odyssey-erp/odyssey-coa/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

// Gateway headers carrying the authenticated caller.
const (
	HeaderActorID           = "X-Actor-ID"
	HeaderActorRole         = "X-Actor-Role"
	HeaderActorCapabilities = "X-Actor-Capabilities"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Grants RoleGrants
	Logger *slog.Logger
}

// ActorMiddleware resolves the caller from gateway headers and stores it in the
// request context. Requests without a valid actor id pass through anonymous.
func (m Middleware) ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(HeaderActorID))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			if m.Logger != nil {
				m.Logger.Warn("rbac parse actor id", slog.String("value", raw))
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid actor id")
			return
		}
		actor := shared.Actor{
			ID:   id,
			Role: strings.TrimSpace(r.Header.Get(HeaderActorRole)),
		}
		actor.Capabilities = splitCapabilities(r.Header.Get(HeaderActorCapabilities))
		if len(actor.Capabilities) == 0 && m.Grants != nil {
			actor.Capabilities = m.Grants.Resolve(actor.Role)
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}

// RequireAny ensures the current actor has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require("rbac require any", normalizePermissions(perms), hasAnyPermission)
}

// RequireAll ensures the current actor has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require("rbac require all", normalizePermissions(perms), hasAllPermissions)
}

func (m Middleware) require(op string, required []string, check func(granted, required []string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			actor, ok := shared.ActorFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor required")
				return
			}
			if check(actor.Capabilities, required) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Info(op+" denied", slog.Int64("actor_id", actor.ID), slog.String("path", r.URL.Path))
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing capability")
		})
	}
}

func splitCapabilities(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return normalizePermissions(strings.Split(raw, ","))
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, seen := unique[p]; seen {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}

func hasAnyPermission(granted []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

func hasAllPermissions(granted []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
