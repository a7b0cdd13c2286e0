package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-coa/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

// PermissionsHandler exposes the capability catalogue and the caller's grants.
type PermissionsHandler struct {
	logger *slog.Logger
	rbac   Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermCOAView))
		r.Get("/", h.listPermissions)
	})
}

type permissionsResponse struct {
	Available []string `json:"available"`
	Granted   []string `json:"granted"`
	Role      string   `json:"role,omitempty"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	granted := actor.Capabilities
	if granted == nil {
		granted = []string{}
	}
	httpx.JSON(w, http.StatusOK, permissionsResponse{
		Available: shared.COAScopes(),
		Granted:   granted,
		Role:      actor.Role,
	})
}
