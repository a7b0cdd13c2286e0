package accounts

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-coa/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-coa/internal/rbac"
	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

// Handler exposes the chart of accounts over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermCOAView, shared.PermCOAEdit))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermCOAEdit))
		r.Post("/", h.create)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.remove)
		r.Post("/{id}/sub-accounts", h.provision)
	})
}

// ProblemMappings translates account errors into HTTP statuses.
func ProblemMappings() []httpx.ErrorMapping {
	return []httpx.ErrorMapping{
		{Target: ErrNotFound, Status: http.StatusNotFound, Title: "Account Not Found"},
		{Target: ErrParentNotFound, Status: http.StatusNotFound, Title: "Parent Account Not Found"},
		{Target: ErrHasChildren, Status: http.StatusConflict, Title: "Account Has Sub-Accounts"},
		{Target: ErrDuplicateCode, Status: http.StatusConflict, Title: "Duplicate Account Code"},
		{Target: ErrAccountOwned, Status: http.StatusConflict, Title: "Account Owned By Linked Entity"},
		{Target: ErrParentNotProvisionable, Status: http.StatusUnprocessableEntity, Title: "Parent Not Provisionable"},
		{Target: ErrInvalidInput, Status: http.StatusUnprocessableEntity, Title: "Invalid Input"},
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	httpx.RespondError(w, h.logger, err, ProblemMappings()...)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.service.Tree(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]nodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, toNodeResponse(n))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	n, err := h.service.CountChildren(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toNodeResponse(Node{Account: account, ChildCount: n}))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	in, err := req.toInput(actorID(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	account, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toNodeResponse(Node{Account: account}))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	var req updateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		h.fail(w, err)
		return
	}
	account, err := h.service.Update(r.Context(), id, UpdateInput{
		NameAr:   req.NameAr,
		NameEn:   req.NameEn,
		BranchID: req.BranchID,
		ActorID:  actorID(r),
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, actorID(r)); err != nil {
		h.fail(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) provision(w http.ResponseWriter, r *http.Request) {
	parentID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	var req provisionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		h.fail(w, err)
		return
	}
	account, err := h.service.Provision(r.Context(), ProvisionInput{
		ParentID: parentID,
		NameAr:   req.NameAr,
		NameEn:   req.NameEn,
		BranchID: req.BranchID,
		ActorID:  actorID(r),
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toNodeResponse(Node{Account: account}))
}

func (h *Handler) accountID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return uuid.Nil, false
	}
	return id, true
}

func actorID(r *http.Request) int64 {
	actor, _ := shared.ActorFromContext(r.Context())
	return actor.ID
}
