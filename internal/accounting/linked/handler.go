package linked

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-coa/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-coa/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-coa/internal/rbac"
	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

// Handler exposes tax settings and sales accounts over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers linked entity routes below a {kind} segment.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/{kind}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAny(shared.PermCOAView, shared.PermLinkedEdit))
			r.Get("/", h.list)
			r.Get("/{id}", h.get)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAny(shared.PermLinkedEdit))
			r.Post("/", h.create)
			r.Patch("/{id}", h.update)
			r.Delete("/{id}", h.remove)
		})
	})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	mappings := append([]httpx.ErrorMapping{
		{Target: ErrNotFound, Status: http.StatusNotFound, Title: "Linked Entity Not Found"},
		{Target: ErrInvalidInput, Status: http.StatusUnprocessableEntity, Title: "Invalid Input"},
		{Target: ErrPersistence, Status: http.StatusServiceUnavailable, Title: "Linked Entity Not Saved", Detail: "the entity could not be stored, retry later"},
	}, accounts.ProblemMappings()...)
	var perr *PersistenceError
	if errors.As(err, &perr) && h.logger != nil {
		h.logger.Error("linked create", slog.Any("error", err))
	}
	httpx.RespondError(w, h.logger, err, mappings...)
}

type createRequest struct {
	NameAr          string `json:"name_ar" validate:"required,max=200"`
	NameEn          string `json:"name_en" validate:"required,max=200"`
	BranchID        string `json:"branch_id" validate:"max=64"`
	ParentAccountID string `json:"parent_account_id" validate:"required,uuid"`
	FiscalYear      string `json:"fiscal_year" validate:"max=32"`
	Rate            string `json:"rate" validate:"omitempty,numeric"`
}

type updateRequest struct {
	NameAr   *string `json:"name_ar" validate:"omitempty,max=200"`
	NameEn   *string `json:"name_en" validate:"omitempty,max=200"`
	BranchID *string `json:"branch_id" validate:"omitempty,max=64"`
	Rate     *string `json:"rate" validate:"omitempty,numeric"`
}

func parseRate(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: rate is not a number", ErrInvalidInput)
	}
	return d, nil
}

func (h *Handler) kind(w http.ResponseWriter, r *http.Request) (Kind, bool) {
	k, ok := KindFromSlug(chi.URLParam(r, "kind"))
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown linked entity kind")
		return "", false
	}
	return k, true
}

// entity resolves {kind}/{id} and rejects ids that belong to another kind.
func (h *Handler) entity(w http.ResponseWriter, r *http.Request) (Entity, bool) {
	k, ok := h.kind(w, r)
	if !ok {
		return Entity{}, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entity id")
		return Entity{}, false
	}
	e, err := h.service.Get(r.Context(), id)
	if err == nil && e.Kind != k {
		err = ErrNotFound
	}
	if err != nil {
		h.fail(w, err)
		return Entity{}, false
	}
	return e, true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	k, ok := h.kind(w, r)
	if !ok {
		return
	}
	entities, err := h.service.List(r.Context(), k)
	if err != nil {
		h.fail(w, err)
		return
	}
	if entities == nil {
		entities = []Entity{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entities": entities})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entity(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	k, ok := h.kind(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		h.fail(w, err)
		return
	}
	rate, err := parseRate(req.Rate)
	if err != nil {
		h.fail(w, err)
		return
	}
	e, err := h.service.Create(r.Context(), CreateInput{
		Kind:            k,
		NameAr:          req.NameAr,
		NameEn:          req.NameEn,
		BranchID:        req.BranchID,
		ParentAccountID: uuid.MustParse(req.ParentAccountID),
		FiscalYear:      req.FiscalYear,
		Rate:            rate,
		ActorID:         actorID(r),
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entity(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		h.fail(w, err)
		return
	}
	in := UpdateInput{NameAr: req.NameAr, NameEn: req.NameEn, BranchID: req.BranchID, ActorID: actorID(r)}
	if req.Rate != nil {
		rate, err := parseRate(*req.Rate)
		if err != nil {
			h.fail(w, err)
			return
		}
		in.Rate = &rate
	}
	updated, err := h.service.Update(r.Context(), e.ID, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entity(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), e.ID, actorID(r)); err != nil {
		h.fail(w, err)
		return
	}
	httpx.NoContent(w)
}

func actorID(r *http.Request) int64 {
	actor, _ := shared.ActorFromContext(r.Context())
	return actor.ID
}
