package fiscalyears

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-coa/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-coa/internal/rbac"
	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

const dateLayout = "2006-01-02"

// Handler exposes the registry over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers fiscal year routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermCOAView, shared.PermFiscalYearsEdit))
		r.Get("/", h.list)
		r.Get("/active", h.listActive)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermFiscalYearsEdit))
		r.Post("/", h.create)
	})
}

var mappings = []httpx.ErrorMapping{
	{Target: ErrNotFound, Status: http.StatusNotFound, Title: "Fiscal Year Not Found"},
	{Target: ErrDuplicateCode, Status: http.StatusConflict, Title: "Duplicate Fiscal Year"},
	{Target: ErrInvalidInput, Status: http.StatusUnprocessableEntity, Title: "Invalid Input"},
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err, mappings...)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"fiscal_years": nonNil(years)})
}

func (h *Handler) listActive(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.ListActive(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err, mappings...)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"fiscal_years": nonNil(years)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid fiscal year id")
		return
	}
	fy, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err, mappings...)
		return
	}
	httpx.JSON(w, http.StatusOK, fy)
}

type createRequest struct {
	Code      string `json:"code" validate:"required,max=32"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Status    string `json:"status" validate:"omitempty,oneof=OPEN CLOSED"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err, mappings...)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, h.logger, err, mappings...)
		return
	}
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	actor, _ := shared.ActorFromContext(r.Context())
	fy, err := h.service.Create(r.Context(), CreateInput{
		Code:      req.Code,
		StartDate: start,
		EndDate:   end,
		Status:    Status(req.Status),
		ActorID:   actor.ID,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, err, mappings...)
		return
	}
	httpx.JSON(w, http.StatusCreated, fy)
}

func nonNil(years []FiscalYear) []FiscalYear {
	if years == nil {
		return []FiscalYear{}
	}
	return years
}
