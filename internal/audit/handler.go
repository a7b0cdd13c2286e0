package audit

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-coa/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-coa/internal/rbac"
	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

const maxDateRange = 90 * 24 * time.Hour

// Handler menangani permintaan audit timeline.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler membuat handler audit baru.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers the timeline route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(shared.PermCOAView)).Get("/", h.timeline)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func parseFilters(r *http.Request) (TimelineFilters, error) {
	q := r.URL.Query()
	f := TimelineFilters{
		Entity:   strings.TrimSpace(q.Get("entity")),
		EntityID: strings.TrimSpace(q.Get("entity_id")),
		Action:   strings.TrimSpace(q.Get("action")),
	}
	var err error
	if f.From, err = parseTime(q.Get("from")); err != nil {
		return f, invalid("from must be RFC3339")
	}
	if f.To, err = parseTime(q.Get("to")); err != nil {
		return f, invalid("to must be RFC3339")
	}
	if !f.From.IsZero() && !f.To.IsZero() {
		if !f.From.Before(f.To) {
			return f, invalid("from must be before to")
		}
		if f.To.Sub(f.From) > maxDateRange {
			return f, invalid("range must not exceed 90 days")
		}
	}
	if f.ActorID, err = parseInt(q.Get("actor_id")); err != nil {
		return f, invalid("actor_id must be a number")
	}
	page, err := parseInt(q.Get("page"))
	if err != nil {
		return f, invalid("page must be a number")
	}
	size, err := parseInt(q.Get("page_size"))
	if err != nil {
		return f, invalid("page_size must be a number")
	}
	f.Page, f.PageSize = int(page), int(size)
	return f, nil
}

func invalid(detail string) error {
	return errors.New(detail)
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func parseInt(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
