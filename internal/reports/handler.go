package reports

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stampdesk/stampdesk/internal/platform/httpx"
	"github.com/stampdesk/stampdesk/internal/shared"
)

// Handler wires HTTP endpoints for statistics.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/overview", h.overview)
	r.Get("/reports/compare", h.compare)
	r.Get("/reports/top-customers", h.topCustomers)
	r.Get("/reports/top-agents", h.topAgents)
	r.Get("/reports/top-products", h.topProducts)
}

// window parses from/to query dates, defaulting to the current Vietnam
// calendar month.
func window(r *http.Request) (time.Time, time.Time, error) {
	from, to := shared.VietnamMonthBounds(time.Now())
	if v := r.URL.Query().Get("from"); v != "" {
		start, _, err := shared.ParseVietnamDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = start
	}
	if v := r.URL.Query().Get("to"); v != "" {
		_, end, err := shared.ParseVietnamDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = end
	}
	return from, to, nil
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	from, to, err := window(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Overview(r.Context(), from, to)
	if err != nil {
		h.logger.Error("overview report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) compare(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	q := r.URL.Query()
	if q.Get("from") != "" || q.Get("to") != "" {
		var err error
		from, to, err = window(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	out, err := h.service.ComparePeriods(r.Context(), from, to)
	if err != nil {
		h.logger.Error("period comparison", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) topCustomers(w http.ResponseWriter, r *http.Request) {
	h.topN(w, r, h.service.TopCustomers)
}

func (h *Handler) topAgents(w http.ResponseWriter, r *http.Request) {
	h.topN(w, r, h.service.TopAgents)
}

func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	h.topN(w, r, h.service.TopProducts)
}

func (h *Handler) topN(w http.ResponseWriter, r *http.Request,
	rank func(ctx context.Context, from, to time.Time, limit int) ([]TopEntry, error)) {
	from, to, err := window(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	out, err := rank(r.Context(), from, to, limit)
	if err != nil {
		h.logger.Error("top ranking", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []TopEntry{}
	}
	httpx.JSON(w, http.StatusOK, out)
}
