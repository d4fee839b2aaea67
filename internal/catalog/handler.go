package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stampdesk/stampdesk/internal/auth"
	"github.com/stampdesk/stampdesk/internal/platform/httpx"
	"github.com/stampdesk/stampdesk/internal/shared"
)

// Handler wires HTTP endpoints for the product catalog.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	guard    auth.Guard
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, guard auth.Guard) *Handler {
	return &Handler{logger: logger, service: service, validate: validate, guard: guard}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/low-stock", h.lowStock)
	r.Get("/products/{id}", h.show)
	r.Post("/products", h.create)
	r.Put("/products/{id}", h.update)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAdmin)
		r.Delete("/products/{id}", h.remove)
	})
}

type listResponse struct {
	Data       []Product         `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Page:     queryInt(q.Get("page"), 1),
		PerPage:  queryInt(q.Get("per_page"), 20),
	}
	if v := q.Get("is_active"); v != "" {
		active := v == "true"
		filter.IsActive = &active
	} else {
		active := true
		filter.IsActive = &active
	}

	products, pagination, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Data: products, Pagination: pagination})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	product, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create product", slog.String("code", req.Code), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("product created", slog.String("code", product.Code), slog.Int64("id", product.ID))
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	product, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("product deactivated", slog.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.LowStock(r.Context())
	if err != nil {
		h.logger.Error("low stock listing", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, products)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrValidation
	}
	return id, nil
}

func queryInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
