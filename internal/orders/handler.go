package orders

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

// Handler wires HTTP endpoints for order lifecycle.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	guard    auth.Guard
}

// NewHandler constructs the orders handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, guard auth.Guard) *Handler {
	return &Handler{logger: logger, service: service, validate: validate, guard: guard}
}

// MountRoutes registers order routes. Hard delete is admin-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.show)
	r.Post("/orders", h.create)
	r.Put("/orders/{id}", h.update)
	r.Post("/orders/{id}/cancel", h.cancel)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAdmin)
		r.Delete("/orders/{id}", h.remove)
	})
}

type listResponse struct {
	Data       []Order           `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Status:        Status(q.Get("status")),
		PaymentStatus: PaymentStatus(q.Get("payment_status")),
		Search:        q.Get("search"),
		Page:          queryInt(q.Get("page"), 1),
		PerPage:       queryInt(q.Get("per_page"), 20),
	}
	if v := q.Get("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, shared.ErrValidation)
			return
		}
		filter.CustomerID = id
	}
	if v := q.Get("from"); v != "" {
		from, _, err := shared.ParseVietnamDate(v)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		filter.From = from
	}
	if v := q.Get("to"); v != "" {
		_, to, err := shared.ParseVietnamDate(v)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		filter.To = to
	}

	orders, pagination, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Data: orders, Pagination: pagination})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	order, err := h.service.Create(r.Context(), req, actor)
	if err != nil {
		h.logger.Error("create order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("order created",
		slog.String("order_number", order.OrderNumber),
		slog.Int64("id", order.ID),
		slog.Float64("total", order.TotalAmount))
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("order updated", slog.Int64("id", id))
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	order, err := h.service.Cancel(r.Context(), id, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("order cancelled", slog.Int64("id", id), slog.String("actor", actor.Name))
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), id, actor); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("order deleted", slog.Int64("id", id), slog.String("actor", actor.Name))
	w.WriteHeader(http.StatusNoContent)
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
