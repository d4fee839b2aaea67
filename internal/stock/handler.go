package stock

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

// Handler wires HTTP endpoints for the stock ledger. Exports and returns are
// not exposed here: only the order lifecycle drives them.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	guard    auth.Guard
}

// NewHandler constructs the stock handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, guard auth.Guard) *Handler {
	return &Handler{logger: logger, service: service, validate: validate, guard: guard}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/stock/imports", h.importStock)
	r.Post("/stock/adjustments", h.adjust)
	r.Get("/stock/movements", h.report)
	r.Get("/stock/products/{id}/history", h.history)
	r.Get("/stock/summary", h.summary)
}

type importRequest struct {
	ProductCode string  `json:"product_code" validate:"required"`
	Quantity    int64   `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	Reason      string  `json:"reason" validate:"max=500"`
}

type adjustRequest struct {
	ProductCode string `json:"product_code" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"required"`
	Reason      string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) importStock(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	var req importRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	movement, err := h.service.Import(r.Context(), ImportInput{
		ProductCode: req.ProductCode,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		Reason:      req.Reason,
		Actor:       actor,
	})
	if err != nil {
		h.logger.Error("import stock", slog.String("code", req.ProductCode), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("stock imported",
		slog.String("code", movement.ProductCode),
		slog.Int64("quantity", movement.Quantity),
		slog.Int64("stock_after", movement.StockAfter))
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	movement, err := h.service.Adjust(r.Context(), AdjustInput{
		ProductCode: req.ProductCode,
		Quantity:    req.Quantity,
		Reason:      req.Reason,
		Actor:       actor,
	})
	if err != nil {
		h.logger.Error("adjust stock", slog.String("code", req.ProductCode), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}

type reportResponse struct {
	Data       []Movement        `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ReportFilter{
		Type: MovementType(q.Get("type")),
		Text: q.Get("search"),
	}
	if v := q.Get("product_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.RespondError(w, shared.ErrValidation)
			return
		}
		filter.ProductID = id
	}
	if v := q.Get("from"); v != "" {
		start, _, err := shared.ParseVietnamDate(v)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		filter.From = start
	}
	if v := q.Get("to"); v != "" {
		_, end, err := shared.ParseVietnamDate(v)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		filter.To = end
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if perPage, err := strconv.Atoi(q.Get("per_page")); err == nil && perPage > 0 {
		filter.PerPage = perPage
	}

	movements, pagination, err := h.service.Report(r.Context(), filter)
	if err != nil {
		h.logger.Error("stock report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if movements == nil {
		movements = []Movement{}
	}
	httpx.JSON(w, http.StatusOK, reportResponse{Data: movements, Pagination: pagination})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	movements, err := h.service.History(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if movements == nil {
		movements = []Movement{}
	}
	httpx.JSON(w, http.StatusOK, movements)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("stock summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
