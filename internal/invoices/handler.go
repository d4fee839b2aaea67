package invoices

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stampdesk/stampdesk/internal/platform/httpx"
	"github.com/stampdesk/stampdesk/internal/shared"
)

// Handler wires HTTP endpoints for invoices.
type Handler struct {
	logger  *slog.Logger
	service *Service
	pdf     *PDFClient
}

// NewHandler constructs the invoices handler. A nil pdf client disables the
// PDF download endpoint.
func NewHandler(logger *slog.Logger, service *Service, pdf *PDFClient) *Handler {
	return &Handler{logger: logger, service: service, pdf: pdf}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.list)
	r.Get("/invoices/{id}", h.show)
	r.Post("/orders/{id}/invoice", h.generate)
	r.Get("/orders/{id}/invoice", h.showByOrder)
	r.Post("/invoices/{id}/print", h.print)
	r.Get("/invoices/{id}/pdf", h.pdfDownload)
}

type listResponse struct {
	Data       []Invoice         `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

type invoiceResponse struct {
	Invoice
	Display RenderAmounts `json:"display"`
}

func respondInvoice(w http.ResponseWriter, status int, inv Invoice) {
	httpx.JSON(w, status, invoiceResponse{Invoice: inv, Display: Render(inv)})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Search:  q.Get("search"),
		Page:    queryInt(q.Get("page"), 1),
		PerPage: queryInt(q.Get("per_page"), 20),
	}
	if v := q.Get("is_printed"); v != "" {
		printed := v == "true"
		filter.IsPrinted = &printed
	}

	out, pagination, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []Invoice{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Data: out, Pagination: pagination})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	respondInvoice(w, http.StatusOK, inv)
}

func (h *Handler) showByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.GetByOrder(r.Context(), orderID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	respondInvoice(w, http.StatusOK, inv)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Generate(r.Context(), orderID)
	if err != nil {
		h.logger.Error("generate invoice", slog.Int64("order_id", orderID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("invoice generated",
		slog.String("invoice_number", inv.InvoiceNumber),
		slog.String("order_number", inv.OrderNumber))
	respondInvoice(w, http.StatusCreated, inv)
}

func (h *Handler) print(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	inv, err := h.service.MarkPrinted(r.Context(), id, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	respondInvoice(w, http.StatusOK, inv)
}

func (h *Handler) pdfDownload(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	html, err := RenderInvoiceHTML(inv)
	if err != nil {
		h.logger.Error("render invoice layout", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render invoice pdf", slog.Int64("id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s.pdf", inv.InvoiceNumber))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
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
