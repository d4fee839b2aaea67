package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stampdesk/stampdesk/internal/auth"
	"github.com/stampdesk/stampdesk/internal/catalog"
	"github.com/stampdesk/stampdesk/internal/invoices"
	"github.com/stampdesk/stampdesk/internal/observability"
	"github.com/stampdesk/stampdesk/internal/orders"
	"github.com/stampdesk/stampdesk/internal/partners"
	"github.com/stampdesk/stampdesk/internal/platform/httpx"
	"github.com/stampdesk/stampdesk/internal/reports"
	"github.com/stampdesk/stampdesk/internal/stock"
	"github.com/stampdesk/stampdesk/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Guard           auth.Guard
	Metrics         *observability.Metrics
	AuthHandler     *auth.Handler
	CatalogHandler  *catalog.Handler
	StockHandler    *stock.Handler
	PartnersHandler *partners.Handler
	OrdersHandler   *orders.Handler
	InvoicesHandler *invoices.Handler
	ReportsHandler  *reports.Handler
	UsersHandler    *users.Handler
}

// NewRouter constructs the chi.Router. Login is the only unauthenticated
// API route; user management is admin-only.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	r.Use(params.Metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(params.Guard.Authenticate)

			params.CatalogHandler.MountRoutes(r)
			params.StockHandler.MountRoutes(r)
			params.PartnersHandler.MountRoutes(r)
			params.OrdersHandler.MountRoutes(r)
			params.InvoicesHandler.MountRoutes(r)
			params.ReportsHandler.MountRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(params.Guard.RequireAdmin)
				params.UsersHandler.MountRoutes(r)
			})
		})
	})

	return r
}
