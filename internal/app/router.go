package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexbill/lexbill/internal/clients"
	"github.com/lexbill/lexbill/internal/invoices"
	"github.com/lexbill/lexbill/internal/ledger"
	"github.com/lexbill/lexbill/internal/observability"
	"github.com/lexbill/lexbill/internal/profiles"
	"github.com/lexbill/lexbill/internal/projects"
	"github.com/lexbill/lexbill/internal/reports"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Pool            *pgxpool.Pool
	Metrics         *observability.Metrics
	ClientsHandler  *clients.Handler
	ProjectsHandler *projects.Handler
	LedgerHandler   *ledger.Handler
	InvoicesHandler *invoices.Handler
	ProfilesHandler *profiles.Handler
	ReportsHandler  *reports.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				params.Logger.Error("health check failed", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		params.ClientsHandler.MountRoutes(api)
		params.ProjectsHandler.MountRoutes(api)
		params.LedgerHandler.MountRoutes(api)
		params.InvoicesHandler.MountRoutes(api)
		params.ProfilesHandler.MountRoutes(api)
		params.ReportsHandler.MountRoutes(api)
	})

	return r
}
