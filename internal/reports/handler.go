package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lexbill/lexbill/internal/fx"
	"github.com/lexbill/lexbill/internal/platform/httpx"
)

// Handler exposes the report aggregator over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the report endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports", h.Report)
	r.Get("/dashboard", h.Dashboard)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := time.Parse(fx.DateLayout, q.Get("date_from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date_from is required as YYYY-MM-DD")
		return
	}
	to, err := time.Parse(fx.DateLayout, q.Get("date_to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date_to is required as YYYY-MM-DD")
		return
	}
	var clientID *int64
	if v := q.Get("client_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid client_id")
			return
		}
		clientID = &id
	}

	report, err := h.service.BuildReport(r.Context(), from, to, clientID)
	if err != nil {
		h.logger.Error("build report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("build dashboard failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard)
}
