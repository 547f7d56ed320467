package http

import (
	"log/slog"
	"net/http"

	"github.com/dmehra2102/commerce-core/internal/analytics/application"
	"github.com/dmehra2102/commerce-core/internal/analytics/domain"
	"github.com/dmehra2102/commerce-core/internal/identity"
	"github.com/dmehra2102/commerce-core/internal/platform/httpx"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("analytics-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/revenue", h.revenue)
	return r
}

// revenue serves GET /revenue?period=weekly|monthly|semester. The period
// defaults to weekly.
func (h *Handler) revenue(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RevenueReport")
	defer span.End()

	who, err := identity.FromContext(ctx)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	raw := r.URL.Query().Get("period")
	if raw == "" {
		raw = string(domain.PeriodWeekly)
	}
	period, err := domain.ParsePeriod(raw)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	span.SetAttributes(attribute.String("report.period", string(period)))

	report, err := h.service.Revenue(ctx, who, period)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}
