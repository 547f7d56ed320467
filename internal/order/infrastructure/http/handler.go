package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmehra2102/commerce-core/internal/identity"
	"github.com/dmehra2102/commerce-core/internal/order/application"
	"github.com/dmehra2102/commerce-core/internal/order/domain"
	"github.com/dmehra2102/commerce-core/internal/platform/httpx"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
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
		tracer:  otel.Tracer("order-http"),
	}
}

type orderResponse struct {
	domain.Order
	Status         domain.Status `json:"status"`
	ReturnDeadline *time.Time    `json:"return_deadline,omitempty"`
}

func (h *Handler) toResponse(o domain.Order) orderResponse {
	return orderResponse{Order: o, Status: o.Status(), ReturnDeadline: h.service.ReturnDeadline(o)}
}

// Register mounts the customer and staff order routes on r. r must already
// carry the identity middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/checkout", h.checkout)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Post("/orders/{id}/items/{itemID}/cancel", h.cancelItem)
	r.Post("/orders/{id}/items/{itemID}/return", h.requestReturn)

	r.Route("/admin/orders", func(r chi.Router) {
		r.Use(identity.RequireCapability(h.log, identity.CapManageFulfillment))
		r.Get("/{id}", h.getOrder)
		r.Post("/{id}/events/{event}", h.orderEvent)
		r.Post("/{id}/items/{itemID}/events/{event}", h.itemEvent)
	})
}

func (h *Handler) start(r *http.Request, name string) (context.Context, trace.Span, identity.Identity, error) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := h.tracer.Start(ctx, name)
	who, err := identity.FromContext(ctx)
	if err == nil {
		span.SetAttributes(attribute.String("customer.id", who.CustomerID))
	}
	return ctx, span, who, err
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, span, who, err := h.start(r, "Checkout")
	defer span.End()
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	var req application.CheckoutRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	o, err := h.service.Checkout(ctx, who, req)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	span.SetAttributes(attribute.String("order.id", o.ID))
	httpx.WriteJSON(w, http.StatusCreated, h.toResponse(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span, who, err := h.start(r, "ListOrders")
	defer span.End()
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	orders, err := h.service.List(ctx, who)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, h.toResponse(o))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span, who, err := h.start(r, "GetOrder")
	defer span.End()
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.respond(w, func() (domain.Order, error) {
		return h.service.Get(ctx, who, chi.URLParam(r, "id"))
	})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span, who, err := h.start(r, "CancelOrder")
	defer span.End()
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.respond(w, func() (domain.Order, error) {
		return h.service.CancelOrder(ctx, who, chi.URLParam(r, "id"))
	})
}

func (h *Handler) cancelItem(w http.ResponseWriter, r *http.Request) {
	ctx, span, who, err := h.start(r, "CancelItem")
	defer span.End()
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.respond(w, func() (domain.Order, error) {
		return h.service.CancelItem(ctx, who, chi.URLParam(r, "id"), chi.URLParam(r, "itemID"))
	})
}

func (h *Handler) requestReturn(w http.ResponseWriter, r *http.Request) {
	ctx, span, who, err := h.start(r, "RequestReturn")
	defer span.End()
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.respond(w, func() (domain.Order, error) {
		return h.service.RequestReturn(ctx, who, chi.URLParam(r, "id"), chi.URLParam(r, "itemID"))
	})
}

func (h *Handler) orderEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span, who, err := h.start(r, "ApplyOrderEvent")
	defer span.End()
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.respond(w, func() (domain.Order, error) {
		ev, err := domain.ParseEvent(chi.URLParam(r, "event"))
		if err != nil {
			return domain.Order{}, err
		}
		return h.service.ApplyOrderEvent(ctx, who, chi.URLParam(r, "id"), ev)
	})
}

func (h *Handler) itemEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span, who, err := h.start(r, "ApplyItemEvent")
	defer span.End()
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.respond(w, func() (domain.Order, error) {
		ev, err := domain.ParseEvent(chi.URLParam(r, "event"))
		if err != nil {
			return domain.Order{}, err
		}
		return h.service.ApplyItemEvent(ctx, who, chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), ev)
	})
}

func (h *Handler) respond(w http.ResponseWriter, fn func() (domain.Order, error)) {
	o, err := fn()
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.toResponse(o))
}
