package http

import (
	"log/slog"
	"net/http"

	"github.com/dmehra2102/commerce-core/internal/cart/application"
	"github.com/dmehra2102/commerce-core/internal/cart/domain"
	"github.com/dmehra2102/commerce-core/internal/identity"
	"github.com/dmehra2102/commerce-core/internal/platform/httpx"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
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
		tracer:  otel.Tracer("cart-http"),
	}
}

type addItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type setQuantityReq struct {
	Quantity int `json:"quantity"`
}

// Routes serves the caller's own cart; the caller's role must grant shopping.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(identity.RequireCapability(h.log, identity.CapShop))
	r.Get("/", h.get)
	r.Delete("/", h.clear)
	r.Post("/items", h.addItem)
	r.Patch("/items/{productID}", h.setQuantity)
	r.Delete("/items/{productID}", h.removeItem)
	r.Post("/merge", h.merge)
	return r
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetCart")
	defer span.End()

	who, err := identity.FromContext(ctx)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.respond(w, http.StatusOK, func() (any, error) {
		return h.service.Get(ctx, who.CustomerID)
	})
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ClearCart")
	defer span.End()

	who, err := identity.FromContext(ctx)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.respond(w, http.StatusOK, func() (any, error) {
		return h.service.Clear(ctx, who.CustomerID)
	})
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddCartItem")
	defer span.End()

	who, err := identity.FromContext(ctx)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	var req addItemReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.respond(w, http.StatusOK, func() (any, error) {
		return h.service.AddItem(ctx, who.CustomerID, req.ProductID, req.Quantity)
	})
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SetCartQuantity")
	defer span.End()

	who, err := identity.FromContext(ctx)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	var req setQuantityReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.respond(w, http.StatusOK, func() (any, error) {
		return h.service.UpdateQuantity(ctx, who.CustomerID, chi.URLParam(r, "productID"), req.Quantity)
	})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RemoveCartItem")
	defer span.End()

	who, err := identity.FromContext(ctx)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.respond(w, http.StatusOK, func() (any, error) {
		return h.service.RemoveItem(ctx, who.CustomerID, chi.URLParam(r, "productID"))
	})
}

// merge consolidates the guest cart sent by the client right after login.
// The client drops its local copy when discard_anonymous is true.
func (h *Handler) merge(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "MergeCart")
	defer span.End()

	who, err := identity.FromContext(ctx)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	var req domain.AnonymousCart
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.respond(w, http.StatusOK, func() (any, error) {
		return h.service.Consolidate(ctx, who.CustomerID, req)
	})
}

func (h *Handler) respond(w http.ResponseWriter, status int, fn func() (any, error)) {
	v, err := fn()
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, status, v)
}
