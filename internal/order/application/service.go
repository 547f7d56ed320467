package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmehra2102/commerce-core/internal/catalog"
	"github.com/dmehra2102/commerce-core/internal/identity"
	"github.com/dmehra2102/commerce-core/internal/order/domain"
	"github.com/dmehra2102/commerce-core/pkg/apperr"
	"github.com/dmehra2102/commerce-core/pkg/outbox"
	"github.com/dmehra2102/commerce-core/pkg/tracing"
	"github.com/google/uuid"
)

type Service struct {
	log     *slog.Logger
	orders  OrderRepository
	carts   CartStore
	catalog catalog.Reader
	outbox  outbox.Appender
	tx      TxManager
	policy  domain.ReturnPolicy
	now     func() time.Time
	newID   func() string
}

func NewService(log *slog.Logger, orders OrderRepository, carts CartStore, cat catalog.Reader,
	ob outbox.Appender, tx TxManager, policy domain.ReturnPolicy) *Service {
	return &Service{
		log:     log,
		orders:  orders,
		carts:   carts,
		catalog: cat,
		outbox:  ob,
		tx:      tx,
		policy:  policy,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// WithClock replaces the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithIDs(newID func() string) *Service {
	s.newID = newID
	return s
}

type CheckoutRequest struct {
	ShippingAddress domain.Address `json:"shipping_address"`
	PaymentRef      string         `json:"payment_ref"`
}

// Checkout converts the caller's cart into a pending order. The order, its
// line items, the confirmation event and the emptied cart commit together.
func (s *Service) Checkout(ctx context.Context, who identity.Identity, req CheckoutRequest) (domain.Order, error) {
	if err := who.Require(identity.CapShop); err != nil {
		return domain.Order{}, err
	}
	if !req.ShippingAddress.Complete() {
		return domain.Order{}, apperr.InvalidArgument("shipping address needs line1, city and country")
	}
	if req.PaymentRef == "" {
		return domain.Order{}, apperr.InvalidArgument("payment reference is required")
	}

	var created domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.GetForUpdate(ctx, who.CustomerID)
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return apperr.New(apperr.KindEmptyCart, "cart is empty")
		}

		products, err := s.catalog.Lookup(ctx, cart.ProductIDs())
		if err != nil {
			return err
		}
		lines := make([]domain.CartLine, 0, len(cart.Items))
		for _, it := range cart.Items {
			lines = append(lines, domain.CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
		}

		now := s.now().UTC()
		o, err := domain.NewOrder(s.newID, who.CustomerID, lines, products, req.ShippingAddress, req.PaymentRef, now)
		if err != nil {
			return err
		}
		if err := s.orders.Create(ctx, o); err != nil {
			return err
		}

		ev, err := outbox.NewEvent("order", o.ID, domain.EventTypeOrderConfirmed,
			domain.NewOrderConfirmed(o, who.Email), tracing.Traceparent(ctx))
		if err != nil {
			return err
		}
		if err := s.outbox.Append(ctx, ev); err != nil {
			return err
		}

		cart.Clear()
		cart.UpdatedAt = now
		if err := s.carts.Save(ctx, cart); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.log.Info("order created", "order_id", created.ID, "customer_id", created.CustomerID,
		"items", len(created.Items), "total", created.Total.StringFixed(2))
	return created, nil
}

// Get returns an order the caller owns; staff may read any order.
func (s *Service) Get(ctx context.Context, who identity.Identity, orderID string) (domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := authorize(who, o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// ReturnDeadline is the last instant a return may be requested for o, or nil
// while the order has not been received.
func (s *Service) ReturnDeadline(o domain.Order) *time.Time {
	d, ok := s.policy.Deadline(o.ReceivedAt)
	if !ok {
		return nil
	}
	return &d
}

func (s *Service) List(ctx context.Context, who identity.Identity) ([]domain.Order, error) {
	return s.orders.ListByCustomer(ctx, who.CustomerID)
}

// CancelOrder cancels every line item of one of the caller's orders while
// the order is still pending.
func (s *Service) CancelOrder(ctx context.Context, who identity.Identity, orderID string) (domain.Order, error) {
	if err := who.Require(identity.CapShop); err != nil {
		return domain.Order{}, err
	}
	return s.transition(ctx, who, orderID, func(o domain.Order, now time.Time) (domain.Order, []domain.Transition, error) {
		if o.CustomerID != who.CustomerID {
			return o, nil, apperr.NotFound("order %s not found", orderID)
		}
		return domain.CancelAll(o, domain.ActorCustomer, now)
	})
}

func (s *Service) CancelItem(ctx context.Context, who identity.Identity, orderID, itemID string) (domain.Order, error) {
	return s.customerItemEvent(ctx, who, orderID, itemID, domain.EventCancel)
}

func (s *Service) RequestReturn(ctx context.Context, who identity.Identity, orderID, itemID string) (domain.Order, error) {
	return s.customerItemEvent(ctx, who, orderID, itemID, domain.EventRequestReturn)
}

// ApplyItemEvent applies a staff event to one line item.
func (s *Service) ApplyItemEvent(ctx context.Context, who identity.Identity, orderID, itemID string, ev domain.Event) (domain.Order, error) {
	if err := who.Require(identity.CapManageFulfillment); err != nil {
		return domain.Order{}, err
	}
	return s.transition(ctx, who, orderID, func(o domain.Order, now time.Time) (domain.Order, []domain.Transition, error) {
		next, tr, err := domain.Apply(o, itemID, ev, domain.ActorStaff, now, s.policy)
		if err != nil {
			return o, nil, err
		}
		return next, []domain.Transition{tr}, nil
	})
}

// ApplyOrderEvent applies a staff event to every line item that accepts it.
func (s *Service) ApplyOrderEvent(ctx context.Context, who identity.Identity, orderID string, ev domain.Event) (domain.Order, error) {
	if err := who.Require(identity.CapManageFulfillment); err != nil {
		return domain.Order{}, err
	}
	return s.transition(ctx, who, orderID, func(o domain.Order, now time.Time) (domain.Order, []domain.Transition, error) {
		return domain.ApplyAll(o, ev, domain.ActorStaff, now, s.policy)
	})
}

func (s *Service) customerItemEvent(ctx context.Context, who identity.Identity, orderID, itemID string, ev domain.Event) (domain.Order, error) {
	if err := who.Require(identity.CapShop); err != nil {
		return domain.Order{}, err
	}
	return s.transition(ctx, who, orderID, func(o domain.Order, now time.Time) (domain.Order, []domain.Transition, error) {
		if o.CustomerID != who.CustomerID {
			return o, nil, apperr.NotFound("order %s not found", orderID)
		}
		next, tr, err := domain.Apply(o, itemID, ev, domain.ActorCustomer, now, s.policy)
		if err != nil {
			return o, nil, err
		}
		return next, []domain.Transition{tr}, nil
	})
}

type transitionFunc func(o domain.Order, now time.Time) (domain.Order, []domain.Transition, error)

// transition runs fn against the latest persisted order under its row lock
// and stores the result in the same transaction.
func (s *Service) transition(ctx context.Context, who identity.Identity, orderID string, fn transitionFunc) (domain.Order, error) {
	var (
		updated domain.Order
		applied []domain.Transition
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := authorize(who, o); err != nil {
			return err
		}

		next, trs, err := fn(o, s.now().UTC())
		if err != nil {
			return err
		}
		if err := s.orders.SaveTransitions(ctx, next, trs); err != nil {
			return err
		}
		for _, tr := range trs {
			if tr.Event != domain.EventRequestReturn {
				continue
			}
			if err := s.appendReturnRequested(ctx, who, next, tr); err != nil {
				return err
			}
		}
		updated, applied = next, trs
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	for _, tr := range applied {
		s.log.Info("line item transitioned", "order_id", orderID, "item_id", tr.ItemID,
			"from", tr.From, "to", tr.To, "actor", tr.Actor)
	}
	return updated, nil
}

func (s *Service) appendReturnRequested(ctx context.Context, who identity.Identity, o domain.Order, tr domain.Transition) error {
	item, _, _ := o.Item(tr.ItemID)
	ev, err := outbox.NewEvent("order", o.ID, domain.EventTypeReturnRequested, domain.ReturnRequested{
		OrderID:     o.ID,
		ItemID:      item.ID,
		ProductID:   item.ProductID,
		Quantity:    item.Quantity,
		CustomerID:  o.CustomerID,
		Email:       who.Email,
		RequestedAt: tr.At,
	}, tracing.Traceparent(ctx))
	if err != nil {
		return err
	}
	return s.outbox.Append(ctx, ev)
}

// authorize hides other customers' orders behind NotFound.
func authorize(who identity.Identity, o domain.Order) error {
	if o.CustomerID == who.CustomerID || who.Role.Can(identity.CapManageFulfillment) {
		return nil
	}
	return apperr.NotFound("order %s not found", o.ID)
}
