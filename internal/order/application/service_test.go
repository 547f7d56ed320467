package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	cartdomain "github.com/dmehra2102/commerce-core/internal/cart/domain"
	"github.com/dmehra2102/commerce-core/internal/catalog"
	"github.com/dmehra2102/commerce-core/internal/identity"
	"github.com/dmehra2102/commerce-core/internal/order/application"
	"github.com/dmehra2102/commerce-core/internal/order/domain"
	"github.com/dmehra2102/commerce-core/internal/platform/memory"
	"github.com/dmehra2102/commerce-core/pkg/apperr"
	"github.com/dmehra2102/commerce-core/pkg/outbox"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = identity.Identity{CustomerID: "alice", Email: "alice@example.com", Role: identity.RoleCustomer}
	bob   = identity.Identity{CustomerID: "bob", Email: "bob@example.com", Role: identity.RoleCustomer}
	staff = identity.Identity{CustomerID: "staff-1", Email: "ops@example.com", Role: identity.RoleStaff}

	address = domain.Address{Name: "Alice", Line1: "1 Main St", City: "Lisbon", Country: "PT"}
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	svc   *application.Service
	store *memory.Store
	clock *clock
}

func newFixture(t *testing.T, ob outbox.Appender) fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutProduct(catalog.Product{ID: "A", Name: "Mug", UnitPrice: decimal.RequireFromString("10.00"), DiscountPercent: decimal.Zero})
	store.PutProduct(catalog.Product{ID: "B", Name: "Tea", UnitPrice: decimal.RequireFromString("5.00"), DiscountPercent: decimal.NewFromInt(50)})
	if ob == nil {
		ob = store.Outbox()
	}

	c := &clock{now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	ids := 0
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := application.NewService(log, store.Orders(), store.Carts(), store.Catalog(), ob, store,
		domain.NewReturnPolicy(domain.DefaultReturnWindow)).
		WithClock(c.Now).
		WithIDs(func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		})
	return fixture{svc: svc, store: store, clock: c}
}

func (f fixture) fillCart(t *testing.T, customerID string, items ...cartdomain.Item) {
	t.Helper()
	c := cartdomain.New(customerID)
	for _, it := range items {
		require.NoError(t, c.Add(it.ProductID, it.Quantity))
	}
	require.NoError(t, f.store.Carts().Save(context.Background(), c))
}

func (f fixture) checkout(t *testing.T, who identity.Identity) domain.Order {
	t.Helper()
	f.fillCart(t, who.CustomerID, cartdomain.Item{ProductID: "A", Quantity: 2}, cartdomain.Item{ProductID: "B", Quantity: 1})
	o, err := f.svc.Checkout(context.Background(), who, application.CheckoutRequest{ShippingAddress: address, PaymentRef: "pay-1"})
	require.NoError(t, err)
	return o
}

func TestCheckout_PricesAndClearsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	o := f.checkout(t, alice)
	assert.True(t, decimal.RequireFromString("22.50").Equal(o.Total), o.Total.String())
	assert.Equal(t, domain.StatusPending, o.Status())
	require.Len(t, o.Items, 2)
	assert.True(t, decimal.RequireFromString("2.50").Equal(o.Items[1].LineTotal))

	cart, err := f.store.Carts().Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	events := f.store.Outbox().Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTypeOrderConfirmed, events[0].Type)
	var payload domain.OrderConfirmed
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, "22.50", payload.Total)
	assert.Equal(t, "alice@example.com", payload.Email)
}

func TestCheckout_PriceIsFrozen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	o := f.checkout(t, alice)

	f.store.PutProduct(catalog.Product{ID: "A", UnitPrice: decimal.RequireFromString("99.00"), DiscountPercent: decimal.Zero})

	got, err := f.svc.Get(ctx, alice, o.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.00").Equal(got.Items[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("22.50").Equal(got.Total))
}

func TestCheckout_EmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.Checkout(ctx, alice, application.CheckoutRequest{ShippingAddress: address, PaymentRef: "pay-1"})
	assert.True(t, apperr.Is(err, apperr.KindEmptyCart))

	orders, err := f.svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.store.Outbox().Events())
}

func TestCheckout_InvalidRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.fillCart(t, "alice", cartdomain.Item{ProductID: "A", Quantity: 1})

	_, err := f.svc.Checkout(ctx, alice, application.CheckoutRequest{PaymentRef: "pay-1"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))

	_, err = f.svc.Checkout(ctx, alice, application.CheckoutRequest{ShippingAddress: address})
	assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
}

type failingAppender struct{}

func (failingAppender) Append(context.Context, outbox.Event) error {
	return errors.New("outbox unavailable")
}

func TestCheckout_FailureLeavesNoPartialState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, failingAppender{})
	f.fillCart(t, "alice", cartdomain.Item{ProductID: "A", Quantity: 2})

	_, err := f.svc.Checkout(ctx, alice, application.CheckoutRequest{ShippingAddress: address, PaymentRef: "pay-1"})
	require.Error(t, err)

	orders, err := f.svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, orders)

	cart, err := f.store.Carts().Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Quantity("A"))
}

func TestGet_HidesOtherCustomersOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	o := f.checkout(t, alice)

	_, err := f.svc.Get(ctx, bob, o.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.Get(ctx, staff, o.ID)
	assert.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, bob, o.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCancelOrder_CancelsEveryItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	o := f.checkout(t, alice)

	got, err := f.svc.CancelOrder(ctx, alice, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status())
	for _, it := range got.Items {
		assert.Equal(t, domain.ItemCancelled, it.Status)
	}

	_, err = f.svc.CancelOrder(ctx, alice, o.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
}

func TestCancelOrder_AfterShipFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	o := f.checkout(t, alice)

	_, err := f.svc.ApplyItemEvent(ctx, staff, o.ID, o.Items[0].ID, domain.EventShip)
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, alice, o.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))

	got, err := f.svc.CancelItem(ctx, alice, o.ID, o.Items[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, got.Status())
}

func TestStaffEvents_RequireCapability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	o := f.checkout(t, alice)

	_, err := f.svc.ApplyOrderEvent(ctx, alice, o.ID, domain.EventShip)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestCustomerActions_RequireShopCapability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	o := f.checkout(t, alice)

	f.fillCart(t, staff.CustomerID, cartdomain.Item{ProductID: "A", Quantity: 1})
	_, err := f.svc.Checkout(ctx, staff, application.CheckoutRequest{ShippingAddress: address, PaymentRef: "pay-2"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.CancelOrder(ctx, staff, o.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = f.svc.CancelItem(ctx, staff, o.ID, o.Items[0].ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	staffOrders, err := f.store.Orders().ListByCustomer(ctx, staff.CustomerID)
	require.NoError(t, err)
	assert.Empty(t, staffOrders)

	got, err := f.svc.Get(ctx, alice, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status())
}

func deliver(t *testing.T, f fixture, o domain.Order) domain.Order {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.ApplyOrderEvent(ctx, staff, o.ID, domain.EventShip)
	require.NoError(t, err)
	got, err := f.svc.ApplyOrderEvent(ctx, staff, o.ID, domain.EventDeliver)
	require.NoError(t, err)
	require.NotNil(t, got.ReceivedAt)
	return got
}

func TestRequestReturn_WithinWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	o := deliver(t, f, f.checkout(t, alice))

	f.clock.Advance(15 * 24 * time.Hour)
	got, err := f.svc.RequestReturn(ctx, alice, o.ID, o.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemReturnRequested, got.Items[0].Status)
	assert.Equal(t, domain.StatusDelivered, got.Status())

	events := f.store.Outbox().Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventTypeReturnRequested, events[1].Type)
}

func TestRequestReturn_AfterWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	o := deliver(t, f, f.checkout(t, alice))

	f.clock.Advance(16 * 24 * time.Hour)
	_, err := f.svc.RequestReturn(ctx, alice, o.ID, o.Items[0].ID)
	assert.True(t, apperr.Is(err, apperr.KindReturnWindowExpired))

	got, err := f.svc.Get(ctx, alice, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemDelivered, got.Items[0].Status)
}

func TestReturnFlow_ToReturned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	o := deliver(t, f, f.checkout(t, alice))
	item := o.Items[0].ID

	_, err := f.svc.RequestReturn(ctx, alice, o.ID, item)
	require.NoError(t, err)
	_, err = f.svc.ApplyItemEvent(ctx, staff, o.ID, item, domain.EventApproveReturn)
	require.NoError(t, err)
	got, err := f.svc.ApplyItemEvent(ctx, staff, o.ID, item, domain.EventConfirmReturn)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemReturned, got.Items[0].Status)

	_, err = f.svc.ApplyItemEvent(ctx, staff, o.ID, item, domain.EventShip)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
}

func TestList_OnlyOwnOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.checkout(t, alice)
	f.checkout(t, bob)

	orders, err := f.svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "alice", orders[0].CustomerID)
}
