package domain

import (
	"testing"
	"time"

	"github.com/dmehra2102/commerce-core/internal/catalog"
	"github.com/dmehra2102/commerce-core/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name  string
		items []ItemStatus
		want  Status
	}{
		{"all pending", []ItemStatus{ItemPending, ItemPending}, StatusPending},
		{"pending with cancelled", []ItemStatus{ItemPending, ItemCancelled}, StatusPending},
		{"all cancelled", []ItemStatus{ItemCancelled, ItemCancelled}, StatusCancelled},
		{"partially shipped", []ItemStatus{ItemPending, ItemShipped}, StatusShipped},
		{"all shipped", []ItemStatus{ItemShipped, ItemShipped}, StatusShipped},
		{"shipped and delivered", []ItemStatus{ItemShipped, ItemDelivered}, StatusShipped},
		{"delivered and cancelled", []ItemStatus{ItemDelivered, ItemCancelled}, StatusDelivered},
		{"return flow counts as delivered", []ItemStatus{ItemDelivered, ItemReturnRequested, ItemReturned}, StatusDelivered},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, testOrder(tc.items...).Status())
		})
	}
}

func TestClone_isDeep(t *testing.T) {
	o := testOrder(ItemPending)
	received := t0
	o.ReceivedAt = &received

	cp := o.Clone()
	cp.Items[0].Status = ItemShipped
	*cp.ReceivedAt = t0.Add(time.Hour)

	assert.Equal(t, ItemPending, o.Items[0].Status)
	assert.Equal(t, t0, *o.ReceivedAt)
}

func TestNewOrder_pricesAtCatalogSnapshot(t *testing.T) {
	products := map[string]catalog.Product{
		"A": {ID: "A", UnitPrice: decimal.RequireFromString("10.00"), DiscountPercent: decimal.Zero},
		"B": {ID: "B", UnitPrice: decimal.RequireFromString("5.00"), DiscountPercent: decimal.NewFromInt(50)},
	}
	n := 0
	newID := func() string { n++; return string(rune('0' + n)) }

	o, err := NewOrder(newID, "c-1", []CartLine{{"A", 2}, {"B", 1}}, products,
		Address{Line1: "x", City: "y", Country: "z"}, "pay_1", t0)
	require.NoError(t, err)

	assert.Equal(t, "22.50", o.Total.StringFixed(2))
	assert.Equal(t, StatusPending, o.Status())
	require.Len(t, o.Items, 2)
	assert.Equal(t, "2.50", o.Items[1].LineTotal.StringFixed(2))
	assert.True(t, decimal.NewFromInt(5).Equal(o.Items[1].UnitPrice))
	assert.Equal(t, "1", o.ID)
}

func TestNewOrder_emptyCart(t *testing.T) {
	_, err := NewOrder(func() string { return "x" }, "c-1", nil, nil, Address{}, "", t0)
	assert.True(t, apperr.Is(err, apperr.KindEmptyCart))
}

func TestReturnPolicy_deadline(t *testing.T) {
	p := NewReturnPolicy(0)
	assert.Equal(t, DefaultReturnWindow, p.Window)

	_, ok := p.Deadline(nil)
	assert.False(t, ok)

	received := t0
	d, ok := p.Deadline(&received)
	require.True(t, ok)
	assert.Equal(t, t0.AddDate(0, 0, 15), d)
	assert.False(t, p.CanReturn(nil, t0))
}
