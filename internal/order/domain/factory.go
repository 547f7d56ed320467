package domain

import (
	"time"

	"github.com/dmehra2102/commerce-core/internal/catalog"
	"github.com/dmehra2102/commerce-core/internal/pricing"
	"github.com/dmehra2102/commerce-core/pkg/apperr"
	"github.com/shopspring/decimal"
)

// CartLine is what checkout needs from a cart item.
type CartLine struct {
	ProductID string
	Quantity  int
}

// NewOrder prices lines at the given catalog snapshot and returns a pending
// order. newID is called once for the order and once per line.
func NewOrder(newID func() string, customerID string, lines []CartLine, products map[string]catalog.Product,
	addr Address, paymentRef string, now time.Time) (Order, error) {
	if len(lines) == 0 {
		return Order{}, apperr.New(apperr.KindEmptyCart, "cart is empty")
	}

	o := Order{
		ID:              newID(),
		CustomerID:      customerID,
		ShippingAddress: addr,
		PaymentRef:      paymentRef,
		Total:           decimal.Zero,
		CreatedAt:       now,
		Items:           make([]LineItem, 0, len(lines)),
	}
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return Order{}, apperr.NotFound("product %s not found", l.ProductID)
		}
		total := pricing.LineTotal(p.UnitPrice, p.DiscountPercent, l.Quantity)
		o.Items = append(o.Items, LineItem{
			ID:              newID(),
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			UnitPrice:       p.UnitPrice,
			DiscountPercent: p.DiscountPercent,
			LineTotal:       total,
			Status:          ItemPending,
			UpdatedAt:       now,
		})
		o.Total = o.Total.Add(total)
	}
	return o, nil
}
