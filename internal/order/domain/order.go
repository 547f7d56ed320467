package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the order-level summary. It is always derived from the line
// items, never set on its own.
type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// ItemStatus is the authoritative per-line fulfilment state.
type ItemStatus string

const (
	ItemPending         ItemStatus = "pending"
	ItemShipped         ItemStatus = "shipped"
	ItemDelivered       ItemStatus = "delivered"
	ItemCancelled       ItemStatus = "cancelled"
	ItemReturnRequested ItemStatus = "return_requested"
	ItemReturnApproved  ItemStatus = "return_approved"
	ItemReturned        ItemStatus = "returned"
)

// Terminal reports whether no transition may leave s.
func (s ItemStatus) Terminal() bool {
	return s == ItemCancelled || s == ItemReturned
}

type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

func (a Address) Complete() bool {
	return a.Line1 != "" && a.City != "" && a.Country != ""
}

// LineItem freezes price and discount at checkout time.
type LineItem struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
	Status          ItemStatus      `json:"status"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	ShippingAddress Address         `json:"shipping_address"`
	PaymentRef      string          `json:"payment_ref"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"created_at"`
	ReceivedAt      *time.Time      `json:"received_at,omitempty"`
	Items           []LineItem      `json:"items"`
}

func (o Order) Item(id string) (LineItem, int, bool) {
	for i, it := range o.Items {
		if it.ID == id {
			return it, i, true
		}
	}
	return LineItem{}, -1, false
}

// Status derives the order summary from the line items:
//   - every item cancelled: cancelled
//   - every remaining item pending: pending
//   - any remaining item still pending or shipped: shipped
//   - otherwise (delivered, in a return flow, returned): delivered
func (o Order) Status() Status {
	return DeriveStatus(o.Items)
}

func DeriveStatus(items []LineItem) Status {
	active, pending, inTransit := 0, 0, 0
	for _, it := range items {
		switch it.Status {
		case ItemCancelled:
			continue
		case ItemPending:
			pending++
		case ItemShipped:
			inTransit++
		}
		active++
	}
	switch {
	case active == 0:
		return StatusCancelled
	case pending == active:
		return StatusPending
	case pending > 0 || inTransit > 0:
		return StatusShipped
	default:
		return StatusDelivered
	}
}

// Clone returns a deep copy safe to mutate.
func (o Order) Clone() Order {
	cp := o
	cp.Items = append([]LineItem(nil), o.Items...)
	if o.ReceivedAt != nil {
		t := *o.ReceivedAt
		cp.ReceivedAt = &t
	}
	return cp
}
