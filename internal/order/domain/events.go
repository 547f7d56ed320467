package domain

import "time"

const (
	EventTypeOrderConfirmed  = "OrderConfirmed"
	EventTypeReturnRequested = "ReturnRequested"
)

type ConfirmedLine struct {
	ProductID       string `json:"product_id"`
	Quantity        int    `json:"quantity"`
	UnitPrice       string `json:"unit_price"`
	DiscountPercent string `json:"discount_percent"`
	LineTotal       string `json:"line_total"`
}

type OrderConfirmed struct {
	OrderID         string          `json:"order_id"`
	CustomerID      string          `json:"customer_id"`
	Email           string          `json:"email"`
	Total           string          `json:"total"`
	ShippingAddress Address         `json:"shipping_address"`
	Items           []ConfirmedLine `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
}

type ReturnRequested struct {
	OrderID     string    `json:"order_id"`
	ItemID      string    `json:"item_id"`
	ProductID   string    `json:"product_id"`
	Quantity    int       `json:"quantity"`
	CustomerID  string    `json:"customer_id"`
	Email       string    `json:"email"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewOrderConfirmed(o Order, email string) OrderConfirmed {
	ev := OrderConfirmed{
		OrderID:         o.ID,
		CustomerID:      o.CustomerID,
		Email:           email,
		Total:           o.Total.StringFixed(2),
		ShippingAddress: o.ShippingAddress,
		Items:           make([]ConfirmedLine, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, ConfirmedLine{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice.StringFixed(2),
			DiscountPercent: it.DiscountPercent.String(),
			LineTotal:       it.LineTotal.StringFixed(2),
		})
	}
	return ev
}
