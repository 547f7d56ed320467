// Package domain renders customer notifications from order events.
package domain

import (
	"fmt"
	"strings"

	orderdomain "github.com/dmehra2102/commerce-core/internal/order/domain"
)

type Message struct {
	To        string
	Subject   string
	Body      string
	EventType string
	OrderID   string
}

func OrderConfirmedMessage(ev orderdomain.OrderConfirmed) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", ev.OrderID)
	for _, l := range ev.Items {
		fmt.Fprintf(&b, "%d x %s @ %s (-%s%%) = %s\n", l.Quantity, l.ProductID, l.UnitPrice, l.DiscountPercent, l.LineTotal)
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", ev.Total)
	a := ev.ShippingAddress
	fmt.Fprintf(&b, "Ships to: %s, %s, %s %s, %s\n", a.Name, a.Line1, a.PostalCode, a.City, a.Country)
	return Message{
		To:        ev.Email,
		Subject:   fmt.Sprintf("Order %s confirmed", ev.OrderID),
		Body:      b.String(),
		EventType: orderdomain.EventTypeOrderConfirmed,
		OrderID:   ev.OrderID,
	}
}

func ReturnRequestedMessage(ev orderdomain.ReturnRequested) Message {
	return Message{
		To:      ev.Email,
		Subject: fmt.Sprintf("Return requested for order %s", ev.OrderID),
		Body: fmt.Sprintf("We received your return request for %d x %s (line %s) on %s.\nWe will get back to you once it is reviewed.\n",
			ev.Quantity, ev.ProductID, ev.ItemID, ev.RequestedAt.Format("2006-01-02")),
		EventType: orderdomain.EventTypeReturnRequested,
		OrderID:   ev.OrderID,
	}
}
