package domain

import (
	"testing"
	"time"

	orderdomain "github.com/dmehra2102/commerce-core/internal/order/domain"
	"github.com/stretchr/testify/assert"
)

func TestReturnRequestedMessage(t *testing.T) {
	m := ReturnRequestedMessage(orderdomain.ReturnRequested{
		OrderID:     "o1",
		ItemID:      "i1",
		ProductID:   "A",
		Quantity:    2,
		Email:       "alice@example.com",
		RequestedAt: time.Date(2026, 5, 16, 10, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, "alice@example.com", m.To)
	assert.Equal(t, "Return requested for order o1", m.Subject)
	assert.Contains(t, m.Body, "2 x A (line i1) on 2026-05-16")
	assert.Equal(t, orderdomain.EventTypeReturnRequested, m.EventType)
}
