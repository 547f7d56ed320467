package application

import (
	"context"

	cartdomain "github.com/dmehra2102/commerce-core/internal/cart/domain"
	"github.com/dmehra2102/commerce-core/internal/order/domain"
)

type OrderRepository interface {
	Create(ctx context.Context, o domain.Order) error
	Get(ctx context.Context, id string) (domain.Order, error)
	// GetForUpdate loads the order and holds its row lock until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	// SaveTransitions compare-and-sets every line item from tr.From to tr.To
	// and stores the order's derived status and received_at. A line item
	// whose persisted status is no longer tr.From fails with KindConflict.
	SaveTransitions(ctx context.Context, o domain.Order, trs []domain.Transition) error
}

type CartStore interface {
	GetForUpdate(ctx context.Context, customerID string) (cartdomain.Cart, error)
	Save(ctx context.Context, c cartdomain.Cart) error
}

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
