package application

import (
	"context"
	"time"

	"github.com/dmehra2102/commerce-core/internal/cart/domain"
)

type CartRepository interface {
	// Get returns the customer's cart, or an empty one if none exists yet.
	Get(ctx context.Context, customerID string) (domain.Cart, error)
	// GetForUpdate creates the cart row if needed and locks it for the
	// surrounding transaction.
	GetForUpdate(ctx context.Context, customerID string) (domain.Cart, error)
	Save(ctx context.Context, c domain.Cart) error
	MergeApplied(ctx context.Context, customerID, mergeToken string) (bool, error)
	RecordMerge(ctx context.Context, customerID, mergeToken string, at time.Time) error
}

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
