package memory

import (
	"context"
	"time"

	"github.com/dmehra2102/commerce-core/internal/cart/domain"
)

type Carts struct {
	s *Store
}

func (r *Carts) Get(ctx context.Context, customerID string) (domain.Cart, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	if c, ok := r.s.carts[customerID]; ok {
		return cloneCart(c), nil
	}
	return domain.New(customerID), nil
}

// GetForUpdate creates the cart if needed. Outside a transaction it behaves
// like Get followed by an insert.
func (r *Carts) GetForUpdate(ctx context.Context, customerID string) (domain.Cart, error) {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	c, ok := r.s.carts[customerID]
	if !ok {
		c = domain.New(customerID)
		r.s.carts[customerID] = c
	}
	return cloneCart(c), nil
}

func (r *Carts) Save(ctx context.Context, c domain.Cart) error {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	r.s.carts[c.CustomerID] = cloneCart(c)
	return nil
}

func (r *Carts) MergeApplied(ctx context.Context, customerID, mergeToken string) (bool, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	_, ok := r.s.merges[customerID][mergeToken]
	return ok, nil
}

func (r *Carts) RecordMerge(ctx context.Context, customerID, mergeToken string, at time.Time) error {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	tokens, ok := r.s.merges[customerID]
	if !ok {
		tokens = make(map[string]time.Time)
		r.s.merges[customerID] = tokens
	}
	tokens[mergeToken] = at
	return nil
}
