package memory

import (
	"context"

	"github.com/dmehra2102/commerce-core/internal/catalog"
)

type Catalog struct {
	s *Store
}

func (r *Catalog) Lookup(ctx context.Context, productIDs []string) (map[string]catalog.Product, error) {
	out, err := r.Find(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	if err := catalog.RequireAll(out, productIDs); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Catalog) Find(ctx context.Context, productIDs []string) (map[string]catalog.Product, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	out := make(map[string]catalog.Product, len(productIDs))
	for _, id := range productIDs {
		if p, ok := r.s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// DeleteProduct removes a catalog entry, as when a product is delisted.
func (s *Store) DeleteProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}
