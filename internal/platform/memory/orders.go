package memory

import (
	"context"
	"sort"

	"github.com/dmehra2102/commerce-core/internal/order/domain"
	"github.com/dmehra2102/commerce-core/pkg/apperr"
)

type Orders struct {
	s *Store
}

func (r *Orders) Create(ctx context.Context, o domain.Order) error {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	if _, ok := r.s.orders[o.ID]; ok {
		return apperr.Newf(apperr.KindAlreadyExists, "order %s already exists", o.ID)
	}
	r.s.orders[o.ID] = o.Clone()
	r.s.orderSeq = append(r.s.orderSeq, o.ID)
	return nil
}

func (r *Orders) Get(ctx context.Context, id string) (domain.Order, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	o, ok := r.s.orders[id]
	if !ok {
		return domain.Order{}, apperr.NotFound("order %s not found", id)
	}
	return o.Clone(), nil
}

// GetForUpdate is Get; the transaction already holds the store lock.
func (r *Orders) GetForUpdate(ctx context.Context, id string) (domain.Order, error) {
	return r.Get(ctx, id)
}

func (r *Orders) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	var out []domain.Order
	for _, id := range r.s.orderSeq {
		if o := r.s.orders[id]; o.CustomerID == customerID {
			out = append(out, o.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Orders) SaveTransitions(ctx context.Context, o domain.Order, trs []domain.Transition) error {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	stored, ok := r.s.orders[o.ID]
	if !ok {
		return apperr.NotFound("order %s not found", o.ID)
	}
	next := stored.Clone()
	for _, tr := range trs {
		_, idx, ok := next.Item(tr.ItemID)
		if !ok || next.Items[idx].Status != tr.From {
			return apperr.Newf(apperr.KindConflict, "line item %s is no longer %s", tr.ItemID, tr.From)
		}
		next.Items[idx].Status = tr.To
		next.Items[idx].UpdatedAt = tr.At
	}
	if next.ReceivedAt == nil && o.ReceivedAt != nil {
		t := *o.ReceivedAt
		next.ReceivedAt = &t
	}
	r.s.orders[o.ID] = next
	return nil
}
