package memory

import (
	"context"
	"sort"
	"time"

	analytics "github.com/dmehra2102/commerce-core/internal/analytics/domain"
	orderdomain "github.com/dmehra2102/commerce-core/internal/order/domain"
)

// RevenueSource serves revenue reports from the order table and the
// current catalog.
type RevenueSource struct {
	s *Store
}

func (r *RevenueSource) OrdersSince(ctx context.Context, since time.Time) ([]analytics.OrderRevenue, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	var out []analytics.OrderRevenue
	for _, id := range r.s.orderSeq {
		o := r.s.orders[id]
		if o.Status() == orderdomain.StatusCancelled || o.CreatedAt.Before(since) {
			continue
		}
		rev := analytics.OrderRevenue{OrderID: o.ID, CreatedAt: o.CreatedAt}
		for _, it := range o.Items {
			current := it.DiscountPercent
			if p, ok := r.s.products[it.ProductID]; ok {
				current = p.DiscountPercent
			}
			rev.Lines = append(rev.Lines, analytics.Line{
				UnitPrice:       it.UnitPrice,
				Quantity:        it.Quantity,
				OrderDiscount:   it.DiscountPercent,
				CurrentDiscount: current,
			})
		}
		out = append(out, rev)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
