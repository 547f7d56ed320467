// Package catalog is the read-only boundary to product pricing.
package catalog

import (
	"context"

	"github.com/dmehra2102/commerce-core/pkg/apperr"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID              string
	Name            string
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Validate checks that the price is non-negative whole cents and the
// discount is a whole percentage between 0 and 100.
func (p Product) Validate() error {
	if p.ID == "" {
		return apperr.InvalidArgument("product id is required")
	}
	if p.UnitPrice.IsNegative() || !p.UnitPrice.Equal(p.UnitPrice.Round(2)) {
		return apperr.InvalidArgument("product %s: price %s is not a non-negative amount in cents", p.ID, p.UnitPrice)
	}
	if p.DiscountPercent.IsNegative() || p.DiscountPercent.GreaterThan(hundred) || !p.DiscountPercent.IsInteger() {
		return apperr.InvalidArgument("product %s: discount %s%% must be a whole number between 0 and 100", p.ID, p.DiscountPercent)
	}
	return nil
}

// Reader resolves current price and discount per product id.
// Lookup reports unknown ids as apperr.KindNotFound; Find leaves them out
// of the result.
type Reader interface {
	Lookup(ctx context.Context, productIDs []string) (map[string]Product, error)
	Find(ctx context.Context, productIDs []string) (map[string]Product, error)
}

// RequireAll fails with NotFound on the first id missing from found.
func RequireAll(found map[string]Product, productIDs []string) error {
	for _, id := range productIDs {
		if _, ok := found[id]; !ok {
			return apperr.NotFound("product %s not found", id)
		}
	}
	return nil
}

// Missing returns the ids absent from found, in input order.
func Missing(found map[string]Product, productIDs []string) []string {
	var out []string
	for _, id := range productIDs {
		if _, ok := found[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
