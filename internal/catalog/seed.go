package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

type seedEntry struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// LoadSeed reads a JSON array of products from path, for local runs and
// fixtures. Prices are rounded to cents; fractional discounts are rejected.
func LoadSeed(path string) ([]Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}
	var entries []seedEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}

	out := make([]Product, 0, len(entries))
	for _, e := range entries {
		p := Product{
			ID:              e.ID,
			Name:            e.Name,
			UnitPrice:       e.Price.Round(2),
			DiscountPercent: e.DiscountPercent,
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("catalog seed: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}
