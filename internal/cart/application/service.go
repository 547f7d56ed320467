package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmehra2102/commerce-core/internal/cart/domain"
	"github.com/dmehra2102/commerce-core/internal/catalog"
	"github.com/dmehra2102/commerce-core/internal/pricing"
	"github.com/dmehra2102/commerce-core/pkg/apperr"
	"github.com/shopspring/decimal"
)

type Service struct {
	log     *slog.Logger
	carts   CartRepository
	catalog catalog.Reader
	tx      TxManager
	now     func() time.Time
}

func NewService(log *slog.Logger, carts CartRepository, cat catalog.Reader, tx TxManager) *Service {
	return &Service{log: log, carts: carts, catalog: cat, tx: tx, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type SnapshotLine struct {
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DisplayPrice    decimal.Decimal `json:"display_price"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// Snapshot prices the cart against the current catalog. Lines whose product
// has been delisted are listed in Unavailable and left out of Total.
type Snapshot struct {
	CustomerID  string          `json:"customer_id"`
	Items       []SnapshotLine  `json:"items"`
	Unavailable []domain.Item   `json:"unavailable,omitempty"`
	Total       decimal.Decimal `json:"total"`
}

type MergeResult struct {
	Snapshot
	Applied          bool `json:"applied"`
	DiscardAnonymous bool `json:"discard_anonymous"`
	// Skipped names guest lines dropped because the product is not in the catalog.
	Skipped []string `json:"skipped,omitempty"`
}

func (s *Service) Get(ctx context.Context, customerID string) (Snapshot, error) {
	c, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, c)
}

func (s *Service) AddItem(ctx context.Context, customerID, productID string, quantity int) (Snapshot, error) {
	if _, err := s.catalog.Lookup(ctx, []string{productID}); err != nil {
		return Snapshot{}, err
	}
	return s.mutate(ctx, customerID, func(c *domain.Cart) error {
		return c.Add(productID, quantity)
	})
}

func (s *Service) UpdateQuantity(ctx context.Context, customerID, productID string, quantity int) (Snapshot, error) {
	return s.mutate(ctx, customerID, func(c *domain.Cart) error {
		return c.SetQuantity(productID, quantity)
	})
}

func (s *Service) RemoveItem(ctx context.Context, customerID, productID string) (Snapshot, error) {
	return s.mutate(ctx, customerID, func(c *domain.Cart) error {
		return c.Remove(productID)
	})
}

func (s *Service) Clear(ctx context.Context, customerID string) (Snapshot, error) {
	return s.mutate(ctx, customerID, func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
}

// Consolidate merges a guest cart into the customer's cart. The merge and
// the record of its token commit together, so replaying the same token
// leaves quantities unchanged and reports Applied=false. Guest lines for
// products missing from the catalog are dropped and reported in Skipped.
func (s *Service) Consolidate(ctx context.Context, customerID string, anon domain.AnonymousCart) (MergeResult, error) {
	if anon.MergeToken == "" {
		return MergeResult{}, apperr.InvalidArgument("merge token is required")
	}
	for _, it := range anon.Items {
		if it.Quantity <= 0 {
			return MergeResult{}, apperr.InvalidArgument("quantity for %s must be positive", it.ProductID)
		}
	}

	var (
		merged  domain.Cart
		applied bool
		skipped []string
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.carts.GetForUpdate(ctx, customerID)
		if err != nil {
			return err
		}
		done, err := s.carts.MergeApplied(ctx, customerID, anon.MergeToken)
		if err != nil {
			return err
		}
		if done {
			merged = c
			return nil
		}

		lines := domain.Normalize(anon.Items)
		ids := make([]string, 0, len(lines))
		for _, it := range lines {
			ids = append(ids, it.ProductID)
		}
		known, err := s.catalog.Find(ctx, ids)
		if err != nil {
			return err
		}
		skipped = catalog.Missing(known, ids)
		kept := lines[:0]
		for _, it := range lines {
			if _, ok := known[it.ProductID]; ok {
				kept = append(kept, it)
			}
		}
		if err := c.Merge(domain.AnonymousCart{MergeToken: anon.MergeToken, Items: kept}); err != nil {
			return err
		}
		now := s.now().UTC()
		c.UpdatedAt = now
		if err := s.carts.Save(ctx, c); err != nil {
			return err
		}
		if err := s.carts.RecordMerge(ctx, customerID, anon.MergeToken, now); err != nil {
			return err
		}
		merged, applied = c, true
		return nil
	})
	if err != nil {
		return MergeResult{}, err
	}

	if len(skipped) > 0 {
		s.log.Warn("anonymous cart lines skipped", "customer_id", customerID, "products", skipped)
	}
	if applied {
		s.log.Info("anonymous cart merged", "customer_id", customerID, "lines", len(anon.Items))
	} else {
		s.log.Info("anonymous cart already merged", "customer_id", customerID)
	}

	snap, err := s.snapshot(ctx, merged)
	if err != nil {
		return MergeResult{}, err
	}
	return MergeResult{Snapshot: snap, Applied: applied, DiscardAnonymous: true, Skipped: skipped}, nil
}

func (s *Service) mutate(ctx context.Context, customerID string, fn func(c *domain.Cart) error) (Snapshot, error) {
	var out domain.Cart
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.carts.GetForUpdate(ctx, customerID)
		if err != nil {
			return err
		}
		if err := fn(&c); err != nil {
			return err
		}
		c.UpdatedAt = s.now().UTC()
		if err := s.carts.Save(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, out)
}

func (s *Service) snapshot(ctx context.Context, c domain.Cart) (Snapshot, error) {
	snap := Snapshot{CustomerID: c.CustomerID, Items: make([]SnapshotLine, 0, len(c.Items)), Total: decimal.Zero}
	if c.IsEmpty() {
		return snap, nil
	}
	products, err := s.catalog.Find(ctx, c.ProductIDs())
	if err != nil {
		return Snapshot{}, err
	}
	for _, it := range c.Items {
		p, ok := products[it.ProductID]
		if !ok {
			snap.Unavailable = append(snap.Unavailable, it)
			continue
		}
		line := SnapshotLine{
			ProductID:       it.ProductID,
			Name:            p.Name,
			Quantity:        it.Quantity,
			UnitPrice:       p.UnitPrice,
			DiscountPercent: p.DiscountPercent,
			DisplayPrice:    pricing.LineTotal(p.UnitPrice, p.DiscountPercent, 1),
			LineTotal:       pricing.LineTotal(p.UnitPrice, p.DiscountPercent, it.Quantity),
		}
		snap.Items = append(snap.Items, line)
		snap.Total = snap.Total.Add(line.LineTotal)
	}
	return snap, nil
}
