package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/commerce-core/internal/catalog"
	"github.com/dmehra2102/commerce-core/internal/platform/postgres"
	"github.com/dmehra2102/commerce-core/internal/pricing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Reader struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewReader(log *slog.Logger, pool *pgxpool.Pool) *Reader {
	return &Reader{log: log, pool: pool}
}

func (r *Reader) Lookup(ctx context.Context, productIDs []string) (map[string]catalog.Product, error) {
	out, err := r.Find(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	if err := catalog.RequireAll(out, productIDs); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reader) Find(ctx context.Context, productIDs []string) (map[string]catalog.Product, error) {
	out := make(map[string]catalog.Product, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	rows, err := postgres.Conn(ctx, r.pool).Query(ctx,
		`SELECT id, name, price_cents, discount_percent FROM products WHERE id = ANY($1)`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p        catalog.Product
			cents    int64
			discount int32
		)
		if err := rows.Scan(&p.ID, &p.Name, &cents, &discount); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.UnitPrice = pricing.FromCents(cents)
		p.DiscountPercent = decimal.NewFromInt32(discount)
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert writes products into the catalog table, replacing existing rows.
// Nothing is written if any product fails validation.
func (r *Reader) Upsert(ctx context.Context, products []catalog.Product) error {
	batch := &pgx.Batch{}
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return err
		}
		batch.Queue(`INSERT INTO products (id, name, price_cents, discount_percent) VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO UPDATE SET name=$2, price_cents=$3, discount_percent=$4`,
			p.ID, p.Name, pricing.Cents(p.UnitPrice), p.DiscountPercent.IntPart())
	}
	if err := postgres.Conn(ctx, r.pool).SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert products: %w", err)
	}
	r.log.Info("catalog seeded", "products", len(products))
	return nil
}
