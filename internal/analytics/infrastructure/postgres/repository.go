package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmehra2102/commerce-core/internal/analytics/domain"
	"github.com/dmehra2102/commerce-core/internal/pricing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// OrdersSince reads in a repeatable-read, read-only transaction so one
// report sees a single snapshot.
func (r *Repository) OrdersSince(ctx context.Context, since time.Time) ([]domain.OrderRevenue, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT o.id, o.created_at, i.unit_price_cents, i.quantity, i.discount_percent, COALESCE(p.discount_percent, i.discount_percent)
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		LEFT JOIN products p ON p.id = i.product_id
		WHERE o.status IN ('pending', 'shipped', 'delivered') AND o.created_at >= $1
		ORDER BY o.created_at, o.id, i.position`, since)
	if err != nil {
		return nil, fmt.Errorf("query revenue: %w", err)
	}
	defer rows.Close()

	var out []domain.OrderRevenue
	for rows.Next() {
		var (
			id                 string
			createdAt          time.Time
			cents              int64
			qty                int
			orderDisc, curDisc int32
		)
		if err := rows.Scan(&id, &createdAt, &cents, &qty, &orderDisc, &curDisc); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].OrderID != id {
			out = append(out, domain.OrderRevenue{OrderID: id, CreatedAt: createdAt})
		}
		last := &out[len(out)-1]
		last.Lines = append(last.Lines, domain.Line{
			UnitPrice:       pricing.FromCents(cents),
			Quantity:        qty,
			OrderDiscount:   decimal.NewFromInt32(orderDisc),
			CurrentDiscount: decimal.NewFromInt32(curDisc),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, tx.Commit(ctx)
}
