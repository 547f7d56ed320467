package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmehra2102/commerce-core/internal/order/domain"
	"github.com/dmehra2102/commerce-core/internal/platform/postgres"
	"github.com/dmehra2102/commerce-core/internal/pricing"
	"github.com/dmehra2102/commerce-core/pkg/apperr"
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

const orderColumns = `id, customer_id, shipping_address, payment_ref, total_cents, created_at, received_at`

func (r *Repository) Create(ctx context.Context, o domain.Order) error {
	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO orders (id, customer_id, shipping_address, payment_ref, total_cents, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$7)`,
		o.ID, o.CustomerID, o.ShippingAddress, o.PaymentRef, pricing.Cents(o.Total), string(o.Status()), o.CreatedAt)
	for i, it := range o.Items {
		if !it.DiscountPercent.IsInteger() {
			return apperr.InvalidArgument("line item %s: discount %s%% is not a whole number", it.ID, it.DiscountPercent)
		}
		batch.Queue(`INSERT INTO order_items (id, order_id, position, product_id, quantity, unit_price_cents, discount_percent, line_total_cents, status, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			it.ID, o.ID, i, it.ProductID, it.Quantity, pricing.Cents(it.UnitPrice),
			it.DiscountPercent.IntPart(), pricing.Cents(it.LineTotal), string(it.Status), it.UpdatedAt)
	}
	if err := postgres.Conn(ctx, r.pool).SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	return r.load(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

func (r *Repository) GetForUpdate(ctx context.Context, id string) (domain.Order, error) {
	return r.load(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, id)
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	q := postgres.Conn(ctx, r.pool)
	rows, err := q.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_id=$1 ORDER BY created_at DESC, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if orders[i].Items, err = r.loadItems(ctx, q, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// SaveTransitions compare-and-sets each line item on its previous status so
// a lost race surfaces as Conflict instead of a silent overwrite.
func (r *Repository) SaveTransitions(ctx context.Context, o domain.Order, trs []domain.Transition) error {
	q := postgres.Conn(ctx, r.pool)
	var updatedAt time.Time
	for _, tr := range trs {
		ct, err := q.Exec(ctx, `UPDATE order_items SET status=$3, updated_at=$4 WHERE id=$1 AND order_id=$2 AND status=$5`,
			tr.ItemID, o.ID, string(tr.To), tr.At, string(tr.From))
		if err != nil {
			return fmt.Errorf("update line item %s: %w", tr.ItemID, err)
		}
		if ct.RowsAffected() == 0 {
			return apperr.Newf(apperr.KindConflict, "line item %s is no longer %s", tr.ItemID, tr.From)
		}
		if tr.At.After(updatedAt) {
			updatedAt = tr.At
		}
	}
	if len(trs) == 0 {
		return nil
	}

	_, err := q.Exec(ctx, `UPDATE orders SET status=$2, received_at=COALESCE(received_at, $3), updated_at=$4 WHERE id=$1`,
		o.ID, string(o.Status()), o.ReceivedAt, updatedAt)
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}
	return nil
}

func (r *Repository) load(ctx context.Context, query, id string) (domain.Order, error) {
	q := postgres.Conn(ctx, r.pool)
	o, err := scanOrder(q.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Order{}, postgres.NotFoundOr(err, "order %s not found", id)
	}
	if o.Items, err = r.loadItems(ctx, q, id); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) loadItems(ctx context.Context, q postgres.Querier, orderID string) ([]domain.LineItem, error) {
	rows, err := q.Query(ctx, `SELECT id, product_id, quantity, unit_price_cents, discount_percent, line_total_cents, status, updated_at
		FROM order_items WHERE order_id=$1 ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load line items: %w", err)
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var (
			it           domain.LineItem
			price, total int64
			discount     int32
			status       string
		)
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Quantity, &price, &discount, &total, &status, &it.UpdatedAt); err != nil {
			return nil, err
		}
		it.UnitPrice = pricing.FromCents(price)
		it.DiscountPercent = decimal.NewFromInt32(discount)
		it.LineTotal = pricing.FromCents(total)
		it.Status = domain.ItemStatus(status)
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o     domain.Order
		cents int64
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.ShippingAddress, &o.PaymentRef, &cents, &o.CreatedAt, &o.ReceivedAt); err != nil {
		return domain.Order{}, err
	}
	o.Total = pricing.FromCents(cents)
	return o, nil
}
