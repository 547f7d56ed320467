package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmehra2102/commerce-core/internal/cart/domain"
	"github.com/dmehra2102/commerce-core/internal/platform/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Get(ctx context.Context, customerID string) (domain.Cart, error) {
	c := domain.New(customerID)
	err := postgres.Conn(ctx, r.pool).QueryRow(ctx, `SELECT updated_at FROM carts WHERE customer_id=$1`, customerID).
		Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("load cart: %w", err)
	}
	return r.loadItems(ctx, c)
}

func (r *Repository) GetForUpdate(ctx context.Context, customerID string) (domain.Cart, error) {
	q := postgres.Conn(ctx, r.pool)
	_, err := q.Exec(ctx, `INSERT INTO carts (customer_id, created_at, updated_at) VALUES ($1, now(), now())
		ON CONFLICT (customer_id) DO NOTHING`, customerID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("create cart: %w", err)
	}

	c := domain.New(customerID)
	if err := q.QueryRow(ctx, `SELECT updated_at FROM carts WHERE customer_id=$1 FOR UPDATE`, customerID).Scan(&c.UpdatedAt); err != nil {
		return domain.Cart{}, fmt.Errorf("lock cart: %w", err)
	}
	return r.loadItems(ctx, c)
}

// Save replaces the persisted lines with c.Items.
func (r *Repository) Save(ctx context.Context, c domain.Cart) error {
	q := postgres.Conn(ctx, r.pool)

	batch := &pgx.Batch{}
	batch.Queue(`UPDATE carts SET updated_at=$2 WHERE customer_id=$1`, c.CustomerID, c.UpdatedAt)
	batch.Queue(`DELETE FROM cart_items WHERE customer_id=$1`, c.CustomerID)
	for i, it := range c.Items {
		batch.Queue(`INSERT INTO cart_items (customer_id, product_id, quantity, position, added_at) VALUES ($1,$2,$3,$4,$5)`,
			c.CustomerID, it.ProductID, it.Quantity, i, c.UpdatedAt)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *Repository) MergeApplied(ctx context.Context, customerID, mergeToken string) (bool, error) {
	var exists bool
	err := postgres.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM cart_merges WHERE customer_id=$1 AND merge_token=$2)`, customerID, mergeToken).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check merge token: %w", err)
	}
	return exists, nil
}

func (r *Repository) RecordMerge(ctx context.Context, customerID, mergeToken string, at time.Time) error {
	_, err := postgres.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO cart_merges (customer_id, merge_token, merged_at) VALUES ($1,$2,$3)`, customerID, mergeToken, at)
	if err != nil {
		return fmt.Errorf("record merge: %w", err)
	}
	return nil
}

func (r *Repository) loadItems(ctx context.Context, c domain.Cart) (domain.Cart, error) {
	rows, err := postgres.Conn(ctx, r.pool).Query(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE customer_id=$1 ORDER BY position`, c.CustomerID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			return domain.Cart{}, err
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}
