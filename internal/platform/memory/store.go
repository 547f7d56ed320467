// Package memory is a process-local store behind the same ports as the
// postgres adapters. It backs STORE=memory and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	cartdomain "github.com/dmehra2102/commerce-core/internal/cart/domain"
	"github.com/dmehra2102/commerce-core/internal/catalog"
	orderdomain "github.com/dmehra2102/commerce-core/internal/order/domain"
	"github.com/dmehra2102/commerce-core/pkg/outbox"
)

// Store holds every table under one RWMutex. A transaction takes the write
// lock for its whole duration, so transactions are serializable.
type Store struct {
	mu sync.RWMutex
	state
}

type state struct {
	products   map[string]catalog.Product
	carts      map[string]cartdomain.Cart
	merges     map[string]map[string]time.Time
	orders     map[string]orderdomain.Order
	orderSeq   []string
	events     []outboxRecord
	nextOutbox int64
}

type outboxRecord struct {
	event      outbox.Event
	leaseUntil time.Time
}

func NewStore() *Store {
	return &Store{state: state{
		products:   make(map[string]catalog.Product),
		carts:      make(map[string]cartdomain.Cart),
		merges:     make(map[string]map[string]time.Time),
		orders:     make(map[string]orderdomain.Order),
		nextOutbox: 1,
	}}
}

func (s state) clone() state {
	cp := state{
		products:   make(map[string]catalog.Product, len(s.products)),
		carts:      make(map[string]cartdomain.Cart, len(s.carts)),
		merges:     make(map[string]map[string]time.Time, len(s.merges)),
		orders:     make(map[string]orderdomain.Order, len(s.orders)),
		orderSeq:   append([]string(nil), s.orderSeq...),
		events:     append([]outboxRecord(nil), s.events...),
		nextOutbox: s.nextOutbox,
	}
	for k, v := range s.products {
		cp.products[k] = v
	}
	for k, v := range s.carts {
		cp.carts[k] = cloneCart(v)
	}
	for k, v := range s.merges {
		tokens := make(map[string]time.Time, len(v))
		for t, at := range v {
			tokens[t] = at
		}
		cp.merges[k] = tokens
	}
	for k, v := range s.orders {
		cp.orders[k] = v.Clone()
	}
	return cp
}

func cloneCart(c cartdomain.Cart) cartdomain.Cart {
	c.Items = append([]cartdomain.Item(nil), c.Items...)
	return c
}

type txKey struct{}

func isTx(ctx context.Context) bool {
	b, ok := ctx.Value(txKey{}).(bool)
	return ok && b
}

func (s *Store) rlock(ctx context.Context) {
	if !isTx(ctx) {
		s.mu.RLock()
	}
}

func (s *Store) runlock(ctx context.Context) {
	if !isTx(ctx) {
		s.mu.RUnlock()
	}
}

func (s *Store) wlock(ctx context.Context) {
	if !isTx(ctx) {
		s.mu.Lock()
	}
}

func (s *Store) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		s.mu.Unlock()
	}
}

// WithTransaction runs fn holding the store lock and restores the previous
// state if fn fails. Nested calls join the outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// PutProduct inserts or replaces a catalog entry.
func (s *Store) PutProduct(p catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) Carts() *Carts { return &Carts{s: s} }
func (s *Store) Orders() *Orders { return &Orders{s: s} }
func (s *Store) Catalog() *Catalog { return &Catalog{s: s} }
func (s *Store) Outbox() *Outbox { return &Outbox{s: s} }
func (s *Store) Revenue() *RevenueSource { return &RevenueSource{s: s} }
