package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmehra2102/commerce-core/internal/analytics/domain"
	"github.com/dmehra2102/commerce-core/internal/identity"
)

// OrderSource returns non-cancelled orders created at or after since.
// Results may lag slightly behind writes.
type OrderSource interface {
	OrdersSince(ctx context.Context, since time.Time) ([]domain.OrderRevenue, error)
}

type Service struct {
	log    *slog.Logger
	source OrderSource
	policy domain.DiscountPolicy
	loc    *time.Location
	now    func() time.Time
}

func NewService(log *slog.Logger, source OrderSource, policy domain.DiscountPolicy, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{log: log, source: source, policy: policy, loc: loc, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type Report struct {
	Period         domain.Period         `json:"period"`
	DiscountPolicy domain.DiscountPolicy `json:"discount_policy"`
	GeneratedAt    time.Time             `json:"generated_at"`
	Buckets        []domain.Bucket       `json:"buckets"`
}

// Revenue buckets non-cancelled order revenue over period, ending now in
// the report location.
func (s *Service) Revenue(ctx context.Context, who identity.Identity, period domain.Period) (Report, error) {
	if err := who.Require(identity.CapViewReports); err != nil {
		return Report{}, err
	}
	now := s.now().In(s.loc)
	orders, err := s.source.OrdersSince(ctx, domain.Since(period, now))
	if err != nil {
		return Report{}, err
	}
	buckets := domain.Build(period, now, orders, s.policy)
	s.log.Debug("revenue report built", "period", period, "orders", len(orders))
	return Report{Period: period, DiscountPolicy: s.policy, GeneratedAt: now, Buckets: buckets}, nil
}
