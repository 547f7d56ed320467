package domain

import (
	"encoding/json"
	"time"

	"github.com/dmehra2102/commerce-core/internal/pricing"
	"github.com/dmehra2102/commerce-core/pkg/apperr"
	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodWeekly   Period = "weekly"
	PeriodMonthly  Period = "monthly"
	PeriodSemester Period = "semester"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodWeekly, PeriodMonthly, PeriodSemester:
		return p, nil
	}
	return "", apperr.InvalidArgument("unknown period %q", s)
}

// Len is the fixed number of buckets a report for p always has.
func (p Period) Len() int {
	switch p {
	case PeriodWeekly:
		return 7
	case PeriodMonthly:
		return 4
	case PeriodSemester:
		return 6
	}
	return 0
}

// DiscountPolicy picks which discount revenue is computed with.
// DiscountAtReportTime reads the catalog's current discount, so promotions
// change historical figures; DiscountAtOrderTime uses the frozen checkout
// discount.
type DiscountPolicy string

const (
	DiscountAtReportTime DiscountPolicy = "report_time"
	DiscountAtOrderTime  DiscountPolicy = "order_time"
)

func ParseDiscountPolicy(s string) (DiscountPolicy, error) {
	switch p := DiscountPolicy(s); p {
	case DiscountAtReportTime, DiscountAtOrderTime:
		return p, nil
	}
	return "", apperr.InvalidArgument("unknown discount policy %q", s)
}

type Line struct {
	UnitPrice       decimal.Decimal
	Quantity        int
	OrderDiscount   decimal.Decimal
	CurrentDiscount decimal.Decimal
}

// OrderRevenue is the reporting view of one non-cancelled order.
type OrderRevenue struct {
	OrderID   string
	CreatedAt time.Time
	Lines     []Line
}

func (o OrderRevenue) Revenue(policy DiscountPolicy) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range o.Lines {
		discount := l.CurrentDiscount
		if policy == DiscountAtOrderTime {
			discount = l.OrderDiscount
		}
		sum = sum.Add(pricing.LineTotal(l.UnitPrice, discount, l.Quantity))
	}
	return sum
}

type Bucket struct {
	Label   string
	Revenue decimal.Decimal
}

// MarshalJSON renders revenue with exactly two decimals.
func (b Bucket) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Label   string `json:"label"`
		Revenue string `json:"revenue"`
	}{b.Label, b.Revenue.StringFixed(2)})
}

var weekLabels = [4]string{"1st week", "2nd week", "3rd week", "4th week"}

// Since is the inclusive lower bound on order creation time for a report
// of period p built at now. Calendar arithmetic uses now's location.
func Since(p Period, now time.Time) time.Time {
	switch p {
	case PeriodWeekly:
		return startOfDay(now).AddDate(0, 0, -6)
	case PeriodMonthly:
		return startOfMonth(now)
	default:
		return startOfMonth(now).AddDate(0, -5, 0)
	}
}

// Build buckets orders into the fixed-length series for p. Orders outside
// the period's range are ignored; empty buckets are zero.
func Build(p Period, now time.Time, orders []OrderRevenue, policy DiscountPolicy) []Bucket {
	loc := now.Location()
	start := Since(p, now)
	buckets := make([]Bucket, p.Len())

	for i := range buckets {
		buckets[i].Revenue = decimal.Zero
		switch p {
		case PeriodWeekly:
			buckets[i].Label = start.AddDate(0, 0, i).Format(time.DateOnly)
		case PeriodMonthly:
			buckets[i].Label = weekLabels[i]
		case PeriodSemester:
			buckets[i].Label = start.AddDate(0, i, 0).Month().String()[:3]
		}
	}

	for _, o := range orders {
		t := o.CreatedAt.In(loc)
		if t.Before(start) || t.After(now) {
			continue
		}
		idx := bucketIndex(p, start, t)
		if idx < 0 || idx >= len(buckets) {
			continue
		}
		buckets[idx].Revenue = buckets[idx].Revenue.Add(o.Revenue(policy))
	}
	return buckets
}

func bucketIndex(p Period, start, t time.Time) int {
	switch p {
	case PeriodWeekly:
		return daysBetween(start, t)
	case PeriodMonthly:
		return min((t.Day()-1)/7, 3)
	case PeriodSemester:
		return (int(t.Month()) - int(start.Month()) + 12) % 12
	}
	return -1
}

// daysBetween counts calendar days, ignoring DST shifts.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
