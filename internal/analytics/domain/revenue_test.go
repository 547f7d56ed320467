package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dmehra2102/commerce-core/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday 2026-05-20 15:00 UTC
var now = time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)

func order(at time.Time, price string, qty int, orderDiscount, currentDiscount int64) OrderRevenue {
	return OrderRevenue{
		OrderID:   at.String(),
		CreatedAt: at,
		Lines: []Line{{
			UnitPrice:       decimal.RequireFromString(price),
			Quantity:        qty,
			OrderDiscount:   decimal.NewFromInt(orderDiscount),
			CurrentDiscount: decimal.NewFromInt(currentDiscount),
		}},
	}
}

func labels(bs []Bucket) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Label
	}
	return out
}

func revenues(bs []Bucket) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Revenue.StringFixed(2)
	}
	return out
}

func TestBuild_fixedLengthWithNoOrders(t *testing.T) {
	for _, p := range []Period{PeriodWeekly, PeriodMonthly, PeriodSemester} {
		got := Build(p, now, nil, DiscountAtReportTime)
		require.Len(t, got, p.Len())
		for _, b := range got {
			assert.True(t, b.Revenue.IsZero())
			assert.NotEmpty(t, b.Label)
		}
	}
}

func TestBuild_weekly(t *testing.T) {
	orders := []OrderRevenue{
		order(now.Add(-time.Hour), "10.00", 2, 0, 0),
		order(time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC), "5.00", 1, 0, 50),
		order(time.Date(2026, 5, 13, 23, 59, 59, 0, time.UTC), "99.00", 1, 0, 0),
	}

	got := Build(PeriodWeekly, now, orders, DiscountAtReportTime)

	assert.Equal(t, []string{
		"2026-05-14", "2026-05-15", "2026-05-16", "2026-05-17", "2026-05-18", "2026-05-19", "2026-05-20",
	}, labels(got))
	assert.Equal(t, []string{"2.50", "0.00", "0.00", "0.00", "0.00", "0.00", "20.00"}, revenues(got))
	assert.Equal(t, time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC), Since(PeriodWeekly, now))
}

func TestBuild_monthlyClampsToFourthWeek(t *testing.T) {
	end := time.Date(2026, 5, 31, 20, 0, 0, 0, time.UTC)
	orders := []OrderRevenue{
		order(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), "1.00", 1, 0, 0),
		order(time.Date(2026, 5, 7, 9, 0, 0, 0, time.UTC), "1.00", 1, 0, 0),
		order(time.Date(2026, 5, 8, 9, 0, 0, 0, time.UTC), "2.00", 1, 0, 0),
		order(time.Date(2026, 5, 22, 9, 0, 0, 0, time.UTC), "4.00", 1, 0, 0),
		order(time.Date(2026, 5, 29, 9, 0, 0, 0, time.UTC), "8.00", 1, 0, 0),
		order(time.Date(2026, 4, 30, 9, 0, 0, 0, time.UTC), "100.00", 1, 0, 0),
	}

	got := Build(PeriodMonthly, end, orders, DiscountAtReportTime)

	assert.Equal(t, []string{"1st week", "2nd week", "3rd week", "4th week"}, labels(got))
	assert.Equal(t, []string{"2.00", "2.00", "0.00", "12.00"}, revenues(got))
}

func TestBuild_semesterWrapsYear(t *testing.T) {
	feb := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	orders := []OrderRevenue{
		order(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), "3.00", 1, 0, 0),
		order(time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC), "5.00", 2, 0, 0),
		order(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), "7.00", 1, 0, 0),
		order(time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC), "1000.00", 1, 0, 0),
	}

	got := Build(PeriodSemester, feb, orders, DiscountAtReportTime)

	assert.Equal(t, []string{"Sep", "Oct", "Nov", "Dec", "Jan", "Feb"}, labels(got))
	assert.Equal(t, []string{"3.00", "0.00", "0.00", "10.00", "0.00", "7.00"}, revenues(got))
}

func TestBuild_discountPolicy(t *testing.T) {
	orders := []OrderRevenue{order(now.Add(-time.Minute), "10.00", 1, 0, 20)}

	atReport := Build(PeriodWeekly, now, orders, DiscountAtReportTime)
	atOrder := Build(PeriodWeekly, now, orders, DiscountAtOrderTime)

	assert.Equal(t, "8.00", atReport[6].Revenue.StringFixed(2))
	assert.Equal(t, "10.00", atOrder[6].Revenue.StringFixed(2))
}

func TestBuild_usesReportLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	local := now.In(tokyo) // 2026-05-21 00:00 JST
	orders := []OrderRevenue{order(time.Date(2026, 5, 20, 16, 0, 0, 0, time.UTC), "1.00", 1, 0, 0)}

	got := Build(PeriodWeekly, local.Add(time.Hour), orders, DiscountAtReportTime)

	assert.Equal(t, "2026-05-21", got[6].Label)
	assert.Equal(t, "1.00", got[6].Revenue.StringFixed(2))
}

func TestParse(t *testing.T) {
	p, err := ParsePeriod("semester")
	require.NoError(t, err)
	assert.Equal(t, 6, p.Len())

	_, err = ParsePeriod("yearly")
	assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))

	_, err = ParseDiscountPolicy("whenever")
	assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
}

func TestBucketJSON(t *testing.T) {
	b, err := json.Marshal(Bucket{Label: "Mar", Revenue: decimal.NewFromInt(12)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"Mar","revenue":"12.00"}`, string(b))
}
