package stats

import (
	"math"
	"time"

	"github.com/subflowhq/subflow/internal/model"
)

// MonthSpend is one point in the spending trend series.
type MonthSpend struct {
	Label     string // "Mar" or "Mar 26" depending on window
	FullMonth string
	Year      int
	Amount    float64
}

// Trend windows.
const (
	Window6Months  = 6
	Window12Months = 12
)

// SpendingTrend computes the last `months` months of spend (oldest first,
// current month last). Each point sums the monthly-equivalent of every
// subscription created on or before that month's last instant. The series
// is cumulative by construction: it keys only on createdAt, so a
// subscription never drops out of later months.
func SpendingTrend(subs []model.Subscription, months int, now time.Time) []MonthSpend {
	if months <= 0 {
		months = Window6Months
	}

	series := make([]MonthSpend, 0, months)
	for i := months - 1; i >= 0; i-- {
		target := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		monthEnd := target.AddDate(0, 1, 0).Add(-time.Nanosecond)

		var total float64
		for _, sub := range subs {
			created := sub.CreatedAt.Time
			if created.After(monthEnd) {
				continue
			}
			total += MonthlyEquivalent(sub)
		}

		full := target.Format("Jan")
		label := full
		if months > Window6Months {
			label = target.Format("Jan 06")
		}

		series = append(series, MonthSpend{
			Label:     label,
			FullMonth: full,
			Year:      target.Year(),
			Amount:    math.Round(total*100) / 100,
		})
	}

	return series
}

// CategorySlice is one entry of the category-split series.
type CategorySlice struct {
	Name   string
	Value  float64
	Color  string
	Shares float64 // fraction of total, 0 when total is 0
}

// Uncategorized is the bucket for subscriptions without a category.
const Uncategorized = "Uncategorized"

// categoryPalette is the fixed 8-color palette cycled by first-appearance order.
var categoryPalette = []string{
	"#8b5cf6", "#a78bfa", "#60a5fa", "#db2777",
	"#4ade80", "#f59e0b", "#84cc16", "#06b6d4",
}

// CategorySplit groups monthly-equivalent spend by category. Entries keep
// the insertion order of each category's first appearance, and colors
// cycle through the fixed palette in that order.
func CategorySplit(subs []model.Subscription) []CategorySlice {
	totals := make(map[string]float64)
	var order []string

	for _, sub := range subs {
		key := sub.Category
		if key == "" {
			key = Uncategorized
		}
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] += MonthlyEquivalent(sub)
	}

	var grand float64
	for _, v := range totals {
		grand += v
	}

	slices := make([]CategorySlice, 0, len(order))
	for i, name := range order {
		s := CategorySlice{
			Name:  name,
			Value: totals[name],
			Color: categoryPalette[i%len(categoryPalette)],
		}
		if grand > 0 {
			s.Shares = s.Value / grand
		}
		slices = append(slices, s)
	}

	return slices
}
