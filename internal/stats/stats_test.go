package stats

import (
	"math"
	"testing"
	"time"

	"github.com/subflowhq/subflow/internal/model"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func sub(amount float64, period model.Period) model.Subscription {
	return model.Subscription{Amount: model.Money(amount), Period: period}
}

func ts(t time.Time) model.Timestamp {
	return model.Timestamp{Time: t}
}

func TestMonthlyEquivalent(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		period model.Period
		want   float64
	}{
		{"monthly as-is", 25, model.PeriodMonthly, 25},
		{"yearly over 12", 1200, model.PeriodYearly, 100},
		{"quarterly over 3", 90, model.PeriodQuarterly, 30},
		{"empty period defaults monthly", 10, "", 10},
		{"uppercase period", 120, "YEARLY", 10},
		{"unknown period defaults monthly", 7, "weekly", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyEquivalent(sub(tt.amount, tt.period))
			if got != tt.want {
				t.Errorf("MonthlyEquivalent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTotalMonthlySpendMatchesNaiveSumForMonthly(t *testing.T) {
	subs := []model.Subscription{
		sub(10, model.PeriodMonthly),
		sub(20, model.PeriodMonthly),
		sub(30, model.PeriodMonthly),
	}
	if got := TotalMonthlySpend(subs); got != 60 {
		t.Fatalf("TotalMonthlySpend = %v, want 60", got)
	}

	// Halving a yearly amount halves the monthly equivalent exactly.
	full := MonthlyEquivalent(sub(1200, model.PeriodYearly))
	half := MonthlyEquivalent(sub(600, model.PeriodYearly))
	if full != 100 || half != 50 {
		t.Fatalf("yearly normalization: full=%v half=%v, want 100/50", full, half)
	}
}

func TestClassifyRenewalBoundaries(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		name string
		date time.Time
		want RenewalState
	}{
		{"exactly now", testNow, RenewalUrgent}, // zero days is urgent
		{"three days", testNow.Add(3 * day), RenewalUrgent},
		{"four days", testNow.Add(4 * day), RenewalWarning},
		{"seven days", testNow.Add(7 * day), RenewalWarning},
		{"eight days", testNow.Add(8 * day), RenewalActive},
		{"yesterday", testNow.Add(-1 * day), RenewalOverdue},
		{"far overdue", testNow.Add(-90 * day), RenewalOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyRenewal(tt.date, testNow)
			if got.State != tt.want {
				t.Errorf("ClassifyRenewal(%s) = %s, want %s", tt.name, got.State, tt.want)
			}
		})
	}
}

func TestClassifyRenewalNoDate(t *testing.T) {
	got := ClassifyRenewal(time.Time{}, testNow)
	if got.State != RenewalActive || got.Label != "Active" || got.HasDays {
		t.Fatalf("no-date classification = %+v, want active/Active with no day count", got)
	}
}

func TestSummarizeBudgetUsage(t *testing.T) {
	subs := []model.Subscription{sub(1200, model.PeriodYearly)} // 100/mo

	t.Run("no budget", func(t *testing.T) {
		s := Summarize(subs, nil, nil, nil, nil, testNow)
		if s.BudgetUsagePercent != 0 {
			t.Fatalf("usage = %v, want 0", s.BudgetUsagePercent)
		}
	})

	t.Run("zero cap", func(t *testing.T) {
		s := Summarize(subs, nil, nil, nil, []model.Budget{{ID: "b1"}}, testNow)
		if s.BudgetUsagePercent != 0 {
			t.Fatalf("usage = %v, want 0 (never Inf/NaN)", s.BudgetUsagePercent)
		}
		if math.IsInf(s.BudgetUsagePercent, 0) || math.IsNaN(s.BudgetUsagePercent) {
			t.Fatal("usage is Inf/NaN")
		}
	})

	t.Run("half used", func(t *testing.T) {
		b := model.Budget{ID: "b1", MonthlyCap: model.Money(200)}
		s := Summarize(subs, nil, nil, nil, []model.Budget{b}, testNow)
		if s.BudgetUsagePercent != 50 {
			t.Fatalf("usage = %v, want 50", s.BudgetUsagePercent)
		}
	})
}

func TestSummarizeCounts(t *testing.T) {
	day := 24 * time.Hour
	subs := []model.Subscription{
		{ID: "s1", Amount: 10, Period: model.PeriodMonthly, NextRenewalDate: ts(testNow.Add(2 * day))},
		{ID: "s2", Amount: 10, Period: model.PeriodMonthly, NextRenewalDate: ts(testNow.Add(9 * day))},
		{ID: "s3", Amount: 10, Period: model.PeriodMonthly}, // no renewal date
	}
	alerts := []model.Alert{
		{ID: "a1", Type: model.AlertRenewal, DueDate: ts(testNow.Add(2 * day))},
		{ID: "a2", Type: model.AlertRenewal, DueDate: ts(testNow.Add(-2 * day))}, // overdue counts as urgent
		{ID: "a3", Type: model.AlertBudget, DueDate: ts(testNow.Add(10 * day))},
		{ID: "a4", Type: model.AlertBudget}, // no due date, never urgent
	}

	s := Summarize(subs, nil, nil, alerts, nil, testNow)
	if s.UpcomingRenewals != 1 {
		t.Errorf("UpcomingRenewals = %d, want 1", s.UpcomingRenewals)
	}
	if s.UrgentAlerts != 2 {
		t.Errorf("UrgentAlerts = %d, want 2", s.UrgentAlerts)
	}
	if s.ActiveSubscriptions != 3 {
		t.Errorf("ActiveSubscriptions = %d, want 3", s.ActiveSubscriptions)
	}
}

func TestSortAlerts(t *testing.T) {
	day := 24 * time.Hour

	overdueRenewal := model.Alert{ID: "r-over", Type: model.AlertRenewal, DueDate: ts(testNow.Add(-2 * day))}
	futureBudget := model.Alert{ID: "b-future", Type: model.AlertBudget, DueDate: ts(testNow.Add(5 * day))}
	futureRenewalNear := model.Alert{ID: "r-near", Type: model.AlertRenewal, DueDate: ts(testNow.Add(2 * day))}
	futureRenewalFar := model.Alert{ID: "r-far", Type: model.AlertRenewal, DueDate: ts(testNow.Add(6 * day))}

	t.Run("overdue beats type priority", func(t *testing.T) {
		got := SortAlerts([]model.Alert{futureBudget, overdueRenewal}, testNow)
		if got[0].ID != "r-over" {
			t.Fatalf("first = %s, want r-over", got[0].ID)
		}
	})

	t.Run("budget before renewal among non-overdue", func(t *testing.T) {
		got := SortAlerts([]model.Alert{futureRenewalNear, futureBudget}, testNow)
		if got[0].ID != "b-future" {
			t.Fatalf("first = %s, want b-future", got[0].ID)
		}
	})

	t.Run("ascending days as final key", func(t *testing.T) {
		got := SortAlerts([]model.Alert{futureRenewalFar, futureRenewalNear}, testNow)
		if got[0].ID != "r-near" || got[1].ID != "r-far" {
			t.Fatalf("order = [%s %s], want [r-near r-far]", got[0].ID, got[1].ID)
		}
	})

	t.Run("input untouched", func(t *testing.T) {
		in := []model.Alert{futureRenewalFar, overdueRenewal}
		_ = SortAlerts(in, testNow)
		if in[0].ID != "r-far" {
			t.Fatal("SortAlerts mutated its input")
		}
	})
}

func TestCategorySplit(t *testing.T) {
	subs := []model.Subscription{
		{Amount: 10, Period: model.PeriodMonthly, Category: "Design"},
		{Amount: 1200, Period: model.PeriodYearly}, // no category
		{Amount: 20, Period: model.PeriodMonthly, Category: "Design"},
	}

	got := CategorySplit(subs)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Name != "Design" || got[0].Value != 30 {
		t.Errorf("first slice = %s/%v, want Design/30", got[0].Name, got[0].Value)
	}
	if got[1].Name != Uncategorized || got[1].Value != 100 {
		t.Errorf("second slice = %s/%v, want Uncategorized/100", got[1].Name, got[1].Value)
	}
	if got[0].Color == "" || got[0].Color == got[1].Color {
		t.Error("palette colors not assigned by insertion order")
	}
}

func TestSpendingTrendCumulative(t *testing.T) {
	// Created four months ago: present in every month of a 6-month window
	// from its creation month onward, including months after "now" changes.
	old := model.Subscription{
		Amount:    120,
		Period:    model.PeriodMonthly,
		CreatedAt: ts(testNow.AddDate(0, -4, 0)),
	}
	fresh := model.Subscription{
		Amount:    60,
		Period:    model.PeriodMonthly,
		CreatedAt: ts(testNow),
	}

	series := SpendingTrend([]model.Subscription{old, fresh}, Window6Months, testNow)
	if len(series) != 6 {
		t.Fatalf("len = %d, want 6", len(series))
	}

	// Oldest point predates both subscriptions.
	if series[0].Amount != 0 {
		t.Errorf("series[0] = %v, want 0", series[0].Amount)
	}
	// Middle months carry only the old subscription.
	if series[2].Amount != 120 {
		t.Errorf("series[2] = %v, want 120", series[2].Amount)
	}
	// Current month carries both.
	if series[5].Amount != 180 {
		t.Errorf("series[5] = %v, want 180", series[5].Amount)
	}
}

func TestSpendingTrendYearWindowLabels(t *testing.T) {
	series := SpendingTrend(nil, Window12Months, testNow)
	if len(series) != 12 {
		t.Fatalf("len = %d, want 12", len(series))
	}
	if series[11].Label != "Mar 26" {
		t.Errorf("current label = %q, want \"Mar 26\"", series[11].Label)
	}
	if series[0].Year != 2025 {
		t.Errorf("oldest year = %d, want 2025", series[0].Year)
	}
}

func TestDaysUntilCeil(t *testing.T) {
	if d := DaysUntil(testNow.Add(36*time.Hour), testNow); d != 2 {
		t.Errorf("36h ahead = %d days, want 2 (ceil)", d)
	}
	if d := DaysUntil(testNow.Add(-1*time.Hour), testNow); d != 0 {
		t.Errorf("1h behind = %d days, want 0", d)
	}
	if d := DaysUntil(testNow.Add(-25*time.Hour), testNow); d != -1 {
		t.Errorf("25h behind = %d days, want -1", d)
	}
}
