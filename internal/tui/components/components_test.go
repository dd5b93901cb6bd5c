package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/subflowhq/subflow/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToTotal(t *testing.T) {
	cases := []struct {
		total, n int
	}{
		{120, 2},
		{121, 2},
		{100, 3},
		{80, 4},
		{7, 3},
	}
	for _, tc := range cases {
		widths := LayoutRow(tc.total, tc.n)
		if len(widths) != tc.n {
			t.Fatalf("LayoutRow(%d, %d) returned %d widths", tc.total, tc.n, len(widths))
		}
		sum := 0
		for _, w := range widths {
			sum += w
		}
		if sum != tc.total {
			t.Errorf("LayoutRow(%d, %d) widths sum to %d", tc.total, tc.n, sum)
		}
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")

	metrics := []Metric{
		{Label: "Monthly Spend", Value: "$420.00", Delta: "7 subscriptions"},
		{Label: "Renewals", Value: "2", Delta: "due within 7 days"},
		{Label: "Clients", Value: "4", Delta: "11 invoices"},
		{Label: "Alerts", Value: "3", Delta: "1 urgent", Alert: true},
	}
	row := MetricCardRow(metrics, 120)
	if w := lipgloss.Width(row); w != 120 {
		t.Errorf("row width = %d, want 120", w)
	}

	if MetricCardRow(nil, 120) != "" {
		t.Error("MetricCardRow(nil) should be empty")
	}
}

func TestTabVisualWidth(t *testing.T) {
	for _, tab := range Tabs {
		if got, want := TabVisualWidth(tab, true), len(tab.Name); got != want {
			t.Errorf("active %s: width %d, want %d", tab.Name, got, want)
		}
		want := len(tab.Name) + 2
		if tab.KeyPos < 0 {
			want++
		}
		if got := TabVisualWidth(tab, false); got != want {
			t.Errorf("inactive %s: width %d, want %d", tab.Name, got, want)
		}
	}
}

func TestRenderTabBarWrapsWhenNarrow(t *testing.T) {
	theme.SetActive("flexoki-dark")

	wide := RenderTabBar(0, 200)
	if strings.Contains(wide, "\n") {
		t.Error("wide bar should fit on one row")
	}

	narrow := RenderTabBar(0, 40)
	if !strings.Contains(narrow, "\n") {
		t.Error("narrow bar should wrap to two rows")
	}
}

func TestShareBarsAlignment(t *testing.T) {
	theme.SetActive("flexoki-dark")

	rows := []ShareBar{
		{Label: "Infrastructure", Value: "$120.00", Share: 0.6, Color: lipgloss.Color("#8b5cf6")},
		{Label: "Design", Value: "$50.00", Share: 0.25, Color: lipgloss.Color("#60a5fa")},
		{Label: "Other", Value: "$30.00", Share: 0.15, Color: lipgloss.Color("#4ade80")},
	}
	out := ShareBars(rows, 60)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != len(rows) {
		t.Fatalf("ShareBars rendered %d lines, want %d", len(lines), len(rows))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w > 60 {
			t.Errorf("line %d width %d exceeds 60", i, w)
		}
	}

	if ShareBars(nil, 60) != "" {
		t.Error("ShareBars(nil) should be empty")
	}
}

func TestProgressBarColorBands(t *testing.T) {
	theme.SetActive("flexoki-dark")
	th := theme.Active

	cases := []struct {
		pct  float64
		want string
	}{
		{0.2, string(th.Green)},
		{0.6, string(th.Yellow)},
		{0.75, string(th.Orange)},
		{0.95, string(th.Red)},
	}
	for _, tc := range cases {
		if got := ColorForPct(tc.pct); got != tc.want {
			t.Errorf("ColorForPct(%.2f) = %v, want %v", tc.pct, got, tc.want)
		}
	}
}
