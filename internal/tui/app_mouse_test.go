package tui

import (
	"testing"

	"github.com/subflowhq/subflow/internal/tui/components"
)

func TestTabAtXMatchesTabWidths(t *testing.T) {
	n := len(components.Tabs)
	for active := 0; active < n; active++ {
		a := App{activeTab: active}
		pos := 1 // leading space

		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			x := pos + w/2 // midpoint inside this tab
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w + 2 // separator
		}
	}
}

func TestTabAtXOutsideBar(t *testing.T) {
	a := App{}
	if got := a.tabAtX(0); got != -1 {
		t.Errorf("tabAtX(0) = %d, want -1", got)
	}
	if got := a.tabAtX(9999); got != -1 {
		t.Errorf("tabAtX(9999) = %d, want -1", got)
	}
}

func TestTabIdxByKey(t *testing.T) {
	cases := []struct {
		key  rune
		want int
	}{
		{'d', tabDashboard},
		{'s', tabSubscriptions},
		{'c', tabClients},
		{'i', tabInvoices},
		{'a', tabAlerts},
		{'b', tabBudget},
		{'w', tabWorkspaces},
		{'x', tabSettings},
		{'z', -1},
	}
	for _, tc := range cases {
		if got := components.TabIdxByKey(tc.key); got != tc.want {
			t.Errorf("TabIdxByKey(%q) = %d, want %d", tc.key, got, tc.want)
		}
	}
}
