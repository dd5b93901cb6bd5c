package tui

import (
	"testing"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/state"
	"github.com/subflowhq/subflow/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
)

func testApp() App {
	a := NewApp(api.New("http://localhost:0", "test-token"), Options{})
	a.loaded = true
	a.width = 140
	a.height = 40
	return a
}

func keyMsg(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTabKeyJumpsToTab(t *testing.T) {
	a := testApp()

	cases := []struct {
		key  string
		want int
	}{
		{"s", tabSubscriptions},
		{"i", tabInvoices},
		{"w", tabWorkspaces},
		{"x", tabSettings},
		{"d", tabDashboard},
	}
	var m tea.Model = a
	for _, tc := range cases {
		m, _ = m.(App).updateKeys(keyMsg(tc.key))
		if got := m.(App).activeTab; got != tc.want {
			t.Errorf("key %q: activeTab = %d, want %d", tc.key, got, tc.want)
		}
	}
}

func TestArrowKeysCycleTabs(t *testing.T) {
	a := testApp()

	m, _ := a.updateKeys(keyMsg("left"))
	if got := m.(App).activeTab; got != len(components.Tabs)-1 {
		t.Fatalf("left from first tab: activeTab = %d, want %d", got, len(components.Tabs)-1)
	}
	m, _ = m.(App).updateKeys(keyMsg("right"))
	if got := m.(App).activeTab; got != tabDashboard {
		t.Fatalf("right wraps back: activeTab = %d, want %d", got, tabDashboard)
	}
}

func TestCursorClampsToList(t *testing.T) {
	a := testApp()
	a.activeTab = tabSubscriptions
	a.snap = state.Snapshot{
		Subscriptions: []model.Subscription{{ID: "1"}, {ID: "2"}},
	}

	a.moveCursor(1)
	a.moveCursor(1)
	a.moveCursor(1)
	if a.cursor[tabSubscriptions] != 1 {
		t.Errorf("cursor = %d, want 1", a.cursor[tabSubscriptions])
	}
	a.moveCursor(-5)
	if a.cursor[tabSubscriptions] != 0 {
		t.Errorf("cursor = %d, want 0", a.cursor[tabSubscriptions])
	}
}

func TestHelpTogglesAndSwallowsKeys(t *testing.T) {
	a := testApp()

	m, _ := a.updateKeys(keyMsg("?"))
	if !m.(App).showHelp {
		t.Fatal("? should open help")
	}
	m, _ = m.(App).updateKeys(keyMsg("s"))
	if m.(App).showHelp {
		t.Fatal("any key should close help")
	}
	if got := m.(App).activeTab; got != tabDashboard {
		t.Errorf("key closing help should not switch tabs, activeTab = %d", got)
	}
}

func TestUnauthenticatedStartsAtLogin(t *testing.T) {
	a := NewApp(api.New("http://localhost:0", ""), Options{})
	if !a.needLogin {
		t.Fatal("app without a token should require login")
	}
	if a.loginForm == nil {
		t.Fatal("login form should be initialized")
	}
}

func TestOptionsClamping(t *testing.T) {
	a := NewApp(api.New("http://localhost:0", "tok"), Options{TrendMonths: 9, PollInterval: 5})
	if a.trendMonths != 6 {
		t.Errorf("trendMonths = %d, want 6", a.trendMonths)
	}
	if a.opts.PollInterval != 300 {
		t.Errorf("PollInterval = %d, want 300", a.opts.PollInterval)
	}
}
