package components

import (
	"strings"

	"github.com/subflowhq/subflow/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name (-1 if not in name)
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Dashboard", Key: 'd', KeyPos: 0},
	{Name: "Subscriptions", Key: 's', KeyPos: 0},
	{Name: "Clients", Key: 'c', KeyPos: 0},
	{Name: "Invoices", Key: 'i', KeyPos: 0},
	{Name: "Alerts", Key: 'a', KeyPos: 0},
	{Name: "Budget", Key: 'b', KeyPos: 0},
	{Name: "Workspaces", Key: 'w', KeyPos: 0},
	{Name: "Settings", Key: 'x', KeyPos: -1}, // x is not in "Settings"
}

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	dimKeyStyle := lipgloss.NewStyle().
		Foreground(t.TextDim)

	var parts []string
	for i, tab := range Tabs {
		var rendered string
		if i == activeIdx {
			rendered = activeStyle.Render(tab.Name)
		} else {
			// Render with highlighted shortcut key
			if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
				before := tab.Name[:tab.KeyPos]
				key := string(tab.Name[tab.KeyPos])
				after := tab.Name[tab.KeyPos+1:]
				rendered = inactiveStyle.Render(before) +
					dimKeyStyle.Render("[") + keyStyle.Render(key) + dimKeyStyle.Render("]") +
					inactiveStyle.Render(after)
			} else {
				// Key not in name (e.g., "Settings" with 'x')
				rendered = inactiveStyle.Render(tab.Name) +
					dimKeyStyle.Render("[") + keyStyle.Render(string(tab.Key)) + dimKeyStyle.Render("]")
			}
		}
		parts = append(parts, rendered)
	}

	line := " " + strings.Join(parts, "  ")
	if lipgloss.Width(line) <= width {
		return line
	}

	// Narrow terminals: split into two rows
	half := (len(parts) + 1) / 2
	row1 := strings.Join(parts[:half], "  ")
	row2 := strings.Join(parts[half:], "  ")
	return " " + row1 + "\n " + row2
}

// TabVisualWidth returns the rendered width of a tab, used for mouse hitboxes.
// Inactive tabs carry two extra bracket characters around the shortcut key.
func TabVisualWidth(tab Tab, active bool) int {
	w := len(tab.Name)
	if !active {
		w += 2
		if tab.KeyPos < 0 {
			w++ // key letter sits outside the name
		}
	}
	return w
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
