package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/subflowhq/subflow/internal/config"
	"github.com/subflowhq/subflow/internal/tui/components"
	"github.com/subflowhq/subflow/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldTheme = iota
	settingsFieldTrend
	settingsFieldWorkspace
	settingsFieldPoll
	settingsFieldBaseURL
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save failed
}

func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) settingsKeys(key string) (tea.Model, tea.Cmd, bool) {
	if key != "enter" {
		return a, nil, false
	}

	cfg := loadConfigOrDefault()
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()

	switch a.cursor[tabSettings] {
	case settingsFieldTheme:
		ti.Placeholder = "flexoki-dark, catppuccin-mocha, tokyo-night, terminal"
		ti.SetValue(cfg.Appearance.Theme)
	case settingsFieldTrend:
		ti.Placeholder = "6 or 12 (months)"
		ti.SetValue(strconv.Itoa(a.trendMonths))
	case settingsFieldWorkspace:
		ti.Placeholder = "workspace name, leave empty to clear"
		ti.SetValue(cfg.General.DefaultWorkspace)
	case settingsFieldPoll:
		ti.Placeholder = "300 (seconds, minimum 30)"
		ti.SetValue(strconv.Itoa(a.opts.PollInterval))
	case settingsFieldBaseURL:
		ti.Placeholder = "http://localhost:4000/api"
		ti.SetValue(cfg.API.BaseURL)
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd(), true
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

func (a *App) settingsSave() {
	cfg := loadConfigOrDefault()
	val := strings.TrimSpace(a.settings.input.Value())

	switch a.cursor[tabSettings] {
	case settingsFieldTheme:
		for _, t := range theme.All {
			if t.Name == val {
				cfg.Appearance.Theme = val
				theme.SetActive(val)
				break
			}
		}
	case settingsFieldTrend:
		if m, err := strconv.Atoi(val); err == nil && (m == 6 || m == 12) {
			cfg.General.TrendMonths = m
			a.trendMonths = m
		}
	case settingsFieldWorkspace:
		cfg.General.DefaultWorkspace = val
	case settingsFieldPoll:
		if sec, err := strconv.Atoi(val); err == nil && sec >= 30 {
			cfg.Alerts.PollIntervalSec = sec
			a.opts.PollInterval = sec
		}
	case settingsFieldBaseURL:
		// Takes effect on next launch, the live client keeps its URL
		cfg.API.BaseURL = val
	}

	a.settings.saveErr = config.Save(cfg)
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := loadConfigOrDefault()

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	type field struct {
		label string
		value string
	}

	defaultWS := cfg.General.DefaultWorkspace
	if defaultWS == "" {
		defaultWS = "(not set)"
	}
	baseURL := cfg.API.BaseURL
	if baseURL == "" {
		baseURL = "(default)"
	}

	fields := []field{
		{"Theme", cfg.Appearance.Theme},
		{"Trend Window", fmt.Sprintf("%d months", a.trendMonths)},
		{"Default Workspace", defaultWS},
		{"Alert Poll Interval", fmt.Sprintf("%ds", a.opts.PollInterval)},
		{"API Base URL", baseURL},
	}

	cursor := a.cursor[tabSettings]

	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-20s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-20s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker)
			formBody.WriteString(label)
			formBody.WriteString(value)
			usedWidth := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			innerW := components.CardInnerWidth(cw)
			padLen := innerW - usedWidth
			if padLen > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-20s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	// Account info card
	var infoBody strings.Builder
	if u := a.store.User(); u != nil {
		infoBody.WriteString(labelStyle.Render("Signed in as:   ") + valueStyle.Render(u.Email) + "\n")
	}
	if ws := a.activeWorkspace(); ws != nil {
		infoBody.WriteString(labelStyle.Render("Workspace:      ") + valueStyle.Render(ws.Name) + "\n")
	}
	infoBody.WriteString(labelStyle.Render("Config file:    ") + valueStyle.Render(config.ConfigPath()))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Account", infoBody.String(), cw))

	return b.String()
}
