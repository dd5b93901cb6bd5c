// Package tui provides the interactive Bubble Tea dashboard for subflow.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/config"
	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/state"
	"github.com/subflowhq/subflow/internal/stats"
	"github.com/subflowhq/subflow/internal/tui/components"
	"github.com/subflowhq/subflow/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Options configures the TUI at launch.
type Options struct {
	PreferredWorkspace string
	TrendMonths        int
	PollInterval       int // seconds between alert refreshes
}

// BootstrapMsg is sent when the initial workspace load finishes.
type BootstrapMsg struct {
	Err error
}

// RefreshMsg is sent when a background reload completes.
type RefreshMsg struct {
	Err error
}

// ActionMsg reports the outcome of a store mutation.
type ActionMsg struct {
	Notice string
	Err    error
}

// LoginMsg is sent when a login attempt completes.
type LoginMsg struct {
	Token string
	Err   error
}

type tickMsg struct{}

// App is the root Bubble Tea model.
type App struct {
	store *state.Store
	opts  Options

	// Workspace data, re-snapshotted after every load or mutation
	snap    state.Snapshot
	summary stats.Summary

	loaded     bool
	loadErr    string
	refreshing bool

	// Login gate: content is never rendered without a session
	needLogin bool
	loginForm *huh.Form
	loginVals loginValues
	loginErr  string

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	cursor    [8]int // per-tab list cursor

	trendMonths int

	// Modal entity form
	form       *huh.Form
	formVals   formValues
	formSubmit func(formValues) tea.Cmd
	formTitle  string

	confirm *confirmDialog

	notice      string
	noticeUntil time.Time

	spinner spinner.Model
	ticks   int

	settings settingsState
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
	noticeDuration   = 4 * time.Second
	storeTimeout     = 30 * time.Second
)

// Tab indices, matching components.Tabs order.
const (
	tabDashboard = iota
	tabSubscriptions
	tabClients
	tabInvoices
	tabAlerts
	tabBudget
	tabWorkspaces
	tabSettings
)

// NewApp creates a new TUI app model.
func NewApp(client *api.Client, opts Options) App {
	if opts.TrendMonths != stats.Window6Months && opts.TrendMonths != stats.Window12Months {
		opts.TrendMonths = stats.Window6Months
	}
	if opts.PollInterval < 30 {
		opts.PollInterval = 300
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		store:       state.New(client),
		opts:        opts,
		trendMonths: opts.TrendMonths,
		spinner:     sp,
		needLogin:   !client.HasToken(),
	}
	if a.needLogin {
		a.loginForm = newLoginForm(&a.loginVals)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		tickCmd(),
	}
	if a.needLogin {
		cmds = append(cmds, a.loginForm.Init())
	} else {
		cmds = append(cmds, bootstrapCmd(a.store, a.opts.PreferredWorkspace))
	}
	return tea.Batch(cmds...)
}

func (a *App) resnap() {
	a.snap = a.store.Snapshot()
	a.summary = a.snap.Summary(time.Now())
	for i := range a.cursor {
		a.cursor[i] = clamp(a.cursor[i], 0, a.listLen(i)-1)
	}
}

// listLen returns the number of navigable rows on a tab.
func (a App) listLen(tab int) int {
	switch tab {
	case tabSubscriptions:
		return len(a.snap.Subscriptions)
	case tabClients:
		return len(a.snap.Clients)
	case tabInvoices:
		return len(a.sortedInvoices())
	case tabAlerts:
		return len(a.snap.Alerts)
	case tabWorkspaces:
		return len(a.snap.Workspaces)
	case tabSettings:
		return settingsFieldCount
	default:
		return 0
	}
}

func (a *App) setNotice(s string) {
	a.notice = s
	a.noticeUntil = time.Now().Add(noticeDuration)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.loginForm != nil {
			a.loginForm = a.loginForm.WithWidth(msg.Width)
		}
		if a.form != nil {
			a.form = a.form.WithWidth(formWidth(msg.Width))
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.form != nil || a.confirm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.moveCursor(-1)
			return a, nil
		case tea.MouseButtonWheelDown:
			a.moveCursor(1)
			return a, nil
		case tea.MouseButtonLeft:
			if msg.Y <= 1 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
			return a, nil
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKeys(msg)

	case LoginMsg:
		if msg.Err != nil {
			a.loginErr = msg.Err.Error()
			a.loginVals = loginValues{}
			a.loginForm = newLoginForm(&a.loginVals)
			if a.width > 0 {
				a.loginForm = a.loginForm.WithWidth(a.width)
			}
			return a, a.loginForm.Init()
		}
		_ = config.SaveToken(msg.Token)
		a.store.Client().SetToken(msg.Token)
		a.needLogin = false
		a.loginForm = nil
		a.loginErr = ""
		return a, bootstrapCmd(a.store, a.opts.PreferredWorkspace)

	case BootstrapMsg:
		if msg.Err != nil {
			return a.handleLoadError(msg.Err)
		}
		a.loaded = true
		a.loadErr = ""
		a.resnap()
		return a, nil

	case RefreshMsg:
		a.refreshing = false
		if msg.Err != nil {
			return a.handleLoadError(msg.Err)
		}
		a.resnap()
		return a, nil

	case ActionMsg:
		a.refreshing = false
		if msg.Err != nil {
			return a.handleLoadError(msg.Err)
		}
		a.resnap()
		if msg.Notice != "" {
			a.setNotice(msg.Notice)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		a.ticks++
		cmds := []tea.Cmd{tickCmd()}

		if a.notice != "" && time.Now().After(a.noticeUntil) {
			a.notice = ""
		}

		// Periodic alert refresh; skipped while another refresh is running
		pollTicks := a.opts.PollInterval * 4 // ticks are 250ms
		if a.loaded && !a.refreshing && a.ticks >= pollTicks {
			a.ticks = 0
			a.refreshing = true
			cmds = append(cmds, refreshAlertsCmd(a.store))
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the active form (cursor blinks, etc.)
	if a.needLogin && a.loginForm != nil {
		return a.updateLoginForm(msg)
	}
	if a.form != nil {
		return a.updateEntityForm(msg)
	}

	return a, nil
}

// handleLoadError drops back to the login form on auth failures and
// surfaces everything else in the status line.
func (a App) handleLoadError(err error) (tea.Model, tea.Cmd) {
	if isUnauthorized(err) {
		a.loaded = false
		a.needLogin = true
		a.loginErr = "Session expired, sign in again"
		a.loginVals = loginValues{}
		a.loginForm = newLoginForm(&a.loginVals)
		if a.width > 0 {
			a.loginForm = a.loginForm.WithWidth(a.width)
		}
		return a, a.loginForm.Init()
	}
	if !a.loaded {
		a.loadErr = err.Error()
		return a, nil
	}
	a.setNotice("Error: " + err.Error())
	return a, nil
}

func isUnauthorized(err error) bool {
	return errors.Is(err, api.ErrUnauthorized)
}

func (a *App) moveCursor(delta int) {
	n := a.listLen(a.activeTab)
	if n == 0 {
		return
	}
	a.cursor[a.activeTab] = clamp(a.cursor[a.activeTab]+delta, 0, n-1)
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// Login form intercepts all keys until a session exists
	if a.needLogin && a.loginForm != nil {
		return a.updateLoginForm(msg)
	}

	if !a.loaded {
		if key == "q" {
			return a, tea.Quit
		}
		return a, nil
	}

	// Settings field editing captures raw input
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	// Modal layers, innermost first
	if a.confirm != nil {
		return a.updateConfirm(key)
	}
	if a.form != nil {
		if key == "esc" {
			a.form = nil
			a.formSubmit = nil
			return a, nil
		}
		return a.updateEntityForm(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	// List navigation
	switch key {
	case "j", "down":
		a.moveCursor(1)
		return a, nil
	case "k", "up":
		a.moveCursor(-1)
		return a, nil
	case "g":
		a.cursor[a.activeTab] = 0
		return a, nil
	case "G":
		a.cursor[a.activeTab] = a.listLen(a.activeTab) - 1
		if a.cursor[a.activeTab] < 0 {
			a.cursor[a.activeTab] = 0
		}
		return a, nil
	}

	// Manual refresh
	if key == "r" && !a.refreshing {
		a.refreshing = true
		return a, refreshCmd(a.store)
	}

	if key == "q" {
		return a, tea.Quit
	}

	// Tab-specific actions
	if model, cmd, handled := a.updateTabKeys(key); handled {
		return model, cmd
	}

	// Tab navigation
	switch key {
	case "left", "h":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "l":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}
	if len(key) == 1 {
		if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

// updateTabKeys dispatches action keys for the active tab. The third
// return value reports whether the key was consumed.
func (a App) updateTabKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch a.activeTab {
	case tabDashboard:
		if key == "m" {
			if a.trendMonths == stats.Window6Months {
				a.trendMonths = stats.Window12Months
			} else {
				a.trendMonths = stats.Window6Months
			}
			return a, nil, true
		}
	case tabSubscriptions:
		return a.subscriptionKeys(key)
	case tabClients:
		return a.clientKeys(key)
	case tabInvoices:
		return a.invoiceKeys(key)
	case tabAlerts:
		if key == "C" {
			a.refreshing = true
			a.setNotice("Re-running alert checks...")
			return a, recheckAlertsCmd(a.store), true
		}
	case tabBudget:
		if key == "e" || key == "n" {
			return a.openBudgetForm()
		}
	case tabWorkspaces:
		return a.workspaceKeys(key)
	case tabSettings:
		return a.settingsKeys(key)
	}
	return a, nil, false
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if a.needLogin && a.loginForm != nil {
		return a.viewLogin()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.confirm != nil {
		return a.viewConfirm()
	}

	if a.form != nil {
		return a.viewForm()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := "\n  Terminal too narrow\n\n  subflow needs at least 80 columns.\n"
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	errStyle := lipgloss.NewStyle().
		Foreground(t.Red).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ subflow"))
	b.WriteString(subtitleStyle.Render(" · Subscription Spend Tracking"))
	b.WriteString("\n\n")

	if a.loadErr != "" {
		b.WriteString(errStyle.Render("Could not load workspace"))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render(truncStr(a.loadErr, 60)))
		b.WriteString("\n\n")
		b.WriteString(subtitleStyle.Render("Press q to quit"))
	} else {
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Fetching workspace data..."))
	}

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Cyan).
		Background(t.Surface).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	renderBindings := func(b *strings.Builder, bindings []struct{ key, desc string }) {
		for _, bind := range bindings {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(padRight(bind.key, 10)))
			b.WriteString("  ")
			b.WriteString(descStyle.Render(bind.desc))
			b.WriteString("\n")
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Navigation"))
	b.WriteString("\n")
	renderBindings(&b, []struct{ key, desc string }{
		{"d s c i", "Jump to tab"},
		{"a b w x", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Navigate lists"},
		{"g G", "First / Last row"},
	})

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Actions"))
	b.WriteString("\n")
	renderBindings(&b, []struct{ key, desc string }{
		{"n", "New entry"},
		{"e", "Edit selected"},
		{"D", "Delete selected"},
		{"R", "Record renewal (subscriptions)"},
		{"C", "Re-run alert checks (alerts)"},
		{"Enter", "Switch workspace (workspaces)"},
		{"m", "Toggle trend window (dashboard)"},
		{"r", "Refresh data"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	})

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)

	info := components.StatusInfo{
		AlertCount:   len(a.snap.Alerts),
		UrgentAlerts: a.summary.UrgentAlerts,
		Refreshing:   a.refreshing,
		Notice:       a.notice,
	}
	if ws := a.activeWorkspace(); ws != nil {
		info.Workspace = ws.Name
	}
	if a.summary.Budget != nil && a.summary.Budget.MonthlyCap.Float() > 0 {
		info.HasBudget = true
		info.BudgetPct = a.summary.BudgetUsagePercent
	}
	statusBar := components.RenderStatusBar(w, info)

	headerH := lipgloss.Height(header)
	statusH := lipgloss.Height(statusBar)
	contentH := h - headerH - statusH
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabDashboard:
		content = a.renderDashboardTab(cw)
	case tabSubscriptions:
		content = a.renderSubscriptionsTab(cw, contentH)
	case tabClients:
		content = a.renderClientsTab(cw, contentH)
	case tabInvoices:
		content = a.renderInvoicesTab(cw, contentH)
	case tabAlerts:
		content = a.renderAlertsTab(cw, contentH)
	case tabBudget:
		content = a.renderBudgetTab(cw)
	case tabWorkspaces:
		content = a.renderWorkspacesTab(cw, contentH)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

func (a App) activeWorkspace() *model.Workspace {
	for i := range a.snap.Workspaces {
		if a.snap.Workspaces[i].ID == a.snap.ActiveID {
			return &a.snap.Workspaces[i]
		}
	}
	return nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func bootstrapCmd(st *state.Store, preferred string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return BootstrapMsg{Err: st.Bootstrap(ctx, preferred)}
	}
}

func refreshCmd(st *state.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return RefreshMsg{Err: st.Reload(ctx)}
	}
}

func refreshAlertsCmd(st *state.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return RefreshMsg{Err: st.RefreshAlerts(ctx)}
	}
}

func recheckAlertsCmd(st *state.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := st.RecheckAlerts(ctx); err != nil {
			return ActionMsg{Err: err}
		}
		return ActionMsg{Notice: "Alert checks complete"}
	}
}

// actionCmd wraps a store mutation in a background command.
func actionCmd(notice string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return ActionMsg{Err: err}
		}
		return ActionMsg{Notice: notice}
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color
// so gaps between cards and empty lines are filled.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 1 // leading space
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 2 // two-space separator
	}
	return -1
}
