package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/cli"
	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/state"
	"github.com/subflowhq/subflow/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (a App) selectedWorkspace() *model.Workspace {
	wss := a.snap.Workspaces
	idx := a.cursor[tabWorkspaces]
	if idx < 0 || idx >= len(wss) {
		return nil
	}
	return &wss[idx]
}

func workspaceCapInput(v formValues) api.WorkspaceInput {
	in := api.WorkspaceInput{Name: strings.TrimSpace(v.Name)}
	if strings.TrimSpace(v.Cap) != "" {
		capAmount := parseAmount(v.Cap)
		in.MonthlyCap = &capAmount
	}
	return in
}

func (a App) workspaceKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "enter":
		ws := a.selectedWorkspace()
		if ws == nil || ws.ID == a.snap.ActiveID {
			return a, nil, true
		}
		st := a.store
		wsID := ws.ID
		name := ws.Name
		a.refreshing = true
		a.setNotice("Switching to " + name + "...")
		return a, switchWorkspaceCmd(st, wsID, name), true

	case "n":
		a.formVals = formValues{}
		st := a.store
		return a.openForm("New workspace", newWorkspaceForm(&a.formVals, "New workspace"),
			func(v formValues) tea.Cmd {
				return actionCmd("Workspace created", func(ctx context.Context) error {
					_, err := st.CreateWorkspace(ctx, workspaceCapInput(v))
					return err
				})
			})

	case "e":
		ws := a.selectedWorkspace()
		if ws == nil {
			return a, nil, true
		}
		a.formVals = formValues{Name: ws.Name}
		if ws.MonthlyCap.Float() > 0 {
			a.formVals.Cap = strings.TrimSpace(fmt.Sprintf("%g", ws.MonthlyCap.Float()))
		}
		st := a.store
		wsID := ws.ID
		return a.openForm("Edit workspace", newWorkspaceForm(&a.formVals, "Edit "+ws.Name),
			func(v formValues) tea.Cmd {
				return actionCmd("Workspace updated", func(ctx context.Context) error {
					_, err := st.UpdateWorkspace(ctx, wsID, workspaceCapInput(v))
					return err
				})
			})

	case "D":
		ws := a.selectedWorkspace()
		if ws == nil {
			return a, nil, true
		}
		st := a.store
		wsID := ws.ID
		a.confirm = &confirmDialog{
			title:   "Delete workspace",
			message: fmt.Sprintf("Delete %s and everything in it? This cannot be undone.", ws.Name),
			action: actionCmd("Workspace deleted", func(ctx context.Context) error {
				return st.DeleteWorkspace(ctx, wsID)
			}),
		}
		return a, nil, true
	}
	return a, nil, false
}

// switchWorkspaceCmd activates another workspace. A slow switch that
// loses the race to a newer one is dropped by the store, so the
// completion message only re-snapshots.
func switchWorkspaceCmd(st *state.Store, workspaceID, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := st.SelectWorkspace(ctx, workspaceID); err != nil {
			return ActionMsg{Err: err}
		}
		return ActionMsg{Notice: "Switched to " + name}
	}
}

func (a App) renderWorkspacesTab(cw, contentH int) string {
	t := theme.Active
	wss := a.snap.Workspaces

	if len(wss) == 0 {
		return a.renderEmptyTab("No workspaces", "Press n to create one")
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover)
	activeStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-3s %-28s %-14s %s",
		"", "NAME", "MONTHLY CAP", "CREATED")))
	b.WriteString("\n")

	visible := contentH - 4
	if visible < 1 {
		visible = 1
	}
	start := 0
	cursor := a.cursor[tabWorkspaces]
	if cursor >= visible {
		start = cursor - visible + 1
	}

	for i := start; i < len(wss) && i < start+visible; i++ {
		ws := wss[i]
		marker := "   "
		if ws.ID == a.snap.ActiveID {
			marker = " ● "
		}
		capText := "—"
		if ws.MonthlyCap.Float() > 0 {
			capText = cli.FormatMoney(ws.MonthlyCap.Float(), currencyOf(a.snap))
		}
		line := fmt.Sprintf("%-28s %-14s %s",
			truncStr(ws.Name, 28), capText, cli.FormatDate(ws.CreatedAt.Time))

		switch {
		case i == cursor:
			b.WriteString(selStyle.Render("▸ " + marker + line))
		case ws.ID == a.snap.ActiveID:
			b.WriteString(activeStyle.Render("  " + marker + line))
		default:
			b.WriteString(rowStyle.Render("  " + marker + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d workspaces · [Enter] switch [n]ew [e]dit [D]elete", len(wss))))

	return b.String()
}
