package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/tui/components"
	"github.com/subflowhq/subflow/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (a App) selectedClient() *model.Client {
	clients := a.snap.Clients
	idx := a.cursor[tabClients]
	if idx < 0 || idx >= len(clients) {
		return nil
	}
	return &clients[idx]
}

func (a App) clientKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "n":
		a.formVals = formValues{}
		st := a.store
		wsID := a.snap.ActiveID
		return a.openForm("New client", newClientForm(&a.formVals, "New client"),
			func(v formValues) tea.Cmd {
				return actionCmd("Client created", func(ctx context.Context) error {
					_, err := st.CreateClient(ctx, api.ClientInput{
						WorkspaceID: wsID,
						Name:        strings.TrimSpace(v.Name),
						Contact:     strings.TrimSpace(v.Contact),
						Notes:       strings.TrimSpace(v.Notes),
					})
					return err
				})
			})

	case "e":
		client := a.selectedClient()
		if client == nil {
			return a, nil, true
		}
		a.formVals = formValues{
			Name:    client.Name,
			Contact: client.Contact,
			Notes:   client.Notes,
		}
		st := a.store
		clientID := client.ID
		return a.openForm("Edit client", newClientForm(&a.formVals, "Edit "+client.Name),
			func(v formValues) tea.Cmd {
				return actionCmd("Client updated", func(ctx context.Context) error {
					_, err := st.UpdateClient(ctx, clientID, api.ClientInput{
						Name:    strings.TrimSpace(v.Name),
						Contact: strings.TrimSpace(v.Contact),
						Notes:   strings.TrimSpace(v.Notes),
					})
					return err
				})
			})

	case "D":
		client := a.selectedClient()
		if client == nil {
			return a, nil, true
		}
		st := a.store
		clientID := client.ID
		a.confirm = &confirmDialog{
			title:   "Delete client",
			message: fmt.Sprintf("Delete %s? Subscription links to this client are removed.", client.Name),
			action: actionCmd("Client deleted", func(ctx context.Context) error {
				return st.DeleteClient(ctx, clientID)
			}),
		}
		return a, nil, true
	}
	return a, nil, false
}

// linkCount counts how many subscriptions a client is linked to.
func (a App) linkCount(clientID string) int {
	n := 0
	for _, linked := range a.snap.Links {
		for _, c := range linked {
			if c.ID == clientID {
				n++
				break
			}
		}
	}
	return n
}

func (a App) renderClientsTab(cw, contentH int) string {
	t := theme.Active
	clients := a.snap.Clients

	if len(clients) == 0 {
		return a.renderEmptyTab("No clients yet", "Press n to add the first one")
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	inner := components.CardInnerWidth(cw)
	nameW := inner / 4
	if nameW < 16 {
		nameW = 16
	}
	contactW := inner / 4
	if contactW < 16 {
		contactW = 16
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-*s %-*s %-13s %s",
		nameW, "NAME", contactW, "CONTACT", "SUBSCRIPTIONS", "NOTES")))
	b.WriteString("\n")

	visible := contentH - 4
	if visible < 1 {
		visible = 1
	}
	start := 0
	cursor := a.cursor[tabClients]
	if cursor >= visible {
		start = cursor - visible + 1
	}

	for i := start; i < len(clients) && i < start+visible; i++ {
		c := clients[i]
		line := fmt.Sprintf("%-*s %-*s %-13d %s",
			nameW, truncStr(c.Name, nameW),
			contactW, truncStr(c.Contact, contactW),
			a.linkCount(c.ID),
			truncStr(c.Notes, 30))

		if i == cursor {
			b.WriteString(selStyle.Render("▸ " + line))
		} else {
			b.WriteString(rowStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d clients · [n]ew [e]dit [D]elete", len(clients))))

	return b.String()
}
