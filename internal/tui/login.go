package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// loginValues backs the login form fields.
type loginValues struct {
	Email    string
	Password string
}

func newLoginForm(vals *loginValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&vals.Email).
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return errors.New("enter a valid email")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&vals.Password).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("password is required")
					}
					return nil
				}),
		).Title("Sign in to SubFlow"),
	)
}

func (a App) updateLoginForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.loginForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.loginForm = f
	}

	if a.loginForm.State == huh.StateCompleted {
		email := strings.TrimSpace(a.loginVals.Email)
		password := a.loginVals.Password
		a.loginErr = ""
		return a, loginCmd(a.store.Client(), email, password)
	}

	if a.loginForm.State == huh.StateAborted {
		return a, tea.Quit
	}

	return a, cmd
}

func loginCmd(client *api.Client, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		resp, err := client.Login(ctx, email, password)
		if err != nil {
			return LoginMsg{Err: err}
		}
		if resp.Token == "" {
			return LoginMsg{Err: errors.New("server returned no session token")}
		}
		return LoginMsg{Token: resp.Token}
	}
}

func (a App) viewLogin() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted)

	errStyle := lipgloss.NewStyle().
		Foreground(t.Red)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ subflow"))
	b.WriteString(subtitleStyle.Render(" · Subscription Spend Tracking"))
	b.WriteString("\n\n")
	if a.loginErr != "" {
		b.WriteString(errStyle.Render(truncStr(a.loginErr, 60)))
		b.WriteString("\n\n")
	}
	b.WriteString(a.loginForm.View())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, b.String(),
		lipgloss.WithWhitespaceBackground(t.Background))
}
