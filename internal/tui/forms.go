package tui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// formValues backs every entity form; each form uses the fields it needs.
type formValues struct {
	Name     string
	Vendor   string
	Plan     string
	Amount   string
	Currency string
	Period   string
	Renewal  string
	Category string
	Notes    string

	Contact string

	Date           string
	Status         string
	SubscriptionID string

	Cap       string
	Threshold string
}

func formWidth(termWidth int) int {
	w := termWidth - 8
	if w > 72 {
		w = 72
	}
	if w < 40 {
		w = 40
	}
	return w
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func validateAmount(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("enter a number")
	}
	if v < 0 {
		return errors.New("amount cannot be negative")
	}
	return nil
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func validateDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("date is required")
	}
	return validateOptionalDate(s)
}

func parseAmount(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func newSubscriptionForm(vals *formValues, title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&vals.Name).Validate(validateRequired("name")),
			huh.NewInput().Title("Vendor").Value(&vals.Vendor),
			huh.NewInput().Title("Plan").Value(&vals.Plan),
			huh.NewInput().Title("Amount").Value(&vals.Amount).Validate(validateAmount),
			huh.NewInput().Title("Currency").Value(&vals.Currency).Validate(validateRequired("currency")),
			huh.NewSelect[string]().
				Title("Billing period").
				Options(huh.NewOptions(
					string(model.PeriodMonthly),
					string(model.PeriodQuarterly),
					string(model.PeriodYearly),
				)...).
				Value(&vals.Period),
			huh.NewInput().Title("Next renewal (YYYY-MM-DD)").Value(&vals.Renewal).Validate(validateOptionalDate),
			huh.NewInput().Title("Category").Value(&vals.Category),
			huh.NewInput().Title("Notes").Value(&vals.Notes),
		).Title(title),
	)
}

func newClientForm(vals *formValues, title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&vals.Name).Validate(validateRequired("name")),
			huh.NewInput().Title("Contact").Value(&vals.Contact),
			huh.NewInput().Title("Notes").Value(&vals.Notes),
		).Title(title),
	)
}

func newInvoiceForm(vals *formValues, subs []model.Subscription, title string) *huh.Form {
	fields := []huh.Field{}
	if len(subs) > 0 && vals.SubscriptionID == "" {
		opts := make([]huh.Option[string], len(subs))
		for i, s := range subs {
			opts[i] = huh.NewOption(s.Name, s.ID)
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Subscription").
			Options(opts...).
			Value(&vals.SubscriptionID))
	}
	fields = append(fields,
		huh.NewInput().Title("Amount").Value(&vals.Amount).Validate(validateAmount),
		huh.NewInput().Title("Invoice date (YYYY-MM-DD)").Value(&vals.Date).Validate(validateDate),
		huh.NewSelect[string]().
			Title("Status").
			Options(huh.NewOptions(model.InvoicePending, model.InvoicePaid, model.InvoiceOverdue, model.InvoiceVoid)...).
			Value(&vals.Status),
	)
	return huh.NewForm(huh.NewGroup(fields...).Title(title))
}

func newWorkspaceForm(vals *formValues, title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&vals.Name).Validate(validateRequired("name")),
			huh.NewInput().
				Title("Monthly cap (blank for none)").
				Value(&vals.Cap).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					return validateAmount(s)
				}),
		).Title(title),
	)
}

func newBudgetForm(vals *formValues, title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Monthly cap").Value(&vals.Cap).Validate(validateAmount),
			huh.NewInput().
				Title("Alert threshold (%)").
				Value(&vals.Threshold).
				Validate(func(s string) error {
					v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
					if err != nil {
						return errors.New("enter a number")
					}
					if v <= 0 || v > 100 {
						return errors.New("use a percentage between 1 and 100")
					}
					return nil
				}),
		).Title(title),
	)
}

// openForm installs a modal form; submit is invoked with the final values
// when the form completes.
func (a App) openForm(title string, form *huh.Form, submit func(formValues) tea.Cmd) (tea.Model, tea.Cmd, bool) {
	if a.width > 0 {
		form = form.WithWidth(formWidth(a.width))
	}
	a.form = form
	a.formTitle = title
	a.formSubmit = submit
	return a, form.Init(), true
}

func (a App) updateEntityForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	if a.form.State == huh.StateCompleted {
		submit := a.formSubmit
		vals := a.formVals
		a.form = nil
		a.formSubmit = nil
		if submit == nil {
			return a, nil
		}
		a.refreshing = true
		return a, submit(vals)
	}

	if a.form.State == huh.StateAborted {
		a.form = nil
		a.formSubmit = nil
		return a, nil
	}

	return a, cmd
}

func (a App) viewForm() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 2)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	hintStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render(a.formTitle))
	b.WriteString("\n\n")
	b.WriteString(a.form.View())
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Esc to cancel"))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Confirm dialog ─────────────────────────────────────────────

// confirmDialog defers a destructive action until the user confirms it.
type confirmDialog struct {
	title   string
	message string
	action  tea.Cmd
}

func (a App) updateConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y", "enter":
		action := a.confirm.action
		a.confirm = nil
		a.refreshing = true
		return a, action
	case "n", "N", "esc", "q":
		a.confirm = nil
		return a, nil
	}
	return a, nil
}

func (a App) viewConfirm() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Red).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.Red).
		Background(t.Surface).
		Bold(true)

	msgStyle := lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.Surface)

	hintStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render(a.confirm.title))
	b.WriteString("\n\n")
	b.WriteString(msgStyle.Render(a.confirm.message))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("[y] confirm   [n] cancel"))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}
