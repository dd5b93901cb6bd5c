package cmd

import (
	"fmt"
	"time"

	"github.com/subflowhq/subflow/internal/cli"
	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/stats"

	"github.com/spf13/cobra"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Renewal and budget alerts",
	RunE:  runAlertsList,
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts for the active workspace",
	RunE:  runAlertsList,
}

var alertsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Ask the server to re-run its alert checks, then list",
	RunE:  runAlertsCheck,
}

func init() {
	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsCheckCmd)
	rootCmd.AddCommand(alertsCmd)
}

func runAlertsList(cmd *cobra.Command, _ []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}
	return printAlerts(st.Snapshot().Alerts, st.Snapshot().Subscriptions)
}

func runAlertsCheck(cmd *cobra.Command, _ []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}
	if st.Snapshot().ActiveID == "" {
		return errNoActiveWorkspace
	}

	if !flagQuiet {
		fmt.Fprintln(cmd.ErrOrStderr(), "  Rechecking alerts...")
	}
	if err := st.RecheckAlerts(cmd.Context()); err != nil {
		return err
	}
	snap := st.Snapshot()
	return printAlerts(snap.Alerts, snap.Subscriptions)
}

func printAlerts(alerts []model.Alert, subs []model.Subscription) error {
	if len(alerts) == 0 {
		fmt.Println("\n  No alerts. All quiet.")
		return nil
	}

	subNames := make(map[string]string, len(subs))
	for _, sub := range subs {
		subNames[sub.ID] = sub.Name
	}

	now := time.Now()
	sorted := stats.SortAlerts(alerts, now)

	rows := make([][]string, 0, len(sorted))
	for _, a := range sorted {
		days := stats.DaysUntil(a.DueDate.Time, now)
		var due string
		switch {
		case days < 0:
			due = cli.RenderStatus("overdue", fmt.Sprintf("%d days overdue", -days))
		case days == 0:
			due = cli.RenderStatus("urgent", "due today")
		case days <= 3:
			due = cli.RenderStatus("urgent", fmt.Sprintf("in %d days", days))
		default:
			due = fmt.Sprintf("in %d days", days)
		}

		subject := subNames[a.SubscriptionID.ID]
		if a.Type == model.AlertBudget && subject == "" {
			subject = "Workspace budget"
		}

		rows = append(rows, []string{a.Type, subject, due, cli.FormatDate(a.DueDate.Time)})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Type", "Subject", "Due", "Date"},
		Rows:    rows,
	}))
	return nil
}
