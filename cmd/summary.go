package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/subflowhq/subflow/internal/cli"
	"github.com/subflowhq/subflow/internal/state"
	"github.com/subflowhq/subflow/internal/stats"
	"github.com/subflowhq/subflow/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagSummaryOffline bool
	flagSummaryMonths  int
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Workspace spend summary with trend and alerts",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().BoolVar(&flagSummaryOffline, "offline", false, "Render from the local cache without hitting the API")
	summaryCmd.Flags().IntVarP(&flagSummaryMonths, "months", "m", 0, "Trend window in months (6 or 12)")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()

	months := flagSummaryMonths
	if months != stats.Window6Months && months != stats.Window12Months {
		months = cfg.General.TrendMonths
	}

	var (
		snap      state.Snapshot
		fetchedAt time.Time
	)
	if flagSummaryOffline {
		var err error
		snap, fetchedAt, err = loadCachedSnapshot(cfg.General.DefaultWorkspace)
		if err != nil {
			return err
		}
	} else {
		st, err := bootstrapStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		snap = st.Snapshot()
		cacheSnapshot(st)
	}

	if snap.ActiveID == "" {
		fmt.Println("\n  No workspaces yet.")
		fmt.Println("  Create one with `subflow workspaces create <name>`.")
		return nil
	}

	now := time.Now()
	summary := snap.Summary(now)
	currency := workspaceCurrency(snap)

	workspaceName := snap.ActiveID
	for _, ws := range snap.Workspaces {
		if ws.ID == snap.ActiveID {
			workspaceName = ws.Name
		}
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SUBFLOW  %s", workspaceName)))
	fmt.Println()

	rows := [][]string{
		{"Monthly Spend", cli.FormatMoney(summary.TotalMonthlySpend, currency)},
		{"Subscriptions", cli.FormatNumber(int64(summary.ActiveSubscriptions))},
		{"Clients", cli.FormatNumber(int64(summary.TotalClients))},
		{"Invoices", cli.FormatNumber(int64(summary.TotalInvoices))},
		{"---"},
		{"Renewals due (7d)", cli.FormatNumber(int64(summary.UpcomingRenewals))},
		{"Urgent alerts", cli.FormatNumber(int64(summary.UrgentAlerts))},
	}
	if summary.Budget != nil && summary.Budget.MonthlyCap.Float() > 0 {
		rows = append(rows,
			[]string{"---"},
			[]string{"Budget cap", cli.FormatMoney(summary.Budget.MonthlyCap.Float(), currency)},
			[]string{"Budget used", cli.FormatPercent(summary.BudgetUsagePercent)},
		)
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	// Spending trend sparkline
	trend := stats.SpendingTrend(snap.Subscriptions, months, now)
	if len(trend) > 0 {
		values := make([]float64, len(trend))
		for i, p := range trend {
			values[i] = p.Amount
		}
		fmt.Printf("\n  Trend (%dmo)  %s  %s → %s\n",
			months,
			cli.RenderSparkline(values),
			trend[0].Label,
			trend[len(trend)-1].Label,
		)
	}

	// Category split
	split := stats.CategorySplit(snap.Subscriptions)
	if len(split) > 0 {
		catRows := make([][]string, 0, len(split))
		for _, slice := range split {
			catRows = append(catRows, []string{
				slice.Name,
				cli.FormatMoney(slice.Value, currency),
				cli.FormatPercent(slice.Shares * 100),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "By Category",
			Headers: []string{"Category", "Monthly", "Share"},
			Rows:    catRows,
		}))
	}

	if flagSummaryOffline && !fetchedAt.IsZero() {
		fmt.Printf("\n  Cached data from %s\n", fetchedAt.Local().Format("Jan 2 15:04"))
	}
	return nil
}

// loadCachedSnapshot reads the last fetched workspace from the SQLite
// cache, honoring --workspace by ID or name.
func loadCachedSnapshot(defaultWorkspace string) (state.Snapshot, time.Time, error) {
	cache, err := store.Open(store.DefaultPath())
	if err != nil {
		return state.Snapshot{}, time.Time{}, fmt.Errorf("opening cache: %w", err)
	}
	defer func() { _ = cache.Close() }()

	cached, err := cache.CachedWorkspaces()
	if err != nil {
		return state.Snapshot{}, time.Time{}, err
	}
	if len(cached) == 0 {
		return state.Snapshot{}, time.Time{}, errors.New("nothing cached yet, run `subflow summary` online first")
	}

	want := flagWorkspace
	if want == "" {
		want = defaultWorkspace
	}
	target := cached[0].ID
	for _, ws := range cached {
		if ws.ID == want || ws.Name == want {
			target = ws.ID
			break
		}
	}

	snap, fetchedAt, err := cache.LoadWorkspace(target)
	if err != nil {
		return state.Snapshot{}, time.Time{}, err
	}
	snap.ActiveID = target
	return snap, fetchedAt, nil
}

// workspaceCurrency picks the display currency: the first subscription's,
// else USD. The dashboard assumes one currency per workspace.
func workspaceCurrency(snap state.Snapshot) string {
	for _, sub := range snap.Subscriptions {
		if sub.Currency != "" {
			return sub.Currency
		}
	}
	return "USD"
}
