package cmd

import (
	"fmt"
	"time"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/cli"

	"github.com/spf13/cobra"
)

var (
	flagBudgetCap       float64
	flagBudgetThreshold float64
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Workspace budget cap and usage",
	RunE:  runBudgetShow,
}

var budgetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show budget usage for the active workspace",
	RunE:  runBudgetShow,
}

var budgetSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the monthly cap and alert threshold",
	RunE:  runBudgetSet,
}

func init() {
	budgetSetCmd.Flags().Float64Var(&flagBudgetCap, "cap", 0, "Monthly spending cap")
	budgetSetCmd.Flags().Float64Var(&flagBudgetThreshold, "threshold", 80, "Alert threshold (% of cap)")

	budgetCmd.AddCommand(budgetShowCmd)
	budgetCmd.AddCommand(budgetSetCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudgetShow(cmd *cobra.Command, _ []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	if snap.ActiveID == "" {
		return errNoActiveWorkspace
	}

	summary := snap.Summary(time.Now())
	currency := workspaceCurrency(snap)

	fmt.Println()
	fmt.Printf("  Monthly spend: %s\n", cli.FormatMoney(summary.TotalMonthlySpend, currency))

	if snap.Budget == nil || snap.Budget.MonthlyCap.Float() <= 0 {
		fmt.Println("  No budget cap set. Set one with `subflow budget set --cap <amount>`.")
		return nil
	}

	cap := snap.Budget.MonthlyCap.Float()
	fmt.Printf("  Budget cap:    %s\n", cli.FormatMoney(cap, currency))
	fmt.Printf("  Usage:         %s %s\n",
		cli.RenderProgressBar(int(summary.TotalMonthlySpend), int(cap), 30),
		cli.FormatPercent(summary.BudgetUsagePercent))

	threshold := snap.Budget.AlertThreshold.Float()
	if threshold > 0 {
		fmt.Printf("  Alerts at:     %s of cap\n", cli.FormatPercent(threshold))
		if summary.BudgetUsagePercent >= threshold {
			fmt.Println()
			fmt.Printf("  %s\n", cli.RenderStatus("urgent", "Spend is over the alert threshold."))
		}
	}
	return nil
}

func runBudgetSet(cmd *cobra.Command, _ []string) error {
	if flagBudgetCap <= 0 {
		return fmt.Errorf("a positive --cap is required")
	}

	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}
	if st.Snapshot().ActiveID == "" {
		return errNoActiveWorkspace
	}

	b, err := st.SetBudget(cmd.Context(), api.BudgetInput{
		MonthlyCap:     flagBudgetCap,
		AlertThreshold: flagBudgetThreshold,
	})
	if err != nil {
		return err
	}

	cacheSnapshot(st)
	fmt.Printf("  Budget cap set to %s (alerts at %s)\n",
		cli.FormatMoney(b.MonthlyCap.Float(), workspaceCurrency(st.Snapshot())),
		cli.FormatPercent(b.AlertThreshold.Float()))
	return nil
}
