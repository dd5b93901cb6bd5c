package cmd

import (
	"fmt"
	"strings"

	"github.com/subflowhq/subflow/internal/cli"
	"github.com/subflowhq/subflow/internal/state"

	"github.com/spf13/cobra"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "SubFlow pricing plans and billing",
	RunE:  runPlansList,
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available plans and the current one",
	RunE:  runPlansList,
}

var plansSelectCmd = &cobra.Command{
	Use:   "select <plan>",
	Short: "Subscribe to a plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlansSelect,
}

var plansConfirmCmd = &cobra.Command{
	Use:   "confirm <session-id>",
	Short: "Confirm payment after returning from checkout",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlansConfirm,
}

func init() {
	plansCmd.AddCommand(plansListCmd)
	plansCmd.AddCommand(plansSelectCmd)
	plansCmd.AddCommand(plansConfirmCmd)
	rootCmd.AddCommand(plansCmd)
}

func runPlansList(cmd *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()
	client, err := requireAuth(cfg)
	if err != nil {
		return err
	}

	plans, err := client.Plans(cmd.Context())
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Println("\n  No plans published.")
		return nil
	}

	currentID := ""
	if mine, err := client.MyPlan(cmd.Context()); err == nil && mine != nil {
		currentID = mine.PlanID.ID
	}

	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		marker := ""
		if p.ID == currentID {
			marker = "current"
		}
		rows = append(rows, []string{
			p.Name,
			cli.FormatMoney(p.Price.Float(), "USD"),
			p.Interval,
			cli.Truncate(strings.Join(p.Features, ", "), 40),
			marker,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Plan", "Price", "Interval", "Features", ""},
		Rows:    rows,
	}))
	return nil
}

func runPlansSelect(cmd *cobra.Command, args []string) error {
	cfg := loadConfigOrDefault()
	client, err := requireAuth(cfg)
	if err != nil {
		return err
	}

	plans, err := client.Plans(cmd.Context())
	if err != nil {
		return err
	}

	planID := ""
	planName := args[0]
	for _, p := range plans {
		if p.ID == args[0] || strings.EqualFold(p.Name, args[0]) {
			planID = p.ID
			planName = p.Name
			break
		}
	}
	if planID == "" {
		return fmt.Errorf("no plan matching %q", args[0])
	}

	st := state.New(client)
	checkoutURL, err := st.ChoosePlan(cmd.Context(), planID)
	if err != nil {
		return err
	}

	if checkoutURL != "" {
		fmt.Println("  Finish checkout in your browser:")
		fmt.Printf("    %s\n", checkoutURL)
		fmt.Println("  Then run `subflow plans confirm <session-id>` with the id from the return URL.")
		return nil
	}

	fmt.Printf("  Subscribed to the %s plan.\n", planName)
	return nil
}

func runPlansConfirm(cmd *cobra.Command, args []string) error {
	cfg := loadConfigOrDefault()
	client, err := requireAuth(cfg)
	if err != nil {
		return err
	}

	st := state.New(client)
	if err := st.ConfirmPayment(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Println("  Payment confirmed. Plan is active.")
	return nil
}
