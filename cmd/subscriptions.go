package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/cli"
	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/state"
	"github.com/subflowhq/subflow/internal/stats"

	"github.com/spf13/cobra"
)

var (
	flagSubVendor   string
	flagSubPlan     string
	flagSubAmount   float64
	flagSubCurrency string
	flagSubPeriod   string
	flagSubRenewal  string
	flagSubCategory string
	flagSubNotes    string
	flagSubTags     []string
)

var subscriptionsCmd = &cobra.Command{
	Use:     "subscriptions",
	Aliases: []string{"subs", "sub"},
	Short:   "Manage subscriptions in the active workspace",
	RunE:    runSubscriptionsList,
}

var subscriptionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscriptions with renewal status",
	RunE:  runSubscriptionsList,
}

var subscriptionsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a subscription",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubscriptionsAdd,
}

var subscriptionsEditCmd = &cobra.Command{
	Use:   "edit <subscription>",
	Short: "Edit a subscription (flags overwrite existing fields)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubscriptionsEdit,
}

var subscriptionsRenewCmd = &cobra.Command{
	Use:   "renew <subscription>",
	Short: "Record a renewal: log a paid invoice and advance the date one period",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubscriptionsRenew,
}

var subscriptionsDeleteCmd = &cobra.Command{
	Use:     "rm <subscription>",
	Aliases: []string{"delete"},
	Short:   "Delete a subscription",
	Args:    cobra.ExactArgs(1),
	RunE:    runSubscriptionsDelete,
}

var subscriptionsLinkCmd = &cobra.Command{
	Use:   "link <subscription> <client>",
	Short: "Bill a subscription to a client",
	Args:  cobra.ExactArgs(2),
	RunE:  runSubscriptionsLink,
}

var subscriptionsUnlinkCmd = &cobra.Command{
	Use:   "unlink <subscription> <client>",
	Short: "Detach a client from a subscription",
	Args:  cobra.ExactArgs(2),
	RunE:  runSubscriptionsUnlink,
}

func init() {
	for _, c := range []*cobra.Command{subscriptionsAddCmd, subscriptionsEditCmd} {
		c.Flags().StringVar(&flagSubVendor, "vendor", "", "Vendor name")
		c.Flags().StringVar(&flagSubPlan, "plan", "", "Plan or tier name")
		c.Flags().Float64Var(&flagSubAmount, "amount", 0, "Amount per billing period")
		c.Flags().StringVar(&flagSubCurrency, "currency", "", "ISO currency code (default USD)")
		c.Flags().StringVar(&flagSubPeriod, "period", "", "Billing period: monthly, quarterly, or yearly")
		c.Flags().StringVar(&flagSubRenewal, "renews", "", "Next renewal date (YYYY-MM-DD)")
		c.Flags().StringVar(&flagSubCategory, "category", "", "Spend category")
		c.Flags().StringVar(&flagSubNotes, "notes", "", "Free-form notes")
		c.Flags().StringSliceVar(&flagSubTags, "tag", nil, "Tag (repeatable)")
	}

	subscriptionsCmd.AddCommand(subscriptionsListCmd)
	subscriptionsCmd.AddCommand(subscriptionsAddCmd)
	subscriptionsCmd.AddCommand(subscriptionsEditCmd)
	subscriptionsCmd.AddCommand(subscriptionsRenewCmd)
	subscriptionsCmd.AddCommand(subscriptionsDeleteCmd)
	subscriptionsCmd.AddCommand(subscriptionsLinkCmd)
	subscriptionsCmd.AddCommand(subscriptionsUnlinkCmd)
	rootCmd.AddCommand(subscriptionsCmd)
}

func runSubscriptionsList(cmd *cobra.Command, _ []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	if snap.ActiveID == "" {
		return errNoActiveWorkspace
	}
	if len(snap.Subscriptions) == 0 {
		fmt.Println("\n  No subscriptions yet. Add one with `subflow subscriptions add <name>`.")
		return nil
	}

	now := time.Now()
	rows := make([][]string, 0, len(snap.Subscriptions))
	for _, sub := range snap.Subscriptions {
		status := stats.ClassifyRenewal(sub.NextRenewalDate.Time, now)
		linked := ""
		if clients := snap.Links[sub.ID]; len(clients) > 0 {
			names := make([]string, 0, len(clients))
			for _, c := range clients {
				names = append(names, c.Name)
			}
			linked = strings.Join(names, ", ")
		}
		rows = append(rows, []string{
			sub.Name,
			sub.Vendor,
			cli.FormatMoney(sub.Amount.Float(), sub.Currency),
			string(sub.Period.Normalize()),
			cli.FormatMoney(stats.MonthlyEquivalent(sub), sub.Currency),
			cli.RenderStatus(string(status.State), status.Label),
			cli.Truncate(linked, 24),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Name", "Vendor", "Amount", "Period", "Monthly", "Renewal", "Clients"},
		Rows:    rows,
	}))

	total := stats.TotalMonthlySpend(snap.Subscriptions)
	fmt.Printf("  Monthly equivalent total: %s\n", cli.FormatMoney(total, workspaceCurrency(snap)))
	return nil
}

func runSubscriptionsAdd(cmd *cobra.Command, args []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}
	if st.Snapshot().ActiveID == "" {
		return errNoActiveWorkspace
	}

	currency := flagSubCurrency
	if currency == "" {
		currency = "USD"
	}
	period := flagSubPeriod
	if period == "" {
		period = string(model.PeriodMonthly)
	}

	sub, err := st.CreateSubscription(cmd.Context(), api.SubscriptionInput{
		Name:            args[0],
		Vendor:          flagSubVendor,
		Plan:            flagSubPlan,
		Amount:          flagSubAmount,
		Currency:        currency,
		Period:          period,
		NextRenewalDate: flagSubRenewal,
		Category:        flagSubCategory,
		Notes:           flagSubNotes,
		Tags:            flagSubTags,
	})
	if err != nil {
		return err
	}

	cacheSnapshot(st)
	fmt.Printf("  Added %q, %s %s\n", sub.Name,
		cli.FormatMoney(sub.Amount.Float(), sub.Currency), sub.Period.Normalize())
	return nil
}

func runSubscriptionsEdit(cmd *cobra.Command, args []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}

	target, err := findSubscription(st.Snapshot(), args[0])
	if err != nil {
		return err
	}

	// Start from the current record so unset flags keep their values.
	in := api.SubscriptionInput{
		WorkspaceID: target.WorkspaceID.ID,
		Name:        target.Name,
		Vendor:      target.Vendor,
		Plan:        target.Plan,
		Amount:      target.Amount.Float(),
		Currency:    target.Currency,
		Period:      string(target.Period),
		Category:    target.Category,
		Notes:       target.Notes,
		Tags:        target.Tags,
	}
	if !target.NextRenewalDate.IsZero() {
		in.NextRenewalDate = target.NextRenewalDate.Format("2006-01-02")
	}

	flags := cmd.Flags()
	if flags.Changed("vendor") {
		in.Vendor = flagSubVendor
	}
	if flags.Changed("plan") {
		in.Plan = flagSubPlan
	}
	if flags.Changed("amount") {
		in.Amount = flagSubAmount
	}
	if flags.Changed("currency") {
		in.Currency = flagSubCurrency
	}
	if flags.Changed("period") {
		in.Period = flagSubPeriod
	}
	if flags.Changed("renews") {
		in.NextRenewalDate = flagSubRenewal
	}
	if flags.Changed("category") {
		in.Category = flagSubCategory
	}
	if flags.Changed("notes") {
		in.Notes = flagSubNotes
	}
	if flags.Changed("tag") {
		in.Tags = flagSubTags
	}

	sub, err := st.UpdateSubscription(cmd.Context(), target.ID, in)
	if err != nil {
		return err
	}

	cacheSnapshot(st)
	fmt.Printf("  Updated %q\n", sub.Name)
	return nil
}

func runSubscriptionsRenew(cmd *cobra.Command, args []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}

	target, err := findSubscription(st.Snapshot(), args[0])
	if err != nil {
		return err
	}

	sub, err := st.QuickRenewal(cmd.Context(), target.ID)
	if err != nil {
		return err
	}

	cacheSnapshot(st)
	fmt.Printf("  Renewed %q, next renewal %s\n", sub.Name,
		cli.FormatDate(sub.NextRenewalDate.Time))
	return nil
}

func runSubscriptionsDelete(cmd *cobra.Command, args []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}

	target, err := findSubscription(st.Snapshot(), args[0])
	if err != nil {
		return err
	}

	ok, err := confirm(fmt.Sprintf("Delete subscription %q and its invoices?", target.Name))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("  Aborted.")
		return nil
	}

	if err := st.DeleteSubscription(cmd.Context(), target.ID); err != nil {
		return err
	}

	cacheSnapshot(st)
	fmt.Printf("  Deleted %q\n", target.Name)
	return nil
}

func runSubscriptionsLink(cmd *cobra.Command, args []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}
	snap := st.Snapshot()

	sub, err := findSubscription(snap, args[0])
	if err != nil {
		return err
	}
	cl, err := findClient(snap, args[1])
	if err != nil {
		return err
	}

	if err := st.LinkClient(cmd.Context(), sub.ID, cl.ID); err != nil {
		return err
	}
	fmt.Printf("  Linked %q to %q\n", cl.Name, sub.Name)
	return nil
}

func runSubscriptionsUnlink(cmd *cobra.Command, args []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}
	snap := st.Snapshot()

	sub, err := findSubscription(snap, args[0])
	if err != nil {
		return err
	}
	cl, err := findClient(snap, args[1])
	if err != nil {
		return err
	}

	if err := st.UnlinkClient(cmd.Context(), sub.ID, cl.ID); err != nil {
		return err
	}
	fmt.Printf("  Unlinked %q from %q\n", cl.Name, sub.Name)
	return nil
}

// findSubscription matches by ID, exact name, then unique name prefix.
func findSubscription(snap state.Snapshot, ref string) (*model.Subscription, error) {
	for i := range snap.Subscriptions {
		if snap.Subscriptions[i].ID == ref || snap.Subscriptions[i].Name == ref {
			return &snap.Subscriptions[i], nil
		}
	}

	var match *model.Subscription
	lower := strings.ToLower(ref)
	for i := range snap.Subscriptions {
		if strings.HasPrefix(strings.ToLower(snap.Subscriptions[i].Name), lower) {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one subscription", ref)
			}
			match = &snap.Subscriptions[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no subscription matching %q", ref)
	}
	return match, nil
}

// findClient matches by ID, exact name, then unique name prefix.
func findClient(snap state.Snapshot, ref string) (*model.Client, error) {
	for i := range snap.Clients {
		if snap.Clients[i].ID == ref || snap.Clients[i].Name == ref {
			return &snap.Clients[i], nil
		}
	}

	var match *model.Client
	lower := strings.ToLower(ref)
	for i := range snap.Clients {
		if strings.HasPrefix(strings.ToLower(snap.Clients[i].Name), lower) {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one client", ref)
			}
			match = &snap.Clients[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no client matching %q", ref)
	}
	return match, nil
}
