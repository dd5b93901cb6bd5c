package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/cli"
	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/state"

	"github.com/spf13/cobra"
)

var (
	flagInvoiceAmount float64
	flagInvoiceDate   string
	flagInvoiceStatus string
	flagInvoiceFile   string
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Manage invoices",
	RunE:  runInvoicesList,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list [subscription]",
	Short: "List invoices, optionally for one subscription",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInvoicesList,
}

var invoicesAddCmd = &cobra.Command{
	Use:   "add <subscription>",
	Short: "Record an invoice, optionally uploading the document",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoicesAdd,
}

var invoicesEditCmd = &cobra.Command{
	Use:   "edit <invoice-id>",
	Short: "Edit an invoice's amount, date, or status",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoicesEdit,
}

var invoicesDeleteCmd = &cobra.Command{
	Use:     "rm <invoice-id>",
	Aliases: []string{"delete"},
	Short:   "Delete an invoice",
	Args:    cobra.ExactArgs(1),
	RunE:    runInvoicesDelete,
}

func init() {
	for _, c := range []*cobra.Command{invoicesAddCmd, invoicesEditCmd} {
		c.Flags().Float64Var(&flagInvoiceAmount, "amount", 0, "Invoice amount")
		c.Flags().StringVar(&flagInvoiceDate, "date", "", "Invoice date (YYYY-MM-DD)")
		c.Flags().StringVar(&flagInvoiceStatus, "status", "", "Status: pending, paid, overdue, or void")
	}
	invoicesAddCmd.Flags().StringVar(&flagInvoiceFile, "file", "", "Invoice document to upload")

	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesAddCmd)
	invoicesCmd.AddCommand(invoicesEditCmd)
	invoicesCmd.AddCommand(invoicesDeleteCmd)
	rootCmd.AddCommand(invoicesCmd)
}

func runInvoicesList(cmd *cobra.Command, args []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	if snap.ActiveID == "" {
		return errNoActiveWorkspace
	}

	subNames := make(map[string]string, len(snap.Subscriptions))
	for _, sub := range snap.Subscriptions {
		subNames[sub.ID] = sub.Name
	}

	var invoices []model.Invoice
	if len(args) == 1 {
		sub, err := findSubscription(snap, args[0])
		if err != nil {
			return err
		}
		invoices = snap.Invoices[sub.ID]
	} else {
		invoices = snap.AllInvoices()
	}

	if len(invoices) == 0 {
		fmt.Println("\n  No invoices recorded.")
		return nil
	}

	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].InvoiceDate.After(invoices[j].InvoiceDate.Time)
	})

	rows := make([][]string, 0, len(invoices))
	for _, inv := range invoices {
		doc := ""
		if inv.FileURL != "" {
			doc = "✓"
		}
		rows = append(rows, []string{
			cli.FormatDate(inv.InvoiceDate.Time),
			subNames[inv.SubscriptionID.ID],
			cli.FormatMoney(inv.Amount.Float(), workspaceCurrency(snap)),
			cli.RenderStatus(inv.Status, inv.Status),
			inv.Source,
			doc,
			inv.ID,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Subscription", "Amount", "Status", "Source", "Doc", "ID"},
		Rows:    rows,
	}))
	return nil
}

func runInvoicesAdd(cmd *cobra.Command, args []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}

	sub, err := findSubscription(st.Snapshot(), args[0])
	if err != nil {
		return err
	}

	status := flagInvoiceStatus
	if status == "" {
		status = model.InvoicePending
	}
	source := model.SourceAPI

	fileURL := ""
	if flagInvoiceFile != "" {
		f, err := os.Open(flagInvoiceFile)
		if err != nil {
			return fmt.Errorf("opening invoice file: %w", err)
		}
		defer func() { _ = f.Close() }()

		fileURL, err = st.Client().UploadInvoiceFile(cmd.Context(), flagInvoiceFile, f)
		if err != nil {
			return err
		}
		source = model.SourceUpload
	}

	inv, err := st.CreateInvoice(cmd.Context(), api.InvoiceInput{
		SubscriptionID: sub.ID,
		FileURL:        fileURL,
		Amount:         flagInvoiceAmount,
		InvoiceDate:    flagInvoiceDate,
		Status:         status,
		Source:         source,
	})
	if err != nil {
		return err
	}

	cacheSnapshot(st)
	fmt.Printf("  Recorded invoice %s for %q\n", inv.ID, sub.Name)
	return nil
}

func runInvoicesEdit(cmd *cobra.Command, args []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}

	target, err := findInvoice(st.Snapshot(), args[0])
	if err != nil {
		return err
	}

	in := api.InvoiceInput{
		FileURL: target.FileURL,
		Amount:  target.Amount.Float(),
		Status:  target.Status,
		Source:  target.Source,
	}
	if !target.InvoiceDate.IsZero() {
		in.InvoiceDate = target.InvoiceDate.Format("2006-01-02")
	}

	flags := cmd.Flags()
	if flags.Changed("amount") {
		in.Amount = flagInvoiceAmount
	}
	if flags.Changed("date") {
		in.InvoiceDate = flagInvoiceDate
	}
	if flags.Changed("status") {
		in.Status = flagInvoiceStatus
	}

	inv, err := st.UpdateInvoice(cmd.Context(), target.ID, in)
	if err != nil {
		return err
	}

	cacheSnapshot(st)
	fmt.Printf("  Updated invoice %s\n", inv.ID)
	return nil
}

func runInvoicesDelete(cmd *cobra.Command, args []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}

	target, err := findInvoice(st.Snapshot(), args[0])
	if err != nil {
		return err
	}

	ok, err := confirm(fmt.Sprintf("Delete invoice %s?", target.ID))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("  Aborted.")
		return nil
	}

	if err := st.DeleteInvoice(cmd.Context(), target.ID); err != nil {
		return err
	}

	cacheSnapshot(st)
	fmt.Printf("  Deleted invoice %s\n", target.ID)
	return nil
}

func findInvoice(snap state.Snapshot, id string) (*model.Invoice, error) {
	for _, list := range snap.Invoices {
		for i := range list {
			if list[i].ID == id {
				return &list[i], nil
			}
		}
	}
	return nil, fmt.Errorf("no invoice with id %q in the active workspace", id)
}
