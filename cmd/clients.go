package cmd

import (
	"fmt"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/cli"

	"github.com/spf13/cobra"
)

var (
	flagClientContact string
	flagClientNotes   string
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage clients in the active workspace",
	RunE:  runClientsList,
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clients",
	RunE:  runClientsList,
}

var clientsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a client",
	Args:  cobra.ExactArgs(1),
	RunE:  runClientsAdd,
}

var clientsEditCmd = &cobra.Command{
	Use:   "edit <client>",
	Short: "Edit a client",
	Args:  cobra.ExactArgs(1),
	RunE:  runClientsEdit,
}

var clientsDeleteCmd = &cobra.Command{
	Use:     "rm <client>",
	Aliases: []string{"delete"},
	Short:   "Delete a client",
	Args:    cobra.ExactArgs(1),
	RunE:    runClientsDelete,
}

func init() {
	for _, c := range []*cobra.Command{clientsAddCmd, clientsEditCmd} {
		c.Flags().StringVar(&flagClientContact, "contact", "", "Contact email or phone")
		c.Flags().StringVar(&flagClientNotes, "notes", "", "Free-form notes")
	}

	clientsCmd.AddCommand(clientsListCmd)
	clientsCmd.AddCommand(clientsAddCmd)
	clientsCmd.AddCommand(clientsEditCmd)
	clientsCmd.AddCommand(clientsDeleteCmd)
	rootCmd.AddCommand(clientsCmd)
}

func runClientsList(cmd *cobra.Command, _ []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	if snap.ActiveID == "" {
		return errNoActiveWorkspace
	}
	if len(snap.Clients) == 0 {
		fmt.Println("\n  No clients yet. Add one with `subflow clients add <name>`.")
		return nil
	}

	// Count linked subscriptions per client from the link map.
	linkCounts := make(map[string]int)
	for _, clients := range snap.Links {
		for _, c := range clients {
			linkCounts[c.ID]++
		}
	}

	rows := make([][]string, 0, len(snap.Clients))
	for _, c := range snap.Clients {
		rows = append(rows, []string{
			c.Name,
			c.Contact,
			cli.FormatNumber(int64(linkCounts[c.ID])),
			cli.Truncate(c.Notes, 32),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Name", "Contact", "Subscriptions", "Notes"},
		Rows:    rows,
	}))
	return nil
}

func runClientsAdd(cmd *cobra.Command, args []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}
	if st.Snapshot().ActiveID == "" {
		return errNoActiveWorkspace
	}

	c, err := st.CreateClient(cmd.Context(), api.ClientInput{
		Name:    args[0],
		Contact: flagClientContact,
		Notes:   flagClientNotes,
	})
	if err != nil {
		return err
	}

	cacheSnapshot(st)
	fmt.Printf("  Added client %q\n", c.Name)
	return nil
}

func runClientsEdit(cmd *cobra.Command, args []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}

	target, err := findClient(st.Snapshot(), args[0])
	if err != nil {
		return err
	}

	in := api.ClientInput{
		Name:    target.Name,
		Contact: target.Contact,
		Notes:   target.Notes,
	}
	flags := cmd.Flags()
	if flags.Changed("contact") {
		in.Contact = flagClientContact
	}
	if flags.Changed("notes") {
		in.Notes = flagClientNotes
	}

	c, err := st.UpdateClient(cmd.Context(), target.ID, in)
	if err != nil {
		return err
	}

	cacheSnapshot(st)
	fmt.Printf("  Updated client %q\n", c.Name)
	return nil
}

func runClientsDelete(cmd *cobra.Command, args []string) error {
	st, err := bootstrapStore(cmd.Context(), loadConfigOrDefault())
	if err != nil {
		return err
	}

	target, err := findClient(st.Snapshot(), args[0])
	if err != nil {
		return err
	}

	ok, err := confirm(fmt.Sprintf("Delete client %q?", target.Name))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("  Aborted.")
		return nil
	}

	if err := st.DeleteClient(cmd.Context(), target.ID); err != nil {
		return err
	}

	cacheSnapshot(st)
	fmt.Printf("  Deleted client %q\n", target.Name)
	return nil
}
