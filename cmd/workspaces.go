package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/cli"
	"github.com/subflowhq/subflow/internal/config"
	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/state"

	"github.com/spf13/cobra"
)

var flagWorkspaceCap float64

var workspacesCmd = &cobra.Command{
	Use:     "workspaces",
	Aliases: []string{"ws"},
	Short:   "Manage workspaces",
	RunE:    runWorkspacesList,
}

var workspacesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all workspaces",
	RunE:  runWorkspacesList,
}

var workspacesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a workspace and switch to it",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspacesCreate,
}

var workspacesRenameCmd = &cobra.Command{
	Use:   "rename <workspace> <new-name>",
	Short: "Rename a workspace",
	Args:  cobra.ExactArgs(2),
	RunE:  runWorkspacesRename,
}

var workspacesDeleteCmd = &cobra.Command{
	Use:     "delete <workspace>",
	Aliases: []string{"rm"},
	Short:   "Delete a workspace and everything in it",
	Args:    cobra.ExactArgs(1),
	RunE:    runWorkspacesDelete,
}

var workspacesUseCmd = &cobra.Command{
	Use:   "use <workspace>",
	Short: "Set the default workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspacesUse,
}

func init() {
	workspacesCreateCmd.Flags().Float64Var(&flagWorkspaceCap, "cap", 0, "Monthly spending cap")

	workspacesCmd.AddCommand(workspacesListCmd)
	workspacesCmd.AddCommand(workspacesCreateCmd)
	workspacesCmd.AddCommand(workspacesRenameCmd)
	workspacesCmd.AddCommand(workspacesDeleteCmd)
	workspacesCmd.AddCommand(workspacesUseCmd)
	rootCmd.AddCommand(workspacesCmd)
}

func runWorkspacesList(cmd *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()
	client, err := requireAuth(cfg)
	if err != nil {
		return err
	}

	workspaces, err := client.Workspaces(cmd.Context())
	if err != nil {
		return err
	}
	if len(workspaces) == 0 {
		fmt.Println("\n  No workspaces. Create one with `subflow workspaces create <name>`.")
		return nil
	}

	rows := make([][]string, 0, len(workspaces))
	for _, ws := range workspaces {
		marker := ""
		if ws.ID == cfg.General.DefaultWorkspace || ws.Name == cfg.General.DefaultWorkspace {
			marker = "*"
		}
		cap := "—"
		if ws.MonthlyCap.Float() > 0 {
			cap = strconv.FormatFloat(ws.MonthlyCap.Float(), 'f', 2, 64)
		}
		rows = append(rows, []string{ws.Name, ws.ID, cap, marker})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Name", "ID", "Cap", ""},
		Rows:    rows,
	}))
	return nil
}

func runWorkspacesCreate(cmd *cobra.Command, args []string) error {
	cfg := loadConfigOrDefault()
	client, err := requireAuth(cfg)
	if err != nil {
		return err
	}

	in := api.WorkspaceInput{Name: args[0]}
	if flagWorkspaceCap > 0 {
		in.MonthlyCap = &flagWorkspaceCap
	}

	st := state.New(client)
	ws, err := st.CreateWorkspace(cmd.Context(), in)
	if err != nil {
		return err
	}

	cfg.General.DefaultWorkspace = ws.ID
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("workspace created but config not saved: %w", err)
	}

	fmt.Printf("  Created workspace %q (now the default)\n", ws.Name)
	return nil
}

func runWorkspacesRename(cmd *cobra.Command, args []string) error {
	cfg := loadConfigOrDefault()
	client, err := requireAuth(cfg)
	if err != nil {
		return err
	}

	ws, err := resolveWorkspace(cmd, client, args[0])
	if err != nil {
		return err
	}

	updated, err := client.UpdateWorkspace(cmd.Context(), ws.ID, api.WorkspaceInput{Name: args[1]})
	if err != nil {
		return err
	}
	fmt.Printf("  Renamed workspace to %q\n", updated.Name)
	return nil
}

func runWorkspacesDelete(cmd *cobra.Command, args []string) error {
	cfg := loadConfigOrDefault()
	client, err := requireAuth(cfg)
	if err != nil {
		return err
	}

	ws, err := resolveWorkspace(cmd, client, args[0])
	if err != nil {
		return err
	}

	ok, err := confirm(fmt.Sprintf("Delete workspace %q and all of its subscriptions, clients, and invoices?", ws.Name))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("  Aborted.")
		return nil
	}

	if err := client.DeleteWorkspace(cmd.Context(), ws.ID); err != nil {
		return err
	}

	if cfg.General.DefaultWorkspace == ws.ID || cfg.General.DefaultWorkspace == ws.Name {
		cfg.General.DefaultWorkspace = ""
		_ = config.Save(cfg)
	}

	fmt.Printf("  Deleted workspace %q\n", ws.Name)
	return nil
}

func runWorkspacesUse(cmd *cobra.Command, args []string) error {
	cfg := loadConfigOrDefault()
	client, err := requireAuth(cfg)
	if err != nil {
		return err
	}

	ws, err := resolveWorkspace(cmd, client, args[0])
	if err != nil {
		return err
	}

	cfg.General.DefaultWorkspace = ws.ID
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("  Default workspace is now %q\n", ws.Name)
	return nil
}

// resolveWorkspace matches a workspace by ID or name.
func resolveWorkspace(cmd *cobra.Command, client *api.Client, ref string) (*model.Workspace, error) {
	workspaces, err := client.Workspaces(cmd.Context())
	if err != nil {
		return nil, err
	}
	for i := range workspaces {
		if workspaces[i].ID == ref || workspaces[i].Name == ref {
			return &workspaces[i], nil
		}
	}
	return nil, fmt.Errorf("no workspace matching %q", ref)
}

// confirm asks a y/N question on stdin.
func confirm(question string) (bool, error) {
	answer, err := promptLine(question + " [y/N] ")
	if err != nil {
		return false, err
	}
	switch answer {
	case "y", "Y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

var errNoActiveWorkspace = errors.New("no workspace selected, pass --workspace or run `subflow workspaces use`")
