package cmd

import (
	"errors"
	"fmt"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/cli"

	"github.com/spf13/cobra"
)

var (
	flagAdminName    string
	flagAdminEmail   string
	flagAdminCompany string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative user management",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List all accounts",
	RunE:  runAdminUsers,
}

var adminCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminCreate,
}

var adminUpdateCmd = &cobra.Command{
	Use:   "update <user-id>",
	Short: "Update an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminUpdate,
}

var adminRmCmd = &cobra.Command{
	Use:   "rm <user-id>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminRm,
}

func init() {
	adminCreateCmd.Flags().StringVar(&flagAdminName, "name", "", "Display name")

	adminUpdateCmd.Flags().StringVar(&flagAdminName, "name", "", "Display name")
	adminUpdateCmd.Flags().StringVar(&flagAdminEmail, "email", "", "Account email")
	adminUpdateCmd.Flags().StringVar(&flagAdminCompany, "company", "", "Company name")

	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminCreateCmd)
	adminCmd.AddCommand(adminUpdateCmd)
	adminCmd.AddCommand(adminRmCmd)
	rootCmd.AddCommand(adminCmd)
}

// requireAdmin verifies the signed-in user carries the admin role before any
// admin endpoint is hit, so the failure message is ours rather than a 403.
func requireAdmin(cmd *cobra.Command) (*api.Client, error) {
	cfg := loadConfigOrDefault()
	client, err := requireAuth(cfg)
	if err != nil {
		return nil, err
	}
	user, err := client.Me(cmd.Context())
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, errors.New("this command requires the admin role")
	}
	return client, nil
}

func runAdminUsers(cmd *cobra.Command, _ []string) error {
	client, err := requireAdmin(cmd)
	if err != nil {
		return err
	}

	users, err := client.AdminListUsers(cmd.Context())
	if err != nil {
		return err
	}

	table := cli.Table{Headers: []string{"ID", "Name", "Email", "Role", "Company"}}
	for _, u := range users {
		table.Rows = append(table.Rows, []string{u.ID, u.Name, u.Email, u.Role, u.CompanyName})
	}
	fmt.Println(cli.RenderTitle(fmt.Sprintf("Users (%d)", len(users))))
	fmt.Println(cli.RenderTable(table))
	return nil
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	client, err := requireAdmin(cmd)
	if err != nil {
		return err
	}

	password, err := promptPassword("Password for new account: ")
	if err != nil {
		return err
	}

	user, err := client.AdminCreateUser(cmd.Context(), api.RegisterRequest{
		Name:     flagAdminName,
		Email:    args[0],
		Password: password,
	})
	if err != nil {
		return err
	}
	if user != nil {
		fmt.Printf("  Created %s (%s)\n", user.Email, user.ID)
	} else {
		fmt.Printf("  Created %s\n", args[0])
	}
	return nil
}

func runAdminUpdate(cmd *cobra.Command, args []string) error {
	client, err := requireAdmin(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("name") && !flags.Changed("email") && !flags.Changed("company") {
		return errors.New("nothing to update, pass --name, --email, or --company")
	}
	req := api.ProfileUpdate{
		Name:        flagAdminName,
		Email:       flagAdminEmail,
		CompanyName: flagAdminCompany,
	}
	if err := client.AdminUpdateUser(cmd.Context(), args[0], req); err != nil {
		return err
	}
	fmt.Println("  Account updated.")
	return nil
}

func runAdminRm(cmd *cobra.Command, args []string) error {
	client, err := requireAdmin(cmd)
	if err != nil {
		return err
	}

	ok, err := confirm(fmt.Sprintf("Delete account %s?", args[0]))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("  Cancelled.")
		return nil
	}
	if err := client.AdminDeleteUser(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Println("  Account deleted.")
	return nil
}
