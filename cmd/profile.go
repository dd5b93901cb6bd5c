package cmd

import (
	"errors"
	"fmt"

	"github.com/subflowhq/subflow/internal/api"

	"github.com/spf13/cobra"
)

var (
	flagProfileName    string
	flagProfileEmail   string
	flagProfileCompany string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Account profile",
	RunE:  runProfileShow,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the signed-in account",
	RunE:  runProfileShow,
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	RunE:  runProfileUpdate,
}

var profilePasswdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the account password",
	RunE:  runProfilePasswd,
}

func init() {
	profileUpdateCmd.Flags().StringVar(&flagProfileName, "name", "", "Display name")
	profileUpdateCmd.Flags().StringVar(&flagProfileEmail, "email", "", "Account email")
	profileUpdateCmd.Flags().StringVar(&flagProfileCompany, "company", "", "Company name")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileUpdateCmd)
	profileCmd.AddCommand(profilePasswdCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileShow(cmd *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()
	client, err := requireAuth(cfg)
	if err != nil {
		return err
	}

	user, err := client.Me(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  Name:     %s\n", user.Name)
	fmt.Printf("  Username: %s\n", user.Username)
	fmt.Printf("  Email:    %s\n", user.Email)
	if user.CompanyName != "" {
		fmt.Printf("  Company:  %s\n", user.CompanyName)
	}
	if user.Role != "" {
		fmt.Printf("  Role:     %s\n", user.Role)
	}

	if plan, err := client.MyPlan(cmd.Context()); err == nil && plan != nil {
		fmt.Printf("  Plan:     %s (%s)\n", plan.PlanID.ID, plan.Status)
	}
	return nil
}

func runProfileUpdate(cmd *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()
	client, err := requireAuth(cfg)
	if err != nil {
		return err
	}

	user, err := client.Me(cmd.Context())
	if err != nil {
		return err
	}

	req := api.ProfileUpdate{
		Name:        user.Name,
		Username:    user.Username,
		Email:       user.Email,
		CompanyName: user.CompanyName,
	}
	flags := cmd.Flags()
	changed := false
	if flags.Changed("name") {
		req.Name = flagProfileName
		changed = true
	}
	if flags.Changed("email") {
		req.Email = flagProfileEmail
		changed = true
	}
	if flags.Changed("company") {
		req.CompanyName = flagProfileCompany
		changed = true
	}
	if !changed {
		return errors.New("nothing to update, pass --name, --email, or --company")
	}

	if err := client.UpdateMe(cmd.Context(), req); err != nil {
		return err
	}
	fmt.Println("  Profile updated.")
	return nil
}

func runProfilePasswd(cmd *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()
	client, err := requireAuth(cfg)
	if err != nil {
		return err
	}

	current, err := promptPassword("Current password: ")
	if err != nil {
		return err
	}
	next, err := promptPassword("New password: ")
	if err != nil {
		return err
	}
	confirmPw, err := promptPassword("Confirm new password: ")
	if err != nil {
		return err
	}
	if next != confirmPw {
		return errors.New("passwords do not match")
	}

	if err := client.ChangePassword(cmd.Context(), current, next); err != nil {
		return err
	}
	fmt.Println("  Password changed.")
	return nil
}
