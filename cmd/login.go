package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagLoginEmail    string
	flagLoginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a SubFlow account",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session token",
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVar(&flagLoginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&flagLoginPassword, "password", "", "Account password (prompted when omitted)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	email := flagLoginEmail
	if email == "" {
		var err error
		email, err = promptLine("Email: ")
		if err != nil {
			return err
		}
	}
	password := flagLoginPassword
	if password == "" {
		var err error
		password, err = promptPassword("Password: ")
		if err != nil {
			return err
		}
	}
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}

	cfg := loadConfigOrDefault()
	client := newAPIClient(cfg)

	resp, err := client.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}
	if resp.Token == "" {
		return errors.New("server returned no session token")
	}
	if err := config.SaveToken(resp.Token); err != nil {
		return fmt.Errorf("saving session token: %w", err)
	}

	name := email
	if resp.User != nil && resp.User.Name != "" {
		name = resp.User.Name
	}
	fmt.Printf("  Signed in as %s\n", name)
	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	name, err := promptLine("Name: ")
	if err != nil {
		return err
	}
	username, err := promptLine("Username: ")
	if err != nil {
		return err
	}
	email, err := promptLine("Email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	cfg := loadConfigOrDefault()
	client := newAPIClient(cfg)

	resp, err := client.Register(cmd.Context(), api.RegisterRequest{
		Name:     name,
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}

	fmt.Println("  Account created.")
	if resp.Token != "" {
		client.SetToken(resp.Token)
		if err := config.SaveToken(resp.Token); err != nil {
			return fmt.Errorf("saving session token: %w", err)
		}
		fmt.Println("  Signed in. Run `subflow workspaces create <name>` to get started.")
	} else {
		fmt.Println("  Run `subflow login` to sign in.")
	}
	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	if err := config.ClearToken(); err != nil {
		return err
	}
	fmt.Println("  Signed out.")
	return nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print("  " + prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print("  " + prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
