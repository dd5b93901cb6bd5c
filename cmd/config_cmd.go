package cmd

import (
	"fmt"

	"github.com/subflowhq/subflow/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func maskToken(tok string) string {
	if len(tok) <= 8 {
		return "********"
	}
	return tok[:4] + "..." + tok[len(tok)-4:]
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [API]")
	fmt.Printf("    Base URL: %s\n", newAPIClient(cfg).BaseURL())
	if tok := config.Token(cfg); tok != "" {
		fmt.Printf("    Token:    %s\n", maskToken(tok))
	} else {
		fmt.Println("    Token:    not configured (run `subflow login`)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	if cfg.General.DefaultWorkspace != "" {
		fmt.Printf("    Default workspace: %s\n", cfg.General.DefaultWorkspace)
	} else {
		fmt.Println("    Default workspace: not set")
	}
	fmt.Printf("    Trend months:      %d\n", cfg.General.TrendMonths)
	fmt.Println()

	fmt.Println("  [Alerts]")
	fmt.Printf("    Poll interval: %ds\n", cfg.Alerts.PollIntervalSec)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	return nil
}
