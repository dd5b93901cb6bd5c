package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/subflowhq/subflow/internal/config"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)

	// Load existing config or defaults
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	fmt.Println()
	fmt.Println("  Welcome to subflow!")
	fmt.Println()

	// 1. Backend URL
	fmt.Println("  1. SubFlow backend URL")
	fmt.Println("     Leave empty for http://localhost:4000/api.")
	if cfg.API.BaseURL != "" {
		fmt.Printf("     Current: %s\n", cfg.API.BaseURL)
	}
	fmt.Print("     > ")
	baseURL, _ := reader.ReadString('\n')
	baseURL = strings.TrimSpace(baseURL)
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	fmt.Println()

	// 2. Spending trend window
	fmt.Println("  2. Spending trend window")
	fmt.Println("     (1) 6 months [default]")
	fmt.Println("     (2) 12 months")
	fmt.Print("     > ")
	choice, _ := reader.ReadString('\n')
	switch strings.TrimSpace(choice) {
	case "2":
		cfg.General.TrendMonths = 12
	default:
		cfg.General.TrendMonths = 6
	}
	fmt.Println()

	// 3. Alert poll interval
	fmt.Println("  3. Alert poll interval in seconds (minimum 30)")
	fmt.Printf("     Current: %d\n", cfg.Alerts.PollIntervalSec)
	fmt.Print("     > ")
	interval, _ := reader.ReadString('\n')
	if sec, err := strconv.Atoi(strings.TrimSpace(interval)); err == nil && sec >= 30 {
		cfg.Alerts.PollIntervalSec = sec
	}
	fmt.Println()

	// 4. Theme
	fmt.Println("  4. Color theme")
	fmt.Println("     (1) Flexoki Dark [default]")
	fmt.Println("     (2) Catppuccin Mocha")
	fmt.Println("     (3) Tokyo Night")
	fmt.Println("     (4) Terminal (ANSI 16)")
	fmt.Print("     > ")
	themeChoice, _ := reader.ReadString('\n')
	switch strings.TrimSpace(themeChoice) {
	case "2":
		cfg.Appearance.Theme = "catppuccin-mocha"
	case "3":
		cfg.Appearance.Theme = "tokyo-night"
	case "4":
		cfg.Appearance.Theme = "terminal"
	default:
		cfg.Appearance.Theme = "flexoki-dark"
	}

	// Save
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	if cfg.API.Token == "" {
		fmt.Println("  Run `subflow login` to sign in.")
	}
	fmt.Println("  Run `subflow setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
