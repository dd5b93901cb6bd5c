// Package cmd implements the subflow CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/config"
	"github.com/subflowhq/subflow/internal/state"
	"github.com/subflowhq/subflow/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagWorkspace string
	flagAPIURL    string
	flagQuiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "subflow",
	Short: "Subscription spend tracking from the terminal",
	Long:  "Track subscriptions, clients, invoices, budgets, and renewal alerts across your SubFlow workspaces.",
	RunE:  runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "  Session expired. Run `subflow login` to sign in again.")
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", "", "Workspace to operate on (ID or name)")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "SubFlow API base URL")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadConfigOrDefault loads config, returning defaults on error so every
// command can still run against env-var settings.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Config unreadable (%v), using defaults\n", err)
		}
		return config.DefaultConfig()
	}
	return cfg
}

// newAPIClient builds the API client from flags, env, and config. On any
// 401 the persisted token is cleared so the next run prompts for login.
func newAPIClient(cfg config.Config) *api.Client {
	baseURL := flagAPIURL
	if baseURL == "" {
		baseURL = config.BaseURL(cfg)
	}
	return api.New(baseURL, config.Token(cfg), api.WithUnauthorizedHook(func() {
		_ = config.ClearToken()
	}))
}

// requireAuth returns the client when a session token is present.
func requireAuth(cfg config.Config) (*api.Client, error) {
	client := newAPIClient(cfg)
	if !client.HasToken() {
		return nil, errors.New("not logged in, run `subflow login` first")
	}
	return client, nil
}

// preferredWorkspace resolves the workspace to activate: the --workspace
// flag wins, then the configured default, then the account's first.
func preferredWorkspace(cfg config.Config) string {
	if flagWorkspace != "" {
		return flagWorkspace
	}
	return cfg.General.DefaultWorkspace
}

// bootstrapStore signs in with the stored token and loads the preferred
// workspace. This is the shared data loading path for all workspace
// scoped commands.
func bootstrapStore(ctx context.Context, cfg config.Config) (*state.Store, error) {
	client, err := requireAuth(cfg)
	if err != nil {
		return nil, err
	}

	if !flagQuiet {
		fmt.Fprintln(os.Stderr, "  Fetching workspace data...")
	}

	st := state.New(client)
	if err := st.Bootstrap(ctx, preferredWorkspace(cfg)); err != nil {
		return nil, err
	}
	return st, nil
}

// cacheSnapshot persists the freshly fetched workspace to the local
// SQLite cache for offline reads. Best-effort: a broken cache never
// fails the command that produced the data.
func cacheSnapshot(st *state.Store) {
	snap := st.Snapshot()
	if snap.ActiveID == "" {
		return
	}
	cache, err := store.Open(store.DefaultPath())
	if err != nil {
		return
	}
	defer func() { _ = cache.Close() }()
	_ = cache.ReplaceWorkspace(snap)
}
