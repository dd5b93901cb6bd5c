package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all subflow configuration.
type Config struct {
	API        APIConfig        `toml:"api"`
	General    GeneralConfig    `toml:"general"`
	Alerts     AlertsConfig     `toml:"alerts"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// APIConfig holds SubFlow backend settings.
type APIConfig struct {
	BaseURL string `toml:"base_url,omitempty"`
	Token   string `toml:"token,omitempty"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultWorkspace string `toml:"default_workspace,omitempty"`
	TrendMonths      int    `toml:"trend_months"`
}

// AlertsConfig holds alert polling settings.
type AlertsConfig struct {
	PollIntervalSec int `toml:"poll_interval_sec"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			TrendMonths: 6,
		},
		Alerts: AlertsConfig{
			PollIntervalSec: 300,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "subflow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "subflow")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// A .env file in the working directory is loaded first so that
// SUBFLOW_TOKEN and SUBFLOW_API_URL can come from either place.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Alerts.PollIntervalSec <= 0 {
		cfg.Alerts.PollIntervalSec = 300
	}
	if cfg.General.TrendMonths != 6 && cfg.General.TrendMonths != 12 {
		cfg.General.TrendMonths = 6
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Token returns the session token from env var or config, in that order.
func Token(cfg Config) string {
	if tok := os.Getenv("SUBFLOW_TOKEN"); tok != "" {
		return tok
	}
	return cfg.API.Token
}

// BaseURL returns the API base URL from env var or config, in that order.
// An empty result means the client default applies.
func BaseURL(cfg Config) string {
	if url := os.Getenv("SUBFLOW_API_URL"); url != "" {
		return url
	}
	return cfg.API.BaseURL
}

// SaveToken persists a freshly issued session token into the config file.
func SaveToken(token string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.API.Token = token
	return Save(cfg)
}

// ClearToken removes the stored session token, if any.
func ClearToken() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	if cfg.API.Token == "" {
		return nil
	}
	cfg.API.Token = ""
	return Save(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
