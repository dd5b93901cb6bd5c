package config

import (
	"os"
	"path/filepath"
	"testing"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("SUBFLOW_TOKEN", "")
	t.Setenv("SUBFLOW_API_URL", "")
	return dir
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	useTempConfigDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Alerts.PollIntervalSec != 300 {
		t.Errorf("PollIntervalSec = %d, want 300", cfg.Alerts.PollIntervalSec)
	}
	if cfg.General.TrendMonths != 6 {
		t.Errorf("TrendMonths = %d, want 6", cfg.General.TrendMonths)
	}
	if cfg.Appearance.Theme != "flexoki-dark" {
		t.Errorf("Theme = %q, want flexoki-dark", cfg.Appearance.Theme)
	}
	if Exists() {
		t.Error("Exists() should be false before any save")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	useTempConfigDir(t)

	in := DefaultConfig()
	in.API.BaseURL = "https://api.example.com/api"
	in.API.Token = "tok-123"
	in.General.DefaultWorkspace = "Acme"
	in.General.TrendMonths = 12
	in.Alerts.PollIntervalSec = 60
	in.Appearance.Theme = "tokyo-night"

	if err := Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() should be true after save")
	}

	out, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestLoadFallbacks(t *testing.T) {
	cases := []struct {
		name         string
		toml         string
		wantPoll     int
		wantTrendMon int
	}{
		{"zero poll interval", "[alerts]\npoll_interval_sec = 0\n", 300, 6},
		{"negative poll interval", "[alerts]\npoll_interval_sec = -5\n", 300, 6},
		{"odd trend window", "[general]\ntrend_months = 9\n", 300, 6},
		{"twelve months kept", "[general]\ntrend_months = 12\n[alerts]\npoll_interval_sec = 45\n", 45, 12},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			useTempConfigDir(t)
			if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(ConfigPath(), []byte(tc.toml), 0o600); err != nil {
				t.Fatal(err)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Alerts.PollIntervalSec != tc.wantPoll {
				t.Errorf("PollIntervalSec = %d, want %d", cfg.Alerts.PollIntervalSec, tc.wantPoll)
			}
			if cfg.General.TrendMonths != tc.wantTrendMon {
				t.Errorf("TrendMonths = %d, want %d", cfg.General.TrendMonths, tc.wantTrendMon)
			}
		})
	}
}

func TestTokenEnvOverridesConfig(t *testing.T) {
	useTempConfigDir(t)

	cfg := DefaultConfig()
	cfg.API.Token = "from-config"

	if got := Token(cfg); got != "from-config" {
		t.Errorf("Token = %q, want from-config", got)
	}
	t.Setenv("SUBFLOW_TOKEN", "from-env")
	if got := Token(cfg); got != "from-env" {
		t.Errorf("Token = %q, want from-env", got)
	}
}

func TestSaveAndClearToken(t *testing.T) {
	dir := useTempConfigDir(t)

	if err := SaveToken("session-abc"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Token != "session-abc" {
		t.Errorf("Token = %q, want session-abc", cfg.API.Token)
	}

	if err := ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Token != "" {
		t.Errorf("Token = %q after clear, want empty", cfg.API.Token)
	}

	if want := filepath.Join(dir, "subflow", "config.toml"); ConfigPath() != want {
		t.Errorf("ConfigPath = %q, want %q", ConfigPath(), want)
	}
}
