package config

import (
	"testing"
	"time"
)

var settingsEnv = []string{
	"SCREENCUE_CONFIG", "STATUS_ADDR", "GRPC_ADDR", "JOURNAL_PATH",
	"CHECK_BLACK_INTERVAL", "CHECK_COLOR_INTERVAL", "REVERT_DELAY",
	"COLOR_TOLERANCE", "TOGGLE_ATTEMPTS", "TOGGLE_BACKOFF", "OBS_REQUEST_TIMEOUT",
}

func TestLoad(t *testing.T) {
	for _, v := range settingsEnv {
		t.Setenv(v, "")
	}
	// t.Setenv cannot unset; an empty value still exercises the numeric defaults
	cfg := Load()

	if cfg.BlackInterval != 4*time.Second {
		t.Errorf("BlackInterval = %v, want 4s", cfg.BlackInterval)
	}
	if cfg.ColorInterval != 100*time.Millisecond {
		t.Errorf("ColorInterval = %v, want 100ms", cfg.ColorInterval)
	}
	if cfg.RevertDelay != 20*time.Second {
		t.Errorf("RevertDelay = %v, want 20s", cfg.RevertDelay)
	}
	if cfg.Tolerance != 17 {
		t.Errorf("Tolerance = %v, want 17", cfg.Tolerance)
	}
	if cfg.ToggleAttempts != 3 {
		t.Errorf("ToggleAttempts = %d, want 3", cfg.ToggleAttempts)
	}
	if cfg.ToggleBackoff != time.Second {
		t.Errorf("ToggleBackoff = %v, want 1s", cfg.ToggleBackoff)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.RequestTimeout)
	}
	if cfg.StatusAddr != "" {
		t.Errorf("StatusAddr = %q, want empty when set empty", cfg.StatusAddr)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("SCREENCUE_CONFIG", "cue.toml")
	t.Setenv("STATUS_ADDR", ":9000")
	t.Setenv("GRPC_ADDR", ":9001")
	t.Setenv("JOURNAL_PATH", "events.db")
	t.Setenv("CHECK_BLACK_INTERVAL", "2s")
	t.Setenv("CHECK_COLOR_INTERVAL", "0.05")
	t.Setenv("REVERT_DELAY", "30")
	t.Setenv("COLOR_TOLERANCE", "12.5")
	t.Setenv("TOGGLE_ATTEMPTS", "5")
	t.Setenv("TOGGLE_BACKOFF", "250ms")
	t.Setenv("OBS_REQUEST_TIMEOUT", "bogus")

	cfg := Load()

	if cfg.ConfigPath != "cue.toml" {
		t.Errorf("ConfigPath = %q", cfg.ConfigPath)
	}
	if cfg.StatusAddr != ":9000" || cfg.GRPCAddr != ":9001" || cfg.JournalPath != "events.db" {
		t.Errorf("addresses = %q %q %q", cfg.StatusAddr, cfg.GRPCAddr, cfg.JournalPath)
	}
	if cfg.BlackInterval != 2*time.Second {
		t.Errorf("BlackInterval = %v", cfg.BlackInterval)
	}
	if cfg.ColorInterval != 50*time.Millisecond {
		t.Errorf("ColorInterval = %v", cfg.ColorInterval)
	}
	if cfg.RevertDelay != 30*time.Second {
		t.Errorf("RevertDelay = %v", cfg.RevertDelay)
	}
	if cfg.Tolerance != 12.5 {
		t.Errorf("Tolerance = %v", cfg.Tolerance)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want default on parse error", cfg.RequestTimeout)
	}

	r := cfg.Retry()
	if r.Attempts != 5 || r.Backoff != 250*time.Millisecond {
		t.Errorf("Retry() = %d attempts, %v backoff", r.Attempts, r.Backoff)
	}
}

func TestGetEnvDefaultsWhenUnset(t *testing.T) {
	if got := getEnv("SCREENCUE_TEST_UNSET_KEY", "fallback"); got != "fallback" {
		t.Errorf("getEnv = %q", got)
	}
	if got := getEnvDuration("SCREENCUE_TEST_UNSET_KEY", time.Minute); got != time.Minute {
		t.Errorf("getEnvDuration = %v", got)
	}
}

func TestLoadZeroToleranceKept(t *testing.T) {
	t.Setenv("COLOR_TOLERANCE", "0")
	if cfg := Load(); cfg.Tolerance != 0 {
		t.Errorf("Tolerance = %v, want 0 (exact match)", cfg.Tolerance)
	}
}
