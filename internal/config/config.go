// Package config handles process settings and the monitor record file
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/screencue/internal/monitor"
	"github.com/GriffinCanCode/screencue/internal/resilience"
	"github.com/GriffinCanCode/screencue/internal/rgb"
)

// Config holds process-level settings read from the environment.
type Config struct {
	ConfigPath     string
	StatusAddr     string // empty disables the HTTP status server
	GRPCAddr       string // empty disables the gRPC health server
	JournalPath    string // empty disables the event journal
	BlackInterval  time.Duration
	ColorInterval  time.Duration
	RevertDelay    time.Duration
	Tolerance      float64
	ToggleAttempts int
	ToggleBackoff  time.Duration
	RequestTimeout time.Duration
}

func Load() *Config {
	return &Config{
		ConfigPath:     getEnv("SCREENCUE_CONFIG", DefaultConfigPath),
		StatusAddr:     getEnv("STATUS_ADDR", "127.0.0.1:8765"),
		GRPCAddr:       getEnv("GRPC_ADDR", ""),
		JournalPath:    getEnv("JOURNAL_PATH", ""),
		BlackInterval:  getEnvDuration("CHECK_BLACK_INTERVAL", monitor.DefaultBlackInterval),
		ColorInterval:  getEnvDuration("CHECK_COLOR_INTERVAL", monitor.DefaultColorInterval),
		RevertDelay:    getEnvDuration("REVERT_DELAY", monitor.DefaultRevertDelay),
		Tolerance:      getEnvFloat("COLOR_TOLERANCE", rgb.DefaultTolerance),
		ToggleAttempts: getEnvInt("TOGGLE_ATTEMPTS", resilience.DefaultAttempts),
		ToggleBackoff:  getEnvDuration("TOGGLE_BACKOFF", resilience.DefaultBackoff),
		RequestTimeout: getEnvDuration("OBS_REQUEST_TIMEOUT", 5*time.Second),
	}
}

// Retry returns the toggle retry policy.
func (c *Config) Retry() resilience.RetryConfig {
	r := resilience.DefaultRetryConfig()
	if c.ToggleAttempts > 0 {
		r.Attempts = c.ToggleAttempts
	}
	if c.ToggleBackoff > 0 {
		r.Backoff = c.ToggleBackoff
	}
	return r
}

// getEnv returns def only when key is unset, so KEY= can disable an address.
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("250ms") or bare seconds ("0.1").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	return def
}
