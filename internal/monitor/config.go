package monitor

import (
	"math"
	"time"

	"github.com/GriffinCanCode/screencue/internal/rgb"
	"github.com/GriffinCanCode/screencue/internal/screen"
	"github.com/GriffinCanCode/screencue/internal/toggle"
)

// Timing defaults
const (
	DefaultBlackInterval = 4 * time.Second
	DefaultColorInterval = 100 * time.Millisecond
	DefaultRevertDelay   = 20 * time.Second
)

// Config is the immutable snapshot the monitor runs with.
type Config struct {
	Region        screen.Region
	Target        rgb.Color
	Toggle        toggle.Target
	BlackInterval time.Duration
	ColorInterval time.Duration
	RevertDelay   time.Duration
	Tolerance     float64 // 0 is an exact match; negative or NaN means default
}

// WithDefaults fills zero timings and an unset (negative) tolerance.
func (c Config) WithDefaults() Config {
	if c.BlackInterval <= 0 {
		c.BlackInterval = DefaultBlackInterval
	}
	if c.ColorInterval <= 0 {
		c.ColorInterval = DefaultColorInterval
	}
	if c.RevertDelay <= 0 {
		c.RevertDelay = DefaultRevertDelay
	}
	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) {
		c.Tolerance = rgb.DefaultTolerance
	}
	if c.Region.Width <= 0 || c.Region.Height <= 0 {
		c.Region.Width, c.Region.Height = screen.DefaultBlockSize, screen.DefaultBlockSize
	}
	return c
}

// Reference is the color a sample is compared against in phase p.
func (c Config) Reference(p Phase) rgb.Color {
	if p == DetectingBlack {
		return rgb.Black
	}
	return c.Target
}

// Interval is the wait after a tick that started in phase p.
func (c Config) Interval(p Phase) time.Duration {
	if p == DetectingBlack {
		return c.BlackInterval
	}
	return c.ColorInterval
}
