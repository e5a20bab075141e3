package monitor

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/screencue/internal/rgb"
)

// Phase is the coarse state of the monitor.
type Phase int

const (
	DetectingBlack Phase = iota
	MonitoringColor
)

func (p Phase) String() string {
	switch p {
	case DetectingBlack:
		return "detecting_black"
	case MonitoringColor:
		return "monitoring_color"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "detecting_black":
		*p = DetectingBlack
	case "monitoring_color":
		*p = MonitoringColor
	default:
		return fmt.Errorf("unknown phase %q", b)
	}
	return nil
}

// State is threaded through Step on every tick.
type State struct {
	Phase          Phase
	ColorLostAt    *time.Time // set while the target is absent in MonitoringColor
	ElementEnabled bool       // last commanded toggle state
}

// Initial is the state a run starts in.
func Initial() State { return State{Phase: DetectingBlack} }

// Command is the toggle a tick asks for.
type Command int

const (
	None Command = iota
	Enable
	Disable
)

func (c Command) String() string {
	return [...]string{"none", "enable", "disable"}[c]
}

// Step applies one sample taken at now and returns the next state and the toggle to issue.
// ElementEnabled reflects the command, not its outcome.
func Step(cfg Config, s State, sample rgb.Color, now time.Time) (State, Command) {
	matched := rgb.Matches(sample, cfg.Reference(s.Phase), cfg.Tolerance)

	switch s.Phase {
	case DetectingBlack:
		if !matched {
			return s, None
		}
		return State{Phase: MonitoringColor, ElementEnabled: true}, Enable

	case MonitoringColor:
		if matched {
			cmd := None
			if !s.ElementEnabled {
				cmd = Enable
			}
			return State{Phase: MonitoringColor, ElementEnabled: true}, cmd
		}
		if s.ColorLostAt == nil {
			at := now
			return State{Phase: MonitoringColor, ColorLostAt: &at, ElementEnabled: false}, Disable
		}
		if now.Sub(*s.ColorLostAt) >= cfg.RevertDelay {
			return State{Phase: DetectingBlack, ElementEnabled: s.ElementEnabled}, None
		}
		return s, None
	}
	return s, None
}
