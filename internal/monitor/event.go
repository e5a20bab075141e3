package monitor

import (
	"time"

	"github.com/GriffinCanCode/screencue/internal/rgb"
	"github.com/GriffinCanCode/screencue/internal/screen"
)

// EventKind classifies monitor events.
type EventKind string

const (
	EventStarted    EventKind = "started"
	EventTransition EventKind = "transition"
	EventToggle     EventKind = "toggle"
	EventStopped    EventKind = "stopped"
)

// Event is published for lifecycle changes, phase transitions and toggles.
type Event struct {
	Kind   EventKind `json:"kind"`
	At     time.Time `json:"at"`
	From   Phase     `json:"from"`
	To     Phase     `json:"to"`
	Color  rgb.Color `json:"color"`
	Enable bool      `json:"enable,omitempty"`
	Result string    `json:"result,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// Status is a point-in-time view of the monitor.
type Status struct {
	Running        bool          `json:"running"`
	Phase          Phase         `json:"phase"`
	PhaseSince     time.Time     `json:"phase_since"`
	ElementEnabled bool          `json:"element_enabled"`
	ColorLostAt    *time.Time    `json:"color_lost_at,omitempty"`
	LastColor      rgb.Color     `json:"last_color"`
	LastSampleAt   time.Time     `json:"last_sample_at"`
	LastToggle     string        `json:"last_toggle,omitempty"`
	Samples        uint64        `json:"samples"`
	StartedAt      time.Time     `json:"started_at"`
	Target         rgb.Color     `json:"target"`
	Toggle         string        `json:"toggle"`
	Region         screen.Region `json:"region"`
}
