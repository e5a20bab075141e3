// Package orchestrator wires capture, OBS control and the monitor together
package orchestrator

import "time"

// Orchestrator configuration constants
const (
	// Events buffered per subscriber
	EventBuffer = 64

	// Budget for one journal insert
	JournalWriteTimeout = 2 * time.Second

	// Budget for the startup checks
	PreflightTimeout = 15 * time.Second
)
