// Package server provides the HTTP, WebSocket and gRPC status surface
package server

import "time"

// Server configuration constants
const (
	// Per-message write deadline for WebSocket subscribers
	WSWriteTimeout = 5 * time.Second

	// Events buffered per subscriber before new ones are dropped
	SubscriberBuffer = 32

	// Default and maximum rows for GET /api/events
	HistoryDefaultLimit = 50
	HistoryMaxLimit     = 500

	// Graceful HTTP shutdown budget
	ShutdownTimeout = 5 * time.Second

	// gRPC health service name for the monitor
	HealthService = "screencue.Monitor"
)
