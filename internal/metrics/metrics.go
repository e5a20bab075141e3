package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the screen cue monitor

var (
	// Sampling
	Samples = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screencue_samples_total",
		Help: "Color samples taken by phase and classification",
	}, []string{"phase", "match"}) // match: black|target|none

	CaptureDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "screencue_capture_duration_seconds",
		Help:    "Screen region capture latency",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
	})

	CaptureErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screencue_capture_errors_total",
		Help: "Screen region captures that failed",
	})

	// State machine
	Phase = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "screencue_phase",
		Help: "Current monitor phase (0=detecting_black, 1=monitoring_color)",
	})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screencue_transitions_total",
		Help: "Monitor phase transitions",
	}, []string{"from", "to"})

	ElementEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "screencue_element_enabled",
		Help: "Last commanded toggle state (0=disabled, 1=enabled)",
	})

	// Remote toggles
	Toggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screencue_toggles_total",
		Help: "Toggle operations by target kind and result",
	}, []string{"kind", "result"}) // result: applied|unchanged|failed|invalid

	ToggleRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screencue_toggle_retries_total",
		Help: "Toggle attempts that failed and were retried",
	}, []string{"kind"})

	RemoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "screencue_obs_request_duration_seconds",
		Help:    "OBS WebSocket request latency by request type and outcome",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"request_type", "status"})

	RemoteConnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screencue_obs_connects_total",
		Help: "OBS WebSocket handshakes by result",
	}, []string{"result"})

	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "screencue_breaker_state",
		Help: "Circuit breaker state by name (0=closed, 1=open, 2=half-open)",
	}, []string{"name"})
)

// Bool converts a flag to a gauge value.
func Bool(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
