// Package monitor runs the black-then-target-color state machine that drives
// the remote overlay toggle.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/GriffinCanCode/screencue/internal/metrics"
	"github.com/GriffinCanCode/screencue/internal/resilience"
	"github.com/GriffinCanCode/screencue/internal/rgb"
	"github.com/GriffinCanCode/screencue/internal/screen"
	"github.com/GriffinCanCode/screencue/internal/syncx"
	"github.com/GriffinCanCode/screencue/internal/toggle"
	"github.com/GriffinCanCode/screencue/internal/trace"
)

// ColorSource samples a screen region.
type ColorSource interface {
	Sample(ctx context.Context, r screen.Region) (rgb.Color, error)
}

// Toggler switches the remote element. It reports failures through the result only.
type Toggler interface {
	SetElement(ctx context.Context, target toggle.Target, enable bool) toggle.Result
}

// Clock supplies time and waits between ticks.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time                                   { return time.Now() }
func (realClock) Sleep(ctx context.Context, d time.Duration) error { return resilience.SleepContext(ctx, d) }

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option { return func(m *Monitor) { m.clock = c } }

// WithObserver registers fn to receive every event. fn runs on the monitor goroutine.
func WithObserver(fn func(Event)) Option {
	return func(m *Monitor) { m.observers = append(m.observers, fn) }
}

// Monitor owns the sampling loop. Run must not be called concurrently.
type Monitor struct {
	cfg       Config
	source    ColorSource
	toggler   Toggler
	clock     Clock
	observers []func(Event)
	status    *syncx.Guard[Status]
}

// New creates a monitor in the initial state.
func New(cfg Config, source ColorSource, toggler Toggler, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:     cfg.WithDefaults(),
		source:  source,
		toggler: toggler,
		clock:   realClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.status = syncx.NewGuard(Status{
		Phase:  DetectingBlack,
		Target: m.cfg.Target,
		Toggle: targetName(m.cfg.Toggle),
		Region: m.cfg.Region,
	})
	return m
}

// Config returns the effective configuration.
func (m *Monitor) Config() Config { return m.cfg }

// Status returns a snapshot safe to read from any goroutine.
func (m *Monitor) Status() Status { return m.status.Get() }

// Run samples until ctx is cancelled or capture fails. It returns nil on
// cancellation and the capture error otherwise. A toggle already in flight
// when ctx is cancelled runs to completion.
func (m *Monitor) Run(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "monitor")
	defer span.End()
	log := trace.Logger(ctx)

	state := Initial()
	now := m.clock.Now()
	m.status.Write(func(s *Status) {
		s.Running = true
		s.StartedAt = now
		s.PhaseSince = now
	})
	metrics.Phase.Set(float64(state.Phase))
	metrics.ElementEnabled.Set(metrics.Bool(state.ElementEnabled))
	m.emit(Event{Kind: EventStarted, At: now, To: state.Phase})
	log.Info("monitoring started",
		"region", m.cfg.Region.String(),
		"target", m.cfg.Target.String(),
		"toggle", targetName(m.cfg.Toggle),
		"tolerance", m.cfg.Tolerance)

	for {
		if ctx.Err() != nil {
			return m.stop(log, nil)
		}

		sample, err := m.source.Sample(ctx, m.cfg.Region)
		if err != nil {
			if ctx.Err() != nil {
				return m.stop(log, nil)
			}
			log.Error("capture failed, stopping monitor", "error", err)
			return m.stop(log, err)
		}

		prev := state
		now := m.clock.Now()
		var cmd Command
		state, cmd = Step(m.cfg, state, sample, now)
		m.observe(ctx, log, prev, state, cmd, sample, now)

		if err := m.clock.Sleep(ctx, m.cfg.Interval(prev.Phase)); err != nil {
			return m.stop(log, nil)
		}
	}
}

func (m *Monitor) observe(ctx context.Context, log *slog.Logger, prev, next State, cmd Command, sample rgb.Color, now time.Time) {
	matched := "none"
	if rgb.Matches(sample, m.cfg.Reference(prev.Phase), m.cfg.Tolerance) {
		matched = "black"
		if prev.Phase == MonitoringColor {
			matched = "target"
		}
	}
	metrics.Samples.WithLabelValues(prev.Phase.String(), matched).Inc()

	switch {
	case prev.Phase == DetectingBlack && next.Phase == MonitoringColor:
		log.Info("black detected, monitoring color", "color", sample.String())
	case prev.Phase == MonitoringColor && next.Phase == DetectingBlack:
		log.Info("target color absent, reverting to black detection", "lost_for", now.Sub(*prev.ColorLostAt))
	case cmd == Enable:
		log.Info("target color detected, enabling", "color", sample.String())
	case cmd == Disable:
		log.Info("target color lost, disabling", "color", sample.String(), "revert_in", m.cfg.RevertDelay)
	case next.ColorLostAt != nil:
		log.Debug("target color still missing", "remaining", m.cfg.RevertDelay-now.Sub(*next.ColorLostAt))
	}

	var result toggle.Result
	if cmd != None {
		// detached so cancellation waits for the retry sequence to finish
		result = m.toggler.SetElement(context.WithoutCancel(ctx), m.cfg.Toggle, cmd == Enable)
		metrics.ElementEnabled.Set(metrics.Bool(next.ElementEnabled))
	}

	m.status.Write(func(s *Status) {
		s.Phase = next.Phase
		s.ElementEnabled = next.ElementEnabled
		s.ColorLostAt = next.ColorLostAt
		s.LastColor = sample
		s.LastSampleAt = now
		s.Samples++
		if next.Phase != prev.Phase {
			s.PhaseSince = now
		}
		if cmd != None {
			s.LastToggle = result.String()
		}
	})

	if next.Phase != prev.Phase {
		metrics.Phase.Set(float64(next.Phase))
		metrics.Transitions.WithLabelValues(prev.Phase.String(), next.Phase.String()).Inc()
		m.emit(Event{Kind: EventTransition, At: now, From: prev.Phase, To: next.Phase, Color: sample})
	}
	if cmd != None {
		m.emit(Event{Kind: EventToggle, At: now, From: prev.Phase, To: next.Phase, Color: sample,
			Enable: cmd == Enable, Result: result.String()})
	}
}

func (m *Monitor) stop(log *slog.Logger, err error) error {
	now := m.clock.Now()
	m.status.Write(func(s *Status) { s.Running = false })
	ev := Event{Kind: EventStopped, At: now, From: m.status.Get().Phase}
	if err != nil {
		ev.Error = err.Error()
	} else {
		log.Info("monitoring stopped")
	}
	m.emit(ev)
	return err
}

func (m *Monitor) emit(ev Event) {
	for _, fn := range m.observers {
		fn(ev)
	}
}

func targetName(t toggle.Target) string {
	if t == nil {
		return ""
	}
	return t.String()
}
