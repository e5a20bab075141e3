package orchestrator

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/screencue/internal/config"
	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
	"github.com/GriffinCanCode/screencue/internal/monitor"
	"github.com/GriffinCanCode/screencue/internal/obsws"
	"github.com/GriffinCanCode/screencue/internal/rgb"
	"github.com/GriffinCanCode/screencue/internal/screen"
	"github.com/GriffinCanCode/screencue/internal/syncx"
	"github.com/GriffinCanCode/screencue/internal/toggle"
	"github.com/GriffinCanCode/screencue/internal/trace"
)

// Remote is the OBS surface the manager needs.
type Remote interface {
	toggle.Remote
	GetVersion(ctx context.Context) (obsws.Version, error)
}

// Journal persists events. Optional.
type Journal interface {
	Record(ctx context.Context, ev monitor.Event) error
}

// Deps are the collaborators a Manager runs with.
type Deps struct {
	Settings *config.Config
	File     *config.File
	Capturer screen.Capturer
	Remote   Remote
	Journal  Journal       // nil disables persistence
	Clock    monitor.Clock // nil uses the wall clock
}

// Manager coordinates all services
type Manager struct {
	file     *config.File
	capturer screen.Capturer
	sampler  *screen.Sampler
	remote   Remote
	journal  Journal
	events   *syncx.Broadcaster[monitor.Event]
	monitor  *monitor.Monitor
}

// New validates the record and builds the monitor.
func New(d Deps) (*Manager, error) {
	if d.Settings == nil {
		d.Settings = config.Load()
	}
	if d.File == nil || d.Capturer == nil || d.Remote == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "orchestrator needs a config file, capturer and remote")
	}
	mcfg, err := d.File.Monitor(d.Settings)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		file:     d.File,
		capturer: d.Capturer,
		sampler:  screen.NewSampler(d.Capturer),
		remote:   d.Remote,
		journal:  d.Journal,
		events:   syncx.NewBroadcaster[monitor.Event](EventBuffer),
	}

	opts := []monitor.Option{monitor.WithObserver(m.handleEvent)}
	if d.Clock != nil {
		opts = append(opts, monitor.WithClock(d.Clock))
	}
	toggler := toggle.New(d.Remote, d.Settings.Retry())
	m.monitor = monitor.New(mcfg, m.sampler, toggler, opts...)
	return m, nil
}

// Report summarizes the startup checks.
type Report struct {
	Version          obsws.Version
	ScreenWidth      int
	ScreenHeight     int
	ResolutionMatch  bool
	Color            rgb.Color
	TargetDistance   float64
	FingerprintDrift int // -1 when no calibration fingerprint was recorded
	Warnings         []string
}

// Preflight probes OBS (fatal on failure) and checks the calibration
// against the live screen (warnings only).
func (m *Manager) Preflight(ctx context.Context) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, PreflightTimeout)
	defer cancel()
	ctx, span := trace.StartSpan(ctx, "preflight")
	defer span.End()
	log := trace.Logger(ctx)

	r := &Report{FingerprintDrift: -1}
	warn := func(msg string, args ...any) {
		r.Warnings = append(r.Warnings, msg)
		log.Warn(msg, args...)
	}

	v, err := m.remote.GetVersion(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "obs connection failed")
	}
	r.Version = v
	log.Info("obs reachable", "obs_version", v.OBSVersion, "websocket_version", v.OBSWebSocketVersion, "platform", v.Platform)

	res := m.file.ScreenResolution
	w, h, err := m.capturer.Size(ctx)
	switch {
	case err != nil:
		warn("could not read screen resolution", "error", err)
	default:
		r.ScreenWidth, r.ScreenHeight = w, h
		r.ResolutionMatch = w == res.Width && h == res.Height
		if !r.ResolutionMatch {
			warn("screen resolution mismatch, coordinates may be inaccurate",
				"recorded", fmt.Sprintf("%dx%d", res.Width, res.Height), "current", fmt.Sprintf("%dx%d", w, h))
		}
		region := m.monitor.Config().Region
		if region.X+region.Width > w || region.Y+region.Height > h {
			warn("sample block extends past the current screen", "region", region.String())
		}
	}

	probe, err := m.sampler.Probe(ctx, m.monitor.Config().Region)
	if err != nil {
		warn("calibration probe failed", "error", err)
		return r, nil
	}
	r.Color = probe.Color
	r.TargetDistance = rgb.Distance(probe.Color, m.monitor.Config().Target)

	if hash := m.file.ColorBlock.Hash; hash != "" {
		drift, err := screen.FingerprintDistance(hash, probe.Fingerprint)
		if err != nil {
			warn("calibration fingerprint unreadable", "error", err)
		} else {
			r.FingerprintDrift = drift
			if drift > screen.MaxFingerprintDrift {
				warn("sample block looks different from calibration", "drift", drift, "max", screen.MaxFingerprintDrift)
			}
		}
	}
	return r, nil
}

// Run monitors until ctx is cancelled or capture fails.
func (m *Manager) Run(ctx context.Context) error {
	return m.monitor.Run(ctx)
}

// Status returns the live monitor snapshot.
func (m *Manager) Status() monitor.Status { return m.monitor.Status() }

// Subscribe returns a feed of monitor events.
func (m *Manager) Subscribe() (<-chan monitor.Event, func()) { return m.events.Subscribe() }

// Close ends every subscription.
func (m *Manager) Close() {
	m.events.Close()
}

func (m *Manager) handleEvent(ev monitor.Event) {
	if m.journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), JournalWriteTimeout)
		if err := m.journal.Record(ctx, ev); err != nil {
			trace.Logger(ctx).Warn("journal write failed", "kind", ev.Kind, "error", err)
		}
		cancel()
	}
	if dropped := m.events.Publish(ev); dropped > 0 {
		trace.Logger(context.Background()).Debug("slow subscribers missed event", "kind", ev.Kind, "dropped", dropped)
	}
}
