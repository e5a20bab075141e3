package monitor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/screencue/internal/rgb"
	"github.com/GriffinCanCode/screencue/internal/toggle"
)

var (
	t0     = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	red    = rgb.New(200, 30, 30)
	gray   = rgb.New(90, 90, 90)
	testCf = Config{
		Target:      red,
		Toggle:      toggle.FilterTarget{Scene: "Main", Source: "Game", Filter: "Blur"},
		RevertDelay: 20 * time.Second,
		Tolerance:   17,
	}.WithDefaults()
)

func at(d time.Duration) time.Time { return t0.Add(d) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestStepBlackAfterNStays(t *testing.T) {
	for n := 0; n <= 5; n++ {
		state := Initial()
		var enables, transitions int
		for i := 0; i < n; i++ {
			next, cmd := Step(testCf, state, gray, at(time.Duration(i)*4*time.Second))
			assert.Equal(t, None, cmd)
			assert.Equal(t, DetectingBlack, next.Phase)
			state = next
		}
		next, cmd := Step(testCf, state, rgb.New(5, 5, 5), at(time.Duration(n)*4*time.Second))
		if cmd == Enable {
			enables++
		}
		if next.Phase != state.Phase {
			transitions++
		}
		assert.Equal(t, MonitoringColor, next.Phase, "n=%d", n)
		assert.True(t, next.ElementEnabled)
		assert.Nil(t, next.ColorLostAt)
		assert.Equal(t, 1, enables)
		assert.Equal(t, 1, transitions)
	}
}

func TestStepTargetReappearsBeforeRevert(t *testing.T) {
	state := State{Phase: MonitoringColor, ElementEnabled: true}

	state, cmd := Step(testCf, state, gray, at(0))
	require.Equal(t, Disable, cmd)
	require.NotNil(t, state.ColorLostAt)
	assert.False(t, state.ElementEnabled)

	var enables int
	for i := 1; i < 100; i++ {
		next, cmd := Step(testCf, state, gray, at(ms(100*i)))
		assert.Equal(t, None, cmd)
		state = next
	}
	state, cmd = Step(testCf, state, red, at(ms(19900)))
	if cmd == Enable {
		enables++
	}
	assert.Equal(t, MonitoringColor, state.Phase)
	assert.Nil(t, state.ColorLostAt)
	assert.True(t, state.ElementEnabled)
	assert.Equal(t, 1, enables)

	// target persists: no further commands
	state, cmd = Step(testCf, state, red, at(ms(20000)))
	assert.Equal(t, None, cmd)
	assert.True(t, state.ElementEnabled)
}

func TestStepTargetWhileAlreadyEnabled(t *testing.T) {
	lost := at(0)
	state := State{Phase: MonitoringColor, ColorLostAt: &lost, ElementEnabled: true}

	next, cmd := Step(testCf, state, red, at(time.Second))
	assert.Equal(t, None, cmd)
	assert.Nil(t, next.ColorLostAt)
}

func TestStepRevertsOnceAfterDelay(t *testing.T) {
	state := State{Phase: MonitoringColor, ElementEnabled: true}
	var disables, reverts int
	revertAt := time.Duration(-1)

	for i := 0; state.Phase == MonitoringColor && i < 1000; i++ {
		now := ms(100 * i)
		next, cmd := Step(testCf, state, gray, at(now))
		switch cmd {
		case Disable:
			disables++
		case Enable:
			t.Fatalf("unexpected enable at %v", now)
		}
		if next.Phase == DetectingBlack {
			reverts++
			revertAt = now
		}
		state = next
	}

	assert.Equal(t, 1, disables)
	assert.Equal(t, 1, reverts)
	assert.Equal(t, 20*time.Second, revertAt)
	assert.Nil(t, state.ColorLostAt)
	assert.False(t, state.ElementEnabled)
}

func TestStepRevertBoundary(t *testing.T) {
	lost := at(0)
	state := State{Phase: MonitoringColor, ColorLostAt: &lost}

	next, _ := Step(testCf, state, gray, at(20*time.Second-time.Nanosecond))
	assert.Equal(t, MonitoringColor, next.Phase)

	next, _ = Step(testCf, state, gray, at(20*time.Second))
	assert.Equal(t, DetectingBlack, next.Phase)
}

func TestStepScenario(t *testing.T) {
	steps := []struct {
		at      time.Duration
		sample  rgb.Color
		cmd     Command
		phase   Phase
		enabled bool
		lostAt  time.Duration // -1 = nil
	}{
		{0, rgb.Black, Enable, MonitoringColor, true, -1},
		{ms(4000), rgb.New(200, 30, 31), None, MonitoringColor, true, -1},
		{ms(4100), rgb.Black, Disable, MonitoringColor, false, ms(4100)},
		// 19.9s after the loss: still waiting
		{ms(24000), rgb.Black, None, MonitoringColor, false, ms(4100)},
		{ms(24100), rgb.Black, None, DetectingBlack, false, -1},
	}

	state := Initial()
	for _, s := range steps {
		var cmd Command
		state, cmd = Step(testCf, state, s.sample, at(s.at))
		assert.Equal(t, s.cmd, cmd, "t=%v", s.at)
		assert.Equal(t, s.phase, state.Phase, "t=%v", s.at)
		assert.Equal(t, s.enabled, state.ElementEnabled, "t=%v", s.at)
		if s.lostAt < 0 {
			assert.Nil(t, state.ColorLostAt, "t=%v", s.at)
		} else if assert.NotNil(t, state.ColorLostAt, "t=%v", s.at) {
			assert.Equal(t, at(s.lostAt), *state.ColorLostAt)
		}
	}
}

func TestStepToleranceBoundary(t *testing.T) {
	next, cmd := Step(testCf, Initial(), rgb.New(17, 0, 0), t0)
	assert.Equal(t, Enable, cmd)
	assert.Equal(t, MonitoringColor, next.Phase)

	next, cmd = Step(testCf, Initial(), rgb.New(18, 0, 0), t0)
	assert.Equal(t, None, cmd)
	assert.Equal(t, DetectingBlack, next.Phase)
}

func TestZeroToleranceIsExact(t *testing.T) {
	cfg := Config{Target: rgb.New(200, 30, 30), Toggle: testCf.Toggle}.WithDefaults()
	assert.Equal(t, 0.0, cfg.Tolerance)
	assert.Equal(t, rgb.DefaultTolerance, Config{Tolerance: math.NaN()}.WithDefaults().Tolerance)

	next, cmd := Step(cfg, Initial(), rgb.New(1, 0, 0), t0)
	assert.Equal(t, None, cmd)
	assert.Equal(t, DetectingBlack, next.Phase)

	next, cmd = Step(cfg, Initial(), rgb.Black, t0)
	assert.Equal(t, Enable, cmd)

	next, cmd = Step(cfg, next, rgb.New(200, 30, 31), t0.Add(time.Second))
	assert.Equal(t, Disable, cmd)
	assert.Equal(t, MonitoringColor, next.Phase)
}

func TestPhaseText(t *testing.T) {
	for _, p := range []Phase{DetectingBlack, MonitoringColor} {
		b, err := p.MarshalText()
		require.NoError(t, err)
		var back Phase
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, p, back)
	}
	var p Phase
	assert.Error(t, p.UnmarshalText([]byte("idle")))
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Tolerance: -1}.WithDefaults()
	assert.Equal(t, 4*time.Second, cfg.BlackInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.ColorInterval)
	assert.Equal(t, 20*time.Second, cfg.RevertDelay)
	assert.Equal(t, rgb.DefaultTolerance, cfg.Tolerance)
	assert.Equal(t, 15, cfg.Region.Width)
	assert.Equal(t, cfg.BlackInterval, cfg.Interval(DetectingBlack))
	assert.Equal(t, cfg.ColorInterval, cfg.Interval(MonitoringColor))
}
