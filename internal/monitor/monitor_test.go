package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
	"github.com/GriffinCanCode/screencue/internal/rgb"
	"github.com/GriffinCanCode/screencue/internal/screen"
	"github.com/GriffinCanCode/screencue/internal/toggle"
)

// fakeClock advances only when the monitor sleeps.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// script returns colors in order; when it runs out it cancels the run or fails.
type script struct {
	colors []rgb.Color
	cancel context.CancelFunc
	err    error
	n      int
}

func (s *script) Sample(ctx context.Context, _ screen.Region) (rgb.Color, error) {
	if s.n >= len(s.colors) {
		if s.err != nil {
			return rgb.Color{}, s.err
		}
		s.cancel()
		return rgb.Color{}, ctx.Err()
	}
	c := s.colors[s.n]
	s.n++
	return c, nil
}

type call struct {
	enable    bool
	cancelled bool
}

type fakeToggler struct {
	calls  []call
	result toggle.Result
	during func()
}

func (f *fakeToggler) SetElement(ctx context.Context, _ toggle.Target, enable bool) toggle.Result {
	if f.during != nil {
		f.during()
	}
	f.calls = append(f.calls, call{enable: enable, cancelled: ctx.Err() != nil})
	return f.result
}

func (f *fakeToggler) enables() []bool {
	out := make([]bool, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.enable
	}
	return out
}

func repeat(c rgb.Color, n int) []rgb.Color {
	out := make([]rgb.Color, n)
	for i := range out {
		out[i] = c
	}
	return out
}

func newRun(colors []rgb.Color) (*Monitor, *script, *fakeToggler, *fakeClock, *[]Event, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &script{colors: colors, cancel: cancel}
	tog := &fakeToggler{result: toggle.Applied}
	clk := &fakeClock{now: t0}
	var events []Event
	m := New(testCf, src, tog, WithClock(clk), WithObserver(func(e Event) { events = append(events, e) }))
	return m, src, tog, clk, &events, ctx
}

func TestRunScenario(t *testing.T) {
	colors := []rgb.Color{gray, gray, rgb.Black, rgb.New(200, 30, 31)}
	colors = append(colors, repeat(rgb.Black, 201)...) // loss at k=0, revert at k=200 (20s)

	m, _, tog, clk, events, ctx := newRun(colors)
	require.NoError(t, m.Run(ctx))

	assert.Equal(t, []bool{true, false}, tog.enables())

	// black detection sleeps 4s per tick until the transition tick, then 100ms
	require.GreaterOrEqual(t, len(clk.sleeps), 4)
	assert.Equal(t, []time.Duration{4 * time.Second, 4 * time.Second, 4 * time.Second, 100 * time.Millisecond}, clk.sleeps[:4])

	var kinds []EventKind
	var transitions []Phase
	for _, e := range *events {
		kinds = append(kinds, e.Kind)
		if e.Kind == EventTransition {
			transitions = append(transitions, e.To)
		}
	}
	assert.Equal(t, EventStarted, kinds[0])
	assert.Equal(t, EventStopped, kinds[len(kinds)-1])
	assert.Equal(t, []Phase{MonitoringColor, DetectingBlack}, transitions)

	st := m.Status()
	assert.False(t, st.Running)
	assert.Equal(t, DetectingBlack, st.Phase)
	assert.False(t, st.ElementEnabled)
	assert.Equal(t, uint64(len(colors)), st.Samples)
	assert.Equal(t, "applied", st.LastToggle)
}

func TestRunCaptureErrorIsFatal(t *testing.T) {
	m, src, tog, _, events, ctx := newRun([]rgb.Color{rgb.Black})
	src.err = apperrors.New(apperrors.CodeCapture, "no display")

	err := m.Run(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCapture))
	assert.Equal(t, []bool{true}, tog.enables())

	last := (*events)[len(*events)-1]
	assert.Equal(t, EventStopped, last.Kind)
	assert.Contains(t, last.Error, "no display")
	assert.False(t, m.Status().Running)
}

func TestRunToggleFailureKeepsGoing(t *testing.T) {
	colors := append([]rgb.Color{rgb.Black}, repeat(red, 3)...)
	m, _, tog, _, _, ctx := newRun(colors)
	tog.result = toggle.Failed

	require.NoError(t, m.Run(ctx))
	// intended state is recorded so the enable is not repeated every tick
	assert.Equal(t, []bool{true}, tog.enables())
	assert.True(t, m.Status().ElementEnabled)
	assert.Equal(t, "failed", m.Status().LastToggle)
}

func TestRunInFlightToggleSurvivesCancel(t *testing.T) {
	m, src, tog, clk, _, ctx := newRun([]rgb.Color{rgb.Black, rgb.Black})
	tog.during = src.cancel

	require.NoError(t, m.Run(ctx))
	require.Len(t, tog.calls, 1)
	assert.False(t, tog.calls[0].cancelled, "toggle must see a live context")
	assert.Empty(t, clk.sleeps, "no tick after cancellation")
}

func TestRunAlreadyCancelled(t *testing.T) {
	m, src, tog, _, events, ctx := newRun([]rgb.Color{rgb.Black})
	src.cancel()

	require.NoError(t, m.Run(ctx))
	assert.Empty(t, tog.calls)
	assert.Len(t, *events, 2)
}

func TestStatusBeforeRun(t *testing.T) {
	m := New(testCf, &script{}, &fakeToggler{})
	st := m.Status()
	assert.False(t, st.Running)
	assert.Equal(t, DetectingBlack, st.Phase)
	assert.Equal(t, red, st.Target)
	assert.Contains(t, st.Toggle, "Blur")
}

func TestRealClockSleepHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := realClock{}.Sleep(ctx, time.Hour)
	assert.True(t, errors.Is(err, context.Canceled))
}
