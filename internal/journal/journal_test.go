package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/screencue/internal/monitor"
	"github.com/GriffinCanCode/screencue/internal/rgb"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Memory)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

	events := []monitor.Event{
		{Kind: monitor.EventStarted, At: at, To: monitor.DetectingBlack},
		{Kind: monitor.EventTransition, At: at.Add(4 * time.Second), From: monitor.DetectingBlack, To: monitor.MonitoringColor},
		{Kind: monitor.EventToggle, At: at.Add(4 * time.Second), From: monitor.DetectingBlack, To: monitor.MonitoringColor,
			Color: rgb.Black, Enable: true, Result: "applied"},
		{Kind: monitor.EventStopped, At: at.Add(time.Minute), From: monitor.MonitoringColor, Error: "no display"},
	}
	for _, ev := range events {
		require.NoError(t, s.Record(ctx, ev))
	}

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "stopped", got[0].Kind)
	assert.Equal(t, "monitoring_color", got[0].FromPhase)
	assert.Empty(t, got[0].ToPhase)
	assert.Equal(t, "no display", got[0].Error)

	assert.Equal(t, "toggle", got[1].Kind)
	assert.True(t, got[1].Enable)
	assert.Equal(t, "applied", got[1].Result)
	assert.Equal(t, "#000000", got[1].Color)
	assert.True(t, got[1].At.Equal(at.Add(4*time.Second)))

	assert.Equal(t, "started", got[3].Kind)
	assert.Empty(t, got[3].FromPhase)
	for _, e := range got {
		assert.Equal(t, s.Session(), e.SessionID)
	}

	n, err := s.Count(ctx, monitor.EventToggle)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRecentLimit(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, monitor.Event{Kind: monitor.EventToggle, At: time.Now()}))
	}
	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Greater(t, got[0].ID, got[1].ID)
}

func TestOpenFileSessionsDiffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.db")
	ctx := context.Background()

	a, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, a.Record(ctx, monitor.Event{Kind: monitor.EventStarted, At: time.Now()}))
	require.NoError(t, a.Close())

	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()
	assert.NotEqual(t, a.Session(), b.Session())

	got, err := b.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.Session(), got[0].SessionID)
}
