package obsws_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
	"github.com/GriffinCanCode/screencue/internal/obsws"
	"github.com/GriffinCanCode/screencue/internal/obsws/obswstest"
)

func dial(t *testing.T, srv *obswstest.Server) *obsws.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := obsws.Dial(ctx, srv.Config())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestAuthString(t *testing.T) {
	// Worked example from the obs-websocket protocol documentation.
	got := obsws.AuthString("supersecretpassword",
		"lM1GncleQOaCu9lT1yeUZhFYnqhsLLP1G5lAGo3ixaI=",
		"+IxH4CnCiqpX1rM9scsNynZzbOe4KhDeYcTNS3PDaeY=")
	assert.Equal(t, "1Ct943GAT+6YQUUX47Ia/ncufilbe6+oD6lY+5kaCu4=", got)
}

func TestConfigURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:4455", obsws.Config{Host: "localhost", Port: 4455}.URL())
	assert.Equal(t, "ws://[::1]:4455", obsws.Config{Host: "::1", Port: 4455}.URL())
}

func TestDialWithPassword(t *testing.T) {
	srv := obswstest.NewServer("supersecretpassword")
	defer srv.Close()

	c := dial(t, srv)
	v, err := c.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5.4.2", v.OBSWebSocketVersion)
	assert.Equal(t, 1, v.RPCVersion)
	assert.True(t, c.Connected())
}

func TestDialWrongPassword(t *testing.T) {
	srv := obswstest.NewServer("right")
	defer srv.Close()

	cfg := srv.Config()
	cfg.Password = "wrong"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := obsws.Dial(ctx, cfg)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnavailable))
	assert.Contains(t, err.Error(), "authentication failed")
	assert.Zero(t, srv.Connections())
}

func TestDialNoServer(t *testing.T) {
	srv := obswstest.NewServer("")
	cfg := srv.Config()
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := obsws.Dial(ctx, cfg)
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
	assert.ErrorIs(t, err, obsws.ErrNotConnected)
}

func TestFilterRoundTrip(t *testing.T) {
	srv := obswstest.NewServer("")
	defer srv.Close()
	srv.AddFilter("Camera", "Blur", false)

	c := dial(t, srv)
	ctx := context.Background()

	require.NoError(t, c.SetSourceFilterEnabled(ctx, "Camera", "Blur", true))
	assert.True(t, srv.FilterEnabled("Camera", "Blur"))

	on, err := c.GetSourceFilterEnabled(ctx, "Camera", "Blur")
	require.NoError(t, err)
	assert.True(t, on)

	calls := srv.CallsOf(obsws.ReqSetSourceFilterEnabled)
	require.Len(t, calls, 1)
	assert.Equal(t, "Camera", calls[0].Data["sourceName"])
	assert.Equal(t, "Blur", calls[0].Data["filterName"])
	assert.Equal(t, true, calls[0].Data["filterEnabled"])
}

func TestSceneItemRoundTrip(t *testing.T) {
	srv := obswstest.NewServer("")
	defer srv.Close()
	want := srv.AddSceneItem("Main", "Overlay", true)

	c := dial(t, srv)
	ctx := context.Background()

	id, err := c.GetSceneItemID(ctx, "Main", "Overlay")
	require.NoError(t, err)
	assert.Equal(t, want, id)

	require.NoError(t, c.SetSceneItemEnabled(ctx, "Main", id, false))
	assert.False(t, srv.ItemEnabled(id))

	on, err := c.GetSceneItemEnabled(ctx, "Main", id)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestRequestRejected(t *testing.T) {
	srv := obswstest.NewServer("")
	defer srv.Close()

	c := dial(t, srv)
	err := c.SetSourceFilterEnabled(context.Background(), "Missing", "Blur", true)
	require.Error(t, err)

	var reqErr *obsws.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, obsws.ReqSetSourceFilterEnabled, reqErr.RequestType)
	assert.Equal(t, 600, reqErr.Code)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRemoteTransient))
	// a rejected request keeps the session
	assert.True(t, c.Connected())
}

func TestEventsAreSkipped(t *testing.T) {
	srv := obswstest.NewServer("")
	defer srv.Close()
	srv.AddFilter("Camera", "Blur", true)
	srv.EmitEvents(true)

	c := dial(t, srv)
	on, err := c.GetSourceFilterEnabled(context.Background(), "Camera", "Blur")
	require.NoError(t, err)
	assert.True(t, on)
}

func TestReconnectAfterDrop(t *testing.T) {
	srv := obswstest.NewServer("")
	defer srv.Close()
	srv.AddFilter("Camera", "Blur", false)

	c := dial(t, srv)
	ctx := context.Background()

	srv.DropNext(1)
	err := c.SetSourceFilterEnabled(ctx, "Camera", "Blur", true)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRemoteTransient))
	assert.False(t, c.Connected())

	require.NoError(t, c.SetSourceFilterEnabled(ctx, "Camera", "Blur", true))
	assert.True(t, srv.FilterEnabled("Camera", "Blur"))
	assert.Equal(t, 2, srv.Connections())
}

func TestLazyConnect(t *testing.T) {
	srv := obswstest.NewServer("")
	defer srv.Close()

	c := obsws.New(srv.Config())
	defer c.Close()
	assert.False(t, c.Connected())
	assert.Zero(t, srv.Connections())

	_, err := c.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Connections())
}

func TestCloseIdempotent(t *testing.T) {
	srv := obswstest.NewServer("")
	defer srv.Close()

	c := dial(t, srv)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.False(t, c.Connected())
}
