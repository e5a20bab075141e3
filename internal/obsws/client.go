package obsws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
	"github.com/GriffinCanCode/screencue/internal/metrics"
	"github.com/GriffinCanCode/screencue/internal/resilience"
	"github.com/GriffinCanCode/screencue/internal/trace"
)

// Client configuration defaults
const (
	DefaultHost           = "localhost"
	DefaultPort           = 4455
	DefaultRequestTimeout = 5 * time.Second
	DefaultDialTimeout    = 5 * time.Second
	readLimit             = 1 << 20 // GetVersion lists every request type
)

// ErrNotConnected is wrapped into errors from calls that could not open a session.
var ErrNotConnected = errors.New("obs not connected")

// Config holds connection settings.
type Config struct {
	Host           string
	Port           int
	Password       string
	RequestTimeout time.Duration
	DialTimeout    time.Duration
	Breaker        resilience.Config
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.Breaker.Name == "" {
		c.Breaker = resilience.DefaultConfig()
	}
	return c
}

// URL returns the ws:// endpoint for cfg.
func (c Config) URL() string {
	return "ws://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Client sends one request at a time over a lazily (re)established session.
// A transport failure drops the session; the next request reconnects.
type Client struct {
	cfg     Config
	breaker *resilience.Breaker

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a client without connecting.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	name := cfg.Breaker.Name
	b := resilience.NewBreaker(cfg.Breaker).WithHook(func(_, to resilience.State) {
		metrics.BreakerState.WithLabelValues(name).Set(float64(to))
	})
	return &Client{cfg: cfg, breaker: b}
}

// Dial creates a client and performs the handshake.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	c := New(cfg)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureConn(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Close ends the session.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	c.conn = nil
	return err
}

// Connected reports whether a session is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// GetVersion is the connectivity probe.
func (c *Client) GetVersion(ctx context.Context) (Version, error) {
	var v Version
	err := c.call(ctx, ReqGetVersion, nil, &v)
	return v, err
}

// GetSourceFilterEnabled reports whether filterName on source is enabled.
func (c *Client) GetSourceFilterEnabled(ctx context.Context, source, filterName string) (bool, error) {
	var resp struct {
		FilterEnabled bool `json:"filterEnabled"`
	}
	err := c.call(ctx, ReqGetSourceFilter, map[string]any{
		"sourceName": source,
		"filterName": filterName,
	}, &resp)
	return resp.FilterEnabled, err
}

// SetSourceFilterEnabled enables or disables filterName on source.
func (c *Client) SetSourceFilterEnabled(ctx context.Context, source, filterName string, enabled bool) error {
	return c.call(ctx, ReqSetSourceFilterEnabled, map[string]any{
		"sourceName":    source,
		"filterName":    filterName,
		"filterEnabled": enabled,
	}, nil)
}

// GetSceneItemID resolves source to its scene item id within scene.
func (c *Client) GetSceneItemID(ctx context.Context, scene, source string) (int, error) {
	var resp struct {
		SceneItemID int `json:"sceneItemId"`
	}
	err := c.call(ctx, ReqGetSceneItemID, map[string]any{
		"sceneName":  scene,
		"sourceName": source,
	}, &resp)
	return resp.SceneItemID, err
}

// GetSceneItemEnabled reports the item's visibility.
func (c *Client) GetSceneItemEnabled(ctx context.Context, scene string, itemID int) (bool, error) {
	var resp struct {
		SceneItemEnabled bool `json:"sceneItemEnabled"`
	}
	err := c.call(ctx, ReqGetSceneItemEnabled, map[string]any{
		"sceneName":   scene,
		"sceneItemId": itemID,
	}, &resp)
	return resp.SceneItemEnabled, err
}

// SetSceneItemEnabled shows or hides the item.
func (c *Client) SetSceneItemEnabled(ctx context.Context, scene string, itemID int, enabled bool) error {
	return c.call(ctx, ReqSetSceneItemEnabled, map[string]any{
		"sceneName":        scene,
		"sceneItemId":      itemID,
		"sceneItemEnabled": enabled,
	}, nil)
}

func (c *Client) call(ctx context.Context, requestType string, data, out any) error {
	start := time.Now()
	err := c.request(ctx, requestType, data, out)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RemoteRequestDuration.WithLabelValues(requestType, status).Observe(time.Since(start).Seconds())
	return err
}

func (c *Client) request(ctx context.Context, requestType string, data, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConn(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	id := uuid.NewString()
	msg, err := Encode(OpRequest, Request{RequestType: requestType, RequestID: id, RequestData: data})
	if err != nil {
		return apperrors.Wrapf(err, apperrors.CodeInternal, "encode %s", requestType)
	}
	if err := wsjson.Write(ctx, c.conn, msg); err != nil {
		c.drop(err)
		return apperrors.Wrapf(err, apperrors.CodeRemoteTransient, "send %s", requestType)
	}

	for {
		var in Message
		if err := wsjson.Read(ctx, c.conn, &in); err != nil {
			c.drop(err)
			return apperrors.Wrapf(err, apperrors.CodeRemoteTransient, "await %s", requestType)
		}
		if in.Op != OpRequestResponse {
			continue // events and anything else unsolicited
		}

		var resp RequestResponse
		if err := json.Unmarshal(in.D, &resp); err != nil {
			return apperrors.Wrapf(err, apperrors.CodeRemoteTransient, "decode %s response", requestType)
		}
		if resp.RequestID != id {
			continue
		}
		if !resp.RequestStatus.Result {
			return apperrors.Wrap(&RequestError{
				RequestType: requestType,
				Code:        resp.RequestStatus.Code,
				Comment:     resp.RequestStatus.Comment,
			}, apperrors.CodeRemoteTransient, "request rejected")
		}
		if out != nil && len(resp.ResponseData) > 0 {
			if err := json.Unmarshal(resp.ResponseData, out); err != nil {
				return apperrors.Wrapf(err, apperrors.CodeRemoteTransient, "decode %s data", requestType)
			}
		}
		return nil
	}
}

// ensureConn performs the handshake if no session is open. Caller holds mu.
func (c *Client) ensureConn(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	err := c.breaker.Execute(func() error {
		conn, err := c.handshake(ctx)
		if err != nil {
			return err
		}
		c.conn = conn
		return nil
	})
	if err != nil {
		metrics.RemoteConnects.WithLabelValues("error").Inc()
		return apperrors.Wrapf(fmt.Errorf("%w: %w", ErrNotConnected, err), apperrors.CodeUnavailable, "connect %s", c.cfg.URL())
	}
	metrics.RemoteConnects.WithLabelValues("ok").Inc()
	return nil
}

func (c *Client) handshake(ctx context.Context) (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, c.cfg.URL(), &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(readLimit)

	fail := func(err error) (*websocket.Conn, error) {
		_ = conn.Close(websocket.StatusProtocolError, "handshake failed")
		return nil, err
	}

	var hello Hello
	if err := readOp(ctx, conn, OpHello, &hello); err != nil {
		return fail(fmt.Errorf("hello: %w", err))
	}

	identify := Identify{RPCVersion: RPCVersion}
	if hello.Authentication != nil {
		identify.Authentication = AuthString(c.cfg.Password, hello.Authentication.Salt, hello.Authentication.Challenge)
	}
	msg, err := Encode(OpIdentify, identify)
	if err != nil {
		return fail(err)
	}
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		return fail(fmt.Errorf("identify: %w", err))
	}

	var identified Identified
	if err := readOp(ctx, conn, OpIdentified, &identified); err != nil {
		// OBS closes with 4009 on a bad password
		if websocket.CloseStatus(err) == CloseAuthenticationFailed {
			return fail(fmt.Errorf("authentication failed: %w", err))
		}
		return fail(fmt.Errorf("identified: %w", err))
	}

	trace.Logger(ctx).Info("connected to obs",
		"url", c.cfg.URL(),
		"obs_websocket_version", hello.OBSWebSocketVersion,
		"rpc_version", identified.NegotiatedRPCVersion)
	return conn, nil
}

// drop discards a broken session. Caller holds mu.
func (c *Client) drop(cause error) {
	if c.conn == nil {
		return
	}
	trace.Logger(context.Background()).Warn("obs connection lost", "error", cause)
	_ = c.conn.Close(websocket.StatusGoingAway, "")
	c.conn = nil
}

func readOp(ctx context.Context, conn *websocket.Conn, op int, out any) error {
	var msg Message
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		return err
	}
	if msg.Op != op {
		return fmt.Errorf("unexpected op %d, want %d", msg.Op, op)
	}
	return json.Unmarshal(msg.D, out)
}
