// Package toggle switches a remote filter or scene item to a desired state,
// retrying transient failures and never surfacing them to the caller.
package toggle

import (
	"context"
	"time"

	"github.com/GriffinCanCode/screencue/internal/metrics"
	"github.com/GriffinCanCode/screencue/internal/resilience"
	"github.com/GriffinCanCode/screencue/internal/trace"
)

// Remote is the subset of the OBS request API the toggles need.
type Remote interface {
	GetSourceFilterEnabled(ctx context.Context, source, filter string) (bool, error)
	SetSourceFilterEnabled(ctx context.Context, source, filter string, enabled bool) error
	GetSceneItemID(ctx context.Context, scene, source string) (int, error)
	GetSceneItemEnabled(ctx context.Context, scene string, itemID int) (bool, error)
	SetSceneItemEnabled(ctx context.Context, scene string, itemID int, enabled bool) error
}

// Result is the outcome of one toggle operation.
type Result int

const (
	Applied   Result = iota // mutation issued
	Unchanged               // remote already in the desired state
	Failed                  // attempts exhausted
	Invalid                 // target misconfigured, no remote call made
)

func (r Result) String() string {
	return [...]string{"applied", "unchanged", "failed", "invalid"}[r]
}

// OK reports whether the remote now holds the desired state.
func (r Result) OK() bool { return r == Applied || r == Unchanged }

// Client performs idempotent toggles with bounded retry.
type Client struct {
	remote Remote
	retry  resilience.RetryConfig
}

// New creates a client. A zero RetryConfig uses 3 attempts, 1s apart.
func New(remote Remote, retry resilience.RetryConfig) *Client {
	if retry.Attempts == 0 && retry.Backoff == 0 {
		retry = resilience.DefaultRetryConfig()
	}
	retry.IsRetryable = resilience.Always
	return &Client{remote: remote, retry: retry}
}

// SetElement dispatches on the target variant.
func (c *Client) SetElement(ctx context.Context, target Target, enable bool) Result {
	if target == nil {
		trace.Logger(ctx).Error("toggle skipped: no target configured")
		metrics.Toggles.WithLabelValues("none", Invalid.String()).Inc()
		return Invalid
	}
	if err := target.Validate(); err != nil {
		trace.Logger(ctx).Error("toggle skipped", "kind", target.Kind(), "error", err)
		metrics.Toggles.WithLabelValues(string(target.Kind()), Invalid.String()).Inc()
		return Invalid
	}
	switch t := target.(type) {
	case FilterTarget:
		return c.SetFilterEnabled(ctx, t, enable)
	case VisibilityTarget:
		return c.SetSourceVisible(ctx, t, enable)
	}
	return Invalid
}

// SetFilterEnabled enables or disables the filter if it differs from enable.
func (c *Client) SetFilterEnabled(ctx context.Context, t FilterTarget, enable bool) Result {
	return c.run(ctx, t, enable, func(ctx context.Context) (bool, error) {
		current, err := c.remote.GetSourceFilterEnabled(ctx, t.Source, t.Filter)
		if err != nil {
			return false, err
		}
		if current == enable {
			return false, nil
		}
		return true, c.remote.SetSourceFilterEnabled(ctx, t.Source, t.Filter, enable)
	})
}

// SetSourceVisible shows or hides the source's scene item if it differs from enable.
// The item id is resolved on every attempt.
func (c *Client) SetSourceVisible(ctx context.Context, t VisibilityTarget, enable bool) Result {
	return c.run(ctx, t, enable, func(ctx context.Context) (bool, error) {
		id, err := c.remote.GetSceneItemID(ctx, t.Scene, t.Source)
		if err != nil {
			return false, err
		}
		current, err := c.remote.GetSceneItemEnabled(ctx, t.Scene, id)
		if err != nil {
			return false, err
		}
		if current == enable {
			return false, nil
		}
		return true, c.remote.SetSceneItemEnabled(ctx, t.Scene, id, enable)
	})
}

func (c *Client) run(ctx context.Context, target Target, enable bool, op func(context.Context) (bool, error)) Result {
	ctx, span := trace.StartSpan(ctx, "toggle")
	defer span.End()
	span.SetAttr("target", target.String())
	span.SetAttr("enable", enable)

	log := trace.Logger(ctx)
	kind := string(target.Kind())

	cfg := c.retry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		metrics.ToggleRetries.WithLabelValues(kind).Inc()
		log.Warn("toggle attempt failed", "target", target.String(), "attempt", attempt, "retry_in", delay, "error", err)
	}

	var changed bool
	err := resilience.Retry(ctx, cfg, func(int) error {
		var err error
		changed, err = op(ctx)
		return err
	})

	result := Unchanged
	switch {
	case err != nil:
		result = Failed
		log.Error("failed to toggle after retries", "target", target.String(), "enable", enable, "error", err)
	case changed:
		result = Applied
		log.Info("toggled", "target", target.String(), "enable", enable)
	default:
		log.Debug("already in desired state", "target", target.String(), "enable", enable)
	}
	span.SetAttr("result", result.String())
	metrics.Toggles.WithLabelValues(kind, result.String()).Inc()
	return result
}
