// Package grpcclient queries the health endpoint of a running monitor.
package grpcclient

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"

	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
	"github.com/GriffinCanCode/screencue/internal/resilience"
)

const (
	keepaliveTime    = 10 * time.Second
	keepaliveTimeout = 3 * time.Second
	checkTimeout     = 2 * time.Second
	PollInterval     = 500 * time.Millisecond // pause between checks in Wait
)

// ErrNotServing is returned by Wait when the deadline passes before SERVING.
var ErrNotServing = errors.New("monitor not serving")

// Client wraps a health client for one monitor process.
type Client struct {
	conn    *grpc.ClientConn
	health  healthpb.HealthClient
	breaker *resilience.Breaker
}

// New creates a client for addr. No connection is made until the first call.
func New(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    keepaliveTime,
			Timeout: keepaliveTimeout,
		}),
	)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeConfiguration, "grpc client %s", addr)
	}
	bc := resilience.DefaultConfig()
	bc.Name = "health"
	return &Client{
		conn:    conn,
		health:  healthpb.NewHealthClient(conn),
		breaker: resilience.NewBreaker(bc),
	}, nil
}

// Close closes the gRPC connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Check returns the serving status of service ("" for the whole process).
func (c *Client) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	var st healthpb.HealthCheckResponse_ServingStatus
	err := c.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			return err
		}
		st = resp.GetStatus()
		return nil
	})
	if err == nil {
		return st, nil
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.NotFound {
		return healthpb.HealthCheckResponse_SERVICE_UNKNOWN, nil
	}
	return healthpb.HealthCheckResponse_UNKNOWN, apperrors.Wrap(err, apperrors.CodeUnavailable, "health check")
}

// Wait polls Check until service reports SERVING or ctx ends.
func (c *Client) Wait(ctx context.Context, service string) error {
	var last error
	for {
		st, err := c.Check(ctx, service)
		if err == nil && st == healthpb.HealthCheckResponse_SERVING {
			return nil
		}
		if err != nil {
			last = err
		} else {
			last = nil
			slog.Debug("monitor not ready", "service", service, "status", st.String())
		}
		if err := resilience.SleepContext(ctx, PollInterval); err != nil {
			if last != nil {
				return errors.Join(ErrNotServing, last)
			}
			return ErrNotServing
		}
	}
}
