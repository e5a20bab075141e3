package server

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/GriffinCanCode/screencue/internal/trace"
)

// Health serves the standard gRPC health protocol for the monitor.
type Health struct {
	srv    *grpc.Server
	health *health.Server
}

// NewHealth creates a health server reporting NOT_SERVING until SetServing(true).
func NewHealth() *Health {
	h := &Health{
		srv:    grpc.NewServer(grpc.UnaryInterceptor(trace.UnaryServerInterceptor())),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(h.srv, h.health)
	h.SetServing(false)
	return h
}

// SetServing flips both the overall and the monitor service status.
func (h *Health) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", st)
	h.health.SetServingStatus(HealthService, st)
}

// Fail marks the monitor stopped because of err.
func (h *Health) Fail(ctx context.Context, err error) {
	h.SetServing(false)
	if err != nil {
		st := status.Convert(err)
		trace.Logger(ctx).Warn("health set to not serving", "grpc_code", st.Code().String(), "error", st.Message())
	}
}

// Serve blocks serving on lis until Stop.
func (h *Health) Serve(lis net.Listener) error {
	return h.srv.Serve(lis)
}

// Stop drains in-flight calls and marks every service NOT_SERVING.
func (h *Health) Stop() {
	h.health.Shutdown()
	h.srv.GracefulStop()
}
