package main

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/screencue/internal/config"
	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
	"github.com/GriffinCanCode/screencue/internal/grpcclient"
	"github.com/GriffinCanCode/screencue/internal/server"
)

// runHealth reports the serving status of a running monitor. With wait > 0 it
// blocks until the monitor is serving or wait elapses.
func runHealth(ctx context.Context, d deps, s *config.Config, wait time.Duration) error {
	if s.GRPCAddr == "" {
		return apperrors.New(apperrors.CodeConfiguration, "no health address configured (set GRPC_ADDR or --addr)")
	}
	c, err := grpcclient.New(s.GRPCAddr)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if wait > 0 {
		ctx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		if err := c.Wait(ctx, server.HealthService); err != nil {
			return apperrors.Wrapf(err, apperrors.CodeUnavailable, "waiting for %s", s.GRPCAddr)
		}
	}

	st, err := c.Check(ctx, server.HealthService)
	if err != nil {
		return err
	}
	fmt.Fprintf(d.stdout, "%s %s\n", s.GRPCAddr, st)
	return nil
}
