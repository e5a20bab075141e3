package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/GriffinCanCode/screencue/internal/config"
	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
	"github.com/GriffinCanCode/screencue/internal/journal"
	"github.com/GriffinCanCode/screencue/internal/orchestrator"
	"github.com/GriffinCanCode/screencue/internal/server"
	"github.com/GriffinCanCode/screencue/internal/trace"
)

func runMonitor(ctx context.Context, d deps, s *config.Config) error {
	ctx, _ = trace.EnsureContext(ctx)
	log := trace.Logger(ctx)

	file, err := config.Read(s.ConfigPath)
	if err != nil {
		return withSetupHint(err, s.ConfigPath)
	}

	capturer := d.newCapturer()
	defer capturer.Close()

	client := d.newRemote(file.OBS(s))
	defer func() { _ = client.Close() }()

	wiring := orchestrator.Deps{Settings: s, File: file, Capturer: capturer, Remote: client}
	var store *journal.Store
	if s.JournalPath != "" {
		if store, err = journal.Open(s.JournalPath); err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		wiring.Journal = store
		log.Info("journal enabled", "path", s.JournalPath, "session", store.Session())
	}

	mgr, err := orchestrator.New(wiring)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if _, err := mgr.Preflight(ctx); err != nil {
		return withSetupHint(err, s.ConfigPath)
	}

	var health *server.Health
	if s.GRPCAddr != "" {
		lis, err := net.Listen("tcp", s.GRPCAddr)
		if err != nil {
			return err
		}
		health = server.NewHealth()
		go func() {
			if err := health.Serve(lis); err != nil {
				log.Error("grpc health server error", "error", err)
			}
		}()
		defer health.Stop()
		log.Info("grpc health serving", "addr", lis.Addr().String())
	}

	if s.StatusAddr != "" {
		var history server.History
		if store != nil {
			history = store
		}
		stop, err := serveStatus(s.StatusAddr, server.New(mgr, mgr, history).Handler())
		if err != nil {
			return err
		}
		defer stop()
	}

	if health != nil {
		health.SetServing(true)
	}
	err = mgr.Run(ctx)
	if health != nil {
		health.Fail(ctx, err)
	}
	if err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// withSetupHint points a missing record or an unreachable OBS at the setup command.
func withSetupHint(err error, path string) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return apperrors.Wrapf(err, apperrors.CodeConfiguration, "no monitor record at %s; run `screencue setup` to create one", path)
	case apperrors.IsCode(err, apperrors.CodeUnavailable):
		return apperrors.Wrapf(err, apperrors.CodeUnavailable, "cannot reach OBS; check its WebSocket server or rerun `screencue setup` (record %s)", path)
	}
	return err
}

// serveStatus starts the HTTP status server and returns its graceful stop.
func serveStatus(addr string, handler http.Handler) (func(), error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	httpServer := &http.Server{
		Handler:     handler,
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("status server starting", "http", lis.Addr().String())
		if err := httpServer.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
	}, nil
}
