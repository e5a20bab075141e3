// screencue watches a screen region for a color cue and toggles an OBS filter or source in response
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/screencue/internal/config"
	"github.com/GriffinCanCode/screencue/internal/logging"
	"github.com/GriffinCanCode/screencue/internal/obsws"
	"github.com/GriffinCanCode/screencue/internal/orchestrator"
	"github.com/GriffinCanCode/screencue/internal/screen"
)

func main() {
	// Setup structured logging
	logging.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := buildApp(deps{
		loadSettings: config.Load,
		newCapturer:  screen.New,
		newRemote: func(cfg obsws.Config) remote {
			return obsws.New(cfg)
		},
		stdout: os.Stdout,
	})

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("screencue failed", "error", err)
		os.Exit(1)
	}
}

// remote is an OBS client the commands can close.
type remote interface {
	orchestrator.Remote
	Close() error
}
