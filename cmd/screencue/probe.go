package main

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/screencue/internal/config"
	"github.com/GriffinCanCode/screencue/internal/orchestrator"
	"github.com/GriffinCanCode/screencue/internal/rgb"
)

func runProbe(ctx context.Context, d deps, s *config.Config) error {
	file, err := config.Read(s.ConfigPath)
	if err != nil {
		return withSetupHint(err, s.ConfigPath)
	}

	capturer := d.newCapturer()
	defer capturer.Close()
	client := d.newRemote(file.OBS(s))
	defer func() { _ = client.Close() }()

	mgr, err := orchestrator.New(orchestrator.Deps{Settings: s, File: file, Capturer: capturer, Remote: client})
	if err != nil {
		return err
	}
	defer mgr.Close()

	report, err := mgr.Preflight(ctx)
	if err != nil {
		return withSetupHint(err, s.ConfigPath)
	}

	target := mgr.Status().Target
	w := d.stdout
	fmt.Fprintf(w, "obs %s (websocket %s, %s)\n", report.Version.OBSVersion, report.Version.OBSWebSocketVersion, report.Version.Platform)
	fmt.Fprintf(w, "screen %dx%d (recorded %dx%d)\n", report.ScreenWidth, report.ScreenHeight,
		file.ScreenResolution.Width, file.ScreenResolution.Height)
	fmt.Fprintf(w, "sampled %s, target %s, distance %.1f (match=%t)\n",
		report.Color, target, report.TargetDistance, report.TargetDistance <= s.Tolerance)
	fmt.Fprintf(w, "black %t\n", rgb.Matches(report.Color, rgb.Black, s.Tolerance))
	if report.FingerprintDrift >= 0 {
		fmt.Fprintf(w, "fingerprint drift %d\n", report.FingerprintDrift)
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}
