package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/GriffinCanCode/screencue/internal/config"
	"github.com/GriffinCanCode/screencue/internal/obsws"
	"github.com/GriffinCanCode/screencue/internal/orchestrator"
	"github.com/GriffinCanCode/screencue/internal/screen"
	"github.com/GriffinCanCode/screencue/internal/toggle"
)

func setupCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "sample the target color and write the monitor record",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: obsws.DefaultHost, Usage: "OBS WebSocket host"},
			&cli.IntFlag{Name: "port", Value: obsws.DefaultPort, Usage: "OBS WebSocket port"},
			&cli.StringFlag{Name: "password", EnvVars: []string{"OBS_PASSWORD"}, Usage: "OBS WebSocket password"},
			&cli.StringFlag{Name: "type", Value: string(toggle.KindFilter), Usage: "element to toggle: filter or visibility"},
			&cli.StringFlag{Name: "scene", Required: true},
			&cli.StringFlag{Name: "source", Required: true, Usage: "source carrying the filter, or the source to show/hide"},
			&cli.StringFlag{Name: "filter", Usage: "filter name (type=filter)"},
			&cli.IntFlag{Name: "x", Usage: "left edge of the sample block"},
			&cli.IntFlag{Name: "y", Usage: "top edge of the sample block"},
			&cli.IntFlag{Name: "block", Value: screen.DefaultBlockSize, Usage: "sample block side in pixels"},
			&cli.BoolFlag{Name: "from-cursor", Usage: "use the current mouse position instead of --x/--y"},
		},
		Action: func(c *cli.Context) error {
			s := settings(c, d)
			f := &config.File{
				Host:       c.String("host"),
				Port:       c.Int("port"),
				Password:   c.String("password"),
				ToggleType: c.String("type"),
				Scene:      c.String("scene"),
				Source:     c.String("source"),
				Filter:     c.String("filter"),
			}
			target, err := f.Target()
			if err != nil {
				return err
			}
			if err := target.Validate(); err != nil {
				return err
			}

			capturer := d.newCapturer()
			defer capturer.Close()

			cal, err := orchestrator.Calibrate(c.Context, capturer, c.Int("x"), c.Int("y"), c.Int("block"), c.Bool("from-cursor"))
			if err != nil {
				return err
			}
			cal.Apply(f)

			if err := f.Save(s.ConfigPath); err != nil {
				return err
			}
			fmt.Fprintf(d.stdout, "saved %s: %s, color %v at (%d, %d) on %dx%d\n",
				s.ConfigPath, target, f.ColorBlock.Color,
				f.Coordinates.X, f.Coordinates.Y, f.ScreenResolution.Width, f.ScreenResolution.Height)
			return nil
		},
	}
}
