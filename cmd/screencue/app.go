package main

import (
	"io"

	"github.com/urfave/cli/v2"

	"github.com/GriffinCanCode/screencue/internal/config"
	"github.com/GriffinCanCode/screencue/internal/obsws"
	"github.com/GriffinCanCode/screencue/internal/screen"
)

type deps struct {
	loadSettings func() *config.Config
	newCapturer  func() screen.Capturer
	newRemote    func(obsws.Config) remote
	stdout       io.Writer
}

func buildApp(d deps) *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "monitor record file (.json, .toml or .yaml)",
	}

	return &cli.App{
		Name:      "screencue",
		Usage:     "toggle an OBS filter or source when a screen region changes color",
		Writer:    d.stdout,
		ErrWriter: d.stdout,
		Flags:     []cli.Flag{configFlag},
		Action: func(c *cli.Context) error {
			return runMonitor(c.Context, d, settings(c, d))
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "monitor until interrupted",
				Action: func(c *cli.Context) error {
					return runMonitor(c.Context, d, settings(c, d))
				},
			},
			setupCommand(d),
			{
				Name:  "probe",
				Usage: "check the OBS connection and sample the configured block once",
				Action: func(c *cli.Context) error {
					return runProbe(c.Context, d, settings(c, d))
				},
			},
			{
				Name:  "history",
				Usage: "print recent journal entries",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "journal", Usage: "journal database (defaults to JOURNAL_PATH)"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20},
				},
				Action: func(c *cli.Context) error {
					s := settings(c, d)
					if p := c.String("journal"); p != "" {
						s.JournalPath = p
					}
					return runHistory(c.Context, d, s, c.Int("limit"))
				},
			},
			{
				Name:  "health",
				Usage: "query the health endpoint of a running monitor",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "gRPC health address (defaults to GRPC_ADDR)"},
					&cli.DurationFlag{Name: "wait", Usage: "block until serving, up to this long"},
				},
				Action: func(c *cli.Context) error {
					s := settings(c, d)
					if a := c.String("addr"); a != "" {
						s.GRPCAddr = a
					}
					return runHealth(c.Context, d, s, c.Duration("wait"))
				},
			},
		},
	}
}

// settings loads process settings; --config overrides SCREENCUE_CONFIG.
func settings(c *cli.Context, d deps) *config.Config {
	s := d.loadSettings()
	if p := c.String("config"); p != "" {
		s.ConfigPath = p
	}
	if s.ConfigPath == "" {
		s.ConfigPath = config.DefaultConfigPath
	}
	return s
}
