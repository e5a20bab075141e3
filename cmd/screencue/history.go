package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/GriffinCanCode/screencue/internal/config"
	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
	"github.com/GriffinCanCode/screencue/internal/journal"
)

func runHistory(ctx context.Context, d deps, s *config.Config, limit int) error {
	if s.JournalPath == "" {
		return apperrors.New(apperrors.CodeConfiguration, "no journal configured (set JOURNAL_PATH or --journal)")
	}
	store, err := journal.Open(s.JournalPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(d.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AT\tKIND\tFROM\tTO\tENABLE\tRESULT\tCOLOR\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\t%s\t%s\n",
			e.At.Local().Format(time.DateTime), e.Kind, e.FromPhase, e.ToPhase, e.Enable, e.Result, e.Color, e.Error)
	}
	return tw.Flush()
}
