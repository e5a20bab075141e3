package orchestrator

import (
	"context"

	"github.com/GriffinCanCode/screencue/internal/config"
	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
	"github.com/GriffinCanCode/screencue/internal/screen"
	"github.com/GriffinCanCode/screencue/internal/trace"
)

// Calibration is what setup records about the target block.
type Calibration struct {
	Coordinates config.Point
	ColorBlock  config.ColorBlock
	Resolution  config.Resolution
}

// Calibrate samples the block whose top-left corner is (x, y), or the cursor
// position when fromCursor is set, and records the screen size.
func Calibrate(ctx context.Context, c screen.Capturer, x, y, block int, fromCursor bool) (*Calibration, error) {
	ctx, span := trace.StartSpan(ctx, "calibrate")
	defer span.End()

	if fromCursor {
		cx, cy, err := c.Cursor(ctx)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeCapture, "read cursor position")
		}
		x, y = cx, cy
	}
	if block <= 0 {
		block = screen.DefaultBlockSize
	}

	w, h, err := c.Size(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCapture, "read screen size")
	}
	if x < 0 || y < 0 || x >= w || y >= h {
		return nil, apperrors.Newf(apperrors.CodeConfiguration, "point (%d, %d) outside screen %dx%d", x, y, w, h)
	}

	probe, err := screen.NewSampler(c).Probe(ctx, screen.Region{X: x, Y: y, Width: block, Height: block})
	if err != nil {
		return nil, err
	}
	trace.Logger(ctx).Info("captured target color", "x", x, "y", y, "color", probe.Color.String())

	return &Calibration{
		Coordinates: config.Point{X: x, Y: y},
		ColorBlock: config.ColorBlock{
			Color:  probe.Color.Slice(),
			Width:  block,
			Height: block,
			Hash:   probe.Fingerprint,
		},
		Resolution: config.Resolution{Width: w, Height: h},
	}, nil
}

// Apply copies the calibration into f.
func (c *Calibration) Apply(f *config.File) {
	f.Coordinates = c.Coordinates
	f.ColorBlock = c.ColorBlock
	f.ScreenResolution = c.Resolution
}
