// Package screentest provides a scripted screen.Capturer for tests.
package screentest

import (
	"context"
	"image"
	"image/color"
	"sync"

	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
	"github.com/GriffinCanCode/screencue/internal/rgb"
	"github.com/GriffinCanCode/screencue/internal/screen"
)

// Capturer returns solid-color frames from a script. Once the script is
// exhausted every capture fails with a capture error, or repeats the last
// color when Repeat is set.
type Capturer struct {
	Width, Height int
	CursorX       int
	CursorY       int
	Repeat        bool

	mu      sync.Mutex
	colors  []rgb.Color
	next    int
	regions []screen.Region
	closed  bool
}

// New creates a 1920x1080 capturer that yields colors in order.
func New(colors ...rgb.Color) *Capturer {
	return &Capturer{Width: 1920, Height: 1080, colors: colors}
}

func (c *Capturer) Capture(_ context.Context, r screen.Region) (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regions = append(c.regions, r)
	if c.next >= len(c.colors) {
		if !c.Repeat || len(c.colors) == 0 {
			return nil, apperrors.New(apperrors.CodeCapture, "script exhausted")
		}
		c.next = len(c.colors) - 1
	}
	col := c.colors[c.next]
	c.next++
	return Solid(r.Width, r.Height, col), nil
}

func (c *Capturer) Size(context.Context) (int, int, error) { return c.Width, c.Height, nil }

func (c *Capturer) Cursor(context.Context) (int, int, error) { return c.CursorX, c.CursorY, nil }

func (c *Capturer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close was called.
func (c *Capturer) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Regions returns every region captured so far.
func (c *Capturer) Regions() []screen.Region {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]screen.Region(nil), c.regions...)
}

// Solid builds a w x h image filled with col.
func Solid(w, h int, col rgb.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := color.RGBA{R: col.R, G: col.G, B: col.B, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	return img
}
