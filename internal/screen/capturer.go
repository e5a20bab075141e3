// Package screen captures small screen regions and reduces them to a color
package screen

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // JPEG decoder
	"image/png"
	"os"
	"path/filepath"

	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
)

// ErrUnsupported is returned by operations the current platform cannot perform.
var ErrUnsupported = errors.New("not supported on this platform")

// Region is a rectangle in screen-pixel coordinates.
type Region struct {
	X, Y          int
	Width, Height int
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Valid reports whether the region has a positive area and a non-negative origin.
func (r Region) Valid() bool {
	return r.X >= 0 && r.Y >= 0 && r.Width > 0 && r.Height > 0
}

// Capturer grabs screen regions
type Capturer interface {
	Capture(ctx context.Context, r Region) (*image.RGBA, error)
	Size(ctx context.Context) (width, height int, err error)
	Cursor(ctx context.Context) (x, y int, err error)
	Close()
}

// backend implements platform-specific capture by writing an image file
type backend interface {
	captureRegion(ctx context.Context, r Region, path string) error
	screenSize(ctx context.Context) (int, int, error)
	cursorPosition(ctx context.Context) (int, int, error)
}

// baseCapturer decodes backend output and owns the temp directory
type baseCapturer struct {
	backend
	tempDir string
}

func newBase(b backend, tempDir string) *baseCapturer {
	return &baseCapturer{backend: b, tempDir: tempDir}
}

func (c *baseCapturer) Capture(ctx context.Context, r Region) (*image.RGBA, error) {
	if !r.Valid() {
		return nil, apperrors.Newf(apperrors.CodeCapture, "invalid region %s", r)
	}
	path := filepath.Join(c.tempDir, "region.png")
	defer os.Remove(path)

	if err := c.captureRegion(ctx, r, path); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeCapture, "capture region %s", r)
	}
	img, err := decodeFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeCapture, "decode region %s", r)
	}
	return img, nil
}

func (c *baseCapturer) Size(ctx context.Context) (int, int, error) {
	return c.screenSize(ctx)
}

func (c *baseCapturer) Cursor(ctx context.Context) (int, int, error) {
	return c.cursorPosition(ctx)
}

func (c *baseCapturer) Close() {
	if c.tempDir != "" {
		os.RemoveAll(c.tempDir)
	}
}

func decodeFile(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return toRGBA(img), nil
}

// toRGBA converts any image to *image.RGBA anchored at the origin.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// EncodePNG writes img to path; used by backends and tests that synthesize captures.
func EncodePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newTempDir() (string, error) {
	return os.MkdirTemp("", "screencue-*")
}
