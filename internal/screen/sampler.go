package screen

import (
	"context"
	"image"
	"time"

	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
	"github.com/GriffinCanCode/screencue/internal/metrics"
	"github.com/GriffinCanCode/screencue/internal/rgb"
)

// DefaultBlockSize is the side of the square sampled around the configured point.
const DefaultBlockSize = 15

// Sampler reduces captured regions to their mean color.
type Sampler struct {
	capturer Capturer
}

// NewSampler creates a sampler over capturer.
func NewSampler(capturer Capturer) *Sampler {
	return &Sampler{capturer: capturer}
}

// Sample captures r and returns its mean color. Capture errors are returned as-is;
// the caller decides whether they are fatal.
func (s *Sampler) Sample(ctx context.Context, r Region) (rgb.Color, error) {
	img, err := s.capture(ctx, r)
	if err != nil {
		return rgb.Color{}, err
	}
	return Mean(img), nil
}

// Probe is a sampled color plus the region's perceptual fingerprint.
type Probe struct {
	Color       rgb.Color
	Fingerprint string
}

// Probe samples r and fingerprints it, for calibration and drift checks.
func (s *Sampler) Probe(ctx context.Context, r Region) (Probe, error) {
	img, err := s.capture(ctx, r)
	if err != nil {
		return Probe{}, err
	}
	fp, err := Fingerprint(img)
	if err != nil {
		return Probe{}, err
	}
	return Probe{Color: Mean(img), Fingerprint: fp}, nil
}

func (s *Sampler) capture(ctx context.Context, r Region) (*image.RGBA, error) {
	start := time.Now()
	img, err := s.capturer.Capture(ctx, r)
	metrics.CaptureDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		err = checkSize(img, r)
	}
	if err != nil {
		metrics.CaptureErrors.Inc()
		return nil, err
	}
	return img, nil
}

// checkSize rejects captures clipped by the screen edge or otherwise not w x h;
// their mean would read as black.
func checkSize(img *image.RGBA, r Region) error {
	if img == nil || img.Bounds().Empty() {
		return apperrors.Newf(apperrors.CodeCapture, "empty capture for region %s", r)
	}
	if b := img.Bounds(); b.Dx() != r.Width || b.Dy() != r.Height {
		return apperrors.Newf(apperrors.CodeCapture, "capture is %dx%d, want %dx%d for region %s",
			b.Dx(), b.Dy(), r.Width, r.Height, r)
	}
	return nil
}

// Mean averages each channel over every pixel, truncating toward zero.
func Mean(img *image.RGBA) rgb.Color {
	var r, g, b uint64
	count := uint64(0)
	bounds := img.Bounds()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.PixOffset(bounds.Min.X, y)
		for x := 0; x < bounds.Dx(); x++ {
			idx := row + x*4
			r += uint64(img.Pix[idx])
			g += uint64(img.Pix[idx+1])
			b += uint64(img.Pix[idx+2])
			count++
		}
	}

	if count == 0 {
		return rgb.Black
	}
	return rgb.Color{R: uint8(r / count), G: uint8(g / count), B: uint8(b / count)}
}
