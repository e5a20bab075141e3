//go:build darwin

package screen

import (
	"context"
	"fmt"
)

type darwinBackend struct{}

func (darwinBackend) captureRegion(ctx context.Context, r Region, path string) error {
	// -x: no sound, -R: rectangle in points
	_, err := run(ctx, "screencapture", "-x", "-t", "png",
		"-R", fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.Width, r.Height), path)
	return err
}

func (darwinBackend) screenSize(ctx context.Context) (int, int, error) {
	out, err := run(ctx, "system_profiler", "SPDisplaysDataType")
	if err != nil {
		return 0, 0, err
	}
	return parseDimensions(string(out))
}

func (darwinBackend) cursorPosition(context.Context) (int, int, error) {
	return 0, 0, fmt.Errorf("cursor position: %w", ErrUnsupported)
}

// New creates a platform-specific screen capturer
func New() Capturer {
	return newBase(darwinBackend{}, mustTempDir())
}
