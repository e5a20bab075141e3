//go:build windows

package screen

import (
	"context"
	"fmt"
)

type windowsBackend struct{}

// TODO: implement region capture with GDI BitBlt
func (windowsBackend) captureRegion(context.Context, Region, string) error {
	return fmt.Errorf("region capture: %w", ErrUnsupported)
}

func (windowsBackend) screenSize(context.Context) (int, int, error) {
	return 0, 0, fmt.Errorf("screen size: %w", ErrUnsupported)
}

func (windowsBackend) cursorPosition(context.Context) (int, int, error) {
	return 0, 0, fmt.Errorf("cursor position: %w", ErrUnsupported)
}

// New creates a platform-specific screen capturer
func New() Capturer {
	return newBase(windowsBackend{}, mustTempDir())
}
