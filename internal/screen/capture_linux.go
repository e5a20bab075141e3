//go:build linux

package screen

import (
	"context"
	"fmt"
	"os"
)

type linuxBackend struct{}

func (linuxBackend) captureRegion(ctx context.Context, r Region, path string) error {
	// grim on Wayland, then ImageMagick import or maim on X11
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		if _, ok := firstTool("grim"); ok {
			_, err := run(ctx, "grim", "-g", fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height), path)
			return err
		}
	}
	tool, ok := firstTool("import", "maim")
	if !ok {
		return fmt.Errorf("no screenshot tool found (install grim, imagemagick or maim)")
	}
	geometry := r.String()
	var err error
	switch tool {
	case "import":
		_, err = run(ctx, "import", "-silent", "-window", "root", "-crop", geometry, "+repage", path)
	case "maim":
		_, err = run(ctx, "maim", "-g", geometry, path)
	}
	return err
}

func (linuxBackend) screenSize(ctx context.Context) (int, int, error) {
	tool, ok := firstTool("xdpyinfo", "xrandr")
	if !ok {
		return 0, 0, fmt.Errorf("screen size: %w (install xdpyinfo or xrandr)", ErrUnsupported)
	}
	args := []string{}
	if tool == "xrandr" {
		args = append(args, "--current")
	}
	out, err := run(ctx, tool, args...)
	if err != nil {
		return 0, 0, err
	}
	return parseDimensions(string(out))
}

func (linuxBackend) cursorPosition(ctx context.Context) (int, int, error) {
	if _, ok := firstTool("xdotool"); !ok {
		return 0, 0, fmt.Errorf("cursor position: %w (install xdotool)", ErrUnsupported)
	}
	out, err := run(ctx, "xdotool", "getmouselocation", "--shell")
	if err != nil {
		return 0, 0, err
	}
	return parseMouseLocation(string(out))
}

// New creates a platform-specific screen capturer
func New() Capturer {
	return newBase(linuxBackend{}, mustTempDir())
}
