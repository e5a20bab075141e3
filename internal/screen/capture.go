package screen

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// run executes a capture tool and folds stderr into the error
func run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// firstTool returns the first tool found on PATH.
func firstTool(names ...string) (string, bool) {
	for _, n := range names {
		if _, err := exec.LookPath(n); err == nil {
			return n, true
		}
	}
	return "", false
}

var (
	xdpyinfoDims  = regexp.MustCompile(`dimensions:\s+(\d+)x(\d+) pixels`)
	xrandrCurrent = regexp.MustCompile(`current (\d+) x (\d+)`)
	profilerRes   = regexp.MustCompile(`Resolution:\s+(\d+) x (\d+)`)
)

// parseDimensions pulls the first WxH pair out of xdpyinfo, xrandr or system_profiler output.
func parseDimensions(out string) (int, int, error) {
	for _, re := range []*regexp.Regexp{xdpyinfoDims, xrandrCurrent, profilerRes} {
		if m := re.FindStringSubmatch(out); m != nil {
			w, _ := strconv.Atoi(m[1])
			h, _ := strconv.Atoi(m[2])
			return w, h, nil
		}
	}
	return 0, 0, fmt.Errorf("no screen dimensions in output")
}

// parseMouseLocation reads `xdotool getmouselocation --shell` output.
func parseMouseLocation(out string) (int, int, error) {
	x, y := -1, -1
	for _, line := range strings.Split(out, "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		switch k {
		case "X":
			x = n
		case "Y":
			y = n
		}
	}
	if x < 0 || y < 0 {
		return 0, 0, fmt.Errorf("no cursor position in output")
	}
	return x, y, nil
}

// mustTempDir mirrors the fallback the capture backends use when MkdirTemp fails
func mustTempDir() string {
	dir, err := newTempDir()
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		return os.TempDir()
	}
	return dir
}
