// Package rgb provides the 8-bit color value and tolerance comparison used by the monitor
package rgb

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultTolerance is the maximum Euclidean distance for two colors to match
const DefaultTolerance = 17.0

// Color is an immutable 8-bit RGB triple
type Color struct {
	R, G, B uint8
}

// Black is the loading-screen reference color
var Black = Color{}

// New builds a color from channel values
func New(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

func (c Color) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// Hex returns the #rrggbb form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Slice returns the channels in [r, g, b] order, the layout used by config files.
func (c Color) Slice() []int {
	return []int{int(c.R), int(c.G), int(c.B)}
}

// MarshalJSON encodes the color as [r, g, b].
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Slice())
}

func (c *Color) UnmarshalJSON(b []byte) error {
	var v []int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := FromSlice(v)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// FromSlice builds a color from a 3-element channel list
func FromSlice(v []int) (Color, error) {
	if len(v) != 3 {
		return Color{}, fmt.Errorf("color needs 3 channels, got %d", len(v))
	}
	for i, ch := range v {
		if ch < 0 || ch > 255 {
			return Color{}, fmt.Errorf("channel %d out of range: %d", i, ch)
		}
	}
	return Color{R: uint8(v[0]), G: uint8(v[1]), B: uint8(v[2])}, nil
}

// Parse accepts "#rrggbb", "rrggbb" or "r,g,b".
func Parse(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		vals := make([]int, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return Color{}, fmt.Errorf("parse color %q: %w", s, err)
			}
			vals = append(vals, n)
		}
		return FromSlice(vals)
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("parse color %q: want 6 hex digits", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

// Distance is the Euclidean distance between a and b in RGB space.
func Distance(a, b Color) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Matches reports whether a and b are within tolerance (inclusive).
func Matches(a, b Color, tolerance float64) bool {
	return Distance(a, b) <= tolerance
}
