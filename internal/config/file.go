package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
	"github.com/GriffinCanCode/screencue/internal/monitor"
	"github.com/GriffinCanCode/screencue/internal/obsws"
	"github.com/GriffinCanCode/screencue/internal/rgb"
	"github.com/GriffinCanCode/screencue/internal/screen"
	"github.com/GriffinCanCode/screencue/internal/toggle"
)

// DefaultConfigPath matches the file name earlier releases wrote.
const DefaultConfigPath = "obs_config.json"

// RequiredKeys must all be present in a record file.
var RequiredKeys = []string{
	"host", "port", "password", "toggle_type", "scene", "source",
	"coordinates", "color_block", "screen_resolution",
}

// Format is a record file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", apperrors.Newf(apperrors.CodeConfiguration, "unsupported config extension %q (use .json, .toml or .yaml)", filepath.Ext(path))
}

// Point is a screen coordinate.
type Point struct {
	X int `json:"x" toml:"x" yaml:"x"`
	Y int `json:"y" toml:"y" yaml:"y"`
}

// ColorBlock is the calibrated target color and sample block size.
type ColorBlock struct {
	Color  []int  `json:"color" toml:"color" yaml:"color"`
	Width  int    `json:"width" toml:"width" yaml:"width"`
	Height int    `json:"height" toml:"height" yaml:"height"`
	Hash   string `json:"hash,omitempty" toml:"hash,omitempty" yaml:"hash,omitempty"`
}

// Resolution is the screen size at calibration time.
type Resolution struct {
	Width  int `json:"width" toml:"width" yaml:"width"`
	Height int `json:"height" toml:"height" yaml:"height"`
}

// File is the monitor record: OBS connection, toggle target and calibration.
type File struct {
	Host             string     `json:"host" toml:"host" yaml:"host"`
	Port             int        `json:"port" toml:"port" yaml:"port"`
	Password         string     `json:"password" toml:"password" yaml:"password"`
	ToggleType       string     `json:"toggle_type" toml:"toggle_type" yaml:"toggle_type"`
	Scene            string     `json:"scene" toml:"scene" yaml:"scene"`
	Source           string     `json:"source" toml:"source" yaml:"source"`
	Filter           string     `json:"filter,omitempty" toml:"filter,omitempty" yaml:"filter,omitempty"`
	Coordinates      Point      `json:"coordinates" toml:"coordinates" yaml:"coordinates"`
	ColorBlock       ColorBlock `json:"color_block" toml:"color_block" yaml:"color_block"`
	ScreenResolution Resolution `json:"screen_resolution" toml:"screen_resolution" yaml:"screen_resolution"`
}

// Read loads and decodes the record at path.
func Read(path string) (*File, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.Wrapf(err, apperrors.CodeConfiguration, "config file %s not found", path)
		}
		return nil, apperrors.Wrapf(err, apperrors.CodeConfiguration, "read %s", path)
	}
	return Decode(data, format)
}

// Decode parses data and checks that every required key is present.
func Decode(data []byte, format Format) (*File, error) {
	var keys map[string]any
	if err := unmarshal(data, format, &keys); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeConfiguration, "parse %s config", format)
	}
	var missing []string
	for _, k := range RequiredKeys {
		if _, ok := keys[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.Newf(apperrors.CodeConfiguration, "missing keys: %s", strings.Join(missing, ", "))
	}

	var f File
	if err := unmarshal(data, format, &f); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeConfiguration, "parse %s config", format)
	}
	return &f, nil
}

// Encode renders the record in format.
func (f *File) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "    ")
		if err := enc.Encode(f); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		return toml.Marshal(f)
	case FormatYAML:
		return yaml.Marshal(f)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// Save writes the record to path, owner-readable only since it holds the password.
func (f *File) Save(path string) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := f.Encode(format)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "encode config")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return apperrors.Wrapf(err, apperrors.CodeConfiguration, "write %s", path)
	}
	return nil
}

// Target builds the toggle target variant.
func (f *File) Target() (toggle.Target, error) {
	kind, err := toggle.ParseKind(f.ToggleType)
	if err != nil {
		return nil, err
	}
	return toggle.NewTarget(kind, f.Scene, f.Source, f.Filter)
}

// Color returns the calibrated target color.
func (f *File) Color() (rgb.Color, error) {
	c, err := rgb.FromSlice(f.ColorBlock.Color)
	if err != nil {
		return rgb.Color{}, apperrors.Wrap(err, apperrors.CodeConfiguration, "color_block.color")
	}
	return c, nil
}

// Region is the sample block with its top-left corner at the coordinates.
func (f *File) Region() screen.Region {
	w, h := f.ColorBlock.Width, f.ColorBlock.Height
	if w <= 0 {
		w = screen.DefaultBlockSize
	}
	if h <= 0 {
		h = screen.DefaultBlockSize
	}
	return screen.Region{X: f.Coordinates.X, Y: f.Coordinates.Y, Width: w, Height: h}
}

// OBS returns the connection settings.
func (f *File) OBS(s *Config) obsws.Config {
	cfg := obsws.Config{Host: f.Host, Port: f.Port, Password: f.Password}
	if s != nil {
		cfg.RequestTimeout = s.RequestTimeout
	}
	return cfg
}

// Monitor validates the record and combines it with process settings.
func (f *File) Monitor(s *Config) (monitor.Config, error) {
	target, err := f.Target()
	if err != nil {
		return monitor.Config{}, err
	}
	if err := target.Validate(); err != nil {
		return monitor.Config{}, err
	}
	color, err := f.Color()
	if err != nil {
		return monitor.Config{}, err
	}
	if err := f.checkBounds(); err != nil {
		return monitor.Config{}, err
	}

	cfg := monitor.Config{
		Region:    f.Region(),
		Target:    color,
		Toggle:    target,
		Tolerance: rgb.DefaultTolerance,
	}
	if s != nil {
		cfg.BlackInterval = s.BlackInterval
		cfg.ColorInterval = s.ColorInterval
		cfg.RevertDelay = s.RevertDelay
		cfg.Tolerance = s.Tolerance
	}
	return cfg.WithDefaults(), nil
}

func (f *File) checkBounds() error {
	res, p := f.ScreenResolution, f.Coordinates
	if res.Width <= 0 || res.Height <= 0 {
		return apperrors.Newf(apperrors.CodeConfiguration, "screen_resolution %dx%d is not a valid size", res.Width, res.Height)
	}
	if p.X < 0 || p.Y < 0 || p.X >= res.Width || p.Y >= res.Height {
		return apperrors.Newf(apperrors.CodeConfiguration, "coordinates (%d, %d) outside recorded screen %dx%d", p.X, p.Y, res.Width, res.Height)
	}
	return nil
}

func unmarshal(data []byte, format Format, v any) error {
	switch format {
	case FormatJSON:
		return json.Unmarshal(data, v)
	case FormatTOML:
		return toml.Unmarshal(data, v)
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	}
	return fmt.Errorf("unknown format %q", format)
}
