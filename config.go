package pdfhtml

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Positioning selects the unit used for overlay coordinates.
type Positioning string

const (
	// Pixel positions nodes in absolute CSS pixels, one per PDF point.
	Pixel Positioning = "pixel"
	// Percentage positions nodes relative to the page box so the page
	// scales with its container.
	Percentage Positioning = "percentage"
)

// Config controls a conversion. The zero value is not usable; start from
// [DefaultConfig] or pass [Option]s to [NewConverter].
type Config struct {
	// Workers bounds how many pages are processed at once. Must be >= 1.
	Workers int `yaml:"workers"`

	// FontScale multiplies every source font size, compensating for line
	// height differences between the PDF and the browser. Range [0.5, 1.5].
	FontScale float64 `yaml:"font_scale"`

	// ImageQuality is the JPEG quality for truecolor images. Range [50, 100].
	ImageQuality int `yaml:"image_quality"`

	// Positioning is pixel or percentage.
	Positioning Positioning `yaml:"positioning"`

	// MinImageDimension and MaxImageDimension bound accepted image sizes in
	// pixels; images outside the range are skipped.
	MinImageDimension int `yaml:"min_image_dimension"`
	MaxImageDimension int `yaml:"max_image_dimension"`

	// DownsampleLimit caps the longer side of an embedded image.
	DownsampleLimit int `yaml:"downsample_limit"`

	// YCollisionOffset is how far a line is pushed down when its vertical
	// position is already taken. Must be > 0.
	YCollisionOffset float64 `yaml:"y_collision_offset"`

	// YTolerance is the baseline distance, in points, within which runs
	// join the same line.
	YTolerance float64 `yaml:"y_tolerance"`

	// Script adds the text selection script to the document shell.
	Script bool `yaml:"script"`

	// Title is the document title. Defaults to "PDF Document".
	Title string `yaml:"title"`

	// Logger receives per-page and per-image diagnostics. Defaults to a
	// logger that discards everything.
	Logger logrus.FieldLogger `yaml:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Workers:           4,
		FontScale:         0.8,
		ImageQuality:      85,
		Positioning:       Pixel,
		MinImageDimension: 10,
		MaxImageDimension: 5000,
		DownsampleLimit:   1200,
		YCollisionOffset:  5,
		YTolerance:        1,
		Script:            true,
		Title:             "PDF Document",
		Logger:            discardLogger(),
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Validate reports the first out-of-range field as a *ConfigError.
func (c Config) Validate() error {
	switch {
	case c.Workers < 1:
		return &ConfigError{Field: "workers", Value: c.Workers, Want: ">= 1"}
	case !(c.FontScale >= 0.5 && c.FontScale <= 1.5):
		return &ConfigError{Field: "font_scale", Value: c.FontScale, Want: "in [0.5, 1.5]"}
	case c.ImageQuality < 50 || c.ImageQuality > 100:
		return &ConfigError{Field: "image_quality", Value: c.ImageQuality, Want: "in [50, 100]"}
	case c.Positioning != Pixel && c.Positioning != Percentage:
		return &ConfigError{Field: "positioning", Value: c.Positioning, Want: "pixel or percentage"}
	case c.MinImageDimension < 1:
		return &ConfigError{Field: "min_image_dimension", Value: c.MinImageDimension, Want: ">= 1"}
	case c.MaxImageDimension < c.MinImageDimension:
		return &ConfigError{Field: "max_image_dimension", Value: c.MaxImageDimension, Want: ">= min_image_dimension"}
	case c.DownsampleLimit < 1:
		return &ConfigError{Field: "downsample_limit", Value: c.DownsampleLimit, Want: ">= 1"}
	case !(c.YCollisionOffset > 0) || !isFinite(c.YCollisionOffset):
		return &ConfigError{Field: "y_collision_offset", Value: c.YCollisionOffset, Want: "finite and > 0"}
	case !(c.YTolerance >= 0) || !isFinite(c.YTolerance):
		return &ConfigError{Field: "y_tolerance", Value: c.YTolerance, Want: "finite and >= 0"}
	}
	return nil
}

// Clamp returns a copy of c with every field forced into its valid range.
// Unset fields take their defaults.
func (c Config) Clamp() Config {
	def := DefaultConfig()
	c.Workers = max(c.Workers, 1)
	if c.FontScale == 0 || math.IsNaN(c.FontScale) {
		c.FontScale = def.FontScale
	}
	c.FontScale = min(max(c.FontScale, 0.5), 1.5)
	if c.ImageQuality == 0 {
		c.ImageQuality = def.ImageQuality
	}
	c.ImageQuality = min(max(c.ImageQuality, 50), 100)
	if c.Positioning != Percentage {
		c.Positioning = Pixel
	}
	if c.MinImageDimension < 1 {
		c.MinImageDimension = def.MinImageDimension
	}
	if c.MaxImageDimension < c.MinImageDimension {
		c.MaxImageDimension = max(def.MaxImageDimension, c.MinImageDimension)
	}
	if c.DownsampleLimit < 1 {
		c.DownsampleLimit = def.DownsampleLimit
	}
	if !(c.YCollisionOffset > 0) || !isFinite(c.YCollisionOffset) {
		c.YCollisionOffset = def.YCollisionOffset
	}
	if !isFinite(c.YTolerance) {
		c.YTolerance = def.YTolerance
	}
	c.YTolerance = max(c.YTolerance, 0)
	if c.Logger == nil {
		c.Logger = def.Logger
	}
	return c
}

// LoadConfig reads a YAML file over [DefaultConfig]. Keys missing from the
// file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("pdfhtml: reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("pdfhtml: parsing config %s: %w", path, err)
	}
	return cfg, nil
}
