package pdfhtml

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, 0.8, c.FontScale)
	assert.Equal(t, 85, c.ImageQuality)
	assert.Equal(t, Pixel, c.Positioning)
	assert.Equal(t, 10, c.MinImageDimension)
	assert.Equal(t, 5000, c.MaxImageDimension)
	assert.Equal(t, 1200, c.DownsampleLimit)
	assert.Equal(t, 5.0, c.YCollisionOffset)
	assert.True(t, c.Script)
	assert.NotNil(t, c.Logger)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"font scale low", func(c *Config) { c.FontScale = 0.49 }, "font_scale"},
		{"font scale high", func(c *Config) { c.FontScale = 1.51 }, "font_scale"},
		{"quality low", func(c *Config) { c.ImageQuality = 49 }, "image_quality"},
		{"quality high", func(c *Config) { c.ImageQuality = 101 }, "image_quality"},
		{"positioning", func(c *Config) { c.Positioning = "" }, "positioning"},
		{"min dimension", func(c *Config) { c.MinImageDimension = 0 }, "min_image_dimension"},
		{"tolerance", func(c *Config) { c.YTolerance = -1 }, "y_tolerance"},
		{"font scale nan", func(c *Config) { c.FontScale = math.NaN() }, "font_scale"},
		{"font scale inf", func(c *Config) { c.FontScale = math.Inf(1) }, "font_scale"},
		{"offset nan", func(c *Config) { c.YCollisionOffset = math.NaN() }, "y_collision_offset"},
		{"offset inf", func(c *Config) { c.YCollisionOffset = math.Inf(1) }, "y_collision_offset"},
		{"tolerance nan", func(c *Config) { c.YTolerance = math.NaN() }, "y_tolerance"},
		{"tolerance inf", func(c *Config) { c.YTolerance = math.Inf(1) }, "y_tolerance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			err := c.Validate()
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr), "got %v", err)
			assert.Equal(t, tt.field, cerr.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	edges := DefaultConfig()
	edges.FontScale, edges.ImageQuality = 0.5, 100
	assert.NoError(t, edges.Validate())
}

func TestConfigClamp(t *testing.T) {
	c := Config{
		Workers:          -3,
		FontScale:        9,
		ImageQuality:     20,
		Positioning:      "bogus",
		YCollisionOffset: -1,
		YTolerance:       -2,
	}.Clamp()
	require.NoError(t, c.Validate())
	assert.Equal(t, 1, c.Workers)
	assert.Equal(t, 1.5, c.FontScale)
	assert.Equal(t, 50, c.ImageQuality)
	assert.Equal(t, Pixel, c.Positioning)
	assert.Equal(t, 5.0, c.YCollisionOffset)
	assert.Equal(t, 0.0, c.YTolerance)
	assert.Equal(t, 1200, c.DownsampleLimit)

	kept := DefaultConfig()
	kept.Positioning = Percentage
	assert.Equal(t, Percentage, kept.Clamp().Positioning)

	nan := DefaultConfig()
	nan.FontScale, nan.YCollisionOffset, nan.YTolerance = math.NaN(), math.NaN(), math.Inf(1)
	c = nan.Clamp()
	require.NoError(t, c.Validate())
	assert.Equal(t, 0.8, c.FontScale)
	assert.Equal(t, 5.0, c.YCollisionOffset)
	assert.Equal(t, 1.0, c.YTolerance)
}

func TestLoadConfig_NonFiniteRejected(t *testing.T) {
	for _, line := range []string{
		"y_collision_offset: .nan",
		"y_collision_offset: .inf",
		"font_scale: .nan",
		"y_tolerance: .nan",
	} {
		path := filepath.Join(t.TempDir(), "pdfhtml.yaml")
		require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0o644))
		c, err := LoadConfig(path)
		require.NoError(t, err, line)
		var cerr *ConfigError
		assert.ErrorAs(t, c.Validate(), &cerr, line)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfhtml.yaml")
	yaml := "workers: 8\nfont_scale: 1.0\npositioning: percentage\ntitle: Annual report\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Workers)
	assert.Equal(t, 1.0, c.FontScale)
	assert.Equal(t, Percentage, c.Positioning)
	assert.Equal(t, "Annual report", c.Title)
	// Unset keys keep defaults.
	assert.Equal(t, 85, c.ImageQuality)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [1, 2"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestOptionsApplyInOrder(t *testing.T) {
	base := DefaultConfig()
	base.Workers = 2
	conv, err := NewConverter(WithWorkers(9), WithConfig(base), WithFontScale(1.2))
	require.NoError(t, err)
	assert.Equal(t, 2, conv.Config().Workers)
	assert.Equal(t, 1.2, conv.Config().FontScale)
}
