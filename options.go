package pdfhtml

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Option configures a [Converter].
type Option func(*Config)

// WithConfig replaces the whole configuration. Later options still apply.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithWorkers sets how many pages are converted concurrently.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithFontScale sets the factor applied to every font size.
func WithFontScale(f float64) Option {
	return func(c *Config) {
		c.FontScale = f
	}
}

// WithImageQuality sets the JPEG quality used for truecolor images.
func WithImageQuality(q int) Option {
	return func(c *Config) {
		c.ImageQuality = q
	}
}

// WithPositioning selects pixel or percentage coordinates.
func WithPositioning(p Positioning) Option {
	return func(c *Config) {
		c.Positioning = p
	}
}

// WithImageBounds sets the accepted image size range in pixels.
func WithImageBounds(minDim, maxDim int) Option {
	return func(c *Config) {
		c.MinImageDimension = minDim
		c.MaxImageDimension = maxDim
	}
}

// WithDownsampleLimit caps the longer side of embedded images.
func WithDownsampleLimit(px int) Option {
	return func(c *Config) {
		c.DownsampleLimit = px
	}
}

// WithCollisionOffset sets the push-down distance for colliding lines.
func WithCollisionOffset(off float64) Option {
	return func(c *Config) {
		c.YCollisionOffset = off
	}
}

// WithTitle sets the document title.
func WithTitle(title string) Option {
	return func(c *Config) {
		c.Title = title
	}
}

// WithoutScript leaves the selection script out of the document shell.
func WithoutScript() Option {
	return func(c *Config) {
		c.Script = false
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// snapshotConfig holds internal configuration for a Snapshotter.
type snapshotConfig struct {
	chromePath   string
	timeout      time.Duration
	noSandbox    bool
	autoDownload bool
	width        int
}

func defaultSnapshotConfig() snapshotConfig {
	return snapshotConfig{
		timeout: 30 * time.Second,
		width:   1280,
	}
}

// SnapshotOption configures a [Snapshotter].
type SnapshotOption func(*snapshotConfig)

// WithChromePath sets the path to the Chrome or Chromium executable.
// By default standard locations are searched.
func WithChromePath(path string) SnapshotOption {
	return func(c *snapshotConfig) {
		c.chromePath = path
	}
}

// WithTimeout sets the maximum duration of a single snapshot. Defaults to
// 30 seconds. A zero or negative value disables the timeout.
func WithTimeout(d time.Duration) SnapshotOption {
	return func(c *snapshotConfig) {
		c.timeout = d
	}
}

// WithNoSandbox disables the Chrome sandbox, which is needed when running
// as root inside containers.
func WithNoSandbox() SnapshotOption {
	return func(c *snapshotConfig) {
		c.noSandbox = true
	}
}

// WithAutoDownload fetches a compatible Chromium when no browser path is
// configured.
func WithAutoDownload() SnapshotOption {
	return func(c *snapshotConfig) {
		c.autoDownload = true
	}
}

// WithViewportWidth sets the browser window width used for snapshots.
func WithViewportWidth(px int) SnapshotOption {
	return func(c *snapshotConfig) {
		c.width = px
	}
}
