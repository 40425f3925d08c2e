package revise

import (
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/SonoItalianoVero/refactored-lamp/overlay"
)

// Option is a functional option for configuring an Engine via New.
type Option func(*engineConfig)

type engineConfig struct {
	anchorRatio float64
	registry    *overlay.Registry
	clock       func() time.Time
	location    *time.Location
	workers     int
}

// anchorRatioEnv overrides the default anchor ratio process-wide. Values
// that do not parse as a float in [0,1] are ignored.
const anchorRatioEnv = "REVISE_ANCHOR_RATIO"

// defaultAnchorRatio positions the replacement baseline at 26.5% of the
// blanked box height, measured up from its bottom edge.
const defaultAnchorRatio = 0.265

// WithAnchorRatio sets the vertical position of replacement baselines as a
// fraction of the hit box height. Must be in [0,1].
func WithAnchorRatio(ratio float64) Option {
	return func(c *engineConfig) {
		c.anchorRatio = ratio
	}
}

// WithFontRegistry sets the font registry used to resolve replacement
// faces. Defaults to the process-wide overlay.DefaultRegistry.
func WithFontRegistry(reg *overlay.Registry) Option {
	return func(c *engineConfig) {
		c.registry = reg
	}
}

// WithClock sets the time source for replacement dates and the output's
// creation timestamp. Defaults to time.Now; fix it for reproducible bytes.
func WithClock(clock func() time.Time) Option {
	return func(c *engineConfig) {
		c.clock = clock
	}
}

// WithLocation sets the timezone replacement dates are rendered in.
// Defaults to Europe/Amsterdam.
func WithLocation(loc *time.Location) Option {
	return func(c *engineConfig) {
		c.location = loc
	}
}

// WithWorkers sets the number of goroutines analyzing pages. Output does
// not depend on the worker count. Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *engineConfig) {
		c.workers = n
	}
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		anchorRatio: envAnchorRatio(),
		registry:    overlay.DefaultRegistry(),
		clock:       time.Now,
		location:    amsterdam(),
		workers:     runtime.GOMAXPROCS(0),
	}
}

// envAnchorRatio reads the environment override for the anchor ratio,
// falling back to the default on any invalid value.
func envAnchorRatio() float64 {
	s := os.Getenv(anchorRatioEnv)
	if s == "" {
		return defaultAnchorRatio
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 1 {
		return defaultAnchorRatio
	}
	return v
}

var (
	locationOnce sync.Once
	locationAms  *time.Location
)

// amsterdam returns the default timezone for replacement dates, falling
// back to the local zone when tzdata is unavailable.
func amsterdam() *time.Location {
	locationOnce.Do(func() {
		loc, err := time.LoadLocation("Europe/Amsterdam")
		if err != nil {
			loc = time.Local
		}
		locationAms = loc
	})
	return locationAms
}
