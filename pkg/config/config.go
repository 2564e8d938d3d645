// Package config loads the treeatlas TOML configuration file.
//
// All settings have working defaults; a config file only needs the
// sections it overrides. CLI flags take precedence over file values.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/treeatlas/treeatlas/pkg/errors"
	"github.com/treeatlas/treeatlas/pkg/layout"
	"github.com/treeatlas/treeatlas/pkg/tiles"
)

// Config is the full application configuration.
type Config struct {
	Layout Layout `toml:"layout"`
	Tiles  Tiles  `toml:"tiles"`
	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`
}

// Layout holds the radial layout constants.
type Layout struct {
	RootX        float64 `toml:"root_x"`
	RootY        float64 `toml:"root_y"`
	RootAlpha    float64 `toml:"root_alpha"`
	RootRay      float64 `toml:"root_ray"`
	ZoomConst    float64 `toml:"zoom_const"`
	PolySamples  int     `toml:"poly_samples"`
	MinWedgeDesc int     `toml:"min_wedge_desc"`
}

// Tiles holds the tile builder settings.
type Tiles struct {
	Budget   int     `toml:"budget"`
	FastPath int     `toml:"fast_path"`
	Workers  int     `toml:"workers"`
	YMin     float64 `toml:"y_min"`
	YMax     float64 `toml:"y_max"`
}

// Cache selects and configures the stage-output cache backend.
type Cache struct {
	Backend       string `toml:"backend"` // "file", "redis" or "none"
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`
}

// Server holds the tile server settings.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	lc := layout.DefaultConfig()
	return Config{
		Layout: Layout{
			RootX:        lc.RootX,
			RootY:        lc.RootY,
			RootAlpha:    lc.RootAlpha,
			RootRay:      lc.RootRay,
			ZoomConst:    lc.ZoomConst,
			PolySamples:  lc.PolySamples,
			MinWedgeDesc: lc.MinWedgeDesc,
		},
		Tiles: Tiles{
			Budget:   tiles.DefaultBudget,
			FastPath: tiles.DefaultFastPath,
			Workers:  4,
		},
		Cache: Cache{
			Backend:     "file",
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "treeatlas:",
		},
		Server: Server{Addr: ":8080"},
	}
}

// Load reads a TOML config file over the defaults. A missing file is
// not an error when path is empty; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return cfg, nil
}

// LayoutConfig converts the layout section to the engine's config value.
func (c Config) LayoutConfig() layout.Config {
	return layout.Config{
		RootX:        c.Layout.RootX,
		RootY:        c.Layout.RootY,
		RootAlpha:    c.Layout.RootAlpha,
		RootRay:      c.Layout.RootRay,
		ZoomConst:    c.Layout.ZoomConst,
		PolySamples:  c.Layout.PolySamples,
		MinWedgeDesc: c.Layout.MinWedgeDesc,
	}
}

// TileBuilder converts the tiles section to a configured builder.
func (c Config) TileBuilder() *tiles.Builder {
	b := tiles.NewBuilder()
	if c.Tiles.Budget > 0 {
		b.Budget = c.Tiles.Budget
	}
	if c.Tiles.FastPath > 0 {
		b.FastPath = c.Tiles.FastPath
	}
	if c.Tiles.Workers > 0 {
		b.Workers = c.Tiles.Workers
	}
	b.Norm = tiles.Normalize{YMin: c.Tiles.YMin, YMax: c.Tiles.YMax}
	return b
}
