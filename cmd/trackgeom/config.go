// cmd/trackgeom/config.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mmp/airtrack/airspace"
	"github.com/mmp/airtrack/globe"
	"github.com/mmp/airtrack/util"
)

// Config holds the defaults for the command-line options. It is read from
// config.json in the user's config directory; options given on the
// command line take precedence.
type Config struct {
	Globe                      string  `json:"globe"`
	VerticalExaggeration       float64 `json:"vertical_exaggeration"`
	SmallAngleThresholdDegrees float64 `json:"small_angle_threshold_degrees"`
	EnableInnerCaps            bool    `json:"enable_inner_caps"`
	Parallel                   int     `json:"parallel"`
	LogLevel                   string  `json:"log_level"`
	// Bound on the total size of the saved states in the cache directory.
	MaxCacheBytes int64 `json:"max_cache_bytes"`
}

func DefaultConfig() Config {
	return Config{
		Globe:                      "wgs84",
		VerticalExaggeration:       1,
		SmallAngleThresholdDegrees: airspace.DefaultSmallAngleThreshold.Degrees(),
		EnableInnerCaps:            true,
		Parallel:                   1,
		LogLevel:                   "info",
		MaxCacheBytes:              64 * 1024 * 1024,
	}
}

func configFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "airtrack", "config.json"), nil
}

// LoadOrMakeDefaultConfig returns the saved configuration, or the default
// one if there is no config file.
func LoadOrMakeDefaultConfig() (Config, error) {
	c := DefaultConfig()

	path, err := configFilePath()
	if err != nil {
		return c, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	} else if err != nil {
		return c, err
	}
	defer f.Close()

	if err := util.DecodeJSONStrict(f, &c); err != nil {
		return DefaultConfig(), fmt.Errorf("%s: %w", path, err)
	}

	var e util.ErrorLogger
	e.Push(path)
	c.Validate(&e)
	e.Pop()
	if e.HaveErrors() {
		return DefaultConfig(), e.Err(errors.New("invalid config"))
	}
	return c, nil
}

func (c Config) Validate(e *util.ErrorLogger) {
	if _, err := c.MakeGlobe(); err != nil {
		e.Error(err)
	}
	if !(c.VerticalExaggeration > 0) {
		e.ErrorString("vertical_exaggeration %g must be positive", c.VerticalExaggeration)
	}
	if d := c.SmallAngleThresholdDegrees; !(d >= 0 && d <= 180) {
		e.ErrorString("small_angle_threshold_degrees %g must be between 0 and 180", d)
	}
	if c.Parallel < 1 {
		e.ErrorString("parallel %d must be at least 1", c.Parallel)
	}
}

func (c Config) MakeGlobe() (globe.Globe, error) {
	switch c.Globe {
	case "wgs84":
		return globe.WGS84(), nil
	case "sphere":
		return globe.Sphere(globe.WGS84EquatorialRadius)
	case "flat":
		return globe.NewFlat(globe.WGS84EquatorialRadius, nil)
	default:
		return nil, fmt.Errorf("%q: unknown globe; expected wgs84, sphere or flat", c.Globe)
	}
}

func (c Config) Save() error {
	path, err := configFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	b, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
