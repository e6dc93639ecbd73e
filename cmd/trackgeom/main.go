// cmd/trackgeom/main.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// trackgeom loads a track airspace, joins its legs on the chosen globe and
// reports the resulting geometry.
//
// Usage: trackgeom -track legs.json [options]
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/mmp/airtrack/airspace"
	"github.com/mmp/airtrack/globe"
	"github.com/mmp/airtrack/log"
	"github.com/mmp/airtrack/util"

	"github.com/goforj/godump"
	"github.com/golang/geo/s1"
)

var (
	trackFilename   = flag.String("track", "", "filename of JSON file with the track definition")
	globeName       = flag.String("globe", "wgs84", "globe model: wgs84, sphere or flat")
	exaggeration    = flag.Float64("exaggeration", 1, "vertical exaggeration")
	threshold       = flag.Float64("threshold", airspace.DefaultSmallAngleThreshold.Degrees(), "small-angle join threshold in degrees")
	innerCaps       = flag.Bool("inner-caps", true, "draw the caps between joined legs")
	parallel        = flag.Int("parallel", 1, "number of goroutines used to join legs")
	geojsonFilename = flag.String("geojson", "", "write the track's footprint as GeoJSON to this file")
	saveFilename    = flag.String("save", "", "save the track state to this file")
	restoreFilename = flag.String("restore", "", "restore the track state from this file rather than reading -track")
	dumpTrack       = flag.Bool("dump", false, "dump the track's state and geometry")
	logLevel        = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir          = flag.String("logdir", "", "log file directory")
	saveConfig      = flag.Bool("saveconfig", false, "save the command-line options as the new defaults")
)

func main() {
	flag.Parse()

	config, cerr := LoadOrMakeDefaultConfig()
	applyFlags(&config)

	lg := log.New(config.LogLevel, *logDir)
	defer lg.CatchAndReportCrash()

	if cerr != nil {
		lg.Warnf("%v", cerr)
		fmt.Fprintf(os.Stderr, "%v\n", cerr)
	}

	var e util.ErrorLogger
	e.Push("options")
	config.Validate(&e)
	e.Pop()
	if e.HaveErrors() {
		e.PrintErrors(lg)
		os.Exit(1)
	}

	if *saveConfig {
		if err := config.Save(); err != nil {
			lg.Errorf("%v", err)
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}

	state, err := loadState(config, *trackFilename, *restoreFilename)
	if err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	track, err := airspace.NewTrackFromState(state)
	if err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	configureTrack(track, config, lg)

	g, _ := config.MakeGlobe() // validated above
	track.Update(g, config.VerticalExaggeration)
	lg.Info("track updated", "legs", len(track.Legs()), "globe", g.StateID())

	report(os.Stdout, track, g, config.VerticalExaggeration)

	if *dumpTrack {
		godump.Dump(track.State(), track.Joins(g, config.VerticalExaggeration))
	}

	if *geojsonFilename != "" {
		if err := writeGeoJSON(*geojsonFilename, track, g); err != nil {
			lg.Errorf("%s: %v", *geojsonFilename, err)
			fmt.Fprintf(os.Stderr, "%s: %v\n", *geojsonFilename, err)
			os.Exit(1)
		}
	}

	if *saveFilename != "" {
		if err := airspace.SaveTrackState(*saveFilename, track.State()); err != nil {
			lg.Errorf("%s: %v", *saveFilename, err)
			fmt.Fprintf(os.Stderr, "%s: %v\n", *saveFilename, err)
			os.Exit(1)
		}
	}
	cacheLastState(track, config, lg)
}

// applyFlags overrides the configuration with the options that were given
// on the command line.
func applyFlags(c *Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "globe":
			c.Globe = *globeName
		case "exaggeration":
			c.VerticalExaggeration = *exaggeration
		case "threshold":
			c.SmallAngleThresholdDegrees = *threshold
		case "inner-caps":
			c.EnableInnerCaps = *innerCaps
		case "parallel":
			c.Parallel = *parallel
		case "loglevel":
			c.LogLevel = *logLevel
		}
	})
}

// loadState returns the state saved in restorePath if it's given, and
// otherwise reads the track file at trackPath. Settings that the track
// file doesn't give come from the configuration.
func loadState(c Config, trackPath, restorePath string) (airspace.TrackState, error) {
	if restorePath != "" {
		return airspace.LoadTrackState(restorePath)
	}
	if trackPath == "" {
		return airspace.TrackState{}, fmt.Errorf("must specify a track with -track or -restore")
	}

	f, err := os.Open(trackPath)
	if err != nil {
		return airspace.TrackState{}, err
	}
	defer f.Close()

	defaults := airspace.DefaultTrackState()
	defaults.EnableInnerCaps = c.EnableInnerCaps
	defaults.SmallAngleThresholdDegrees = c.SmallAngleThresholdDegrees

	s, err := airspace.LoadTrackFileWithDefaults(f, defaults)
	if err != nil {
		return airspace.TrackState{}, fmt.Errorf("%s: %w", trackPath, err)
	}
	return s, nil
}

// configureTrack applies the options that were explicitly given on the
// command line; they take precedence over the track file's settings.
func configureTrack(t *airspace.Track, c Config, lg *log.Logger) {
	t.SetLogger(lg)
	t.SetConcurrency(c.Parallel)
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "inner-caps":
			t.SetEnableInnerCaps(c.EnableInnerCaps)
		case "threshold":
			// Validate has already checked the range.
			_ = t.SetSmallAngleThreshold(s1.Angle(c.SmallAngleThresholdDegrees) * s1.Degree)
		}
	})
}

func report(w io.Writer, t *airspace.Track, g globe.Globe, ve float64) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	specs := t.LegSpecs()
	for i, kind := range t.Joins(g, ve) {
		fmt.Fprintf(tw, "join %d-%d\t%s\tangle %.2f\n", i, i+1, kind,
			airspace.JoinAngle(g, specs[i], specs[i+1]).Degrees())
	}

	names := [8]string{"A lower left", "A lower right", "A upper left", "A upper right",
		"B lower left", "B lower right", "B upper left", "B upper right"}
	for i, lg := range t.Geometry(g, ve) {
		fmt.Fprintf(tw, "leg %d\t%s\tstart cap %v\tend cap %v\n", i, specs[i], lg.EnableStartCap, lg.EnableEndCap)
		for j, v := range lg.Vertices {
			p, alt := g.GeodeticFromPoint(v)
			fmt.Fprintf(tw, "\t%s\t%s\t%.1f m\n", names[j], p.DDString(), alt/ve)
		}
	}

	if ext, ok := t.Extent(g, ve); ok {
		fmt.Fprintf(tw, "extent\t%s\n", ext)
	}
	fmt.Fprintf(tw, "footprint area\t%.6f sq deg\n", airspace.FootprintArea(t.Footprints(g)))
}

func writeGeoJSON(path string, t *airspace.Track, g globe.Globe) error {
	props := map[string]any{
		"legs":              len(t.Legs()),
		"enable_inner_caps": t.EnableInnerCaps(),
	}
	b, err := airspace.FootprintGeoJSON(filepath.Base(path), t.Footprints(g), props)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// cacheLastState keeps a copy of the processed track in the cache
// directory, removing the oldest ones once they take too much space.
func cacheLastState(t *airspace.Track, c Config, lg *log.Logger) {
	dir, err := util.CacheDir()
	if err != nil {
		lg.Warnf("%v", err)
		return
	}
	dir = filepath.Join(dir, "tracks")

	fn := time.Now().Format("20060102-150405") + ".msgpack.zst"
	if err := airspace.SaveTrackState(filepath.Join(dir, fn), t.State()); err != nil {
		lg.Warnf("%v", err)
	}
	if err := util.CullObjects(dir, c.MaxCacheBytes); err != nil {
		lg.Warnf("%v", err)
	}
}
