// globe/globe.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package globe provides the models of the Earth that airspace geometry is
// computed against: ellipsoids (WGS84 and spheres) and a flat
// equirectangular projection for 2D map views.
package globe

import (
	"errors"
	"fmt"

	"github.com/mmp/airtrack/math"

	"github.com/golang/geo/r3"
)

var ErrInvalidGlobe = errors.New("invalid globe")

// Globe maps geodetic positions to Cartesian model coordinates in meters.
type Globe interface {
	// PointFromGeodetic returns the Cartesian point at the given location
	// and altitude in meters above the globe's surface.
	PointFromGeodetic(p math.Point2LL, alt float64) r3.Vector
	// NormalAtLocation returns the unit surface normal ("up") at p.
	NormalAtLocation(p math.Point2LL) r3.Vector
	// GeodeticFromPoint is the inverse of PointFromGeodetic.
	GeodeticFromPoint(v r3.Vector) (math.Point2LL, float64)
	// Elevation returns the terrain elevation in meters at p.
	Elevation(p math.Point2LL) float64
	// StateID identifies the globe's shape and terrain; two globes with
	// the same StateID produce identical geometry.
	StateID() string
}

// StateKey identifies the inputs that cached geometry depends on.
type StateKey struct {
	Globe                string
	VerticalExaggeration float64
}

func KeyFor(g Globe, verticalExaggeration float64) StateKey {
	return StateKey{Globe: g.StateID(), VerticalExaggeration: verticalExaggeration}
}

func (k StateKey) String() string {
	return fmt.Sprintf("%s@%gx", k.Globe, k.VerticalExaggeration)
}

///////////////////////////////////////////////////////////////////////////
// ElevationModel

type ElevationModel interface {
	Elevation(p math.Point2LL) float64
	// ID should change whenever the model's elevations do.
	ID() string
}

// ConstantElevation is an ElevationModel that returns the same elevation
// everywhere.
type ConstantElevation float64

func (c ConstantElevation) Elevation(math.Point2LL) float64 { return float64(c) }

func (c ConstantElevation) ID() string { return fmt.Sprintf("const%g", float64(c)) }

// ElevationFunc adapts a function to the ElevationModel interface; Name is
// used as its ID.
type ElevationFunc struct {
	Name string
	Func func(p math.Point2LL) float64
}

func (f ElevationFunc) Elevation(p math.Point2LL) float64 { return f.Func(p) }

func (f ElevationFunc) ID() string { return f.Name }

func elevationID(m ElevationModel) string {
	if m == nil {
		return "none"
	}
	return m.ID()
}

func elevationAt(m ElevationModel, p math.Point2LL) float64 {
	if m == nil {
		return 0
	}
	return m.Elevation(p)
}
