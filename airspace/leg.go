// airspace/leg.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airspace

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/mmp/airtrack/globe"
	"github.com/mmp/airtrack/math"
	"github.com/mmp/airtrack/util"

	"github.com/golang/geo/r3"
)

var (
	ErrInvalidLeg   = errors.New("invalid leg")
	ErrInvalidAngle = errors.New("invalid angle")
)

// LegSpec describes one straight leg of a track: a box that runs from
// Start to End, extends LeftWidth and RightWidth meters to either side of
// the path, and covers the altitudes (in meters) between LowerAltitude
// and UpperAltitude. A terrain-conforming bound is relative to the ground
// rather than the ellipsoid.
type LegSpec struct {
	Start                  math.Point2LL `json:"start" msgpack:"start"`
	End                    math.Point2LL `json:"end" msgpack:"end"`
	LowerAltitude          float64       `json:"lower_altitude" msgpack:"lower"`
	UpperAltitude          float64       `json:"upper_altitude" msgpack:"upper"`
	LowerTerrainConforming bool          `json:"lower_terrain_conforming,omitempty" msgpack:"lower_terrain"`
	UpperTerrainConforming bool          `json:"upper_terrain_conforming,omitempty" msgpack:"upper_terrain"`
	LeftWidth              float64       `json:"left_width" msgpack:"left"`
	RightWidth             float64       `json:"right_width" msgpack:"right"`
}

// Validate logs an error to e for each problem with the leg.
func (s LegSpec) Validate(e *util.ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	for _, pt := range []struct {
		name string
		p    math.Point2LL
	}{{"start", s.Start}, {"end", s.End}} {
		if !math.IsFinite(pt.p[0], pt.p[1]) || !pt.p.IsValid() {
			e.ErrorString("%s location %v is not a valid latitude/longitude", pt.name, [2]float64(pt.p))
		}
	}
	if s.Start == s.End {
		e.ErrorString("start and end locations are both %s", s.Start.DDString())
	}

	if !math.IsFinite(s.LowerAltitude, s.UpperAltitude) {
		e.ErrorString("altitudes %g, %g must be finite", s.LowerAltitude, s.UpperAltitude)
	} else if s.LowerAltitude > s.UpperAltitude {
		e.ErrorString("lower altitude %g is above upper altitude %g", s.LowerAltitude, s.UpperAltitude)
	}

	if !math.IsFinite(s.LeftWidth, s.RightWidth) {
		e.ErrorString("widths %g, %g must be finite", s.LeftWidth, s.RightWidth)
	} else if s.LeftWidth < 0 || s.RightWidth < 0 {
		e.ErrorString("widths %g, %g must not be negative", s.LeftWidth, s.RightWidth)
	}
}

// Check returns an error wrapping ErrInvalidLeg if the leg is invalid.
func (s LegSpec) Check() error {
	var e util.ErrorLogger
	s.Validate(&e)
	return e.Err(ErrInvalidLeg)
}

// altitudesAt returns the lower and upper altitudes of the leg at p in
// model units.
func (s LegSpec) altitudesAt(g globe.Globe, p math.Point2LL, verticalExaggeration float64) (lower, upper float64) {
	lower, upper = s.LowerAltitude, s.UpperAltitude
	if s.LowerTerrainConforming || s.UpperTerrainConforming {
		elev := g.Elevation(p)
		if s.LowerTerrainConforming {
			lower += elev
		}
		if s.UpperTerrainConforming {
			upper += elev
		}
	}
	return lower * verticalExaggeration, upper * verticalExaggeration
}

// Reversed returns the leg running from End to Start. The sides are
// swapped so that the box covers the same volume.
func (s LegSpec) Reversed() LegSpec {
	s.Start, s.End = s.End, s.Start
	s.LeftWidth, s.RightWidth = s.RightWidth, s.LeftWidth
	return s
}

func (s LegSpec) String() string {
	return fmt.Sprintf("%s-%s [%g,%g] w(%g,%g)", s.Start.DDString(), s.End.DDString(),
		s.LowerAltitude, s.UpperAltitude, s.LeftWidth, s.RightWidth)
}

///////////////////////////////////////////////////////////////////////////
// Leg

// Leg is a single box airspace. It caches the vertices computed for the
// most recent globe state it was asked about; any change to the leg
// discards them.
type Leg struct {
	spec             LegSpec
	enableCenterLine bool
	version          uint64
	cached           *legVertices
}

type legVertices struct {
	key      globe.StateKey
	vertices [8]r3.Vector
}

func NewLeg(spec LegSpec) (*Leg, error) {
	if err := spec.Check(); err != nil {
		return nil, err
	}
	return &Leg{spec: spec}, nil
}

func (l *Leg) Spec() LegSpec { return l.spec }

func (l *Leg) Locations() (start, end math.Point2LL) { return l.spec.Start, l.spec.End }

func (l *Leg) Altitudes() (lower, upper float64) { return l.spec.LowerAltitude, l.spec.UpperAltitude }

func (l *Leg) TerrainConforming() (lower, upper bool) {
	return l.spec.LowerTerrainConforming, l.spec.UpperTerrainConforming
}

func (l *Leg) Widths() (left, right float64) { return l.spec.LeftWidth, l.spec.RightWidth }

func (l *Leg) EnableCenterLine() bool { return l.enableCenterLine }

// Version is incremented each time the leg changes.
func (l *Leg) Version() uint64 { return l.version }

func (l *Leg) setSpec(s LegSpec) error {
	if err := s.Check(); err != nil {
		return err
	}
	l.spec = s
	l.invalidate()
	return nil
}

func (l *Leg) invalidate() {
	l.version++
	l.cached = nil
}

func (l *Leg) SetLocations(start, end math.Point2LL) error {
	s := l.spec
	s.Start, s.End = start, end
	return l.setSpec(s)
}

func (l *Leg) SetAltitudes(lower, upper float64) error {
	s := l.spec
	s.LowerAltitude, s.UpperAltitude = lower, upper
	return l.setSpec(s)
}

func (l *Leg) SetTerrainConforming(lower, upper bool) {
	l.spec.LowerTerrainConforming, l.spec.UpperTerrainConforming = lower, upper
	l.invalidate()
}

func (l *Leg) SetWidths(left, right float64) error {
	s := l.spec
	s.LeftWidth, s.RightWidth = left, right
	return l.setSpec(s)
}

func (l *Leg) SetEnableCenterLine(b bool) {
	if b != l.enableCenterLine {
		l.enableCenterLine = b
		l.version++
	}
}

// VerticesValid reports whether the leg has vertices cached for the given
// globe state.
func (l *Leg) VerticesValid(key globe.StateKey) bool {
	return l.cached != nil && l.cached.key == key
}

func (l *Leg) ClearVertices() {
	l.cached = nil
}

// Vertices returns the leg's standalone vertices on g, computing and
// caching them if necessary.
func (l *Leg) Vertices(g globe.Globe, verticalExaggeration float64) [8]r3.Vector {
	key := globe.KeyFor(g, verticalExaggeration)
	if !l.VerticesValid(key) {
		l.cached = &legVertices{
			key:      key,
			vertices: ComputeStandardVertices(g, verticalExaggeration, l.spec),
		}
	}
	return l.cached.vertices
}

// Geometry returns the leg's geometry when it is drawn by itself, with
// both caps enabled.
func (l *Leg) Geometry(g globe.Globe, verticalExaggeration float64) LegGeometry {
	return LegGeometry{
		Vertices:         l.Vertices(g, verticalExaggeration),
		EnableStartCap:   true,
		EnableEndCap:     true,
		EnableCenterLine: l.enableCenterLine,
	}
}

func (l *Leg) Extent(g globe.Globe, verticalExaggeration float64) (math.Extent3D, bool) {
	return l.Geometry(g, verticalExaggeration).Extent(), true
}

// Inside reports whether the given location and altitude in meters is
// inside the leg.
func (l *Leg) Inside(g globe.Globe, p math.Point2LL, alt float64) bool {
	return insideLeg(g, l.spec, l.Geometry(g, 1), p, alt)
}

func insideLeg(g globe.Globe, s LegSpec, geom LegGeometry, p math.Point2LL, alt float64) bool {
	lower, upper := s.altitudesAt(g, p, 1)
	if gomath.IsNaN(alt) || alt < lower || alt > upper {
		return false
	}
	return math.PointInPolygon2LL(p, Footprint(g, geom))
}
