// globe/flat.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package globe

import (
	"fmt"

	"github.com/mmp/airtrack/math"

	"github.com/golang/geo/r3"
)

// Flat is an equirectangular projection of the globe onto the z=0 plane:
// x is proportional to longitude, y to latitude, and z is altitude. Up is
// +Z everywhere, so straight lines in latitude-longitude are straight
// lines in model coordinates.
type Flat struct {
	Radius     float64
	Elevations ElevationModel
}

func NewFlat(radius float64, elev ElevationModel) (*Flat, error) {
	if !(radius > 0) {
		return nil, fmt.Errorf("flat globe radius %g: %w", radius, ErrInvalidGlobe)
	}
	return &Flat{Radius: radius, Elevations: elev}, nil
}

func (f *Flat) StateID() string {
	return fmt.Sprintf("flat%g/%s", f.Radius, elevationID(f.Elevations))
}

func (f *Flat) Elevation(p math.Point2LL) float64 {
	return elevationAt(f.Elevations, p)
}

func (f *Flat) PointFromGeodetic(p math.Point2LL, alt float64) r3.Vector {
	return r3.Vector{
		X: f.Radius * math.Radians(p.Longitude()),
		Y: f.Radius * math.Radians(p.Latitude()),
		Z: alt,
	}
}

func (f *Flat) NormalAtLocation(math.Point2LL) r3.Vector {
	return r3.Vector{Z: 1}
}

func (f *Flat) GeodeticFromPoint(v r3.Vector) (math.Point2LL, float64) {
	return math.Point2LL{math.Degrees(v.X / f.Radius), math.Degrees(v.Y / f.Radius)}, v.Z
}
