// globe/ellipsoid.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package globe

import (
	"fmt"
	gomath "math"

	"github.com/mmp/airtrack/math"

	"github.com/golang/geo/r3"
)

const (
	WGS84EquatorialRadius = 6378137.0
	WGS84Flattening       = 1 / 298.257223563
)

// Ellipsoid is an oblate ellipsoid of revolution in Earth-centered,
// Earth-fixed coordinates: +Z through the north pole, +X through
// (0N, 0E) and +Y through (0N, 90E).
type Ellipsoid struct {
	Name             string
	EquatorialRadius float64
	PolarRadius      float64
	Elevations       ElevationModel

	es float64 // eccentricity squared
}

func NewEllipsoid(name string, equatorialRadius, polarRadius float64, elev ElevationModel) (*Ellipsoid, error) {
	if !(equatorialRadius > 0) || !(polarRadius > 0) || polarRadius > equatorialRadius {
		return nil, fmt.Errorf("%s: radii %g, %g: %w", name, equatorialRadius, polarRadius, ErrInvalidGlobe)
	}
	return &Ellipsoid{
		Name:             name,
		EquatorialRadius: equatorialRadius,
		PolarRadius:      polarRadius,
		Elevations:       elev,
		es:               1 - math.Sqr(polarRadius/equatorialRadius),
	}, nil
}

// WGS84 returns the WGS84 ellipsoid without terrain.
func WGS84() *Ellipsoid {
	e, _ := NewEllipsoid("wgs84", WGS84EquatorialRadius, WGS84EquatorialRadius*(1-WGS84Flattening), nil)
	return e
}

// Sphere returns a sphere of the given radius in meters.
func Sphere(radius float64) (*Ellipsoid, error) {
	return NewEllipsoid(fmt.Sprintf("sphere%g", radius), radius, radius, nil)
}

func (e *Ellipsoid) StateID() string {
	return fmt.Sprintf("%s%g,%g/%s", e.Name, e.EquatorialRadius, e.PolarRadius, elevationID(e.Elevations))
}

func (e *Ellipsoid) Elevation(p math.Point2LL) float64 {
	return elevationAt(e.Elevations, p)
}

// primeVerticalRadius returns the radius of curvature in the prime
// vertical at the given geodetic latitude (in radians).
func (e *Ellipsoid) primeVerticalRadius(sinLat float64) float64 {
	return e.EquatorialRadius / gomath.Sqrt(1-e.es*sinLat*sinLat)
}

func (e *Ellipsoid) PointFromGeodetic(p math.Point2LL, alt float64) r3.Vector {
	lat, lon := math.Radians(p.Latitude()), math.Radians(p.Longitude())
	sinLat, cosLat := gomath.Sincos(lat)
	sinLon, cosLon := gomath.Sincos(lon)

	n := e.primeVerticalRadius(sinLat)
	return r3.Vector{
		X: (n + alt) * cosLat * cosLon,
		Y: (n + alt) * cosLat * sinLon,
		Z: (n*(1-e.es) + alt) * sinLat,
	}
}

func (e *Ellipsoid) NormalAtLocation(p math.Point2LL) r3.Vector {
	lat, lon := math.Radians(p.Latitude()), math.Radians(p.Longitude())
	sinLat, cosLat := gomath.Sincos(lat)
	sinLon, cosLon := gomath.Sincos(lon)
	return r3.Vector{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat}
}

// GeodeticFromPoint converts an ECEF point to latitude, longitude and
// height above the ellipsoid. The latitude is found by fixed-point
// iteration, which converges to well below a millimeter in a handful of
// steps for points near the surface.
func (e *Ellipsoid) GeodeticFromPoint(v r3.Vector) (math.Point2LL, float64) {
	p := gomath.Hypot(v.X, v.Y)
	lon := gomath.Atan2(v.Y, v.X)

	if p == 0 {
		// On the polar axis.
		lat := gomath.Copysign(gomath.Pi/2, v.Z)
		return math.Point2LL{0, math.Degrees(lat)}, gomath.Abs(v.Z) - e.PolarRadius
	}

	lat := gomath.Atan2(v.Z, p*(1-e.es))
	for range 8 {
		sinLat := gomath.Sin(lat)
		n := e.primeVerticalRadius(sinLat)
		next := gomath.Atan2(v.Z+e.es*n*sinLat, p)
		if gomath.Abs(next-lat) < 1e-14 {
			lat = next
			break
		}
		lat = next
	}

	sinLat, cosLat := gomath.Sincos(lat)
	n := e.primeVerticalRadius(sinLat)
	// This form of the height is well-behaved at all latitudes.
	h := p*cosLat + v.Z*sinLat - e.EquatorialRadius*e.EquatorialRadius/n

	return math.Point2LL{math.Degrees(lon), math.Degrees(lat)}, h
}
