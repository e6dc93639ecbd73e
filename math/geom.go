// math/geom.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	gomath "math"

	"github.com/golang/geo/r3"
)

///////////////////////////////////////////////////////////////////////////
// Extent3D

// Extent3D represents a 3D axis-aligned bounding box with the two vertices
// at its opposite minimum and maximum corners.
type Extent3D struct {
	P0, P1 r3.Vector
}

// EmptyExtent3D returns an Extent3D representing an empty bounding box.
func EmptyExtent3D() Extent3D {
	// Degenerate bounds
	return Extent3D{
		P0: r3.Vector{X: gomath.Inf(1), Y: gomath.Inf(1), Z: gomath.Inf(1)},
		P1: r3.Vector{X: gomath.Inf(-1), Y: gomath.Inf(-1), Z: gomath.Inf(-1)},
	}
}

// Extent3DFromPoints returns an Extent3D that bounds all of the provided
// points.
func Extent3DFromPoints(pts ...r3.Vector) Extent3D {
	e := EmptyExtent3D()
	for _, p := range pts {
		e = e.Union(p)
	}
	return e
}

func (e Extent3D) IsEmpty() bool {
	return e.P0.X > e.P1.X || e.P0.Y > e.P1.Y || e.P0.Z > e.P1.Z
}

// Union returns the extent expanded to include p.
func (e Extent3D) Union(p r3.Vector) Extent3D {
	e.P0 = r3.Vector{X: min(e.P0.X, p.X), Y: min(e.P0.Y, p.Y), Z: min(e.P0.Z, p.Z)}
	e.P1 = r3.Vector{X: max(e.P1.X, p.X), Y: max(e.P1.Y, p.Y), Z: max(e.P1.Z, p.Z)}
	return e
}

// Union3D returns the smallest extent that bounds both a and b.
func Union3D(a, b Extent3D) Extent3D {
	if a.IsEmpty() {
		return b
	} else if b.IsEmpty() {
		return a
	}
	return a.Union(b.P0).Union(b.P1)
}

func (e Extent3D) Inside(p r3.Vector) bool {
	return p.X >= e.P0.X && p.X <= e.P1.X &&
		p.Y >= e.P0.Y && p.Y <= e.P1.Y &&
		p.Z >= e.P0.Z && p.Z <= e.P1.Z
}

func (e Extent3D) Center() r3.Vector {
	return Mid3d(e.P0, e.P1)
}

func (e Extent3D) Size() r3.Vector {
	return e.P1.Sub(e.P0)
}

// Expand expands the extent by the given distance in all directions.
func (e Extent3D) Expand(d float64) Extent3D {
	dv := r3.Vector{X: d, Y: d, Z: d}
	return Extent3D{P0: e.P0.Sub(dv), P1: e.P1.Add(dv)}
}

// ApproxEqual returns true if the corresponding corners of the two extents
// are within tol of each other along every axis.
func (e Extent3D) ApproxEqual(o Extent3D, tol float64) bool {
	near := func(a, b r3.Vector) bool {
		return Abs(a.X-b.X) <= tol && Abs(a.Y-b.Y) <= tol && Abs(a.Z-b.Z) <= tol
	}
	return near(e.P0, o.P0) && near(e.P1, o.P1)
}

func (e Extent3D) String() string {
	return fmt.Sprintf("[(%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)]",
		e.P0.X, e.P0.Y, e.P0.Z, e.P1.X, e.P1.Y, e.P1.Z)
}

///////////////////////////////////////////////////////////////////////////
// Line

// Line is the infinite line Origin + t*Direction. Direction is not
// necessarily normalized; for lines made from segments, t in [0,1] spans
// the segment.
type Line struct {
	Origin, Direction r3.Vector
}

// LineFromSegment returns the line through a and b, parameterized so that
// PointAt(0) == a and PointAt(1) == b.
func LineFromSegment(a, b r3.Vector) Line {
	return Line{Origin: a, Direction: b.Sub(a)}
}

func (l Line) PointAt(t float64) r3.Vector {
	return l.Origin.Add(l.Direction.Mul(t))
}

///////////////////////////////////////////////////////////////////////////
// Plane

// Plane is the set of points p where Dot(N, p) + D == 0. N is a unit
// vector for planes made by the constructors below.
type Plane struct {
	N r3.Vector
	D float64
}

// PlaneFromNormalAndPoint returns the plane with normal n passing through
// p. n is normalized.
func PlaneFromNormalAndPoint(n, p r3.Vector) Plane {
	n = Normalize3d(n)
	return Plane{N: n, D: -n.Dot(p)}
}

// PlaneFromPoints returns the plane through the three points; its normal
// follows the right-hand rule for a->b->c. The returned Boolean is false
// if the points are collinear.
func PlaneFromPoints(a, b, c r3.Vector) (Plane, bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Norm2() == 0 {
		return Plane{}, false
	}
	return PlaneFromNormalAndPoint(n, a), true
}

// Distance returns the signed distance from p to the plane; it's positive
// on the side the normal points to.
func (pl Plane) Distance(p r3.Vector) float64 {
	return pl.N.Dot(p) + pl.D
}

// intersectDistance returns the parametric distance along l where it
// meets the plane. The Boolean result is false if the line is parallel to
// the plane; coincident reports whether it also lies in the plane.
func (pl Plane) intersectDistance(l Line) (t float64, ok bool, coincident bool) {
	if pl.N == (r3.Vector{}) {
		// Zero-value or degenerate plane.
		return 0, false, false
	}
	ndotd := pl.N.Dot(l.Direction)
	// Lines that are parallel to within float64 precision of the direction
	// vector's length are treated as parallel.
	if Abs(ndotd) <= 1e-15*l.Direction.Norm() {
		return 0, false, pl.Distance(l.Origin) == 0
	}
	return -pl.Distance(l.Origin) / ndotd, true, false
}

// IntersectLine returns the point where the infinite line l meets the
// plane. If the line lies in the plane its origin is returned; if it is
// parallel to the plane, false is returned.
func (pl Plane) IntersectLine(l Line) (r3.Vector, bool) {
	t, ok, coincident := pl.intersectDistance(l)
	if coincident {
		return l.Origin, true
	} else if !ok {
		return r3.Vector{}, false
	}
	p := l.PointAt(t)
	return p, IsFinite3d(p)
}

// IntersectSegment reports whether the closed segment (a, b) touches the
// plane and returns the point where it does. A segment that lies in the
// plane counts as intersecting it; its first endpoint is returned.
func (pl Plane) IntersectSegment(a, b r3.Vector) (r3.Vector, bool) {
	if a == b {
		return a, pl.N != (r3.Vector{}) && pl.Distance(a) == 0
	}

	l := LineFromSegment(a, b)
	t, ok, coincident := pl.intersectDistance(l)
	if coincident {
		return a, true
	} else if !ok || t < 0 || t > 1 {
		return r3.Vector{}, false
	}
	return l.PointAt(t), true
}
