// airspace/box.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airspace

import (
	"github.com/mmp/airtrack/globe"
	"github.com/mmp/airtrack/math"

	"github.com/golang/geo/r3"
)

// Indices of a leg's vertices. The A face is at the leg's start and the B
// face at its end; left and right are relative to the direction of
// travel.
const (
	ALowLeft = iota
	ALowRight
	AUpperLeft
	AUpperRight
	BLowLeft
	BLowRight
	BUpperLeft
	BUpperRight
)

// Indices of a leg's bounding planes.
const (
	FaceTop = iota
	FaceBottom
	FaceLeft
	FaceRight
	FaceStart
	FaceEnd
)

// ComputeStandardVertices returns the corners of the leg's box on g when
// the leg is considered by itself. At each end, the sides are offset from
// the path perpendicular to both the local up direction and the chord
// from the start to the end of the leg.
func ComputeStandardVertices(g globe.Globe, verticalExaggeration float64, s LegSpec) [8]r3.Vector {
	along := math.Normalize3d(g.PointFromGeodetic(s.End, 0).Sub(g.PointFromGeodetic(s.Start, 0)))

	var v [8]r3.Vector
	for i, p := range [2]math.Point2LL{s.Start, s.End} {
		lower, upper := s.altitudesAt(g, p, verticalExaggeration)
		left := math.Normalize3d(g.NormalAtLocation(p).Cross(along))
		lw, rw := left.Mul(s.LeftWidth), left.Mul(-s.RightWidth)

		lo, hi := g.PointFromGeodetic(p, lower), g.PointFromGeodetic(p, upper)
		base := 4 * i
		v[base+ALowLeft] = lo.Add(lw)
		v[base+ALowRight] = lo.Add(rw)
		v[base+AUpperLeft] = hi.Add(lw)
		v[base+AUpperRight] = hi.Add(rw)
	}
	return v
}

// ComputeStandardPlanes returns the planes of the box's six faces, with
// normals pointing out of the box. A face that has collapsed to a line
// (e.g., the top and bottom of a leg with no width) gets the zero Plane,
// which never intersects anything.
func ComputeStandardPlanes(v [8]r3.Vector) [6]math.Plane {
	var planes [6]math.Plane
	for i, tri := range [6][3]int{
		FaceTop:    {AUpperLeft, AUpperRight, BUpperLeft},
		FaceBottom: {ALowLeft, BLowLeft, ALowRight},
		FaceLeft:   {ALowLeft, AUpperLeft, BLowLeft},
		FaceRight:  {ALowRight, BLowRight, AUpperRight},
		FaceStart:  {ALowLeft, ALowRight, AUpperLeft},
		FaceEnd:    {BLowLeft, BUpperLeft, BLowRight},
	} {
		if pl, ok := math.PlaneFromPoints(v[tri[0]], v[tri[1]], v[tri[2]]); ok {
			planes[i] = pl
		}
	}
	return planes
}

// faceQuads gives the vertices of each face in counter-clockwise order
// when seen from outside the box.
var faceQuads = [6][4]int{
	FaceTop:    {AUpperLeft, AUpperRight, BUpperRight, BUpperLeft},
	FaceBottom: {ALowLeft, BLowLeft, BLowRight, ALowRight},
	FaceLeft:   {ALowLeft, AUpperLeft, BUpperLeft, BLowLeft},
	FaceRight:  {ALowRight, BLowRight, BUpperRight, AUpperRight},
	FaceStart:  {ALowLeft, ALowRight, AUpperRight, AUpperLeft},
	FaceEnd:    {BLowLeft, BUpperLeft, BUpperRight, BLowRight},
}

///////////////////////////////////////////////////////////////////////////
// LegGeometry

// LegGeometry is the renderable state of a leg: its eight vertices, after
// any joins with its neighbors, and which of its optional parts are drawn.
type LegGeometry struct {
	Vertices         [8]r3.Vector
	EnableStartCap   bool
	EnableEndCap     bool
	EnableCenterLine bool
}

func (lg LegGeometry) Extent() math.Extent3D {
	return math.Extent3DFromPoints(lg.Vertices[:]...)
}

// Triangles returns the triangles of the leg's enabled faces. The sides,
// top and bottom are always included; the caps only when enabled.
func (lg LegGeometry) Triangles() [][3]r3.Vector {
	v := lg.Vertices
	tris := make([][3]r3.Vector, 0, 12)
	for face, q := range faceQuads {
		if (face == FaceStart && !lg.EnableStartCap) || (face == FaceEnd && !lg.EnableEndCap) {
			continue
		}
		tris = append(tris, [3]r3.Vector{v[q[0]], v[q[1]], v[q[2]]},
			[3]r3.Vector{v[q[0]], v[q[2]], v[q[3]]})
	}
	return tris
}

// CenterLine returns the segment between the centers of the leg's start
// and end faces; false is returned if the center line isn't enabled.
func (lg LegGeometry) CenterLine() (r3.Vector, r3.Vector, bool) {
	if !lg.EnableCenterLine {
		return r3.Vector{}, r3.Vector{}, false
	}
	center := func(q [4]int) r3.Vector {
		var c r3.Vector
		for _, i := range q {
			c = c.Add(lg.Vertices[i])
		}
		return c.Mul(0.25)
	}
	return center(faceQuads[FaceStart]), center(faceQuads[FaceEnd]), true
}
