// airspace/join.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airspace

import (
	"github.com/mmp/airtrack/globe"
	"github.com/mmp/airtrack/math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// DefaultSmallAngleThreshold is the largest angle between two legs at
// which they are joined by extending the first leg rather than by
// cutting both along their bisecting plane.
const DefaultSmallAngleThreshold = 22.5 * s1.Degree

// JoinKind records what happened when two consecutive legs were joined.
type JoinKind int

const (
	// JoinNone: the legs don't share an endpoint, altitudes and terrain
	// conformance, so each is drawn by itself.
	JoinNone JoinKind = iota
	// JoinOverlap: the legs fold back over each other too far to be
	// joined; both are left unchanged.
	JoinOverlap
	// JoinBisecting: both legs were cut at the plane that bisects the
	// angle between them.
	JoinBisecting
	// JoinSmallAngleRight and JoinSmallAngleLeft: the legs meet at an
	// acute angle; the first was extended to the second's side and the
	// second clipped to the first's.
	JoinSmallAngleRight
	JoinSmallAngleLeft
)

func (k JoinKind) String() string {
	switch k {
	case JoinNone:
		return "none"
	case JoinOverlap:
		return "overlap"
	case JoinBisecting:
		return "bisecting"
	case JoinSmallAngleRight:
		return "small-angle-right"
	case JoinSmallAngleLeft:
		return "small-angle-left"
	default:
		return "unknown"
	}
}

// Joined reports whether the legs' vertices were modified.
func (k JoinKind) Joined() bool {
	return k == JoinBisecting || k == JoinSmallAngleRight || k == JoinSmallAngleLeft
}

// MustJoin reports whether b continues a: a ends where b starts, and the
// two have the same altitudes and terrain conformance. The comparisons
// are exact; legs are expected to share endpoints because they were
// constructed from the same points.
func MustJoin(a, b LegSpec) bool {
	return a.End == b.Start &&
		a.LowerAltitude == b.LowerAltitude && a.UpperAltitude == b.UpperAltitude &&
		a.LowerTerrainConforming == b.LowerTerrainConforming &&
		a.UpperTerrainConforming == b.UpperTerrainConforming
}

// JoinContext holds the settings that JoinLegs needs beyond the legs
// themselves.
type JoinContext struct {
	Globe                globe.Globe
	VerticalExaggeration float64
	SmallAngleThreshold  s1.Angle
	EnableInnerCaps      bool
}

// jointPoints returns the start of a, the common point and the end of b,
// each at its leg's lower altitude.
func jointPoints(g globe.Globe, a, b LegSpec) (pa, pb, pc r3.Vector) {
	pa = g.PointFromGeodetic(a.Start, a.LowerAltitude)
	pb = g.PointFromGeodetic(a.End, a.LowerAltitude)
	pc = g.PointFromGeodetic(b.End, b.LowerAltitude)
	return
}

// BisectingPlane returns the plane through the common point of a and b
// that contains the local up direction and bisects the angle between the
// two legs there. If the legs continue in a straight line, the plane is
// instead perpendicular to a at the common point and the returned Boolean
// is true.
func BisectingPlane(g globe.Globe, a, b LegSpec) (math.Plane, bool) {
	pa, pb, pc := jointPoints(g, a, b)
	up := g.NormalAtLocation(a.End)

	// The directions are the chords to the far ends projected onto the
	// tangent plane at the joint, not the raw chords. On a flat globe the
	// two are the same. On a curved globe the chords tip downward by
	// different amounts when the legs have different lengths, so the raw
	// chords would miss the straight-continuation fallback and tilt the
	// plane between legs that continue along a great circle.
	ba := math.Normalize3d(math.ProjectOntoPlane3d(pa.Sub(pb), up))
	bc := math.Normalize3d(math.ProjectOntoPlane3d(pc.Sub(pb), up))

	sum := ba.Add(bc)
	if sum.Norm() < 1e-7 {
		return math.PlaneFromNormalAndPoint(ba, pb), true
	}
	return math.PlaneFromNormalAndPoint(up.Cross(sum), pb), false
}

// JoinAngle returns the angle at the common point between the directions
// back along a and forward along b; it is 180 degrees for legs that
// continue straight and near zero for legs that double back.
func JoinAngle(g globe.Globe, a, b LegSpec) s1.Angle {
	pa, pb, pc := jointPoints(g, a, b)
	return math.AngleBetween3d(pa.Sub(pb), pc.Sub(pb))
}

// IsSmallAngle reports whether the legs' JoinAngle is at most threshold.
func IsSmallAngle(g globe.Globe, a, b LegSpec, threshold s1.Angle) bool {
	return JoinAngle(g, a, b) <= threshold
}

// IsRightTurn reports whether b turns to the right relative to a, as
// seen from above.
func IsRightTurn(g globe.Globe, a, b LegSpec) bool {
	pa, pb, pc := jointPoints(g, a, b)
	return g.NormalAtLocation(a.End).Dot(pa.Sub(pb).Cross(pc.Sub(pb))) >= 0
}

// clipTo returns the point where the line from -> through meets pl. If
// they don't meet, prior is returned.
func clipTo(pl math.Plane, from, through, prior r3.Vector) r3.Vector {
	if p, ok := pl.IntersectLine(math.LineFromSegment(from, through)); ok {
		return p
	}
	return prior
}

// JoinLegs joins the end of leg a to the start of leg b so that together
// they form a continuous volume. ga and gb are the legs' standalone
// geometry; updated copies are returned along with the kind of join that
// was made. Only a's end face and b's start face are changed, along with
// the corresponding caps.
func JoinLegs(a, b LegSpec, ga, gb LegGeometry, jc JoinContext) (LegGeometry, LegGeometry, JoinKind) {
	if !MustJoin(a, b) {
		return ga, gb, JoinNone
	}

	g := jc.Globe
	plane, _ := BisectingPlane(g, a, b)

	// If the bisecting plane cuts the start of a or the end of b, the legs
	// overlap too much to be joined.
	if _, ok := plane.IntersectSegment(ga.Vertices[ALowLeft], ga.Vertices[ALowRight]); ok {
		return ga, gb, JoinOverlap
	}
	if _, ok := plane.IntersectSegment(gb.Vertices[BLowLeft], gb.Vertices[BLowRight]); ok {
		return ga, gb, JoinOverlap
	}

	ja, jb := ga, gb
	va, vb := ga.Vertices, gb.Vertices

	if IsSmallAngle(g, a, b, jc.SmallAngleThreshold) {
		// Cutting acute legs at the bisecting plane would give a long
		// spike, so instead a is extended until it reaches the far side
		// of b and b is clipped where it leaves a.
		planesA := ComputeStandardPlanes(va)
		planesB := ComputeStandardPlanes(vb)

		kind := JoinSmallAngleRight
		// Outer side of a, side of b that it's extended to, and side of a
		// that b is clipped against.
		low, upper, bSide, aSide := BLowRight, BUpperRight, FaceLeft, FaceRight
		if !IsRightTurn(g, a, b) {
			kind = JoinSmallAngleLeft
			low, upper, bSide, aSide = BLowLeft, BUpperLeft, FaceRight, FaceLeft
		}

		ja.Vertices[low] = clipTo(planesB[bSide], va[low-4], va[low], va[low])
		ja.Vertices[upper] = clipTo(planesB[bSide], va[upper-4], va[upper], va[upper])
		for i := ALowLeft; i <= AUpperRight; i++ {
			jb.Vertices[i] = clipTo(planesA[aSide], vb[i+4], vb[i], vb[i])
		}

		ja.EnableEndCap = true
		jb.EnableStartCap = jc.EnableInnerCaps
		return ja, jb, kind
	}

	for i := ALowLeft; i <= AUpperRight; i++ {
		ja.Vertices[i+4] = clipTo(plane, va[i], va[i+4], va[i+4])
		jb.Vertices[i] = clipTo(plane, vb[i+4], vb[i], vb[i])
	}
	ja.EnableEndCap = jc.EnableInnerCaps
	jb.EnableStartCap = jc.EnableInnerCaps
	return ja, jb, JoinBisecting
}
