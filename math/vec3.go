// math/vec3.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

///////////////////////////////////////////////////////////////////////////
// 3D vectors
//
// Cartesian points and directions are r3.Vectors; the handful of helpers
// here cover the places where r3's own methods don't behave the way the
// geometry code wants.

// Normalize3d returns the unit vector in the direction of v; the zero
// vector is returned unchanged.
func Normalize3d(v r3.Vector) r3.Vector {
	l := v.Norm()
	if l == 0 {
		return r3.Vector{}
	}
	return v.Mul(1 / l)
}

// AngleBetween3d returns the angle between v1 and v2. It is equivalent to
// acos(Dot(v1, v2)) for unit vectors but more numerically stable near 0
// and 180 degrees.
// via http://www.plunk.org/~hatch/rightway.html
func AngleBetween3d(v1, v2 r3.Vector) s1.Angle {
	v1, v2 = Normalize3d(v1), Normalize3d(v2)
	if v1.Dot(v2) < 0 {
		return s1.Angle(gomath.Pi - 2*SafeASin(v1.Add(v2).Norm()/2))
	}
	return s1.Angle(2 * SafeASin(v2.Sub(v1).Norm()/2))
}

// Lerp3d linearly interpolates between a and b; x==0 corresponds to a,
// x==1 to b.
func Lerp3d(x float64, a, b r3.Vector) r3.Vector {
	return a.Mul(1 - x).Add(b.Mul(x))
}

// Mid3d returns the midpoint of a and b.
func Mid3d(a, b r3.Vector) r3.Vector {
	return Lerp3d(0.5, a, b)
}

// ProjectOntoPlane3d removes the component of v along the unit vector n.
func ProjectOntoPlane3d(v, n r3.Vector) r3.Vector {
	return v.Sub(n.Mul(v.Dot(n)))
}

// IsFinite3d returns true if all of v's components are finite.
func IsFinite3d(v r3.Vector) bool {
	return IsFinite(v.X, v.Y, v.Z)
}
