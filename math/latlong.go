// math/latlong.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"encoding/json"
	"fmt"
	gomath "math"
	"regexp"
	"strconv"

	"github.com/golang/geo/s2"
)

const NauticalMilesToMeters = 1852
const FeetToMeters = 0.3048

///////////////////////////////////////////////////////////////////////////
// Point2LL

// Point2LL represents a 2D point on the Earth in latitude-longitude,
// expressed in degrees.
// Important: 0 (x) is longitude, 1 (y) is latitude
type Point2LL [2]float64

func (p Point2LL) Longitude() float64 {
	return p[0]
}

func (p Point2LL) Latitude() float64 {
	return p[1]
}

// LatLng returns the point as an s2.LatLng.
func (p Point2LL) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(p[1], p[0])
}

func Point2LLFromLatLng(ll s2.LatLng) Point2LL {
	return Point2LL{ll.Lng.Degrees(), ll.Lat.Degrees()}
}

// IsValid returns true if the latitude is within [-90, 90] and the
// longitude within [-180, 180].
func (p Point2LL) IsValid() bool {
	return IsFinite(p[0], p[1]) && p[1] >= -90 && p[1] <= 90 && p[0] >= -180 && p[0] <= 180
}

// DDString returns the position in decimal degrees, e.g.:
// (39.860901, -75.274864)
func (p Point2LL) DDString() string {
	return fmt.Sprintf("(%f, %f)", p[1], p[0]) // latitude, longitude
}

// DMSString returns the position in degrees minutes, seconds, e.g.
// N039.51.39.243,W075.16.29.511
func (p Point2LL) DMSString() string {
	format := func(v float64) string {
		// Work in integer milliseconds of arc to avoid printing 60
		// seconds after rounding.
		ms := int64(v*3600000 + 0.5)
		deg := ms / 3600000
		ms -= deg * 3600000
		mins := ms / 60000
		ms -= mins * 60000
		return fmt.Sprintf("%03d.%02d.%02d.%03d", deg, mins, ms/1000, ms%1000)
	}

	var s string
	if p[1] >= 0 {
		s = "N"
	} else {
		s = "S"
	}
	s += format(Abs(p[1]))

	if p[0] >= 0 {
		s += ",E"
	} else {
		s += ",W"
	}
	s += format(Abs(p[0]))

	return s
}

func (p Point2LL) String() string {
	return p.DDString()
}

var (
	// pair of floats (no exponents)
	reWaypointFloat = regexp.MustCompile(`^(\-?[0-9]+\.[0-9]+), *(\-?[0-9]+\.[0-9]+)$`)
	// https://en.wikipedia.org/wiki/ISO_6709#String_expression_(Annex_H)
	// e.g. +403527.580-0734452.955
	reISO6709H = regexp.MustCompile(`^([-+][0-9][0-9])([0-9][0-9])([0-9][0-9])\.([0-9][0-9][0-9])([-+][0-9][0-9][0-9])([0-9][0-9])([0-9][0-9])\.([0-9][0-9][0-9])$`)
	// Degrees and minutes, e.g. 4037N/07346W
	reDegMinSlash = regexp.MustCompile(`^([0-9][0-9])([0-9][0-9])([NS])/([0-9][0-9][0-9])([0-9][0-9])([EW])$`)
)

// Parse waypoints of the form "N40.37.58.400, W073.46.17.000" by hand;
// they're the most common form in track files and a regexp is
// substantially slower.
func tryParseWaypointDotted(b []byte) (Point2LL, bool) {
	if len(b) == 0 || (b[0] != 'N' && b[0] != 'S') {
		return Point2LL{}, false
	}
	negateLatitude := b[0] == 'S'

	// Skip over the N/S and parse the four dotted numbers following it
	b = b[1:]
	latitude, n, ok := tryParseWaypointNumbers(b)
	if !ok {
		return Point2LL{}, false
	}
	if negateLatitude {
		latitude = -latitude
	}
	b = b[n:]

	if len(b) == 0 || b[0] != ',' {
		return Point2LL{}, false
	}
	b = b[1:]

	// Skip optional space
	if len(b) > 0 && b[0] == ' ' {
		b = b[1:]
	}

	if len(b) == 0 || (b[0] != 'E' && b[0] != 'W') {
		return Point2LL{}, false
	}
	negateLongitude := b[0] == 'W'

	b = b[1:]
	longitude, n, ok := tryParseWaypointNumbers(b)
	if !ok || n != len(b) {
		return Point2LL{}, false
	}
	if negateLongitude {
		longitude = -longitude
	}

	return Point2LL{longitude, latitude}, true
}

// tryParseWaypointNumbers parses a latlong of the form aaa.bbb.ccc.ddd and
// returns the corresponding value in degrees, the number of bytes of b
// consumed, and a bool indicating success or failure.
func tryParseWaypointNumbers(b []byte) (float64, int, bool) {
	n := 0
	var ll float64

	scan := func(b []byte) int {
		for i, v := range b {
			if v == '.' || v == ',' {
				return i
			}
		}
		return len(b)
	}

	for i := range 4 {
		end := scan(b)
		if end == 0 {
			return 0, 0, false
		}

		value := 0
		for _, ch := range b[:end] {
			if ch < '0' || ch > '9' {
				return 0, 0, false
			}
			value = 10*value + int(ch-'0')
		}
		if i == 3 {
			// Treat the last set of digits as a decimal, so that
			// Nxx.yy.zz.1 is handled like Nxx.yy.zz.100.
			for j := end; j < 3; j++ {
				value *= 10
			}
		}

		scales := [4]float64{1, 60, 3600, 3600000}
		ll += float64(value) / scales[i]
		n += end
		b = b[end:]

		if i < 3 {
			if len(b) == 0 || b[0] != '.' {
				return 0, 0, false
			}
			b = b[1:]
			n++
		}
	}

	return ll, n, true
}

// ParseLatLong parses a location given in one of the forms
// "N40.37.58.400, W073.46.17.000", "40.6328888, -73.771385",
// "+403758.400-0734617.000" or "4037N/07346W".
func ParseLatLong(llstr []byte) (Point2LL, error) {
	if p, ok := tryParseWaypointDotted(llstr); ok {
		return p, nil
	} else if strs := reWaypointFloat.FindStringSubmatch(string(llstr)); len(strs) == 3 {
		var p Point2LL
		var err error
		if p[1], err = strconv.ParseFloat(strs[1], 64); err != nil {
			return Point2LL{}, err
		}
		if p[0], err = strconv.ParseFloat(strs[2], 64); err != nil {
			return Point2LL{}, err
		}
		if !p.IsValid() {
			return Point2LL{}, fmt.Errorf("%s: latlong out of range", llstr)
		}
		return p, nil
	} else if strs := reISO6709H.FindStringSubmatch(string(llstr)); len(strs) == 9 {
		parse := func(deg, min, sec, frac string) (float64, error) {
			var v [4]int
			for i, s := range []string{deg, min, sec, frac} {
				var err error
				if v[i], err = strconv.Atoi(s); err != nil {
					return 0, err
				}
			}
			sgn := 1.0
			if deg[0] == '-' {
				sgn = -1
			}
			d := Abs(v[0])
			return sgn * (float64(d) + float64(v[1])/60 + float64(v[2])/3600 + float64(v[3])/3600000), nil
		}

		var p Point2LL
		var err error
		if p[1], err = parse(strs[1], strs[2], strs[3], strs[4]); err != nil {
			return Point2LL{}, err
		}
		if p[0], err = parse(strs[5], strs[6], strs[7], strs[8]); err != nil {
			return Point2LL{}, err
		}
		return p, nil
	} else if strs := reDegMinSlash.FindStringSubmatch(string(llstr)); len(strs) == 7 {
		atoi := func(s string) float64 {
			v, _ := strconv.Atoi(s) // the regexp guarantees digits
			return float64(v)
		}
		p := Point2LL{atoi(strs[4]) + atoi(strs[5])/60, atoi(strs[1]) + atoi(strs[2])/60}
		if strs[3] == "S" {
			p[1] = -p[1]
		}
		if strs[6] == "W" {
			p[0] = -p[0]
		}
		if !p.IsValid() || atoi(strs[2]) >= 60 || atoi(strs[5]) >= 60 {
			return Point2LL{}, fmt.Errorf("%s: latlong out of range", llstr)
		}
		return p, nil
	} else {
		return Point2LL{}, fmt.Errorf("%s: invalid latlong string", llstr)
	}
}

func Add2LL(a, b Point2LL) Point2LL {
	return Point2LL{a[0] + b[0], a[1] + b[1]}
}

// WrapLongitude returns p with its longitude brought into [-180, 180] by
// adding or subtracting multiples of 360 degrees. The latitude is left as
// is.
func (p Point2LL) WrapLongitude() Point2LL {
	if p[0] < -180 || p[0] > 180 {
		p[0] = gomath.Mod(p[0]+180, 360)
		if p[0] < 0 {
			p[0] += 360
		}
		p[0] -= 180
	}
	return p
}

func Sub2LL(a, b Point2LL) Point2LL {
	return Point2LL{a[0] - b[0], a[1] - b[1]}
}

// NMDistance2LL returns the great-circle distance in nautical miles
// between two provided lat-long coordinates.
func NMDistance2LL(a, b Point2LL) float64 {
	const R = 6371000 // metres
	return a.LatLng().Distance(b.LatLng()).Radians() * R / NauticalMilesToMeters
}

// PointInPolygon2LL checks whether the given point is inside the given
// polygon; it assumes that the last vertex does not repeat the first one,
// and so includes the edge from pts[len(pts)-1] to pts[0] in its test.
func PointInPolygon2LL(p Point2LL, pts []Point2LL) bool {
	inside := false
	for i := range pts {
		p0, p1 := pts[i], pts[(i+1)%len(pts)]
		if (p0[1] <= p[1] && p[1] < p1[1]) || (p1[1] <= p[1] && p[1] < p0[1]) {
			x := p0[0] + (p[1]-p0[1])*(p1[0]-p0[0])/(p1[1]-p0[1])
			if x > p[0] {
				inside = !inside
			}
		}
	}
	return inside
}

// Store Point2LLs as strings is JSON, for compactness/friendliness...
func (p Point2LL) MarshalJSON() ([]byte, error) {
	return []byte("\"" + p.DMSString() + "\""), nil
}

func (p *Point2LL) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		// Also accept arrays of two floats, longitude first.
		var pt [2]float64
		err := json.Unmarshal(b, &pt)
		if err == nil {
			*p = pt
		}
		return err
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	pt, err := ParseLatLong([]byte(s))
	if err == nil {
		*p = pt
	}
	return err
}
