// airspace/track_test.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airspace

import (
	"bytes"
	"errors"
	"log/slog"
	gomath "math"
	"slices"
	"strings"
	"testing"

	"github.com/mmp/airtrack/globe"
	"github.com/mmp/airtrack/log"
	"github.com/mmp/airtrack/math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// chain returns legs that run through the given points.
func chain(width float64, pts ...math.Point2LL) []LegSpec {
	var legs []LegSpec
	for i := 0; i+1 < len(pts); i++ {
		legs = append(legs, testLeg(pts[i], pts[i+1], width))
	}
	return legs
}

func mustTrack(t *testing.T, legs ...LegSpec) *Track {
	t.Helper()
	tr, err := NewTrack(legs...)
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

// zigzag returns a track with a mix of right angles, hairpins and
// straight sections.
func zigzag(t *testing.T) *Track {
	return mustTrack(t, chain(500,
		math.Point2LL{-73.0, 40.0},
		math.Point2LL{-72.9, 40.0},
		math.Point2LL{-72.9, 40.1},
		math.Point2LL{-73.0, 40.11},
		math.Point2LL{-72.85, 40.12},
		math.Point2LL{-72.7, 40.13},
		math.Point2LL{-72.7, 40.0},
		math.Point2LL{-72.6, 39.9},
		math.Point2LL{-72.5, 39.8})...)
}

func TestTrackStraight(t *testing.T) {
	g := sphereGlobe(t)
	legs := chain(1000, math.Point2LL{0, 0}, math.Point2LL{0.01, 0}, math.Point2LL{0.02, 0}, math.Point2LL{0.03, 0})
	tr := mustTrack(t, legs...)

	for i := 0; i+1 < len(legs); i++ {
		if _, fallback := BisectingPlane(g, legs[i], legs[i+1]); !fallback {
			t.Errorf("legs %d and %d should use the fallback plane", i, i+1)
		}
	}
	for i, kind := range tr.Joins(g, 1) {
		if kind != JoinBisecting {
			t.Errorf("join %d: got %s, expected bisecting", i, kind)
		}
	}

	ext, ok := tr.Extent(g, 1)
	if !ok {
		t.Fatalf("no extent")
	}
	single := mustTrack(t, testLeg(math.Point2LL{0, 0}, math.Point2LL{0.03, 0}, 1000))
	singleExt, _ := single.Extent(g, 1)
	if !ext.ApproxEqual(singleExt, 1e-6) {
		t.Errorf("extent %v differs from a single leg's %v", ext, singleExt)
	}

	// No gaps: each leg ends where the next starts.
	geom := tr.Geometry(g, 1)
	for i := 0; i+1 < len(geom); i++ {
		for v := ALowLeft; v <= AUpperRight; v++ {
			if !vecNear(geom[i].Vertices[v+4], geom[i+1].Vertices[v], 1e-6) {
				t.Errorf("legs %d and %d: vertex %d doesn't meet", i, i+1, v)
			}
		}
	}
}

func TestTrackMergesJoins(t *testing.T) {
	// A right angle followed by a hairpin: the middle leg's start comes
	// from the first join and its end from the second.
	g := flatGlobe(t)
	a, b := testLeg(math.Point2LL{0, 0}, math.Point2LL{0.1, 0}, 100), testLeg(math.Point2LL{0.1, 0}, math.Point2LL{0.1, 0.1}, 100)
	sin, cos := gomath.Sincos(math.Radians(10))
	c := testLeg(b.End, math.Point2LL{0.1 + 0.1*sin, 0.1 - 0.1*cos}, 100)

	tr := mustTrack(t, a, b, c)
	geom := tr.Geometry(g, 1)
	joins := tr.Joins(g, 1)

	jc := joinContext(g, true)
	ja, jb1, k1 := JoinLegs(a, b, standalone(g, a), standalone(g, b), jc)
	jb2, jc2, k2 := JoinLegs(b, c, standalone(g, b), standalone(g, c), jc)
	if !slices.Equal(joins, []JoinKind{k1, k2}) {
		t.Errorf("track joins %v, expected %v", joins, []JoinKind{k1, k2})
	}
	if k1 != JoinBisecting || !k2.Joined() || k2 == JoinBisecting {
		t.Errorf("unexpected joins %s, %s", k1, k2)
	}

	if geom[0] != ja {
		t.Errorf("first leg %v, expected %v", geom[0], ja)
	}
	var middle LegGeometry
	copy(middle.Vertices[:BLowLeft], jb1.Vertices[:BLowLeft])
	copy(middle.Vertices[BLowLeft:], jb2.Vertices[BLowLeft:])
	middle.EnableStartCap, middle.EnableEndCap = jb1.EnableStartCap, jb2.EnableEndCap
	if geom[1] != middle {
		t.Errorf("middle leg %v, expected %v", geom[1], middle)
	}
	if geom[2] != jc2 {
		t.Errorf("last leg %v, expected %v", geom[2], jc2)
	}
}

func TestTrackParallelJoins(t *testing.T) {
	for _, g := range []globe.Globe{globe.WGS84(), flatGlobe(t)} {
		sequential := zigzag(t)
		parallel := sequential.Clone()
		parallel.SetConcurrency(4)

		for _, ve := range []float64{1, 5} {
			if !slices.Equal(sequential.Geometry(g, ve), parallel.Geometry(g, ve)) {
				t.Errorf("%s ve %f: parallel geometry differs", g.StateID(), ve)
			}
			if !slices.Equal(sequential.Joins(g, ve), parallel.Joins(g, ve)) {
				t.Errorf("%s ve %f: parallel joins differ", g.StateID(), ve)
			}
		}
	}
}

func TestTrackCaching(t *testing.T) {
	flat, sphere := flatGlobe(t), sphereGlobe(t)
	tr := zigzag(t)

	if !tr.LegsOutOfDate(flat, 1) {
		t.Errorf("new track should be out of date")
	}
	tr.Update(flat, 1)
	if tr.LegsOutOfDate(flat, 1) {
		t.Errorf("track should be current after Update")
	}
	if !tr.LegsOutOfDate(flat, 2) || !tr.LegsOutOfDate(sphere, 1) {
		t.Errorf("track should be out of date for other globe states")
	}

	g0 := tr.Geometry(flat, 1)
	tr.Update(sphere, 1)
	if tr.LegsOutOfDate(flat, 1) {
		t.Errorf("geometry for the flat globe should still be cached")
	}

	// Changing a leg directly is noticed.
	leg := tr.Legs()[2]
	if err := leg.SetWidths(200, 50); err != nil {
		t.Fatal(err)
	}
	if !tr.LegsOutOfDate(flat, 1) || !tr.LegsOutOfDate(sphere, 1) {
		t.Errorf("changing a leg should make the track out of date")
	}
	g1 := tr.Geometry(flat, 1)
	if slices.Equal(g0, g1) {
		t.Errorf("geometry didn't change with the leg")
	}

	for name, change := range map[string]func(){
		"inner caps":  func() { tr.SetEnableInnerCaps(!tr.EnableInnerCaps()) },
		"center line": func() { tr.SetEnableCenterLine(!tr.EnableCenterLine()) },
		"altitudes":   func() { _ = tr.SetAltitudes(0, 10000) },
		"terrain":     func() { tr.SetTerrainConforming(true, false) },
		"threshold":   func() { _ = tr.SetSmallAngleThreshold(45 * s1.Degree) },
		"add leg":     func() { _ = tr.AddLegs(testLeg(math.Point2LL{-72.5, 39.8}, math.Point2LL{-72.4, 39.8}, 10)) },
	} {
		tr.Update(flat, 1)
		change()
		if !tr.LegsOutOfDate(flat, 1) {
			t.Errorf("%s: track should be out of date", name)
		}
	}

	// The returned geometry is a copy.
	geom := tr.Geometry(flat, 1)
	geom[0].Vertices[0] = r3.Vector{X: 1e9}
	if tr.Geometry(flat, 1)[0].Vertices[0] == geom[0].Vertices[0] {
		t.Errorf("modifying returned geometry changed the track")
	}
}

func TestTrackSetters(t *testing.T) {
	legs := chain(100, math.Point2LL{0, 0}, math.Point2LL{0.1, 0}, math.Point2LL{0.1, 0.1})

	t.Run("threshold", func(t *testing.T) {
		tr := mustTrack(t, legs...)
		if tr.SmallAngleThreshold() != DefaultSmallAngleThreshold {
			t.Errorf("default threshold %v", tr.SmallAngleThreshold())
		}
		for _, a := range []s1.Angle{s1.Angle(gomath.NaN()), -1 * s1.Degree, 181 * s1.Degree} {
			if err := tr.SetSmallAngleThreshold(a); !errors.Is(err, ErrInvalidAngle) {
				t.Errorf("%v: expected ErrInvalidAngle, got %v", a, err)
			}
		}
		if tr.SmallAngleThreshold() != DefaultSmallAngleThreshold {
			t.Errorf("invalid threshold was applied")
		}
		for _, a := range []s1.Angle{0, 90 * s1.Degree, 180 * s1.Degree} {
			if err := tr.SetSmallAngleThreshold(a); err != nil || tr.SmallAngleThreshold() != a {
				t.Errorf("%v: %v", a, err)
			}
		}
	})

	t.Run("altitudes", func(t *testing.T) {
		tr := mustTrack(t, legs...)
		if err := tr.SetAltitudes(3000, 1000); !errors.Is(err, ErrInvalidLeg) {
			t.Errorf("expected ErrInvalidLeg, got %v", err)
		}
		if err := tr.SetAltitudes(500, 700); err != nil {
			t.Fatal(err)
		}
		for _, leg := range tr.Legs() {
			if lo, hi := leg.Altitudes(); lo != 500 || hi != 700 {
				t.Errorf("leg altitudes %f, %f", lo, hi)
			}
		}
	})

	t.Run("legs", func(t *testing.T) {
		tr := mustTrack(t, legs...)
		bad := slices.Clone(legs)
		bad[1].LeftWidth = -5
		err := tr.SetLegs(bad)
		if !errors.Is(err, ErrInvalidLeg) || !strings.Contains(err.Error(), "leg 1") {
			t.Errorf("expected an error for leg 1, got %v", err)
		}
		if !slices.Equal(tr.LegSpecs(), legs) {
			t.Errorf("invalid SetLegs changed the track")
		}
		if err := tr.AddLegs(legs[0], bad[1]); err == nil || len(tr.Legs()) != 2 {
			t.Errorf("invalid AddLegs should add nothing")
		}
		if _, err := NewTrack(bad...); !errors.Is(err, ErrInvalidLeg) {
			t.Errorf("NewTrack with an invalid leg: %v", err)
		}

		tr.RemoveAllLegs()
		if len(tr.Legs()) != 0 {
			t.Errorf("RemoveAllLegs left %d legs", len(tr.Legs()))
		}
		if _, ok := tr.Extent(flatGlobe(t), 1); ok {
			t.Errorf("empty track shouldn't have an extent")
		}
	})

	t.Run("add leg", func(t *testing.T) {
		tr := mustTrack(t)
		tr.SetTerrainConforming(true, false)
		leg, err := tr.AddLeg(math.Point2LL{0, 0}, math.Point2LL{1, 1}, 0, 1000, 50, 60)
		if err != nil {
			t.Fatal(err)
		}
		if lo, hi := leg.TerrainConforming(); !lo || hi {
			t.Errorf("new leg terrain conformance %v, %v", lo, hi)
		}
		if l, r := leg.Widths(); l != 50 || r != 60 {
			t.Errorf("new leg widths %f, %f", l, r)
		}
		if _, err := tr.AddLeg(math.Point2LL{0, 0}, math.Point2LL{0, 0}, 0, 1000, 50, 60); !errors.Is(err, ErrInvalidLeg) {
			t.Errorf("zero-length leg: %v", err)
		}
		if len(tr.Legs()) != 1 {
			t.Errorf("track has %d legs, expected 1", len(tr.Legs()))
		}
	})

	t.Run("center line", func(t *testing.T) {
		tr := mustTrack(t, legs...)
		tr.SetEnableCenterLine(true)
		for i, lg := range tr.Geometry(flatGlobe(t), 1) {
			if !lg.EnableCenterLine || !tr.Legs()[i].EnableCenterLine() {
				t.Errorf("leg %d: center line not enabled", i)
			}
		}
		// Legs added later pick it up as well.
		leg, err := tr.AddLeg(math.Point2LL{0.1, 0.1}, math.Point2LL{0.2, 0.1}, 1000, 3000, 100, 100)
		if err != nil {
			t.Fatal(err)
		}
		if !leg.EnableCenterLine() {
			t.Errorf("new leg doesn't have a center line")
		}
	})
}

func TestTrackInnerCaps(t *testing.T) {
	g := flatGlobe(t)
	tr := mustTrack(t, chain(100, math.Point2LL{0, 0}, math.Point2LL{0.1, 0}, math.Point2LL{0.1, 0.1})...)

	geom := tr.Geometry(g, 1)
	if !geom[0].EnableStartCap || !geom[0].EnableEndCap || !geom[1].EnableStartCap || !geom[1].EnableEndCap {
		t.Errorf("all caps should be enabled with inner caps: %+v", geom)
	}

	tr.SetEnableInnerCaps(false)
	geom = tr.Geometry(g, 1)
	if !geom[0].EnableStartCap || geom[0].EnableEndCap || geom[1].EnableStartCap || !geom[1].EnableEndCap {
		t.Errorf("only outer caps should be enabled: %+v", geom)
	}
}

func TestTrackExtent(t *testing.T) {
	g := globe.WGS84()
	tr := zigzag(t)

	ext, ok := tr.Extent(g, 1)
	if !ok {
		t.Fatalf("no extent")
	}
	for i, lg := range tr.Geometry(g, 1) {
		for _, v := range lg.Vertices {
			if !ext.Expand(1e-6).Inside(v) {
				t.Errorf("leg %d vertex %v outside extent %v", i, v, ext)
			}
		}
	}

	// Exaggerating altitudes grows the extent.
	ext5, _ := tr.Extent(g, 5)
	if ext5.Size().Norm() <= ext.Size().Norm() {
		t.Errorf("exaggerated extent %v not larger than %v", ext5, ext)
	}
}

func TestTrackInside(t *testing.T) {
	g := flatGlobe(t)
	tr := mustTrack(t, chain(1000, math.Point2LL{0, 0}, math.Point2LL{0.1, 0}, math.Point2LL{0.1, 0.1})...)

	for _, tc := range []struct {
		p      math.Point2LL
		alt    float64
		inside bool
	}{
		{math.Point2LL{0.05, 0}, 2000, true},
		{math.Point2LL{0.1, 0.05}, 2000, true},
		// In the outer corner, covered only because the legs are joined.
		{math.Point2LL{0.105, -0.008}, 2000, true},
		{math.Point2LL{0.05, 0.05}, 2000, false},
		{math.Point2LL{0.05, 0}, 4000, false},
	} {
		if tr.Inside(g, tc.p, tc.alt) != tc.inside {
			t.Errorf("%v at %f: expected inside = %v", tc.p, tc.alt, tc.inside)
		}
	}
}

func TestTrackClone(t *testing.T) {
	tr := zigzag(t)
	tr.SetEnableInnerCaps(false)
	c := tr.Clone()

	if c.EnableInnerCaps() || !slices.Equal(c.LegSpecs(), tr.LegSpecs()) {
		t.Errorf("clone doesn't match the original")
	}

	if err := c.Legs()[0].SetAltitudes(0, 100); err != nil {
		t.Fatal(err)
	}
	if lo, _ := tr.Legs()[0].Altitudes(); lo != 1000 {
		t.Errorf("changing the clone changed the original")
	}

	g := flatGlobe(t)
	key := globe.KeyFor(g, 1)
	geom := tr.Geometry(g, 1)
	c2 := tr.Clone()
	for i, leg := range c2.Legs() {
		orig := tr.Legs()[i]
		if leg == orig {
			t.Fatalf("leg %d is shared with the original", i)
		}
		if !leg.VerticesValid(key) || leg.Version() != orig.Version() || leg.EnableCenterLine() != orig.EnableCenterLine() {
			t.Errorf("leg %d: cached state not carried over", i)
		}
	}
	if !slices.Equal(c2.Geometry(g, 1), geom) {
		t.Errorf("clone geometry differs")
	}

	// Clearing the clone's vertices leaves the original's cache alone.
	c2.Legs()[1].ClearVertices()
	if !tr.Legs()[1].VerticesValid(key) {
		t.Errorf("clearing the clone's vertices cleared the original's")
	}
}

func TestTrackMoveTo(t *testing.T) {
	g := flatGlobe(t)
	tr := zigzag(t)
	joins := tr.Joins(g, 1)

	ref, alt, ok := tr.ReferencePosition()
	if !ok || alt != 1000 {
		t.Fatalf("reference position %v %f %v", ref, alt, ok)
	}
	if ref[0] < -73 || ref[0] > -72.5 || ref[1] < 39.8 || ref[1] > 40.13 {
		t.Errorf("reference position %v not within the track", ref)
	}

	target := math.Add2LL(ref, math.Point2LL{1, 0.5})
	if err := tr.MoveTo(target); err != nil {
		t.Fatal(err)
	}
	newRef, _, _ := tr.ReferencePosition()
	if math.NMDistance2LL(newRef, target) > 0.1 {
		t.Errorf("moved reference %v, expected %v", newRef, target)
	}
	if !slices.Equal(tr.Joins(g, 1), joins) {
		t.Errorf("joins changed after moving: %v, expected %v", tr.Joins(g, 1), joins)
	}

	moved := tr.LegSpecs()
	if err := tr.MoveTo(math.Point2LL{0, 89.99}); !errors.Is(err, ErrInvalidLeg) {
		t.Errorf("moving past the pole: %v", err)
	}
	if !slices.Equal(tr.LegSpecs(), moved) {
		t.Errorf("failed move changed the track")
	}

	empty := mustTrack(t)
	if _, _, ok := empty.ReferencePosition(); ok {
		t.Errorf("empty track shouldn't have a reference position")
	}
}

func TestTrackMoveAcrossAntimeridian(t *testing.T) {
	g := globe.WGS84()
	tr := mustTrack(t, chain(500, math.Point2LL{179.8, 0}, math.Point2LL{179.9, 0}, math.Point2LL{179.9, 0.1})...)
	joins := tr.Joins(g, 1)

	ref, _, _ := tr.ReferencePosition()
	target := math.Point2LL{179.99, ref[1]}
	if err := tr.MoveTo(target); err != nil {
		t.Fatal(err)
	}

	for i, s := range tr.LegSpecs() {
		if !s.Start.IsValid() || !s.End.IsValid() {
			t.Errorf("leg %d: invalid location %v-%v", i, s.Start, s.End)
		}
	}
	if end := tr.LegSpecs()[0].End; math.Abs(end[0]-(-179.985)) > 0.005 {
		t.Errorf("leg 0 ends at %v, expected to wrap to around -179.985", end)
	}
	if newRef, _, _ := tr.ReferencePosition(); math.NMDistance2LL(newRef, target) > 0.1 {
		t.Errorf("moved reference %v, expected %v", newRef, target)
	}
	if !slices.Equal(tr.Joins(g, 1), joins) {
		t.Errorf("joins changed after moving: %v, expected %v", tr.Joins(g, 1), joins)
	}
}

func TestTrackLogging(t *testing.T) {
	var buf bytes.Buffer
	lg := log.NewWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tr := mustTrack(t, chain(100, math.Point2LL{0, 0}, math.Point2LL{0.1, 0}, math.Point2LL{0.1, 0.1})...)
	tr.SetLogger(lg)
	tr.Update(flatGlobe(t), 1)

	if !strings.Contains(buf.String(), "legs joined") || !strings.Contains(buf.String(), "bisecting") {
		t.Errorf("join not logged: %s", buf.String())
	}
}
