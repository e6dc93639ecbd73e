// airspace/footprint_test.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airspace

import (
	"encoding/json"
	"testing"

	"github.com/mmp/airtrack/math"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

func pointNear(a, b math.Point2LL, tol float64) bool {
	return math.Abs(a[0]-b[0]) <= tol && math.Abs(a[1]-b[1]) <= tol
}

func TestFootprint(t *testing.T) {
	g := flatGlobe(t)
	s := testLeg(math.Point2LL{0, 0}, math.Point2LL{0.1, 0}, 0)
	s.LeftWidth, s.RightWidth = 1000, 2000
	lg := standalone(g, s)

	// Meters to degrees on the flat globe.
	deg := func(m float64) float64 { return math.Degrees(m / g.Radius) }
	expected := []math.Point2LL{{0, deg(1000)}, {0.1, deg(1000)}, {0.1, -deg(2000)}, {0, -deg(2000)}}

	fp := Footprint(g, lg)
	if len(fp) != len(expected) {
		t.Fatalf("footprint %v", fp)
	}
	for i := range fp {
		if !pointNear(fp[i], expected[i], 1e-12) {
			t.Errorf("footprint point %d: got %v, expected %v", i, fp[i], expected[i])
		}
	}
}

func TestTrackFootprints(t *testing.T) {
	g := flatGlobe(t)
	tr := mustTrack(t, chain(1000, math.Point2LL{0, 0}, math.Point2LL{0.1, 0}, math.Point2LL{0.1, 0.1})...)

	fps := tr.Footprints(g)
	if len(fps) != 2 {
		t.Fatalf("got %d footprints", len(fps))
	}
	// Joined at the bisecting plane, the first leg's outer corner is
	// pushed past the end of the leg.
	if fps[0][2][0] <= 0.1 || !pointNear(fps[0][2], fps[1][3], 1e-9) {
		t.Errorf("footprints don't meet at the outer corner: %v, %v", fps[0], fps[1])
	}
	if !pointNear(fps[0][1], fps[1][0], 1e-9) {
		t.Errorf("footprints don't meet at the inner corner: %v, %v", fps[0], fps[1])
	}
}

func TestTriangulate(t *testing.T) {
	square := []math.Point2LL{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	tris := Triangulate(square)
	if len(tris) != 2 {
		t.Fatalf("got %d triangles for a square", len(tris))
	}
	if a := FootprintArea([][]math.Point2LL{square}); math.Abs(a-1) > 1e-12 {
		t.Errorf("square area %f", a)
	}

	if tris := Triangulate(square[:2]); tris != nil {
		t.Errorf("degenerate polygon gave triangles %v", tris)
	}

	two := [][]math.Point2LL{square, {{2, 0}, {4, 0}, {4, 1}, {2, 1}}}
	if a := FootprintArea(two); math.Abs(a-3) > 1e-12 {
		t.Errorf("area of two footprints %f, expected 3", a)
	}
}

func TestFootprintGeoJSON(t *testing.T) {
	g := flatGlobe(t)
	tr := zigzag(t)
	fps := tr.Footprints(g)

	b, err := FootprintGeoJSON("zigzag", fps, map[string]any{"legs": len(fps)})
	if err != nil {
		t.Fatal(err)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(b, &fc); err != nil {
		t.Fatalf("%v: %s", err, b)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("got %d features", len(fc.Features))
	}
	f := fc.Features[0]
	if f.ID != "zigzag" {
		t.Errorf("feature ID %q", f.ID)
	}
	if n, ok := f.Properties["legs"].(float64); !ok || int(n) != len(fps) {
		t.Errorf("properties %v", f.Properties)
	}

	mp, ok := f.Geometry.(*geom.MultiPolygon)
	if !ok {
		t.Fatalf("geometry is %T, expected a MultiPolygon", f.Geometry)
	}
	if mp.NumPolygons() != len(fps) {
		t.Errorf("got %d polygons, expected %d", mp.NumPolygons(), len(fps))
	}
	for i := range mp.NumPolygons() {
		ring := mp.Polygon(i).LinearRing(0)
		if ring.NumCoords() != 5 {
			t.Errorf("polygon %d has %d coordinates", i, ring.NumCoords())
			continue
		}
		first, last := ring.Coord(0), ring.Coord(4)
		if !first.Equal(geom.XY, last) {
			t.Errorf("polygon %d isn't closed", i)
		}
		if p := (math.Point2LL{first.X(), first.Y()}); !pointNear(p, fps[i][0], 1e-12) {
			t.Errorf("polygon %d starts at %v, expected %v", i, p, fps[i][0])
		}
	}
}
