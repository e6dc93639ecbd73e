// airspace/footprint.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airspace

import (
	"encoding/json"

	"github.com/mmp/airtrack/globe"
	"github.com/mmp/airtrack/math"

	"github.com/mmp/earcut-go"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Footprint returns the outline of the bottom face of the leg as
// longitude-latitude points: along the left side from the start to the
// end and then back along the right side.
func Footprint(g globe.Globe, lg LegGeometry) []math.Point2LL {
	var fp []math.Point2LL
	for _, i := range [4]int{ALowLeft, BLowLeft, BLowRight, ALowRight} {
		p, _ := g.GeodeticFromPoint(lg.Vertices[i])
		fp = append(fp, p)
	}
	return fp
}

// Footprints returns the footprints of the track's joined legs.
func (t *Track) Footprints(g globe.Globe) [][]math.Point2LL {
	tg := t.update(g, 1)
	fps := make([][]math.Point2LL, len(tg.geometry))
	for i, lg := range tg.geometry {
		fps[i] = Footprint(g, lg)
	}
	return fps
}

// Triangulate returns triangles that fill the given polygon, e.g. for
// drawing a footprint as a filled surface shape.
func Triangulate(poly []math.Point2LL) [][3]math.Point2LL {
	if len(poly) < 3 {
		return nil
	}

	vertices := make([]earcut.Vertex, len(poly))
	for i, p := range poly {
		vertices[i].P = [2]float64{p[0], p[1]}
	}

	var tris [][3]math.Point2LL
	for _, tri := range earcut.Triangulate(earcut.Polygon{Rings: [][]earcut.Vertex{vertices}}) {
		var t [3]math.Point2LL
		for i, v := range tri.Vertices {
			t[i] = math.Point2LL(v.P)
		}
		tris = append(tris, t)
	}
	return tris
}

// FootprintGeoJSON returns a GeoJSON FeatureCollection holding a single
// feature whose geometry is a MultiPolygon with one polygon per footprint.
func FootprintGeoJSON(id string, footprints [][]math.Point2LL, properties map[string]any) ([]byte, error) {
	coords := make([][][]geom.Coord, 0, len(footprints))
	for _, fp := range footprints {
		if len(fp) < 3 {
			continue
		}
		ring := make([]geom.Coord, 0, len(fp)+1)
		for _, p := range fp {
			ring = append(ring, geom.Coord{p.Longitude(), p.Latitude()})
		}
		// GeoJSON rings are explicitly closed.
		ring = append(ring, ring[0])
		coords = append(coords, [][]geom.Coord{ring})
	}

	mp, err := geom.NewMultiPolygon(geom.XY).SetCoords(coords)
	if err != nil {
		return nil, err
	}

	fc := &geojson.FeatureCollection{
		Features: []*geojson.Feature{{
			ID:         id,
			Geometry:   mp,
			Properties: properties,
		}},
	}
	return json.Marshal(fc)
}

// FootprintArea returns the total area of the footprints in square
// degrees.
func FootprintArea(footprints [][]math.Point2LL) float64 {
	var area float64
	for _, fp := range footprints {
		for _, tri := range Triangulate(fp) {
			a, b, c := tri[0], tri[1], tri[2]
			area += math.Abs((b[0]-a[0])*(c[1]-a[1])-(c[0]-a[0])*(b[1]-a[1])) / 2
		}
	}
	return area
}
