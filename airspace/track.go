// airspace/track.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package airspace implements track airspaces: sequences of box-shaped
// legs whose adjoining ends are joined so that the track forms a single
// continuous volume.
package airspace

import (
	"fmt"
	"log/slog"
	gomath "math"
	"slices"

	"github.com/mmp/airtrack/globe"
	"github.com/mmp/airtrack/log"
	"github.com/mmp/airtrack/math"
	"github.com/mmp/airtrack/util"

	"github.com/brunoga/deep"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// Volume is implemented by the airspace shapes.
type Volume interface {
	Extent(g globe.Globe, verticalExaggeration float64) (math.Extent3D, bool)
	Inside(g globe.Globe, p math.Point2LL, alt float64) bool
}

var (
	_ Volume = (*Leg)(nil)
	_ Volume = (*Track)(nil)
)

// The number of globe states (e.g., 3D and 2D views) for which joined
// geometry is kept.
const geometryCacheSize = 4

// Track is an ordered sequence of legs. Consecutive legs that share an
// endpoint, altitudes and terrain conformance are joined when the track's
// geometry is computed. A Track is not safe for concurrent use.
type Track struct {
	legs                   []*Leg
	enableInnerCaps        bool
	enableCenterLine       bool
	smallAngleThreshold    s1.Angle
	lowerTerrainConforming bool
	upperTerrainConforming bool
	concurrency            int

	lg    *log.Logger
	cache *lru.Cache[globe.StateKey, *trackGeometry]
}

// trackGeometry is the joined geometry of all of a track's legs for one
// globe state.
type trackGeometry struct {
	legs     []*Leg
	versions []uint64
	geometry []LegGeometry
	joins    []JoinKind
	extent   math.Extent3D
}

// current reports whether the geometry was computed from the given legs
// in their current state.
func (tg *trackGeometry) current(legs []*Leg) bool {
	if len(legs) != len(tg.legs) {
		return false
	}
	for i, leg := range legs {
		if leg != tg.legs[i] || leg.version != tg.versions[i] {
			return false
		}
	}
	return true
}

// NewTrack returns a track with the given legs. Inner caps are enabled,
// the center line is disabled and the small-angle threshold is
// DefaultSmallAngleThreshold.
func NewTrack(legs ...LegSpec) (*Track, error) {
	t := &Track{
		enableInnerCaps:     true,
		smallAngleThreshold: DefaultSmallAngleThreshold,
		concurrency:         1,
		cache:               newGeometryCache(),
	}
	if err := t.SetLegs(legs); err != nil {
		return nil, err
	}
	return t, nil
}

func newGeometryCache() *lru.Cache[globe.StateKey, *trackGeometry] {
	c, err := lru.New[globe.StateKey, *trackGeometry](geometryCacheSize)
	if err != nil {
		// Only possible for a non-positive size.
		panic(err)
	}
	return c
}

func (t *Track) invalidate() {
	t.cache.Purge()
}

func validateLegs(specs []LegSpec) error {
	var e util.ErrorLogger
	for i, s := range specs {
		e.Push(fmt.Sprintf("leg %d", i))
		s.Validate(&e)
		e.Pop()
	}
	return e.Err(ErrInvalidLeg)
}

func (t *Track) newLeg(s LegSpec) *Leg {
	return &Leg{spec: s, enableCenterLine: t.enableCenterLine}
}

// SetLegs replaces all of the track's legs. If any of the legs is
// invalid, an error is returned and the track is unchanged.
func (t *Track) SetLegs(specs []LegSpec) error {
	if err := validateLegs(specs); err != nil {
		return err
	}
	t.legs = t.legs[:0]
	for _, s := range specs {
		t.legs = append(t.legs, t.newLeg(s))
	}
	t.invalidate()
	return nil
}

// AddLeg appends a leg to the track. It uses the track's current terrain
// conformance.
func (t *Track) AddLeg(start, end math.Point2LL, lowerAltitude, upperAltitude, leftWidth, rightWidth float64) (*Leg, error) {
	s := LegSpec{
		Start:                  start,
		End:                    end,
		LowerAltitude:          lowerAltitude,
		UpperAltitude:          upperAltitude,
		LowerTerrainConforming: t.lowerTerrainConforming,
		UpperTerrainConforming: t.upperTerrainConforming,
		LeftWidth:              leftWidth,
		RightWidth:             rightWidth,
	}
	if err := s.Check(); err != nil {
		return nil, err
	}

	leg := t.newLeg(s)
	t.legs = append(t.legs, leg)
	t.invalidate()
	return leg, nil
}

// AddLegs appends the given legs; if any is invalid, none are added.
func (t *Track) AddLegs(specs ...LegSpec) error {
	if err := validateLegs(specs); err != nil {
		return err
	}
	for _, s := range specs {
		t.legs = append(t.legs, t.newLeg(s))
	}
	t.invalidate()
	return nil
}

func (t *Track) RemoveAllLegs() {
	t.legs = nil
	t.invalidate()
}

// Legs returns the track's legs. The slice is a copy but the legs are
// shared with the track; changes made to them are picked up the next
// time the track's geometry is requested.
func (t *Track) Legs() []*Leg {
	return slices.Clone(t.legs)
}

func (t *Track) LegSpecs() []LegSpec {
	specs := make([]LegSpec, len(t.legs))
	for i, leg := range t.legs {
		specs[i] = leg.spec
	}
	return specs
}

// SetAltitudes sets the altitudes of all of the legs.
func (t *Track) SetAltitudes(lower, upper float64) error {
	if !math.IsFinite(lower, upper) || lower > upper {
		return fmt.Errorf("%w: altitudes %g, %g", ErrInvalidLeg, lower, upper)
	}
	for _, leg := range t.legs {
		leg.spec.LowerAltitude, leg.spec.UpperAltitude = lower, upper
		leg.invalidate()
	}
	t.invalidate()
	return nil
}

// SetTerrainConforming sets the terrain conformance of all of the legs
// and of legs subsequently added with AddLeg.
func (t *Track) SetTerrainConforming(lower, upper bool) {
	t.lowerTerrainConforming, t.upperTerrainConforming = lower, upper
	for _, leg := range t.legs {
		leg.SetTerrainConforming(lower, upper)
	}
	t.invalidate()
}

func (t *Track) TerrainConforming() (lower, upper bool) {
	return t.lowerTerrainConforming, t.upperTerrainConforming
}

func (t *Track) EnableInnerCaps() bool { return t.enableInnerCaps }

// SetEnableInnerCaps sets whether the caps between joined legs are
// drawn.
func (t *Track) SetEnableInnerCaps(b bool) {
	t.enableInnerCaps = b
	t.invalidate()
}

func (t *Track) EnableCenterLine() bool { return t.enableCenterLine }

func (t *Track) SetEnableCenterLine(b bool) {
	t.enableCenterLine = b
	for _, leg := range t.legs {
		leg.SetEnableCenterLine(b)
	}
	t.invalidate()
}

func (t *Track) SmallAngleThreshold() s1.Angle { return t.smallAngleThreshold }

// SetSmallAngleThreshold sets the largest angle between two legs for which
// they are joined by extending the first; larger angles are joined at the
// bisecting plane. The angle must be between 0 and 180 degrees.
func (t *Track) SetSmallAngleThreshold(a s1.Angle) error {
	if gomath.IsNaN(float64(a)) || a < 0 || a > 180*s1.Degree {
		return fmt.Errorf("%w: small-angle threshold %v", ErrInvalidAngle, a)
	}
	t.smallAngleThreshold = a
	t.invalidate()
	return nil
}

// SetConcurrency sets the number of goroutines used to join legs; values
// less than one are treated as one.
func (t *Track) SetConcurrency(n int) {
	t.concurrency = max(1, n)
}

func (t *Track) SetLogger(lg *log.Logger) {
	t.lg = lg
}

///////////////////////////////////////////////////////////////////////////
// Geometry

// LegsOutOfDate reports whether the track's geometry needs to be
// recomputed for the given globe state.
func (t *Track) LegsOutOfDate(g globe.Globe, verticalExaggeration float64) bool {
	tg, ok := t.cache.Peek(globe.KeyFor(g, verticalExaggeration))
	return !ok || !tg.current(t.legs)
}

// Update computes the track's geometry for the given globe state if it
// isn't already current.
func (t *Track) Update(g globe.Globe, verticalExaggeration float64) {
	t.update(g, verticalExaggeration)
}

func (t *Track) update(g globe.Globe, verticalExaggeration float64) *trackGeometry {
	key := globe.KeyFor(g, verticalExaggeration)
	if tg, ok := t.cache.Get(key); ok && tg.current(t.legs) {
		return tg
	}

	n := len(t.legs)
	tg := &trackGeometry{
		legs:     slices.Clone(t.legs),
		versions: make([]uint64, n),
		geometry: make([]LegGeometry, n),
		joins:    make([]JoinKind, max(0, n-1)),
		extent:   math.EmptyExtent3D(),
	}

	// Each leg's standalone geometry, with both of its caps enabled.
	specs := make([]LegSpec, n)
	for i, leg := range t.legs {
		specs[i] = leg.spec
		tg.versions[i] = leg.version
		tg.geometry[i] = leg.Geometry(g, verticalExaggeration)
	}

	// All of the joins work from the standalone geometry and a leg's end
	// is only changed by the join with the following leg and its start by
	// the join with the previous one, so the joins are independent.
	jc := JoinContext{
		Globe:                g,
		VerticalExaggeration: verticalExaggeration,
		SmallAngleThreshold:  t.smallAngleThreshold,
		EnableInnerCaps:      t.enableInnerCaps,
	}
	joined := make([][2]LegGeometry, len(tg.joins))
	join := func(i int) {
		joined[i][0], joined[i][1], tg.joins[i] = JoinLegs(specs[i], specs[i+1], tg.geometry[i], tg.geometry[i+1], jc)
	}
	if t.concurrency > 1 && len(joined) > 1 {
		var eg errgroup.Group
		eg.SetLimit(t.concurrency)
		for i := range joined {
			eg.Go(func() error {
				join(i)
				return nil
			})
		}
		_ = eg.Wait()
	} else {
		for i := range joined {
			join(i)
		}
	}

	for i, j := range joined {
		a, b := j[0], j[1]
		copy(tg.geometry[i].Vertices[BLowLeft:], a.Vertices[BLowLeft:])
		tg.geometry[i].EnableEndCap = a.EnableEndCap
		copy(tg.geometry[i+1].Vertices[:BLowLeft], b.Vertices[:BLowLeft])
		tg.geometry[i+1].EnableStartCap = b.EnableStartCap

		if tg.joins[i] == JoinNone {
			t.lg.Debug("legs not joined", slog.Int("leg", i), slog.String("next", specs[i+1].String()))
		} else {
			t.lg.Debug("legs joined", slog.Int("leg", i), slog.String("join", tg.joins[i].String()))
		}
	}

	for _, lg := range tg.geometry {
		tg.extent = math.Union3D(tg.extent, lg.Extent())
	}

	t.lg.Debugf("updated %d legs for %s", n, key)
	t.cache.Add(key, tg)
	return tg
}

// Geometry returns the joined geometry of each of the track's legs.
func (t *Track) Geometry(g globe.Globe, verticalExaggeration float64) []LegGeometry {
	return slices.Clone(t.update(g, verticalExaggeration).geometry)
}

// Joins returns how each pair of consecutive legs was joined.
func (t *Track) Joins(g globe.Globe, verticalExaggeration float64) []JoinKind {
	return slices.Clone(t.update(g, verticalExaggeration).joins)
}

// Extent returns the bounds of the track's joined legs; false is returned
// if the track has no legs.
func (t *Track) Extent(g globe.Globe, verticalExaggeration float64) (math.Extent3D, bool) {
	if len(t.legs) == 0 {
		return math.EmptyExtent3D(), false
	}
	return t.update(g, verticalExaggeration).extent, true
}

// Inside reports whether the given location and altitude in meters is
// inside any of the track's legs.
func (t *Track) Inside(g globe.Globe, p math.Point2LL, alt float64) bool {
	tg := t.update(g, 1)
	for i, lg := range tg.geometry {
		if insideLeg(g, tg.legs[i].spec, lg, p, alt) {
			return true
		}
	}
	return false
}

///////////////////////////////////////////////////////////////////////////
// Editing

// ReferencePosition returns the center of the track's leg endpoints and
// the lowest of the legs' lower altitudes. false is returned if the track
// has no legs.
func (t *Track) ReferencePosition() (math.Point2LL, float64, bool) {
	if len(t.legs) == 0 {
		return math.Point2LL{}, 0, false
	}

	var sum r3.Vector
	alt := gomath.Inf(1)
	for _, leg := range t.legs {
		for _, p := range [2]math.Point2LL{leg.spec.Start, leg.spec.End} {
			sum = sum.Add(s2.PointFromLatLng(p.LatLng()).Vector)
		}
		alt = min(alt, leg.spec.LowerAltitude)
	}
	return math.Point2LLFromLatLng(s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()})), alt, true
}

// MoveTo translates all of the legs so that the track's reference
// position is at p. Each endpoint is offset by the same change in
// latitude and longitude, so legs that were joined stay joined.
// Longitudes wrap around at the antimeridian; moving an endpoint past a
// pole is an error and leaves the track unchanged.
func (t *Track) MoveTo(p math.Point2LL) error {
	ref, _, ok := t.ReferencePosition()
	if !ok {
		return nil
	}
	delta := math.Sub2LL(p, ref)

	specs := t.LegSpecs()
	for i := range specs {
		specs[i].Start = math.Add2LL(specs[i].Start, delta).WrapLongitude()
		specs[i].End = math.Add2LL(specs[i].End, delta).WrapLongitude()
	}
	if err := validateLegs(specs); err != nil {
		return err
	}

	for i, leg := range t.legs {
		leg.spec = specs[i]
		leg.invalidate()
	}
	t.invalidate()
	return nil
}

// Clone returns a deep copy of the track. The copy has its own legs,
// which start out with the originals' versions and cached vertices.
func (t *Track) Clone() *Track {
	return &Track{
		legs:                   deep.MustCopy(t.legs),
		enableInnerCaps:        t.enableInnerCaps,
		enableCenterLine:       t.enableCenterLine,
		smallAngleThreshold:    t.smallAngleThreshold,
		lowerTerrainConforming: t.lowerTerrainConforming,
		upperTerrainConforming: t.upperTerrainConforming,
		concurrency:            t.concurrency,
		lg:                     t.lg,
		cache:                  newGeometryCache(),
	}
}
