// airspace/state.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airspace

import (
	"fmt"
	"io"

	"github.com/mmp/airtrack/math"
	"github.com/mmp/airtrack/util"

	"github.com/golang/geo/s1"
)

// TrackState holds everything needed to recreate a Track; it's what track
// files hold and what is saved and restored.
type TrackState struct {
	EnableInnerCaps            bool      `json:"enable_inner_caps" msgpack:"inner_caps"`
	EnableCenterLine           bool      `json:"enable_center_line,omitempty" msgpack:"center_line"`
	SmallAngleThresholdDegrees float64   `json:"small_angle_threshold_degrees" msgpack:"threshold"`
	LowerTerrainConforming     bool      `json:"lower_terrain_conforming,omitempty" msgpack:"lower_terrain"`
	UpperTerrainConforming     bool      `json:"upper_terrain_conforming,omitempty" msgpack:"upper_terrain"`
	Legs                       []LegSpec `json:"legs" msgpack:"legs"`
}

// DefaultTrackState returns the state of a track made by NewTrack with no
// legs.
func DefaultTrackState() TrackState {
	return TrackState{
		EnableInnerCaps:            true,
		SmallAngleThresholdDegrees: DefaultSmallAngleThreshold.Degrees(),
	}
}

func (s TrackState) Validate(e *util.ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	if d := s.SmallAngleThresholdDegrees; !math.IsFinite(d) || d < 0 || d > 180 {
		e.ErrorString("small_angle_threshold_degrees %g must be between 0 and 180", d)
	}
	if len(s.Legs) == 0 {
		e.ErrorString("no legs specified")
	}
	for i, leg := range s.Legs {
		e.Push(fmt.Sprintf("leg %d", i))
		leg.Validate(e)
		e.Pop()
	}
}

func (t *Track) State() TrackState {
	return TrackState{
		EnableInnerCaps:            t.enableInnerCaps,
		EnableCenterLine:           t.enableCenterLine,
		SmallAngleThresholdDegrees: t.smallAngleThreshold.Degrees(),
		LowerTerrainConforming:     t.lowerTerrainConforming,
		UpperTerrainConforming:     t.upperTerrainConforming,
		Legs:                       t.LegSpecs(),
	}
}

// RestoreState replaces the track's settings and legs with those in s.
// If s is invalid, an error is returned and the track is unchanged.
func (t *Track) RestoreState(s TrackState) error {
	threshold := s1.Angle(s.SmallAngleThresholdDegrees) * s1.Degree
	if !math.IsFinite(s.SmallAngleThresholdDegrees) || threshold < 0 || threshold > 180*s1.Degree {
		return fmt.Errorf("%w: small-angle threshold %g degrees", ErrInvalidAngle, s.SmallAngleThresholdDegrees)
	}
	if err := validateLegs(s.Legs); err != nil {
		return err
	}

	t.enableInnerCaps = s.EnableInnerCaps
	t.enableCenterLine = s.EnableCenterLine
	t.smallAngleThreshold = threshold
	t.lowerTerrainConforming, t.upperTerrainConforming = s.LowerTerrainConforming, s.UpperTerrainConforming
	return t.SetLegs(s.Legs)
}

// NewTrackFromState returns a new track initialized with s.
func NewTrackFromState(s TrackState) (*Track, error) {
	t, err := NewTrack()
	if err != nil {
		return nil, err
	}
	if err := t.RestoreState(s); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadTrackFile reads a JSON track description. Fields that aren't given
// take their default values; unknown fields are an error. All of the
// problems with the legs are reported together in the returned error.
func LoadTrackFile(r io.Reader) (TrackState, error) {
	return LoadTrackFileWithDefaults(r, DefaultTrackState())
}

// LoadTrackFileWithDefaults is like LoadTrackFile, but the track settings
// that the file doesn't give are taken from defaults. Any legs in defaults
// are ignored.
func LoadTrackFileWithDefaults(r io.Reader, defaults TrackState) (TrackState, error) {
	s := defaults
	s.Legs = nil
	if err := util.DecodeJSONStrict(r, &s); err != nil {
		return TrackState{}, err
	}

	var e util.ErrorLogger
	s.Validate(&e)
	if err := e.Err(ErrInvalidLeg); err != nil {
		return TrackState{}, err
	}
	return s, nil
}

// SaveTrackState writes s to path in compressed binary form.
func SaveTrackState(path string, s TrackState) error {
	return util.StoreObject(path, s)
}

// LoadTrackState reads a state written by SaveTrackState.
func LoadTrackState(path string) (TrackState, error) {
	var s TrackState
	if _, err := util.RetrieveObject(path, &s); err != nil {
		return TrackState{}, err
	}
	return s, nil
}
