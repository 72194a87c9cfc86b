package sim

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"aerofly-bridge/internal/telemetry"
)

// FlightScript is a deterministic, script-driven flight description for
// the feeder. Between keyframes the state is interpolated, with track
// and heading taking the shortest path across the 0/360 wrap.
//
// Time is expressed as Go duration strings (e.g. "0s", "250ms", "10s").
// If duration is zero, it is derived from the latest keyframe time.
//
// Units match the simulator wire format: meters and meters per second.
//
// YAML schema (v1):
//
//	version: 1
//	duration: 30s
//	keyframes:
//	  - t: 0s
//	    lat_deg: 47.45
//	    lon_deg: -122.31
//	    alt_m: 900
//	    gs_mps: 45
//	    track_deg: 90
//	    pitch_deg: 0
//	    roll_deg: 0
//
// Keyframes must be sorted by non-decreasing t.
//
// Keep this struct stable: scripts are test fixtures.
type FlightScript struct {
	Version   int           `yaml:"version"`
	Duration  time.Duration `yaml:"duration"`
	Keyframes []Keyframe    `yaml:"keyframes"`
}

// Keyframe is a time-stamped flight state.
type Keyframe struct {
	T         time.Duration `yaml:"t"`
	LatDeg    float64       `yaml:"lat_deg"`
	LonDeg    float64       `yaml:"lon_deg"`
	AltMeters float64       `yaml:"alt_m"`
	GroundMPS float64       `yaml:"gs_mps"`
	TrackDeg  float64       `yaml:"track_deg"`
	PitchDeg  float64       `yaml:"pitch_deg"`
	RollDeg   float64       `yaml:"roll_deg"`
}

// Flight is the validated, runtime representation.
//
// Use StateAt to compute the deterministic state at a given elapsed time.
type Flight struct {
	script FlightScript
	// Derived duration (script.Duration or max keyframe time).
	duration time.Duration
}

// LoadFlightScript reads and unmarshals a YAML flight script from path.
func LoadFlightScript(path string) (FlightScript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return FlightScript{}, err
	}
	return ParseFlightScriptYAML(b)
}

// ParseFlightScriptYAML parses a YAML flight script.
func ParseFlightScriptYAML(b []byte) (FlightScript, error) {
	var s FlightScript
	if err := yaml.Unmarshal(b, &s); err != nil {
		return FlightScript{}, err
	}
	return s, nil
}

// NewFlight validates script and returns a runtime Flight.
func NewFlight(script FlightScript) (*Flight, error) {
	if script.Version == 0 {
		script.Version = 1
	}
	if script.Version != 1 {
		return nil, fmt.Errorf("unsupported flight script version %d", script.Version)
	}
	if len(script.Keyframes) == 0 {
		return nil, fmt.Errorf("keyframes is required")
	}
	for i := range script.Keyframes {
		if script.Keyframes[i].T < 0 {
			return nil, fmt.Errorf("keyframes[%d].t must be >= 0", i)
		}
		if i > 0 && script.Keyframes[i].T < script.Keyframes[i-1].T {
			return nil, fmt.Errorf("keyframes must be sorted by t (index %d)", i)
		}
	}

	dur := script.Duration
	if dur <= 0 {
		for _, kf := range script.Keyframes {
			if kf.T > dur {
				dur = kf.T
			}
		}
	}
	if dur <= 0 {
		return nil, fmt.Errorf("duration is required (or deriveable from keyframes)")
	}

	return &Flight{script: script, duration: dur}, nil
}

// Duration returns the effective script duration.
func (f *Flight) Duration() time.Duration {
	if f == nil {
		return 0
	}
	return f.duration
}

// StateAt computes the flight's samples at elapsed.
//
// If loop is true, elapsed wraps around Duration(). Otherwise elapsed is
// clamped to [0, Duration()].
func (f *Flight) StateAt(elapsed time.Duration, loop bool) (telemetry.PositionRecord, telemetry.AttitudeRecord) {
	if f == nil {
		return telemetry.PositionRecord{}, telemetry.AttitudeRecord{}
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if f.duration > 0 {
		if loop {
			elapsed = elapsed % f.duration
		} else if elapsed > f.duration {
			elapsed = f.duration
		}
	}

	kf0, kf1, alpha := selectSegment(f.script.Keyframes, elapsed)

	trk := lerpAngleDeg(kf0.TrackDeg, kf1.TrackDeg, alpha)
	pos := telemetry.PositionRecord{
		SimName:        simName,
		LatDeg:         lerp(kf0.LatDeg, kf1.LatDeg, alpha),
		LonDeg:         lerp(kf0.LonDeg, kf1.LonDeg, alpha),
		AltMSLMeters:   lerp(kf0.AltMeters, kf1.AltMeters, alpha),
		TrackDeg:       trk,
		GroundSpeedMPS: lerp(kf0.GroundMPS, kf1.GroundMPS, alpha),
	}
	att := telemetry.AttitudeRecord{
		SimName:    simName,
		HeadingDeg: trk,
		PitchDeg:   lerp(kf0.PitchDeg, kf1.PitchDeg, alpha),
		RollDeg:    lerp(kf0.RollDeg, kf1.RollDeg, alpha),
	}
	return pos, att
}

func selectSegment(kfs []Keyframe, t time.Duration) (Keyframe, Keyframe, float64) {
	if len(kfs) == 1 {
		return kfs[0], kfs[0], 0
	}
	idx := sort.Search(len(kfs), func(i int) bool { return kfs[i].T > t })
	if idx <= 0 {
		return kfs[0], kfs[0], 0
	}
	if idx >= len(kfs) {
		last := kfs[len(kfs)-1]
		return last, last, 0
	}
	k0 := kfs[idx-1]
	k1 := kfs[idx]
	dt := k1.T - k0.T
	if dt <= 0 {
		return k1, k1, 0
	}
	alpha := float64(t-k0.T) / float64(dt)
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return k0, k1, alpha
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func lerpAngleDeg(a0, a1, t float64) float64 {
	// Shortest-path interpolation across wraparound.
	norm := func(x float64) float64 {
		for x < 0 {
			x += 360
		}
		for x >= 360 {
			x -= 360
		}
		return x
	}
	a0 = norm(a0)
	a1 = norm(a1)
	delta := a1 - a0
	if delta > 180 {
		delta -= 360
	} else if delta < -180 {
		delta += 360
	}
	return norm(a0 + delta*t)
}
