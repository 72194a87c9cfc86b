// Package sim generates synthetic Aerofly telemetry so the bridge can
// be exercised without the simulator running.
package sim

import (
	"fmt"
	"math"
	"time"

	"aerofly-bridge/internal/telemetry"
)

const simName = "FS 4"

type Ownship struct {
	CenterLatDeg float64
	CenterLonDeg float64
	AltMeters    float64
	GroundMPS    float64
	RadiusNm     float64
	Period       time.Duration
}

// At returns deterministic position and attitude samples for a point in
// the flight. The track is a figure-eight around the configured center
// so headings sweep the full circle.
func (s Ownship) At(elapsed time.Duration) (telemetry.PositionRecord, telemetry.AttitudeRecord) {
	period := s.Period
	if period <= 0 {
		period = 120 * time.Second
	}
	radiusNm := s.RadiusNm
	if radiusNm <= 0 {
		radiusNm = 0.5
	}
	alt := s.AltMeters
	if alt == 0 {
		alt = 900
	}
	gs := s.GroundMPS
	if gs <= 0 {
		gs = 45
	}

	// NM to degrees latitude (~60 NM per degree).
	radiusDeg := radiusNm / 60.0

	phase := float64(elapsed.Nanoseconds()%period.Nanoseconds()) / float64(period.Nanoseconds())
	w := 2 * math.Pi * phase

	// Lissajous figure-eight, kept inside the radius bounds.
	x := math.Cos(w)
	y := 0.5 * math.Sin(2*w)

	latDeg := s.CenterLatDeg + radiusDeg*y
	lonDeg := s.CenterLonDeg + (radiusDeg*x)/math.Cos(s.CenterLatDeg*math.Pi/180.0)

	// Track from instantaneous velocity (atan2(east, north)).
	vx := -2 * math.Pi * math.Sin(w)
	vy := 2 * math.Pi * math.Cos(2*w)
	trackDeg := math.Mod((math.Atan2(vx, vy)*180/math.Pi)+360, 360)

	// A gentle pitch/roll oscillation keeps the attitude fields moving.
	pitchDeg := 3 * math.Sin(w)
	rollDeg := 15 * math.Sin(2*w)

	pos := telemetry.PositionRecord{
		SimName:        simName,
		LonDeg:         lonDeg,
		LatDeg:         latDeg,
		AltMSLMeters:   alt + 150*math.Sin(w),
		TrackDeg:       trackDeg,
		GroundSpeedMPS: gs,
	}
	att := telemetry.AttitudeRecord{
		SimName:    simName,
		HeadingDeg: trackDeg,
		PitchDeg:   pitchDeg,
		RollDeg:    rollDeg,
	}
	return pos, att
}

// FormatPosition renders the XGPS datagram line for p.
func FormatPosition(p telemetry.PositionRecord) string {
	return fmt.Sprintf("XGPSAerofly %s,%.6f,%.6f,%.1f,%.1f,%.1f",
		p.SimName, p.LonDeg, p.LatDeg, p.AltMSLMeters, p.TrackDeg, p.GroundSpeedMPS)
}

// FormatAttitude renders the XATT datagram line for a.
func FormatAttitude(a telemetry.AttitudeRecord) string {
	return fmt.Sprintf("XATTAerofly %s,%.1f,%.1f,%.1f",
		a.SimName, a.HeadingDeg, a.PitchDeg, a.RollDeg)
}
