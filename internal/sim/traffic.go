package sim

import (
	"fmt"
	"math"
	"time"
)

// TrafficTarget is one synthetic AI aircraft sample. Aerofly reports
// traffic in the ForeFlight XTRAFFIC shape, which the bridge does not
// parse; the feeder emits it to exercise the raw echo path.
type TrafficTarget struct {
	ICAO     uint32
	Callsign string
	LatDeg   float64
	LonDeg   float64
	AltFeet  int
	TrackDeg float64
	GroundKt int
	Airborne bool
}

type Traffic struct {
	CenterLatDeg float64
	CenterLonDeg float64
	BaseAltFeet  int
	GroundKt     int
	RadiusNm     float64
	Period       time.Duration
}

// At returns count targets orbiting the configured center at elapsed.
func (s Traffic) At(elapsed time.Duration, count int) []TrafficTarget {
	if count <= 0 {
		return nil
	}

	period := s.Period
	if period <= 0 {
		period = 90 * time.Second
	}
	radiusNm := s.RadiusNm
	if radiusNm <= 0 {
		radiusNm = 2.0
	}
	groundKt := s.GroundKt
	if groundKt <= 0 {
		groundKt = 120
	}

	// NM to degrees latitude (~60 NM per degree).
	radiusDeg := radiusNm / 60.0

	phase := float64(elapsed.Nanoseconds()%period.Nanoseconds()) / float64(period.Nanoseconds())
	baseTheta := 2 * math.Pi * phase

	out := make([]TrafficTarget, 0, count)
	for i := 0; i < count; i++ {
		offset := 2 * math.Pi * (float64(i) / float64(count))
		theta := baseTheta + offset

		latDeg := s.CenterLatDeg + radiusDeg*math.Cos(theta)
		lonDeg := s.CenterLonDeg + radiusDeg*math.Sin(theta)/math.Cos(s.CenterLatDeg*math.Pi/180.0)
		trk := math.Mod((theta*180/math.Pi)+90, 360)

		alt := s.BaseAltFeet
		if alt == 0 {
			alt = 4500
		}
		// Stagger altitude a little between targets.
		alt += (i - count/2) * 300

		out = append(out, TrafficTarget{
			ICAO:     uint32(0xA00000 + i),
			Callsign: fmt.Sprintf("TGT%04d", i),
			LatDeg:   latDeg,
			LonDeg:   lonDeg,
			AltFeet:  alt,
			TrackDeg: trk,
			GroundKt: groundKt,
			Airborne: true,
		})
	}

	return out
}

// FormatTraffic renders the XTRAFFIC datagram line for t.
func FormatTraffic(t TrafficTarget) string {
	airborne := 0
	if t.Airborne {
		airborne = 1
	}
	return fmt.Sprintf("XTRAFFICAerofly %s,%d,%.6f,%.6f,%d,0,%d,%.1f,%d,%s",
		simName, t.ICAO, t.LatDeg, t.LonDeg, t.AltFeet, airborne, t.TrackDeg, t.GroundKt, t.Callsign)
}
