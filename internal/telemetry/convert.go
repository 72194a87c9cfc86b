package telemetry

import "math"

// Aerofly reports metric units; the SimAPI file wants imperial.
const (
	MetersToFeet = 3.28084
	MPSToKnots   = 1.94384
	MPSToFPM     = 196.85
)

func FeetFromMeters(m float64) float64 { return m * MetersToFeet }

func KnotsFromMPS(mps float64) float64 { return mps * MPSToKnots }

func FPMFromMPS(mps float64) float64 { return mps * MPSToFPM }

// NormalizeHeading reduces any angle to [0, 360).
func NormalizeHeading(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	return m
}

// OnGround reports whether the aircraft should be considered on the
// ground: low MSL altitude and essentially stationary.
func OnGround(altMSLMeters, groundSpeedMPS float64) bool {
	return altMSLMeters < 10 && groundSpeedMPS < 1
}

// AGLFeet estimates height above ground by subtracting a fixed 50 ft
// ground offset. Not terrain-aware.
func AGLFeet(altFeet float64) float64 {
	return math.Max(0, altFeet-50)
}

// VerticalSpeedFPM estimates climb rate from pitch and ground speed:
// the pitch angle in radians, clamped to [-1, 1], scales the ground
// speed's vertical component. This is a crude proxy rather than a
// physical climb-rate calculation; downstream consumers expect it.
func VerticalSpeedFPM(pitchDeg, groundSpeedMPS float64) float64 {
	rad := pitchDeg * (math.Pi / 180)
	if rad > 1 {
		rad = 1
	} else if rad < -1 {
		rad = -1
	}
	return FPMFromMPS(groundSpeedMPS * rad)
}
