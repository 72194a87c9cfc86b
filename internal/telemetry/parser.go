package telemetry

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Aerofly FS4 sends ASCII datagrams in the ForeFlight-style XGPS/XATT
// format. Anything else on the wire is treated as a JSON control message.
const (
	positionPrefix = "XGPSAerofly"
	attitudePrefix = "XATTAerofly"
)

type Kind int

const (
	// KindUnrecognized marks input that is neither telemetry nor JSON.
	// The raw line is kept so callers can echo it for diagnostics.
	KindUnrecognized Kind = iota
	// KindInvalid marks input with a recognized shape that could not be
	// used (short telemetry line, bad numeric field, bad control payload).
	// Invalid lines are dropped; Err is set only for control messages.
	KindInvalid
	KindPosition
	KindAttitude
	KindRadioUpdate
	KindShutdown
)

// PositionRecord is one XGPS sample. Units are the simulator's: meters
// and meters per second. Track is as sent, not yet normalized.
type PositionRecord struct {
	SimName        string
	LonDeg         float64
	LatDeg         float64
	AltMSLMeters   float64
	TrackDeg       float64
	GroundSpeedMPS float64
}

// AttitudeRecord is one XATT sample, all fields in degrees.
type AttitudeRecord struct {
	SimName    string
	HeadingDeg float64
	PitchDeg   float64
	RollDeg    float64
}

// Result is the discriminated outcome of parsing one line. Exactly the
// field matching Kind is meaningful.
type Result struct {
	Kind     Kind
	Position PositionRecord
	Attitude AttitudeRecord
	Radio    RadioState
	Raw      string
	Err      error
}

// Parse decodes one trimmed datagram line. It never panics; malformed
// input yields KindInvalid or KindUnrecognized.
func Parse(line string) Result {
	switch {
	case strings.HasPrefix(line, positionPrefix):
		return parsePosition(line)
	case strings.HasPrefix(line, attitudePrefix):
		return parseAttitude(line)
	default:
		return ParseControl([]byte(line))
	}
}

// XGPS: "XGPSAerofly FS 4,lon,lat,alt_msl_m,track_deg,gs_mps"
func parsePosition(line string) Result {
	parts := strings.Split(line, ",")
	if len(parts) < 6 {
		return Result{Kind: KindInvalid}
	}
	lon, ok1 := parseFloat(parts[1])
	lat, ok2 := parseFloat(parts[2])
	alt, ok3 := parseFloat(parts[3])
	trk, ok4 := parseFloat(parts[4])
	gs, ok5 := parseFloat(parts[5])
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return Result{Kind: KindInvalid}
	}
	return Result{
		Kind: KindPosition,
		Position: PositionRecord{
			SimName:        strings.TrimSpace(strings.TrimPrefix(parts[0], positionPrefix)),
			LonDeg:         lon,
			LatDeg:         lat,
			AltMSLMeters:   alt,
			TrackDeg:       trk,
			GroundSpeedMPS: gs,
		},
	}
}

// XATT: "XATTAerofly FS 4,heading_deg,pitch_deg,roll_deg"
func parseAttitude(line string) Result {
	parts := strings.Split(line, ",")
	if len(parts) < 4 {
		return Result{Kind: KindInvalid}
	}
	hdg, ok1 := parseFloat(parts[1])
	pitch, ok2 := parseFloat(parts[2])
	roll, ok3 := parseFloat(parts[3])
	if !ok1 || !ok2 || !ok3 {
		return Result{Kind: KindInvalid}
	}
	return Result{
		Kind: KindAttitude,
		Attitude: AttitudeRecord{
			SimName:    strings.TrimSpace(strings.TrimPrefix(parts[0], attitudePrefix)),
			HeadingDeg: hdg,
			PitchDeg:   pitch,
			RollDeg:    roll,
		},
	}
}

type controlEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseControl decodes a JSON control message as received from the web
// interface (or, in older setups, over UDP). Non-JSON input comes back
// as KindUnrecognized with the raw text preserved.
func ParseControl(msg []byte) Result {
	var env controlEnvelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return Result{Kind: KindUnrecognized, Raw: string(msg)}
	}
	switch env.Type {
	case "radio_update":
		var rs RadioState
		if err := json.Unmarshal(env.Data, &rs); err != nil {
			return Result{Kind: KindInvalid, Err: fmt.Errorf("radio_update data: %w", err)}
		}
		if err := rs.Validate(); err != nil {
			return Result{Kind: KindInvalid, Err: fmt.Errorf("radio_update data: %w", err)}
		}
		return Result{Kind: KindRadioUpdate, Radio: rs}
	case "shutdown":
		return Result{Kind: KindShutdown}
	default:
		return Result{Kind: KindInvalid, Err: fmt.Errorf("unknown control type %q", env.Type)}
	}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
