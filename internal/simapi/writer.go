// Package simapi serializes bridge state into the SimAPI input file
// read by SayIntentionsAI.
package simapi

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"aerofly-bridge/internal/state"
	"aerofly-bridge/internal/telemetry"
)

// Static identification block. The downstream consumer matches on these.
const (
	simExe         = "aerofly_fs_4.exe"
	simAPIVersion  = "1.0"
	simName        = "AeroflyFS4"
	simVersion     = "7.0.0"
	adapterVersion = "1.0.0"
)

type Config struct {
	// Dir is the SimAPI directory; empty selects DefaultDir().
	Dir string
	// ATCID is the callsign written as "ATC ID".
	ATCID string
	// Interval is the minimum spacing between successful writes.
	Interval time.Duration
	// Status, when set, receives writing=true/false around each write.
	Status func(writing bool)
}

type Writer struct {
	cfg  Config
	path string

	mu        sync.Mutex
	lastWrite time.Time

	// Injected for tests.
	writeFile func(name string, data []byte, perm os.FileMode) error
	rename    func(oldpath, newpath string) error
}

func NewWriter(cfg Config) *Writer {
	if cfg.Dir == "" {
		cfg.Dir = DefaultDir()
	}
	if cfg.ATCID == "" {
		cfg.ATCID = "N250VB"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 750 * time.Millisecond
	}
	return &Writer{
		cfg:       cfg,
		path:      filepath.Join(cfg.Dir, inputFileName),
		writeFile: os.WriteFile,
		rename:    os.Rename,
	}
}

// Path returns the canonical output file location.
func (w *Writer) Path() string { return w.path }

// MaybeWrite writes the SimAPI file if a client is watching, a position
// exists, and the rate limit allows it. It returns (false, nil) when the
// cycle is skipped. Errors are the caller's to log; the previous file is
// left intact on any failure.
func (w *Writer) MaybeWrite(snap state.Snapshot, now time.Time, clients int) (bool, error) {
	if clients <= 0 || snap.Position == nil {
		return false, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.lastWrite.IsZero() && now.Sub(w.lastWrite) < w.cfg.Interval {
		return false, nil
	}

	doc := w.buildDocument(snap)
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return false, fmt.Errorf("simapi marshal: %w", err)
	}

	if w.cfg.Status != nil {
		w.cfg.Status(true)
		defer w.cfg.Status(false)
	}

	if err := os.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return false, fmt.Errorf("simapi dir: %w", err)
	}

	// Write beside the final path, then rename so the external reader
	// never sees a partial file.
	tmp := w.path + ".tmp"
	if err := w.writeFile(tmp, b, 0o644); err != nil {
		return false, fmt.Errorf("simapi temp write: %w", err)
	}
	if err := w.rename(tmp, w.path); err != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("simapi rename: %w", err)
	}

	w.lastWrite = now
	return true, nil
}

type document struct {
	Sim simBlock `json:"sim"`
}

type simBlock struct {
	Variables      map[string]any `json:"variables"`
	Exe            string         `json:"exe"`
	SimAPIVersion  string         `json:"simapi_version"`
	Name           string         `json:"name"`
	Version        string         `json:"version"`
	AdapterVersion string         `json:"adapter_version"`
}

func (w *Writer) buildDocument(snap state.Snapshot) document {
	return document{Sim: simBlock{
		Variables:      w.buildVariables(snap),
		Exe:            simExe,
		SimAPIVersion:  simAPIVersion,
		Name:           simName,
		Version:        simVersion,
		AdapterVersion: adapterVersion,
	}}
}

// buildVariables assembles the closed SimAPI variable set: defaults
// first, then position-derived fields, then attitude-derived fields.
// Radio and transponder values are always present.
func (w *Writer) buildVariables(snap state.Snapshot) map[string]any {
	radio := snap.Radio
	vars := map[string]any{
		"PLANE LATITUDE":              0.0,
		"PLANE LONGITUDE":             0.0,
		"PLANE ALTITUDE":              0.0,
		"GROUND VELOCITY":             0.0,
		"PLANE HEADING DEGREES TRUE":  0.0,
		"PLANE PITCH DEGREES":         0.0,
		"PLANE BANK DEGREES":          0.0,
		"VERTICAL SPEED":              0.0,
		"AIRSPEED INDICATED":          0.0,

		"COM ACTIVE FREQUENCY:1":  frequency(radio.Com1.Active),
		"COM STANDBY FREQUENCY:1": frequency(radio.Com1.Standby),
		"COM ACTIVE FREQUENCY:2":  frequency(radio.Com2.Active),
		"COM STANDBY FREQUENCY:2": frequency(radio.Com2.Standby),
		"COM TRANSMIT:1":          powerFlag(radio.Com1.Power),
		"COM TRANSMIT:2":          powerFlag(radio.Com2.Power),
		"COM RECEIVE:1":           powerFlag(radio.Com1.Power),
		"COM RECEIVE:2":           powerFlag(radio.Com2.Power),
		"CIRCUIT COM ON:1":        powerFlag(radio.Com1.Power),
		"CIRCUIT COM ON:2":        powerFlag(radio.Com2.Power),
		"NAV ACTIVE FREQUENCY:1":  110.0,
		"NAV STANDBY FREQUENCY:1": 110.5,
		"NAV ACTIVE FREQUENCY:2":  111.0,
		"NAV STANDBY FREQUENCY:2": 111.5,
		"TRANSPONDER CODE:1":      transponderCode(radio.Transponder.Code),
		"TRANSPONDER STATE:1":     transponderState(radio.Transponder.Power),

		"ATC ID":                 w.cfg.ATCID,
		"PLANE ALT ABOVE GROUND": 0.0,
		"SIM ON GROUND":          1,
	}

	if p := snap.Position; p != nil {
		altFeet := telemetry.FeetFromMeters(p.AltMSLMeters)
		gsKnots := telemetry.KnotsFromMPS(p.GroundSpeedMPS)
		vars["PLANE LATITUDE"] = p.LatDeg
		vars["PLANE LONGITUDE"] = p.LonDeg
		vars["PLANE ALTITUDE"] = altFeet
		vars["GROUND VELOCITY"] = gsKnots
		vars["PLANE HEADING DEGREES TRUE"] = telemetry.NormalizeHeading(p.TrackDeg)
		// No airspeed source; ground speed is the best estimate available.
		vars["AIRSPEED INDICATED"] = gsKnots
		vars["SIM ON GROUND"] = boolFlag(telemetry.OnGround(p.AltMSLMeters, p.GroundSpeedMPS))
		vars["PLANE ALT ABOVE GROUND"] = telemetry.AGLFeet(altFeet)
	}

	if a := snap.Attitude; a != nil {
		vars["PLANE HEADING DEGREES TRUE"] = telemetry.NormalizeHeading(a.HeadingDeg)
		vars["PLANE PITCH DEGREES"] = a.PitchDeg
		vars["PLANE BANK DEGREES"] = a.RollDeg
		if p := snap.Position; p != nil {
			vars["VERTICAL SPEED"] = telemetry.VerticalSpeedFPM(a.PitchDeg, p.GroundSpeedMPS)
		}
	}

	return vars
}

// frequency converts a validated frequency string to its numeric form.
// Staging validation guarantees this parses; fall back to 0 if not.
func frequency(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func transponderCode(code string) int {
	v, err := strconv.Atoi(code)
	if err != nil {
		return 1200
	}
	return v
}

// transponderState maps power to the SimConnect transponder state enum:
// 4 (ALT) when powered, 1 (STANDBY) otherwise.
func transponderState(power bool) int {
	if power {
		return 4
	}
	return 1
}

func powerFlag(on bool) int { return boolFlag(on) }

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
