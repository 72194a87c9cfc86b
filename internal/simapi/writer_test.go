package simapi

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"aerofly-bridge/internal/state"
	"aerofly-bridge/internal/telemetry"
)

func testSnapshot() state.Snapshot {
	return state.Snapshot{
		Position: &telemetry.PositionRecord{
			SimName:        "FS 4",
			LonDeg:         -122.3088,
			LatDeg:         47.4502,
			AltMSLMeters:   1000,
			TrackDeg:       370,
			GroundSpeedMPS: 50,
		},
		Attitude: &telemetry.AttitudeRecord{
			SimName:    "FS 4",
			HeadingDeg: -10,
			PitchDeg:   5,
			RollDeg:    -3,
		},
		Radio: telemetry.DefaultRadioState(),
	}
}

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	return NewWriter(Config{Dir: t.TempDir(), ATCID: "N250VB"})
}

func readVariables(t *testing.T, path string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	var doc struct {
		Sim struct {
			Variables      map[string]any `json:"variables"`
			Exe            string         `json:"exe"`
			SimAPIVersion  string         `json:"simapi_version"`
			Name           string         `json:"name"`
			Version        string         `json:"version"`
			AdapterVersion string         `json:"adapter_version"`
		} `json:"sim"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.Sim.Exe != "aerofly_fs_4.exe" || doc.Sim.Name != "AeroflyFS4" {
		t.Fatalf("identification block=%+v", doc.Sim)
	}
	return doc.Sim.Variables
}

func TestMaybeWrite_SkipsWithoutClientsOrPosition(t *testing.T) {
	w := newTestWriter(t)
	now := time.Now()

	wrote, err := w.MaybeWrite(testSnapshot(), now, 0)
	if err != nil || wrote {
		t.Fatalf("no clients: wrote=%t err=%v", wrote, err)
	}

	wrote, err = w.MaybeWrite(state.Snapshot{Radio: telemetry.DefaultRadioState()}, now, 1)
	if err != nil || wrote {
		t.Fatalf("no position: wrote=%t err=%v", wrote, err)
	}

	if _, err := os.Stat(w.Path()); !os.IsNotExist(err) {
		t.Fatalf("skipped cycles must not create the file")
	}
}

func TestMaybeWrite_RateLimited(t *testing.T) {
	w := newTestWriter(t)
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	wrote, err := w.MaybeWrite(testSnapshot(), t0, 1)
	if err != nil || !wrote {
		t.Fatalf("first write: wrote=%t err=%v", wrote, err)
	}
	wrote, err = w.MaybeWrite(testSnapshot(), t0.Add(500*time.Millisecond), 1)
	if err != nil || wrote {
		t.Fatalf("write inside interval: wrote=%t err=%v", wrote, err)
	}
	wrote, err = w.MaybeWrite(testSnapshot(), t0.Add(800*time.Millisecond), 1)
	if err != nil || !wrote {
		t.Fatalf("write after interval: wrote=%t err=%v", wrote, err)
	}
}

func TestMaybeWrite_Variables(t *testing.T) {
	w := newTestWriter(t)
	wrote, err := w.MaybeWrite(testSnapshot(), time.Now(), 1)
	if err != nil || !wrote {
		t.Fatalf("wrote=%t err=%v", wrote, err)
	}

	vars := readVariables(t, w.Path())

	// Expectations use the same runtime conversions as the writer: the
	// untyped-constant product rounds differently in the last bit.
	if got := vars["PLANE ALTITUDE"].(float64); got != telemetry.FeetFromMeters(1000) {
		t.Fatalf("PLANE ALTITUDE=%v", got)
	}
	if got := vars["GROUND VELOCITY"].(float64); got != telemetry.KnotsFromMPS(50) {
		t.Fatalf("GROUND VELOCITY=%v", got)
	}
	// Attitude heading (normalized) overrides the position track.
	if got := vars["PLANE HEADING DEGREES TRUE"].(float64); got != 350 {
		t.Fatalf("PLANE HEADING DEGREES TRUE=%v want 350", got)
	}
	if got := vars["PLANE PITCH DEGREES"].(float64); got != 5 {
		t.Fatalf("PLANE PITCH DEGREES=%v", got)
	}
	if got := vars["SIM ON GROUND"].(float64); got != 0 {
		t.Fatalf("SIM ON GROUND=%v want 0", got)
	}
	if got := vars["COM ACTIVE FREQUENCY:1"].(float64); got != 118.0 {
		t.Fatalf("COM ACTIVE FREQUENCY:1=%v", got)
	}
	if got := vars["COM TRANSMIT:1"].(float64); got != 0 {
		t.Fatalf("COM TRANSMIT:1=%v want 0 (power off)", got)
	}
	if got := vars["TRANSPONDER CODE:1"].(float64); got != 1200 {
		t.Fatalf("TRANSPONDER CODE:1=%v", got)
	}
	if got := vars["TRANSPONDER STATE:1"].(float64); got != 4 {
		t.Fatalf("TRANSPONDER STATE:1=%v", got)
	}
	if got := vars["ATC ID"].(string); got != "N250VB" {
		t.Fatalf("ATC ID=%q", got)
	}
	want := 50 * (5 * 3.141592653589793 / 180) * telemetry.MPSToFPM
	if got := vars["VERTICAL SPEED"].(float64); got < want-1e-6 || got > want+1e-6 {
		t.Fatalf("VERTICAL SPEED=%v want %v", got, want)
	}
}

func TestMaybeWrite_PositionOnlyKeepsAttitudeDefaults(t *testing.T) {
	w := newTestWriter(t)
	snap := testSnapshot()
	snap.Attitude = nil

	if wrote, err := w.MaybeWrite(snap, time.Now(), 1); err != nil || !wrote {
		t.Fatalf("wrote=%t err=%v", wrote, err)
	}
	vars := readVariables(t, w.Path())
	if got := vars["PLANE PITCH DEGREES"].(float64); got != 0 {
		t.Fatalf("PLANE PITCH DEGREES=%v want default 0", got)
	}
	// Track from the position record, normalized.
	if got := vars["PLANE HEADING DEGREES TRUE"].(float64); got != 10 {
		t.Fatalf("PLANE HEADING DEGREES TRUE=%v want 10", got)
	}
	if got := vars["VERTICAL SPEED"].(float64); got != 0 {
		t.Fatalf("VERTICAL SPEED=%v want 0 without attitude", got)
	}
}

func TestMaybeWrite_FailureLeavesOldFileIntact(t *testing.T) {
	w := newTestWriter(t)
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if wrote, err := w.MaybeWrite(testSnapshot(), t0, 1); err != nil || !wrote {
		t.Fatalf("seed write: wrote=%t err=%v", wrote, err)
	}
	before, err := os.ReadFile(w.Path())
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}

	w.rename = func(oldpath, newpath string) error {
		return errors.New("disk full")
	}

	wrote, err := w.MaybeWrite(testSnapshot(), t0.Add(time.Second), 1)
	if err == nil || wrote {
		t.Fatalf("expected failed cycle, wrote=%t err=%v", wrote, err)
	}

	after, err := os.ReadFile(w.Path())
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("failed write disturbed the canonical file")
	}
	var doc map[string]any
	if err := json.Unmarshal(after, &doc); err != nil {
		t.Fatalf("canonical file no longer valid JSON: %v", err)
	}
	if _, err := os.Stat(w.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}

	// A failed cycle must not consume the rate-limit slot.
	w.rename = os.Rename
	if wrote, err := w.MaybeWrite(testSnapshot(), t0.Add(1100*time.Millisecond), 1); err != nil || !wrote {
		t.Fatalf("recovery write: wrote=%t err=%v", wrote, err)
	}
}

func TestMaybeWrite_StatusTransitions(t *testing.T) {
	var seq []bool
	dir := t.TempDir()
	w := NewWriter(Config{Dir: dir, Status: func(writing bool) { seq = append(seq, writing) }})

	if wrote, err := w.MaybeWrite(testSnapshot(), time.Now(), 1); err != nil || !wrote {
		t.Fatalf("wrote=%t err=%v", wrote, err)
	}
	if len(seq) != 2 || !seq[0] || seq[1] {
		t.Fatalf("status sequence=%v want [true false]", seq)
	}
}

func TestDefaultDirShape(t *testing.T) {
	dir := DefaultDir()
	if dir == "" {
		t.Fatalf("empty default dir")
	}
	if filepath.Base(dir) != "SayIntentionsAI" {
		t.Fatalf("dir=%q want SayIntentionsAI leaf", dir)
	}
}
