package telemetry

import (
	"fmt"
	"strconv"
)

// ComRadio mirrors the web interface's per-channel radio state.
// Frequencies stay strings end to end; they are validated here and
// converted to numbers only when the SimAPI file is built.
type ComRadio struct {
	Active  string `json:"active"`
	Standby string `json:"standby"`
	Power   bool   `json:"power"`
}

type Transponder struct {
	Code  string `json:"code"`
	Power bool   `json:"power"`
}

// RadioState is the full radio/transponder configuration. It is replaced
// wholesale by radio_update messages, never merged field by field.
type RadioState struct {
	Com1        ComRadio    `json:"com1"`
	Com2        ComRadio    `json:"com2"`
	Transponder Transponder `json:"transponder"`
}

// DefaultRadioState matches the state the web interface assumes on load.
func DefaultRadioState() RadioState {
	return RadioState{
		Com1:        ComRadio{Active: "118.000", Standby: "118.500"},
		Com2:        ComRadio{Active: "118.500", Standby: "118.000"},
		Transponder: Transponder{Code: "1200", Power: true},
	}
}

// Validate rejects updates whose frequencies are not numeric or whose
// transponder code is not four digits. Rejected updates are dropped
// before staging so a bad message can never reach the output file.
func (r RadioState) Validate() error {
	for _, f := range []struct {
		name  string
		value string
	}{
		{"com1.active", r.Com1.Active},
		{"com1.standby", r.Com1.Standby},
		{"com2.active", r.Com2.Active},
		{"com2.standby", r.Com2.Standby},
	} {
		if _, err := strconv.ParseFloat(f.value, 64); err != nil {
			return fmt.Errorf("%s: %q is not a frequency", f.name, f.value)
		}
	}
	if len(r.Transponder.Code) != 4 {
		return fmt.Errorf("transponder.code: %q is not four digits", r.Transponder.Code)
	}
	for _, c := range r.Transponder.Code {
		if c < '0' || c > '9' {
			return fmt.Errorf("transponder.code: %q is not four digits", r.Transponder.Code)
		}
	}
	return nil
}
