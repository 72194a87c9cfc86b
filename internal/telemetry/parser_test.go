package telemetry

import (
	"testing"
)

func TestParse_Position(t *testing.T) {
	res := Parse("XGPSAerofly FS 4,-122.3088,47.4502,132.5,271.3,64.2")
	if res.Kind != KindPosition {
		t.Fatalf("kind=%v want position", res.Kind)
	}
	p := res.Position
	if p.SimName != "FS 4" {
		t.Fatalf("sim name=%q want %q", p.SimName, "FS 4")
	}
	if p.LonDeg != -122.3088 || p.LatDeg != 47.4502 {
		t.Fatalf("lon/lat=%v/%v", p.LonDeg, p.LatDeg)
	}
	if p.AltMSLMeters != 132.5 || p.TrackDeg != 271.3 || p.GroundSpeedMPS != 64.2 {
		t.Fatalf("alt/track/gs=%v/%v/%v", p.AltMSLMeters, p.TrackDeg, p.GroundSpeedMPS)
	}
}

func TestParse_PositionExtraFieldsIgnored(t *testing.T) {
	res := Parse("XGPSAerofly FS 4,1,2,3,4,5,and,more,junk")
	if res.Kind != KindPosition {
		t.Fatalf("kind=%v want position", res.Kind)
	}
	if res.Position.GroundSpeedMPS != 5 {
		t.Fatalf("gs=%v want 5", res.Position.GroundSpeedMPS)
	}
}

func TestParse_PositionMalformedDropped(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"too few fields", "XGPSAerofly FS 4,1,2,3,4"},
		{"non-numeric longitude", "XGPSAerofly FS 4,abc,2,3,4,5"},
		{"empty altitude", "XGPSAerofly FS 4,1,2,,4,5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Parse(tc.line)
			if res.Kind != KindInvalid {
				t.Fatalf("kind=%v want invalid", res.Kind)
			}
			if res.Err != nil {
				t.Fatalf("telemetry drops are silent, got err=%v", res.Err)
			}
		})
	}
}

func TestParse_Attitude(t *testing.T) {
	res := Parse("XATTAerofly FS 4,183.4,-2.1,12.8")
	if res.Kind != KindAttitude {
		t.Fatalf("kind=%v want attitude", res.Kind)
	}
	a := res.Attitude
	if a.SimName != "FS 4" || a.HeadingDeg != 183.4 || a.PitchDeg != -2.1 || a.RollDeg != 12.8 {
		t.Fatalf("attitude=%+v", a)
	}
}

func TestParse_AttitudeTooShortDropped(t *testing.T) {
	if res := Parse("XATTAerofly FS 4,183.4,-2.1"); res.Kind != KindInvalid {
		t.Fatalf("kind=%v want invalid", res.Kind)
	}
}

func TestParse_RadioUpdate(t *testing.T) {
	line := `{"type":"radio_update","data":{"com1":{"active":"121.500","standby":"118.000","power":true},"com2":{"active":"118.500","standby":"118.000","power":false},"transponder":{"code":"4521","power":true}}}`
	res := Parse(line)
	if res.Kind != KindRadioUpdate {
		t.Fatalf("kind=%v err=%v want radio update", res.Kind, res.Err)
	}
	if res.Radio.Com1.Active != "121.500" || !res.Radio.Com1.Power {
		t.Fatalf("com1=%+v", res.Radio.Com1)
	}
	if res.Radio.Transponder.Code != "4521" {
		t.Fatalf("code=%q want 4521", res.Radio.Transponder.Code)
	}
}

func TestParse_RadioUpdateInvalidPayload(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"non-numeric frequency", `{"type":"radio_update","data":{"com1":{"active":"oneeighteen","standby":"118.000"},"com2":{"active":"118.500","standby":"118.000"},"transponder":{"code":"1200"}}}`},
		{"short transponder code", `{"type":"radio_update","data":{"com1":{"active":"118.000","standby":"118.000"},"com2":{"active":"118.500","standby":"118.000"},"transponder":{"code":"12"}}}`},
		{"data wrong shape", `{"type":"radio_update","data":"nope"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Parse(tc.line)
			if res.Kind != KindInvalid {
				t.Fatalf("kind=%v want invalid", res.Kind)
			}
			if res.Err == nil {
				t.Fatalf("protocol errors carry a reason to log")
			}
		})
	}
}

func TestParse_Shutdown(t *testing.T) {
	if res := Parse(`{"type":"shutdown"}`); res.Kind != KindShutdown {
		t.Fatalf("kind=%v want shutdown", res.Kind)
	}
}

func TestParse_UnknownControlType(t *testing.T) {
	res := Parse(`{"type":"ping"}`)
	if res.Kind != KindInvalid {
		t.Fatalf("kind=%v want invalid", res.Kind)
	}
	if res.Err == nil {
		t.Fatalf("unknown types carry a reason to log")
	}
}

func TestParse_UnrecognizedKeepsRaw(t *testing.T) {
	res := Parse("something the simulator should not have sent")
	if res.Kind != KindUnrecognized {
		t.Fatalf("kind=%v want unrecognized", res.Kind)
	}
	if res.Raw != "something the simulator should not have sent" {
		t.Fatalf("raw=%q", res.Raw)
	}
}
