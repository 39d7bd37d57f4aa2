// SPDX-License-Identifier: EPL-2.0

package midi

import (
	"math"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

type event struct {
	kind     string
	note     uint8
	velocity float32
	factor   float32
}

type recorder struct {
	events []event
}

func (r *recorder) NoteOn(note uint8, velocity float32) {
	r.events = append(r.events, event{kind: "on", note: note, velocity: velocity})
}

func (r *recorder) NoteOff(note uint8) {
	r.events = append(r.events, event{kind: "off", note: note})
}

func (r *recorder) PitchBend(factor float32) {
	r.events = append(r.events, event{kind: "bend", factor: factor})
}

func TestRouter_Handle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		channel int
		msg     []byte
		want    []event
	}{
		{"note on", Omni, gomidi.NoteOn(0, 60, 127), []event{{kind: "on", note: 60, velocity: 1}}},
		{"note off", Omni, gomidi.NoteOff(3, 64), []event{{kind: "off", note: 64}}},
		{"zero velocity", Omni, gomidi.NoteOn(0, 62, 0), []event{{kind: "off", note: 62}}},
		{"raw note on", Omni, []byte{0x91, 48, 64}, []event{{kind: "on", note: 48, velocity: 64.0 / 127}}},
		{"matching channel", 5, gomidi.NoteOn(5, 70, 127), []event{{kind: "on", note: 70, velocity: 1}}},
		{"other channel", 5, gomidi.NoteOn(4, 70, 127), nil},
		{"centered bend", Omni, gomidi.Pitchbend(0, 0), []event{{kind: "bend", factor: 1}}},
		{"control change", Omni, gomidi.ControlChange(0, 7, 100), nil},
		{"garbage", Omni, []byte{0x12}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{}
			handled := NewRouter(tt.channel, rec).Handle(tt.msg)
			if handled != (len(tt.want) > 0) {
				t.Errorf("Handle() = %v, want %v", handled, len(tt.want) > 0)
			}
			if len(rec.events) != len(tt.want) {
				t.Fatalf("events = %+v, want %+v", rec.events, tt.want)
			}
			for i := range tt.want {
				if rec.events[i] != tt.want[i] {
					t.Errorf("event %d = %+v, want %+v", i, rec.events[i], tt.want[i])
				}
			}
		})
	}
}

func TestBendFactor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rel  int16
		want float64
	}{
		{0, 1},
		{4096, math.Exp2(1.0 / 12)},
		{-8192, math.Exp2(-2.0 / 12)},
		{8191, math.Exp2(8191.0 / 8192 * 2 / 12)},
	}

	for _, tt := range tests {
		if got := BendFactor(tt.rel); math.Abs(float64(got)-tt.want) > 1e-6 {
			t.Errorf("BendFactor(%d) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func TestNewRouter_InvalidChannelIsOmni(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	if !NewRouter(42, rec).Handle(gomidi.NoteOn(9, 36, 100)) {
		t.Error("router on invalid channel did not fall back to omni")
	}
}
