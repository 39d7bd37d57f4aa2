// SPDX-License-Identifier: EPL-2.0

package voices

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/ik5/timewarp/dsp"
)

const testRate = 1000

func constantLine(v float32) *dsp.DelayLine {
	line := dsp.NewDelayLine(4096, testRate)
	for range line.Size() {
		line.Write(dsp.Mono(v))
	}
	return line
}

func TestGrainTriggerRate(t *testing.T) {
	t.Parallel()

	// 125 ms at density 2 is 16 Hz, one grain every 64 samples at 1024 Hz
	g := NewGrainTrigger(1024)
	fires := 0
	for range 1024 {
		if g.Process(125, 2, false) {
			fires++
		}
	}
	if fires != 16 {
		t.Errorf("fired %d times in one second, want 16", fires)
	}

	if !g.Process(125, 2, true) {
		t.Error("reset did not fire")
	}
	if g.Process(0, 2, false) {
		t.Error("zero duration fired")
	}
}

func TestStartPositionPhasor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		speed    float32
		stretch  float32
		drift    float32
		granular bool
		want     float32
	}{
		{name: "unity speed follows the write head", speed: 1, stretch: 1, drift: 1, want: 0},
		{name: "double speed", speed: 2, stretch: 1, drift: 1, want: 0.1},
		{name: "reverse", speed: 1, stretch: -1, drift: 1, want: 0.8},
		{name: "granular uses stretch", speed: 4, stretch: 0.5, drift: 1, granular: true, want: 0.95},
		{name: "static buffer", speed: 1, stretch: 1, drift: 0, want: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewStartPositionPhasor(testRate)
			var got float32
			for range 100 {
				got = p.Process(1, tt.speed, tt.stretch, tt.drift, tt.granular)
			}
			if math.Abs(float64(got-tt.want)) > 1e-3 {
				t.Errorf("phase after 100 samples = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGrainPanning(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	var g Grain

	g.Set(rng, 0, 0, 0, 100, 0)
	if l, r := g.Pan(); l != 0.5 || r != 0.5 {
		t.Errorf("stereo 0 pan = (%v, %v), want centred", l, r)
	}

	for range 50 {
		g.Set(rng, 0, 0, 1, 100, 0)
		if l, r := g.Pan(); l*r != 0 || l+r != 1 {
			t.Fatalf("stereo 1 pan = (%v, %v), want hard", l, r)
		}
	}

	for range 50 {
		g.Set(rng, 0, 0, 0.4, 100, 0)
		l, _ := g.Pan()
		if l < 0.25 || l > 0.75 {
			t.Fatalf("stereo 0.4 pan = %v, want within 0.5±0.25", l)
		}
	}
}

func TestBalanceKeepsCentre(t *testing.T) {
	t.Parallel()

	f := dsp.Frame{L: 0.2, R: -0.6}
	if got := balance(f, 0.5); got != f {
		t.Errorf("balance(0.5) = %+v, want %+v", got, f)
	}
	if got := balance(f, 1); !near(got.L, -0.4) || got.R != 0 {
		t.Errorf("balance(1) = %+v, want {-0.4 0}", got)
	}
	if got := balance(f, 0); got.L != 0 || !near(got.R, -0.4) {
		t.Errorf("balance(0) = %+v, want {0 -0.4}", got)
	}
}

func TestGrainLifetime(t *testing.T) {
	t.Parallel()

	line := constantLine(0.5)
	var g Grain
	g.Set(rand.New(rand.NewPCG(1, 1)), 0, 0, 0, 100, 0)

	s := &shape{time: 100, phaseStep: 1.0 / 128, windowFactor: 10, fadeFactor: 20, fadeOffset: 1.05}
	samples := 0
	for g.IsActive() {
		out, w := g.Process(line, s)
		if w < 0 || w > 1 || out.L > 0.5+1e-4 {
			t.Fatalf("sample %d: out %+v window %v out of range", samples, out, w)
		}
		samples++
		if samples > 1000 {
			t.Fatal("grain never finished")
		}
	}
	if samples != 128 {
		t.Errorf("grain lasted %d samples, want 128", samples)
	}
}

func TestGrainsPoolIsBounded(t *testing.T) {
	t.Parallel()

	line := constantLine(0.5)
	g := NewGrains(7)
	s := &shape{time: 100, phaseStep: 0.0001, windowFactor: 2, fadeFactor: 20, fadeOffset: 1.05}

	for range 3 * GrainCount {
		g.Process(line, true, Spawn{}, s)
		if n := g.Active(); n > GrainCount {
			t.Fatalf("Active() = %d, exceeds pool of %d", n, GrainCount)
		}
	}
	if n := g.Active(); n != GrainCount {
		t.Errorf("Active() = %d, want a full pool of %d", n, GrainCount)
	}

	g.Reset()
	if g.Active() != 0 {
		t.Errorf("Active() = %d after Reset, want 0", g.Active())
	}
	if out := g.Process(line, false, Spawn{}, s); out != (dsp.Frame{}) {
		t.Errorf("empty pool output = %+v, want silence", out)
	}
}

func TestGrainsZeroAlloc(t *testing.T) {
	line := constantLine(0.25)
	g := NewGrains(3)
	s := &shape{time: 100, phaseStep: 0.001, windowFactor: 4, fadeFactor: 20, fadeOffset: 1.05}
	allocs := testing.AllocsPerRun(200, func() {
		g.Process(line, true, Spawn{Spray: 10, Stereo: 0.5}, s)
	})
	if allocs != 0 {
		t.Errorf("Grains.Process allocated %v times per run, want 0", allocs)
	}
}
