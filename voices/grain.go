// SPDX-License-Identifier: EPL-2.0

package voices

import (
	"math"
	"math/rand/v2"

	"github.com/ik5/timewarp/dsp"
)

// shape holds the values every grain of a voice shares on a given sample.
type shape struct {
	time         float32 // ms
	phaseStep    float32
	windowFactor float32
	fadeFactor   float32
	fadeOffset   float32
	// positionStep is how far both playheads move per sample
	positionStep float32
}

// Grain is a windowed excerpt of the delay line.
//
// A grain reads through two playheads half a cycle apart and crossfades
// between them over FadeTime, so the read never jumps across the write
// pointer while the grain is sounding.
type Grain struct {
	phase    float32
	position float32
	gainL    float32
	gainR    float32
	active   bool
}

// Set starts the grain. spray is a random offset in milliseconds scaled by time.
func (g *Grain) Set(rng *rand.Rand, scan, spray, stereo, time, startPhase float32) {
	jitter := rng.Float32() * spray / time
	g.phase = 0
	g.position = 1 - dsp.Fract(scan+jitter+startPhase)*0.5
	g.active = true
	g.pan(rng, stereo)
}

// pan places the grain between the speakers: centred at stereo 0, randomly
// hard left or right at 1, and an increasingly random spread in between.
func (g *Grain) pan(rng *rand.Rand, stereo float32) {
	var p float32
	switch {
	case stereo <= 0:
		p = 0.5
	case stereo >= 1:
		if rng.IntN(2) == 0 {
			p = 1
		}
	case stereo > 0.8:
		f := (stereo - 0.8) * 2.5
		var hard float32
		if rng.IntN(2) == 0 {
			hard = 1
		}
		r := rng.Float32()
		p = r + (hard-r)*f
	default:
		p = (rng.Float32()-0.5)*stereo*1.25 + 0.5
	}
	g.gainL, g.gainR = p, 1-p
}

// Process advances the grain one sample and returns its output along with
// the window gain it was produced at.
func (g *Grain) Process(line *dsp.DelayLine, s *shape) (dsp.Frame, float32) {
	posA := dsp.Wrap(g.position) * 2
	posB := dsp.Wrap(g.position+0.5) * 2
	fadeA := playheadFade(posA, s.fadeFactor, s.fadeOffset)
	fadeB := 1 - fadeA
	window := g.window(s.windowFactor)

	if next := g.phase + s.phaseStep; next < 1 {
		g.phase = next
	} else {
		g.active = false
	}
	g.position += s.positionStep

	var out dsp.Frame
	if fadeA > 0 {
		out = out.Add(line.Read(posA*s.time, dsp.Linear).Scale(min(fadeA, window)))
	}
	if fadeB > 0 {
		out = out.Add(line.Read(posB*s.time, dsp.Linear).Scale(min(fadeB, window)))
	}

	return balance(out, g.gainL), window
}

// balance pans a stereo frame. At p = 0.5 it is returned unchanged; moving
// towards 0 or 1 folds one channel into the other, so a hard-panned grain
// carries the sum of both channels on one side.
func balance(f dsp.Frame, p float32) dsp.Frame {
	return dsp.Frame{
		L: f.L*min(2*p, 1) + f.R*max(2*p-1, 0),
		R: f.R*min(2-2*p, 1) + f.L*max(1-2*p, 0),
	}
}

func (g *Grain) window(factor float32) float32 {
	in := min(g.phase*factor, 1)
	out := min((1-g.phase)*factor, 1)
	return fadeCurve(min(in, out))
}

func playheadFade(pos, factor, offset float32) float32 {
	return fadeCurve(min(pos*factor, 1) * dsp.Clamp((offset-pos)*factor, 0, 1))
}

// fadeCurve bends a linear 0..1 fade into sin².
func fadeCurve(x float32) float32 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	y := dsp.SinBhaskara(x * math.Pi / 2)
	return y * y
}

func (g *Grain) IsActive() bool { return g.active }

// Pan returns the left and right gains chosen when the grain started.
func (g *Grain) Pan() (float32, float32) { return g.gainL, g.gainR }

func (g *Grain) Reset() {
	g.phase = 0
	g.position = 0
	g.active = false
}

// Grains is a fixed pool of GrainCount grains.
type Grains struct {
	grains [GrainCount]Grain
	rng    *rand.Rand
}

// NewGrains seeds the spray and pan randomness with seed.
func NewGrains(seed uint64) *Grains {
	g := &Grains{}
	g.init(seed)
	return g
}

func (g *Grains) init(seed uint64) {
	g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := range g.grains {
		g.grains[i].gainL, g.grains[i].gainR = 0.5, 0.5
	}
}

// Spawn holds the per-sample values a new grain is started with.
type Spawn struct {
	Scan       float32
	Spray      float32 // ms
	Stereo     float32
	StartPhase float32
}

// Process starts a grain when trigger is set and there is a free slot,
// then sums every active grain. The sum is normalized by the square root
// of the total window gain so overlapping grains keep a steady loudness.
func (g *Grains) Process(line *dsp.DelayLine, trigger bool, sp Spawn, s *shape) dsp.Frame {
	if trigger {
		for i := range g.grains {
			if !g.grains[i].active {
				g.grains[i].Set(g.rng, sp.Scan, sp.Spray, sp.Stereo, s.time, sp.StartPhase)
				break
			}
		}
	}

	var (
		sum  dsp.Frame
		gain float32
	)
	for i := range g.grains {
		if !g.grains[i].active {
			continue
		}
		out, w := g.grains[i].Process(line, s)
		sum = sum.Add(out)
		gain += w
	}

	if gain <= 0 {
		return dsp.Frame{}
	}
	return sum.Scale(float32(math.Sqrt(float64(1 / gain))))
}

// Active returns the number of sounding grains.
func (g *Grains) Active() int {
	n := 0
	for i := range g.grains {
		if g.grains[i].active {
			n++
		}
	}
	return n
}

func (g *Grains) Reset() {
	for i := range g.grains {
		g.grains[i].Reset()
	}
}
