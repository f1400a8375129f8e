package effect

import "github.com/cwbudde/algo-plug64/dsp"

// RingModulator selects the modulator source.
type RingModulator int

const (
	RingSine RingModulator = iota
	RingTriangle
	RingSineAM
	RingTriangleAM
	RingExternal
)

// RingModStage multiplies the input by an oscillator or an external signal.
// The AM variants bias the oscillator to 0.5+0.5*osc.
type RingModStage struct {
	osc       *dsp.Oscillator
	modulator RingModulator
}

// NewRingMod creates an unprepared sine ring modulator.
func NewRingMod() *RingModStage {
	return &RingModStage{osc: dsp.NewOscillator(0)}
}

func (r *RingModStage) Prepare(sampleRate float64) {
	r.osc.SetSampleRate(sampleRate)
	r.osc.Reset()
}

func (r *RingModStage) Configure(s Settings) {
	r.modulator = s.Modulator
	switch s.Modulator {
	case RingTriangle, RingTriangleAM:
		r.osc.SetWaveform(dsp.WaveTriangle)
	default:
		r.osc.SetWaveform(dsp.WaveSine)
	}
	r.osc.SetFrequency(s.Frequency)
}

func (r *RingModStage) Settle() {}

func (r *RingModStage) Reset() {
	r.osc.Reset()
}

func (r *RingModStage) Process(x, mod float32) float32 {
	switch r.modulator {
	case RingExternal:
		return x * mod
	case RingSineAM, RingTriangleAM:
		return x * (0.5 + 0.5*r.osc.Next())
	default:
		return x * r.osc.Next()
	}
}
