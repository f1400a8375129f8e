package effect

import "github.com/cwbudde/algo-plug64/dsp"

// GainStage multiplies by a decibel gain ramped in the linear domain.
type GainStage struct {
	gain dsp.Smoother
}

// NewGain creates an unprepared unity gain stage.
func NewGain() *GainStage {
	g := &GainStage{}
	g.gain.SetCurrentAndTarget(1)
	return g
}

func (g *GainStage) Prepare(sampleRate float64) {
	g.gain.Reset(sampleRate, RampSeconds, g.gain.Target())
}

func (g *GainStage) Configure(s Settings) {
	g.gain.SetTarget(dsp.DBToGain(s.GainDB))
}

func (g *GainStage) Settle() {
	g.gain.SetCurrentAndTarget(g.gain.Target())
}

func (g *GainStage) Reset() {}

func (g *GainStage) Process(x, _ float32) float32 {
	return x * g.gain.Next()
}
