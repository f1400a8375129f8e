package effect

import "github.com/cwbudde/algo-plug64/dsp"

// LadderStage wraps a ladder filter. Filter type 0 bypasses it.
type LadderStage struct {
	filter *dsp.LadderFilter
	bypass bool
}

// NewLadder creates an unprepared, bypassed ladder stage.
func NewLadder() *LadderStage {
	return &LadderStage{bypass: true}
}

func (l *LadderStage) Prepare(sampleRate float64) {
	if l.filter == nil {
		l.filter = dsp.NewLadderFilter(sampleRate)
		return
	}
	l.filter.SetSampleRate(sampleRate)
}

func (l *LadderStage) Configure(s Settings) {
	l.filter.SetCutoff(s.Cutoff)
	l.filter.SetResonance(s.Resonance * 0.01)
	l.filter.SetDrive(1 + 9*s.Drive*0.01)
	if s.FilterType <= 0 {
		l.bypass = true
		return
	}
	l.filter.SetMode(dsp.LadderMode(s.FilterType - 1))
	if l.bypass {
		// Ramps do not advance while bypassed; start from the current targets.
		l.bypass = false
		l.filter.Reset()
		l.filter.Settle()
	}
}

func (l *LadderStage) Settle() {
	l.filter.Settle()
}

func (l *LadderStage) Reset() {
	if l.filter != nil {
		l.filter.Reset()
	}
}

func (l *LadderStage) Process(x, _ float32) float32 {
	if l.bypass {
		return x
	}
	return l.filter.Process(x)
}
