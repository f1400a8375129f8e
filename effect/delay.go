package effect

import (
	"math"

	"github.com/cwbudde/algo-plug64/dsp"
)

const (
	// MaxDelayMS is the longest representable delay time.
	MaxDelayMS = 5000
	// RampSeconds is the smoothing time for delay time and gain.
	RampSeconds = 0.05
)

// DelayStage is a feedback delay with a smoothed, fractional delay time.
type DelayStage struct {
	samplesPerMS float64
	line         *dsp.DelayLine
	time         dsp.Smoother
	feedback     float32
}

// NewDelay creates an unprepared delay stage.
func NewDelay() *DelayStage {
	return &DelayStage{}
}

func (d *DelayStage) Prepare(sampleRate float64) {
	d.samplesPerMS = sampleRate / 1000
	maxDelay := int(math.Ceil(MaxDelayMS * d.samplesPerMS))
	if d.line == nil || d.line.MaxDelay() != maxDelay {
		d.line = dsp.NewDelayLine(maxDelay)
	} else {
		d.line.Reset()
	}
	d.time.Reset(sampleRate, RampSeconds, d.time.Target())
}

func (d *DelayStage) Configure(s Settings) {
	d.time.SetTarget(s.TimeMS)
	d.feedback = s.Feedback * 0.01
}

func (d *DelayStage) Settle() {
	d.time.SetCurrentAndTarget(d.time.Target())
}

func (d *DelayStage) Reset() {
	if d.line != nil {
		d.line.Reset()
	}
}

// TimeMS returns the current smoothed delay time.
func (d *DelayStage) TimeMS() float32 { return d.time.Current() }

// Process writes x plus feedback into the line and returns the delayed sample.
func (d *DelayStage) Process(x, _ float32) float32 {
	delay := float32(float64(d.time.Next()) * d.samplesPerMS)
	d.line.Write(x)
	y := d.line.ReadFractional(delay)
	d.line.Overwrite(dsp.FlushDenormals(x + d.feedback*y))
	return y
}
