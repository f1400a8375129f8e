package dsp

import "math"

// LadderMode selects which ladder stages are mixed into the output.
type LadderMode int

const (
	LadderLPF12 LadderMode = iota
	LadderHPF12
	LadderBPF12
	LadderLPF24
	LadderHPF24
	LadderBPF24
)

const (
	ladderRampSeconds = 0.05
	ladderOutputGain  = 1.2
)

// LadderFilter is a four-pole transistor ladder with tanh saturation on the
// input and in the resonance feedback path.
type LadderFilter struct {
	sampleRate float64
	mode       LadderMode
	mix        [5]float32
	comp       float32
	state      [5]float32

	cutoffHz  float32
	cutoff    Smoother
	resonance Smoother

	drive, gain   float32
	drive2, gain2 float32
}

// NewLadderFilter creates a low-pass 12 dB ladder at sampleRate.
func NewLadderFilter(sampleRate float64) *LadderFilter {
	f := &LadderFilter{cutoffHz: 200}
	f.setMix(LadderLPF12)
	f.SetDrive(1)
	f.SetSampleRate(sampleRate)
	f.resonance.SetCurrentAndTarget(0.1)
	return f
}

// SetSampleRate re-settles the coefficient smoothers for a new rate.
func (f *LadderFilter) SetSampleRate(sampleRate float64) {
	f.sampleRate = sampleRate
	f.cutoff.Reset(sampleRate, ladderRampSeconds, f.cutoffTransform(f.cutoffHz))
	f.resonance.Reset(sampleRate, ladderRampSeconds, f.resonance.Target())
	f.Reset()
}

// SetMode changes the output mix. A different mode clears the filter state.
func (f *LadderFilter) SetMode(mode LadderMode) {
	if mode == f.mode {
		return
	}
	f.setMix(mode)
	f.Reset()
}

// Mode returns the active mode.
func (f *LadderFilter) Mode() LadderMode { return f.mode }

func (f *LadderFilter) setMix(mode LadderMode) {
	f.mode = mode
	switch mode {
	case LadderHPF12:
		f.mix = [5]float32{1, -2, 1, 0, 0}
		f.comp = 0
	case LadderBPF12:
		f.mix = [5]float32{0, 0, -1, 1, 0}
		f.comp = 0.5
	case LadderLPF24:
		f.mix = [5]float32{0, 0, 0, 0, 1}
		f.comp = 0.5
	case LadderHPF24:
		f.mix = [5]float32{1, -4, 6, -4, 1}
		f.comp = 0
	case LadderBPF24:
		f.mix = [5]float32{0, 0, 1, -2, 1}
		f.comp = 0.5
	default:
		f.mode = LadderLPF12
		f.mix = [5]float32{0, 0, 1, 0, 0}
		f.comp = 0.5
	}
	for i := range f.mix {
		f.mix[i] *= ladderOutputGain
	}
}

// SetCutoff sets the cutoff frequency in Hz.
func (f *LadderFilter) SetCutoff(hz float32) {
	f.cutoffHz = hz
	f.cutoff.SetTarget(f.cutoffTransform(hz))
}

// SetResonance sets resonance in [0, 1].
func (f *LadderFilter) SetResonance(r float32) {
	f.resonance.SetTarget(0.1 + r*0.9)
}

// SetDrive sets the input saturation gain, 1 and up.
func (f *LadderFilter) SetDrive(drive float32) {
	if drive == f.drive {
		return
	}
	f.drive = drive
	f.gain = driveCompensation(drive)
	f.drive2 = drive*0.04 + 0.96
	f.gain2 = driveCompensation(f.drive2)
}

func driveCompensation(drive float32) float32 {
	return float32(math.Pow(float64(drive), -2.642)*0.6103 + 0.3903)
}

func (f *LadderFilter) cutoffTransform(hz float32) float32 {
	if f.sampleRate <= 0 {
		return 0
	}
	return float32(math.Exp(float64(hz) * -2 * math.Pi / f.sampleRate))
}

// Reset clears the ladder stages.
func (f *LadderFilter) Reset() {
	f.state = [5]float32{}
}

// Process filters one sample.
func (f *LadderFilter) Process(x float32) float32 {
	a1 := f.cutoff.Next()
	res := f.resonance.Next()
	g := 1 - a1
	b0 := g * 0.76923076923
	b1 := g * 0.23076923076

	s := &f.state
	dx := f.gain * Tanh(f.drive*x)
	a := dx + res*-4*(f.gain2*Tanh(f.drive2*s[4])-dx*f.comp)
	b := b1*s[0] + a1*s[1] + b0*a
	c := b1*s[1] + a1*s[2] + b0*b
	d := b1*s[2] + a1*s[3] + b0*c
	e := b1*s[3] + a1*s[4] + b0*d

	s[0] = FlushDenormals(a)
	s[1] = FlushDenormals(b)
	s[2] = FlushDenormals(c)
	s[3] = FlushDenormals(d)
	s[4] = FlushDenormals(e)

	m := &f.mix
	return m[0]*a + m[1]*b + m[2]*c + m[3]*d + m[4]*e
}

// Settle jumps the cutoff and resonance ramps to their targets.
func (f *LadderFilter) Settle() {
	f.cutoff.SetCurrentAndTarget(f.cutoff.Target())
	f.resonance.SetCurrentAndTarget(f.resonance.Target())
}
