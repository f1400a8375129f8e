package dsp

import "math"

// Waveform selects the oscillator shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
)

// Oscillator is a band-limited sine/triangle generator.
// The triangle is a leaky integral of a polyBLEP square wave.
type Oscillator struct {
	waveform   Waveform
	sampleRate float32
	freq       float32
	phase      float32
	inc        float32
	tri        float32
}

// NewOscillator creates a sine oscillator at 0 Hz.
func NewOscillator(sampleRate float64) *Oscillator {
	o := &Oscillator{}
	o.SetSampleRate(sampleRate)
	o.Reset()
	return o
}

// SetSampleRate updates the phase increment for a new rate.
func (o *Oscillator) SetSampleRate(sampleRate float64) {
	o.sampleRate = float32(sampleRate)
	o.SetFrequency(o.freq)
}

// SetFrequency sets the oscillator frequency in Hz. Values at or above
// Nyquist are held just below it.
func (o *Oscillator) SetFrequency(hz float32) {
	if hz < 0 {
		hz = 0
	}
	o.freq = hz
	if o.sampleRate <= 0 {
		o.inc = 0
		return
	}
	o.inc = hz / o.sampleRate
	if o.inc > 0.499 {
		o.inc = 0.499
	}
}

// Frequency returns the configured frequency in Hz.
func (o *Oscillator) Frequency() float32 { return o.freq }

// SetWaveform switches the shape. Switching restarts the integrator.
func (o *Oscillator) SetWaveform(w Waveform) {
	if w == o.waveform {
		return
	}
	o.waveform = w
	o.tri = triangleAt(o.phase)
}

// Reset rewinds the phase to zero.
func (o *Oscillator) Reset() {
	o.phase = 0
	o.tri = -1
}

// Next returns one sample in [-1, 1] and advances the phase.
func (o *Oscillator) Next() float32 {
	var y float32
	switch o.waveform {
	case WaveTriangle:
		sq := float32(1)
		if o.phase >= 0.5 {
			sq = -1
		}
		sq += polyBLEP(o.phase, o.inc)
		half := o.phase + 0.5
		if half >= 1 {
			half -= 1
		}
		sq -= polyBLEP(half, o.inc)
		o.tri += 4*o.inc*sq - 0.01*o.inc*o.tri
		if o.tri > 1 {
			o.tri = 1
		} else if o.tri < -1 {
			o.tri = -1
		}
		y = o.tri
	default:
		y = float32(math.Sin(2 * math.Pi * float64(o.phase)))
	}

	o.phase += o.inc
	if o.phase >= 1 {
		o.phase -= 1
	}
	return y
}

func polyBLEP(t, dt float32) float32 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	} else if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func triangleAt(phase float32) float32 {
	if phase < 0.5 {
		return -1 + 4*phase
	}
	return 3 - 4*phase
}
