package dsp

import (
	"github.com/cwbudde/algo-approx"
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/interp"
)

// hermiteGuard is the number of extra slots a delay line keeps so a
// four-point read at the maximum delay never wraps onto the write head.
const hermiteGuard = 4

// DelayLine implements a circular buffer for delay.
// Offsets are counted from the most recently written sample (offset 0).
type DelayLine struct {
	buffer   []float32
	writePos int
	size     int
}

// NewDelayLine creates a delay line that can be read up to maxDelay samples back.
func NewDelayLine(maxDelay int) *DelayLine {
	if maxDelay < 0 {
		maxDelay = 0
	}
	size := maxDelay + hermiteGuard
	return &DelayLine{
		buffer: make([]float32, size),
		size:   size,
	}
}

// MaxDelay returns the largest readable offset in samples.
func (d *DelayLine) MaxDelay() int {
	return d.size - hermiteGuard
}

// Write pushes a sample into the delay line.
func (d *DelayLine) Write(sample float32) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos == d.size {
		d.writePos = 0
	}
}

// Overwrite replaces the most recently written sample.
func (d *DelayLine) Overwrite(sample float32) {
	pos := d.writePos - 1
	if pos < 0 {
		pos += d.size
	}
	d.buffer[pos] = sample
}

// Read returns the sample written delay writes ago (0 = newest).
func (d *DelayLine) Read(delay int) float32 {
	pos := d.writePos - 1 - delay
	if pos < 0 {
		pos += d.size
	}
	return d.buffer[pos]
}

// ReadFractional reads with fractional delay using 4-point Hermite interpolation.
// Integer delays return the stored sample exactly.
func (d *DelayLine) ReadFractional(delay float32) float32 {
	if delay <= 0 {
		return d.Read(0)
	}
	if maxDelay := float32(d.MaxDelay()); delay > maxDelay {
		delay = maxDelay
	}
	i := int(delay)
	frac := delay - float32(i)
	x0 := d.Read(i)
	if frac == 0 {
		return x0
	}

	xm1 := x0
	if i > 0 {
		xm1 = d.Read(i - 1)
	}
	x1 := d.Read(i + 1)
	x2 := d.Read(i + 2)
	return float32(interp.Hermite4(float64(frac), float64(xm1), float64(x0), float64(x1), float64(x2)))
}

// Reset clears the delay line
func (d *DelayLine) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}

// FlushDenormals converts denormal numbers to zero to avoid performance issues
func FlushDenormals(x float32) float32 {
	return float32(dspcore.FlushDenormals(float64(x)))
}

// DBToGain converts decibels to a linear amplitude factor.
func DBToGain(db float32) float32 {
	return float32(dspcore.DBToLinear(float64(db)))
}

// Tanh is a saturating tanh built on a fast exponential.
func Tanh(x float32) float32 {
	if x > 9 {
		return 1
	}
	if x < -9 {
		return -1
	}
	return 1 - 2/(approx.FastExp(2*x)+1)
}
