package dsp

import "math"

// Smoother ramps a value linearly toward a target over a fixed duration.
// The current value moves monotonically and never passes the target.
type Smoother struct {
	current     float32
	target      float32
	step        float32
	rampSamples int
	countdown   int
}

// NewSmoother creates a smoother settled at initial.
func NewSmoother(sampleRate float64, rampSeconds float64, initial float32) *Smoother {
	s := &Smoother{}
	s.Reset(sampleRate, rampSeconds, initial)
	return s
}

// Reset recomputes the ramp length for sampleRate and settles at value.
func (s *Smoother) Reset(sampleRate float64, rampSeconds float64, value float32) {
	s.rampSamples = 0
	if sampleRate > 0 && rampSeconds > 0 {
		s.rampSamples = int(math.Floor(rampSeconds * sampleRate))
	}
	s.SetCurrentAndTarget(value)
}

// SetCurrentAndTarget jumps to value without ramping.
func (s *Smoother) SetCurrentAndTarget(value float32) {
	s.current = value
	s.target = value
	s.step = 0
	s.countdown = 0
}

// SetTarget starts a new ramp toward value. Repeating the current target is a no-op.
func (s *Smoother) SetTarget(value float32) {
	if value == s.target {
		return
	}
	if s.rampSamples <= 0 {
		s.SetCurrentAndTarget(value)
		return
	}
	s.target = value
	s.countdown = s.rampSamples
	s.step = (s.target - s.current) / float32(s.countdown)
}

// Next advances one sample and returns the new current value.
func (s *Smoother) Next() float32 {
	if s.countdown <= 0 {
		return s.target
	}
	s.countdown--
	if s.countdown == 0 {
		s.current = s.target
		return s.current
	}
	s.current += s.step
	if (s.step > 0 && s.current > s.target) || (s.step < 0 && s.current < s.target) {
		s.current = s.target
		s.countdown = 0
	}
	return s.current
}

// Current returns the value last produced by Next.
func (s *Smoother) Current() float32 { return s.current }

// Target returns the value being ramped toward.
func (s *Smoother) Target() float32 { return s.target }

// IsSmoothing reports whether a ramp is in progress.
func (s *Smoother) IsSmoothing() bool { return s.countdown > 0 }

// Blend cross-fades dry and wet signals. mixPercent is 0..100.
// Zero returns dry and 100 returns wet, both exactly.
func Blend(dry, wet, mixPercent float32) float32 {
	if mixPercent <= 0 {
		return dry
	}
	if mixPercent >= 100 {
		return wet
	}
	m := mixPercent * 0.01
	return wet*m + dry*(1-m)
}
