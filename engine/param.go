package engine

import (
	"math"
	"sync/atomic"
)

// Range describes a parameter's plain value range. Step snaps stored values
// to Min+k*Step when positive. Skew shapes the normalized mapping; 1 is linear.
type Range struct {
	Min, Max float32
	Step     float32
	Skew     float32
}

// Clamp limits v to the range and snaps it to the step grid.
func (r Range) Clamp(v float32) float32 {
	if v != v {
		return r.Min
	}
	if r.Step > 0 {
		k := math.Round(float64(v-r.Min) / float64(r.Step))
		v = float32(float64(r.Min) + float64(r.Step)*k)
	}
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies inside [Min, Max].
func (r Range) Contains(v float32) bool {
	return v >= r.Min && v <= r.Max
}

// ToNormalized maps a plain value to 0..1.
func (r Range) ToNormalized(v float32) float32 {
	if r.Max <= r.Min {
		return 0
	}
	p := float64((r.Clamp(v) - r.Min) / (r.Max - r.Min))
	if r.Skew > 0 && r.Skew != 1 {
		p = math.Pow(p, float64(r.Skew))
	}
	return float32(p)
}

// FromNormalized maps 0..1 to a plain value on the step grid.
func (r Range) FromNormalized(n float32) float32 {
	p := float64(n)
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	if r.Skew > 0 && r.Skew != 1 && p > 0 {
		p = math.Exp(math.Log(p) / float64(r.Skew))
	}
	return r.Clamp(r.Min + float32(p)*(r.Max-r.Min))
}

// Param is an automatable value published to the audio thread without locks.
// Writers and readers never block each other; the last stored value wins.
type Param struct {
	id    string
	name  string
	rng   Range
	def   float32
	value atomic.Uint32
}

func (p *Param) init(id, name string, rng Range, def float32) {
	p.id = id
	p.name = name
	p.rng = rng
	p.def = rng.Clamp(def)
	p.Store(p.def)
}

// ID returns the parameter identifier, e.g. "chtime3".
func (p *Param) ID() string { return p.id }

// Name returns the display name.
func (p *Param) Name() string { return p.name }

// Range returns the valid plain range.
func (p *Param) Range() Range { return p.rng }

// Default returns the initial plain value.
func (p *Param) Default() float32 { return p.def }

// Load returns the most recently stored plain value.
func (p *Param) Load() float32 {
	return math.Float32frombits(p.value.Load())
}

// Store publishes a plain value, clamped and snapped to the range.
func (p *Param) Store(v float32) {
	p.value.Store(math.Float32bits(p.rng.Clamp(v)))
}

// Normalized returns the current value mapped to 0..1.
func (p *Param) Normalized() float32 {
	return p.rng.ToNormalized(p.Load())
}

// SetNormalized stores a value given in 0..1.
func (p *Param) SetNormalized(n float32) {
	p.Store(p.rng.FromNormalized(n))
}

// Reset restores the default value.
func (p *Param) Reset() {
	p.Store(p.def)
}
