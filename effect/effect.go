// Package effect implements the four stage algorithms shared by the channel
// and master tiers: delay, ladder filter, gain and ring modulator.
package effect

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFamily is returned for an effect family outside the known set.
var ErrUnknownFamily = errors.New("unknown effect family")

// Family selects the effect algorithm.
type Family int

const (
	Delay Family = iota
	Filter
	Gain
	Ring
)

// Families lists every family in declaration order.
var Families = []Family{Delay, Filter, Gain, Ring}

func (f Family) String() string {
	switch f {
	case Delay:
		return "delay"
	case Filter:
		return "filter"
	case Gain:
		return "gain"
	case Ring:
		return "ring"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// ParseFamily parses a family name such as "delay" or "ring".
func ParseFamily(s string) (Family, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, f := range Families {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}

// HasMix reports whether the family blends its output with the dry signal.
func (f Family) HasMix() bool {
	return f == Delay || f == Ring
}

// TailSeconds is how long a stage of this family may ring after silence.
func (f Family) TailSeconds() float64 {
	if f == Delay {
		return MaxDelayMS / 1000
	}
	return 0
}

// Settings are the resolved control values for one stage. Each family reads
// only the fields it needs. Values are trusted to be in range.
type Settings struct {
	TimeMS     float32 // delay time
	Feedback   float32 // delay feedback, percent
	FilterType int     // 0 bypass, 1..6 ladder modes
	Cutoff     float32 // Hz
	Resonance  float32 // percent
	Drive      float32 // percent
	GainDB     float32
	Modulator  RingModulator
	Frequency  float32 // ring oscillator Hz
}

// Stage is one tier of an effect for a single channel.
type Stage interface {
	// Prepare (re)allocates state for sampleRate and clears it.
	Prepare(sampleRate float64)
	// Configure applies block-rate settings. Smoothed controls start ramping.
	Configure(s Settings)
	// Settle jumps smoothed controls to their targets.
	Settle()
	// Reset clears audio state without touching settings.
	Reset()
	// Process runs one sample. mod is the external modulator sample, used by
	// the ring modulator only.
	Process(x, mod float32) float32
}

// New creates an unprepared stage for family.
func New(f Family) (Stage, error) {
	switch f {
	case Delay:
		return NewDelay(), nil
	case Filter:
		return NewLadder(), nil
	case Gain:
		return NewGain(), nil
	case Ring:
		return NewRingMod(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFamily, int(f))
	}
}
