package engine

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cwbudde/algo-plug64/effect"
)

// MaxChannels is the number of channels with their own parameter set.
const MaxChannels = 64

// ErrUnknownParam is returned when a parameter ID is not part of the layout.
var ErrUnknownParam = errors.New("unknown parameter")

// ParamSet is one tier's controls. Only the fields listed in the family's
// layout are registered; the rest stay at zero.
type ParamSet struct {
	Sync       Param
	Time       Param
	Feedback   Param
	Type       Param
	Cutoff     Param
	Resonance  Param
	Drive      Param
	Gain       Param
	Modulator  Param
	Frequency  Param
	ModChannel Param
	Mix        Param
}

// Field describes one parameter of a family layout.
type Field struct {
	Name  string // ID suffix, e.g. "time"
	Label string
	Range Range
	// MasterDefault is the master tier's initial value.
	MasterDefault float32
	// ChannelDefault returns the initial value for channel index ch (0-based).
	ChannelDefault func(ch int) float32

	get func(*ParamSet) *Param
}

func constant(v float32) func(int) float32 {
	return func(int) float32 { return v }
}

var (
	syncField = Field{
		Name: "sync", Label: "Sync",
		Range:          Range{Min: 0, Max: 16, Step: 1},
		ChannelDefault: constant(0),
		get:            func(s *ParamSet) *Param { return &s.Sync },
	}
	wetField = Field{
		Name: "wet", Label: "Wet",
		Range: Range{Min: 0, Max: 100, Step: 0.1},
		get:   func(s *ParamSet) *Param { return &s.Mix },
	}
)

func withDefaults(f Field, master, channel float32) Field {
	f.MasterDefault = master
	f.ChannelDefault = constant(channel)
	return f
}

var layouts = map[effect.Family][]Field{
	effect.Delay: {
		syncField,
		{
			Name: "time", Label: "Time",
			Range:         Range{Min: 0, Max: effect.MaxDelayMS, Step: 1},
			MasterDefault: 1000, ChannelDefault: constant(1000),
			get: func(s *ParamSet) *Param { return &s.Time },
		},
		{
			Name: "feedback", Label: "Feedback",
			Range:         Range{Min: 0, Max: 100, Step: 0.1},
			MasterDefault: 25, ChannelDefault: constant(0),
			get: func(s *ParamSet) *Param { return &s.Feedback },
		},
		withDefaults(wetField, 25, 0),
	},
	effect.Filter: {
		{
			Name: "type", Label: "Filter",
			Range:          Range{Min: 0, Max: 6, Step: 1},
			ChannelDefault: constant(0),
			get:            func(s *ParamSet) *Param { return &s.Type },
		},
		{
			Name: "cutoff", Label: "Cutoff",
			Range:         Range{Min: 20, Max: 20000, Step: 1, Skew: 0.4},
			MasterDefault: 20000, ChannelDefault: constant(20000),
			get: func(s *ParamSet) *Param { return &s.Cutoff },
		},
		{
			Name: "resonance", Label: "Resonance",
			Range:         Range{Min: 0, Max: 100, Step: 0.1},
			MasterDefault: 5, ChannelDefault: constant(5),
			get: func(s *ParamSet) *Param { return &s.Resonance },
		},
		{
			Name: "drive", Label: "Drive",
			Range:          Range{Min: 0, Max: 100, Step: 0.1},
			ChannelDefault: constant(0),
			get:            func(s *ParamSet) *Param { return &s.Drive },
		},
	},
	effect.Gain: {
		{
			Name: "gain", Label: "Gain",
			Range:          Range{Min: -70, Max: 12},
			ChannelDefault: constant(0),
			get:            func(s *ParamSet) *Param { return &s.Gain },
		},
	},
	effect.Ring: {
		{
			Name: "mod", Label: "Modulator",
			Range:          Range{Min: 0, Max: 4, Step: 1},
			ChannelDefault: constant(0),
			get:            func(s *ParamSet) *Param { return &s.Modulator },
		},
		{
			Name: "freq", Label: "Frequency",
			Range:         Range{Min: 0, Max: 20000, Step: 1},
			MasterDefault: 440, ChannelDefault: constant(440),
			get: func(s *ParamSet) *Param { return &s.Frequency },
		},
		{
			Name: "modch", Label: "Mod Channel",
			Range:          Range{Min: 1, Max: MaxChannels, Step: 1},
			MasterDefault:  1,
			ChannelDefault: func(ch int) float32 { return float32(ch + 1) },
			get:            func(s *ParamSet) *Param { return &s.ModChannel },
		},
		withDefaults(wetField, 100, 0),
		syncField,
	},
}

// Layout returns the parameter fields of a family.
func Layout(f effect.Family) ([]Field, error) {
	l, ok := layouts[f]
	if !ok {
		return nil, fmt.Errorf("%w: %d", effect.ErrUnknownFamily, int(f))
	}
	return l, nil
}

// MasterID returns the master tier ID for a field name.
func MasterID(name string) string { return "master" + name }

// ChannelID returns the ID for a field name on channel index ch (0-based).
func ChannelID(name string, ch int) string { return "ch" + name + strconv.Itoa(ch+1) }

// Params holds the master and per-channel parameter sets of one engine.
type Params struct {
	Family   effect.Family
	Master   ParamSet
	Channels [MaxChannels]ParamSet

	byID  map[string]*Param
	order []*Param
}

// NewParams creates the parameter store for a family with default values.
func NewParams(f effect.Family) (*Params, error) {
	layout, err := Layout(f)
	if err != nil {
		return nil, err
	}
	p := &Params{
		Family: f,
		byID:   make(map[string]*Param, len(layout)*(MaxChannels+1)),
		order:  make([]*Param, 0, len(layout)*(MaxChannels+1)),
	}
	for _, field := range layout {
		p.register(field.get(&p.Master), MasterID(field.Name), "Master "+field.Label, field.Range, field.MasterDefault)
	}
	for ch := 0; ch < MaxChannels; ch++ {
		for _, field := range layout {
			label := fmt.Sprintf("Channel %d %s", ch+1, field.Label)
			p.register(field.get(&p.Channels[ch]), ChannelID(field.Name, ch), label, field.Range, field.ChannelDefault(ch))
		}
	}
	return p, nil
}

func (p *Params) register(dst *Param, id, name string, rng Range, def float32) {
	dst.init(id, name, rng, def)
	p.byID[id] = dst
	p.order = append(p.order, dst)
}

// Lookup finds a parameter by ID.
func (p *Params) Lookup(id string) (*Param, bool) {
	prm, ok := p.byID[id]
	return prm, ok
}

// Set stores a plain value by ID. Values outside the range are rejected.
func (p *Params) Set(id string, v float32) error {
	prm, ok := p.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParam, id)
	}
	if !prm.Range().Contains(v) {
		r := prm.Range()
		return fmt.Errorf("%s must be in [%g,%g]: %g", id, r.Min, r.Max, v)
	}
	prm.Store(v)
	return nil
}

// All returns every registered parameter, master first, then channel 1..64.
func (p *Params) All() []*Param {
	return p.order
}

// Reset restores every parameter to its default.
func (p *Params) Reset() {
	for _, prm := range p.order {
		prm.Reset()
	}
}

// Clone returns an independent copy of p with the same values.
func (p *Params) Clone() *Params {
	c, err := NewParams(p.Family)
	if err != nil {
		return nil
	}
	for i, prm := range p.order {
		c.order[i].Store(prm.Load())
	}
	return c
}
