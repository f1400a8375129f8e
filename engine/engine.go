// Package engine runs a two-tier (channel then master) effect over up to
// MaxChannels audio channels in place.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-plug64/dsp"
	"github.com/cwbudde/algo-plug64/effect"
)

var (
	ErrInvalidSampleRate = errors.New("sample rate must be > 0")
	ErrInvalidBlockSize  = errors.New("max block size must be > 0")
	ErrInvalidChannels   = errors.New("channel count out of range")
	ErrNilParams         = errors.New("nil params")
)

// channelState is one channel's pair of stages plus its block-rate controls.
type channelState struct {
	ch     effect.Stage
	master effect.Stage

	mix   float32
	modCh int // external modulator source, -1 when silent or unused

	settled bool
}

// Engine processes audio blocks. Prepare must be called before Process and
// again whenever the sample rate changes. Process must not run concurrently
// with Prepare; parameters may be stored from any goroutine.
type Engine struct {
	params   *Params
	family   effect.Family
	hasMix   bool
	channels int

	sampleRate float64
	maxBlock   int
	prepared   bool

	chans       []channelState
	masterMix   float32
	masterModCh int

	// dry holds the unprocessed input of the current block for external
	// ring modulation.
	dry [][]float32
}

// New creates an engine for params that processes the first channels
// channels (1..MaxChannels). Channels past that pass through unchanged.
func New(params *Params, channels int) (*Engine, error) {
	if params == nil {
		return nil, ErrNilParams
	}
	if channels < 1 || channels > MaxChannels {
		return nil, fmt.Errorf("%w: %d (expected 1..%d)", ErrInvalidChannels, channels, MaxChannels)
	}
	e := &Engine{
		params:   params,
		family:   params.Family,
		hasMix:   params.Family.HasMix(),
		channels: channels,
		chans:    make([]channelState, channels),
	}
	for i := range e.chans {
		chStage, err := effect.New(e.family)
		if err != nil {
			return nil, err
		}
		masterStage, err := effect.New(e.family)
		if err != nil {
			return nil, err
		}
		e.chans[i] = channelState{ch: chStage, master: masterStage, modCh: -1}
	}
	return e, nil
}

// Params returns the parameter store read by the engine.
func (e *Engine) Params() *Params { return e.params }

// Family returns the effect family.
func (e *Engine) Family() effect.Family { return e.family }

// Channels returns the number of processed channels.
func (e *Engine) Channels() int { return e.channels }

// SampleRate returns the prepared sample rate, 0 before Prepare.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Prepare (re)initializes every stage for sampleRate and sizes scratch
// buffers for blocks of up to maxBlockSize frames. Larger blocks are split.
func (e *Engine) Prepare(sampleRate float64, maxBlockSize int) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: %f", ErrInvalidSampleRate, sampleRate)
	}
	if maxBlockSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBlockSize, maxBlockSize)
	}
	e.sampleRate = sampleRate
	e.maxBlock = maxBlockSize
	for i := range e.chans {
		e.chans[i].ch.Prepare(sampleRate)
		e.chans[i].master.Prepare(sampleRate)
	}
	e.dry = nil
	if e.family == effect.Ring {
		e.dry = make([][]float32, MaxChannels)
		for i := range e.dry {
			e.dry[i] = make([]float32, maxBlockSize)
		}
	}
	for i := range e.chans {
		e.chans[i].settled = false
	}
	e.prepared = true
	return nil
}

// Reset clears all audio state (delay lines, filter memory, oscillator phase).
func (e *Engine) Reset() {
	for i := range e.chans {
		e.chans[i].ch.Reset()
		e.chans[i].master.Reset()
	}
}

// TailSeconds is how long output may continue after the input goes silent.
func (e *Engine) TailSeconds() float64 {
	return 2 * e.family.TailSeconds()
}

// Process runs one audio block in place. buf holds one slice per output
// channel, all of the same length; the first inputs of them carry input.
// Output-only channels are cleared and channels past Channels() pass through.
func (e *Engine) Process(buf [][]float32, inputs int, tempo Tempo) {
	if !e.prepared || len(buf) == 0 {
		return
	}
	if inputs > len(buf) {
		inputs = len(buf)
	}
	if inputs < 0 {
		inputs = 0
	}
	for ch := inputs; ch < len(buf); ch++ {
		clear(buf[ch])
	}

	active := min(inputs, e.channels)
	e.configure(active, inputs, tempo)

	frames := len(buf[0])
	for start := 0; start < frames; start += e.maxBlock {
		end := min(start+e.maxBlock, frames)
		e.processRange(buf, inputs, active, start, end)
	}
}

// configure reads the parameter store once per block.
func (e *Engine) configure(active, inputs int, tempo Tempo) {
	p := e.params
	master := e.settings(&p.Master, tempo)
	e.masterMix = p.Master.Mix.Load()
	e.masterModCh = modSource(&p.Master, master, inputs)
	for ch := 0; ch < active; ch++ {
		st := &e.chans[ch]
		ps := &p.Channels[ch]
		s := e.settings(ps, tempo)
		st.ch.Configure(s)
		st.master.Configure(master)
		st.mix = ps.Mix.Load()
		st.modCh = modSource(ps, s, inputs)
		// A channel's first block after Prepare starts at its targets.
		if !st.settled {
			st.ch.Settle()
			st.master.Settle()
			st.settled = true
		}
	}
}

func (e *Engine) settings(ps *ParamSet, tempo Tempo) effect.Settings {
	s := effect.Settings{
		TimeMS:     ps.Time.Load(),
		Feedback:   ps.Feedback.Load(),
		FilterType: int(ps.Type.Load()),
		Cutoff:     ps.Cutoff.Load(),
		Resonance:  ps.Resonance.Load(),
		Drive:      ps.Drive.Load(),
		GainDB:     ps.Gain.Load(),
		Modulator:  effect.RingModulator(ps.Modulator.Load()),
		Frequency:  ps.Frequency.Load(),
	}
	sync := int(ps.Sync.Load())
	switch e.family {
	case effect.Delay:
		s.TimeMS = ResolveTime(sync, s.TimeMS, tempo)
	case effect.Ring:
		s.Frequency = ResolveFrequency(sync, s.Frequency, tempo)
	}
	return s
}

// modSource returns the 0-based channel feeding an external modulator, or -1
// when the modulator is internal or the channel has no input.
func modSource(ps *ParamSet, s effect.Settings, inputs int) int {
	if s.Modulator != effect.RingExternal {
		return -1
	}
	src := int(ps.ModChannel.Load()) - 1
	if src < 0 || src >= inputs || src >= MaxChannels {
		return -1
	}
	return src
}

func (e *Engine) processRange(buf [][]float32, inputs, active, start, end int) {
	n := end - start
	if e.dry != nil {
		for ch := 0; ch < min(inputs, MaxChannels); ch++ {
			copy(e.dry[ch][:n], buf[ch][start:end])
		}
	}
	var masterMod []float32
	if e.masterModCh >= 0 {
		masterMod = e.dry[e.masterModCh][:n]
	}

	for ch := 0; ch < active; ch++ {
		st := &e.chans[ch]
		data := buf[ch][start:end]
		var chMod []float32
		if st.modCh >= 0 {
			chMod = e.dry[st.modCh][:n]
		}
		for i, x := range data {
			var cm, mm float32
			if chMod != nil {
				cm = chMod[i]
			}
			if masterMod != nil {
				mm = masterMod[i]
			}
			y := st.ch.Process(x, cm)
			if e.hasMix {
				y = dsp.Blend(x, y, st.mix)
			}
			z := st.master.Process(y, mm)
			if e.hasMix {
				z = dsp.Blend(y, z, e.masterMix)
			}
			data[i] = z
		}
	}
}
