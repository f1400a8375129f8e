package fitcommon

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-plug64/analysis"
	"github.com/cwbudde/algo-plug64/engine"
)

// RenderOptions controls an offline render through the engine.
type RenderOptions struct {
	SampleRate int
	BlockSize  int
	// Outputs is the number of output channels; values below the input
	// count are raised to it.
	Outputs int
	Tempo   engine.Tempo
	// TailSeconds of silence are rendered after the input. Negative uses
	// the engine's own tail length.
	TailSeconds float64
	// DecayDBFS stops the tail early once every channel's block RMS stays
	// below it for DecayHoldBlocks blocks. +Inf disables the check.
	DecayDBFS       float64
	DecayHoldBlocks int
}

// DefaultRenderOptions returns options for a 48 kHz render without tail.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		SampleRate:      48000,
		BlockSize:       512,
		DecayDBFS:       math.Inf(1),
		DecayHoldBlocks: 6,
	}
}

// Render processes planar input through a fresh engine built on params and
// returns the planar output.
func Render(params *engine.Params, input [][]float32, opt RenderOptions) ([][]float32, error) {
	if len(input) == 0 {
		return nil, errors.New("no input channels")
	}
	if opt.BlockSize < 1 {
		return nil, fmt.Errorf("block size must be >= 1: %d", opt.BlockSize)
	}
	if opt.DecayHoldBlocks < 1 {
		opt.DecayHoldBlocks = 1
	}
	inputs := len(input)
	outputs := max(opt.Outputs, inputs)

	e, err := engine.New(params, min(inputs, engine.MaxChannels))
	if err != nil {
		return nil, err
	}
	if err := e.Prepare(float64(opt.SampleRate), opt.BlockSize); err != nil {
		return nil, err
	}

	inFrames := 0
	for _, ch := range input {
		inFrames = max(inFrames, len(ch))
	}
	tail := opt.TailSeconds
	if tail < 0 {
		tail = e.TailSeconds()
	}
	total := inFrames + int(tail*float64(opt.SampleRate))

	out := make([][]float32, outputs)
	for c := range out {
		out[c] = make([]float32, 0, total)
	}
	block := make([][]float32, outputs)
	for c := range block {
		block[c] = make([]float32, opt.BlockSize)
	}
	view := make([][]float32, outputs)

	autoStop := !math.IsInf(opt.DecayDBFS, 1)
	threshold := math.Pow(10.0, opt.DecayDBFS/20.0)
	belowCount := 0
	var scratch []float64

	for pos := 0; pos < total; {
		n := min(opt.BlockSize, total-pos)
		for c := range view {
			view[c] = block[c][:n]
			clear(view[c])
			if c < inputs && pos < len(input[c]) {
				copy(view[c], input[c][pos:])
			}
		}
		e.Process(view, inputs, opt.Tempo)
		for c := range out {
			out[c] = append(out[c], view[c]...)
		}
		pos += n

		if autoStop && pos > inFrames {
			loudest := 0.0
			for _, ch := range view {
				scratch = analysis.Widen(scratch, ch)
				loudest = max(loudest, analysis.RMS(scratch))
			}
			if loudest < threshold {
				belowCount++
				if belowCount >= opt.DecayHoldBlocks {
					break
				}
			} else {
				belowCount = 0
			}
		}
	}
	return out, nil
}
