package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/cwbudde/algo-plug64/analysis"
	"github.com/cwbudde/algo-plug64/effect"
	"github.com/cwbudde/algo-plug64/engine"
	"github.com/cwbudde/algo-plug64/internal/fitcommon"
	"github.com/cwbudde/algo-plug64/preset"
)

func main() {
	input := flag.String("input", "", "Input WAV path (up to 64 channels are processed)")
	output := flag.String("output", "output.wav", "Output WAV file path")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	familyName := flag.String("family", "delay", "Effect family when no preset is given: delay|filter|gain|ring")
	set := flag.String("set", "", "Comma separated parameter overrides, e.g. chtime1=250,masterwet=40")
	bpm := flag.Float64("bpm", 0, "Host tempo for synced parameters (0 = no tempo)")
	blockSize := flag.Int("block", 512, "Processing block size in frames")
	outputs := flag.Int("outputs", 0, "Output channel count (0 = same as input)")
	tail := flag.Float64("tail", -1, "Seconds rendered after the input ends (-1 = effect tail)")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Stop the tail when every channel's block RMS falls below this dBFS (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop")
	flag.Parse()

	if *input == "" {
		die("-input is required")
	}

	params, err := loadParams(*presetPath, *familyName)
	if err != nil {
		die("Error loading parameters: %v", err)
	}
	if err := applyOverrides(params, *set); err != nil {
		die("Error applying -set: %v", err)
	}

	in, sampleRate, err := fitcommon.ReadWAV(*input)
	if err != nil {
		die("Error reading input %q: %v", *input, err)
	}
	if len(in) > engine.MaxChannels {
		fmt.Printf("Input has %d channels; channels above %d pass through unprocessed\n", len(in), engine.MaxChannels)
	}

	opt := fitcommon.DefaultRenderOptions()
	opt.SampleRate = sampleRate
	opt.BlockSize = *blockSize
	opt.Outputs = *outputs
	opt.Tempo = engine.Tempo{BPM: *bpm}
	opt.TailSeconds = *tail
	opt.DecayDBFS = *decayDBFS
	opt.DecayHoldBlocks = *decayHoldBlocks

	fmt.Printf("Rendering %s (%s, %d channels, %d Hz, block %d)...\n", *input, params.Family, len(in), sampleRate, *blockSize)

	out, err := fitcommon.Render(params, in, opt)
	if err != nil {
		die("Error rendering: %v", err)
	}
	if err := fitcommon.WriteWAV(*output, out, sampleRate); err != nil {
		die("Error writing WAV file: %v", err)
	}

	frames := 0
	if len(out) > 0 {
		frames = len(out[0])
	}
	for _, lv := range analysis.MeasureChannels(out) {
		fmt.Printf("  ch%-2d peak %7.2f dBFS  rms %7.2f dBFS\n", lv.Channel, lv.PeakDB, lv.RMSDB)
	}
	fmt.Printf("Successfully wrote %s (%d frames, %.3fs)\n", *output, frames, float64(frames)/float64(sampleRate))
}

func loadParams(presetPath, familyName string) (*engine.Params, error) {
	if presetPath != "" {
		return preset.LoadJSON(presetPath)
	}
	family, err := effect.ParseFamily(strings.TrimSpace(familyName))
	if err != nil {
		return nil, err
	}
	return engine.NewParams(family)
}

func applyOverrides(p *engine.Params, raw string) error {
	assigns, err := fitcommon.ParseAssignments(raw)
	if err != nil {
		return err
	}
	for _, a := range assigns {
		if err := p.Set(a.ID, a.Value); err != nil {
			return err
		}
	}
	return nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
