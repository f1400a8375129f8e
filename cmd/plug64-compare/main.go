package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-plug64/analysis"
	"github.com/cwbudde/algo-plug64/engine"
	"github.com/cwbudde/algo-plug64/internal/fitcommon"
	"github.com/cwbudde/algo-plug64/preset"
)

type report struct {
	Metrics analysis.Metrics `json:"metrics"`
	Bands   []bandRow        `json:"bands,omitempty"`
}

type bandRow struct {
	Name    string  `json:"name"`
	RefDB   float64 `json:"ref_db"`
	CandDB  float64 `json:"cand_db"`
	DeltaDB float64 `json:"delta_db"`
}

func main() {
	referencePath := flag.String("reference", "", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path; if empty, render -input through -preset")
	inputPath := flag.String("input", "", "Dry input WAV for a rendered candidate")
	presetPath := flag.String("preset", "", "Preset JSON path for a rendered candidate")
	bpm := flag.Float64("bpm", 0, "Host tempo for a rendered candidate")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	fftSize := flag.Int("fft-size", 4096, "FFT size for the band table")
	maxLag := flag.Float64("max-lag", analysis.DefaultOptions().MaxLagSeconds, "Alignment search window in seconds")
	writeCandidate := flag.String("write-candidate", "", "Optional path to write the rendered candidate WAV")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	if *referencePath == "" {
		die("-reference is required")
	}
	ref, refSR, err := fitcommon.ReadWAVMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref, err = fitcommon.ResampleIfNeeded(ref, refSR, *sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	var cand []float64
	if *candidatePath != "" {
		raw, candSR, err := fitcommon.ReadWAVMono(*candidatePath)
		if err != nil {
			die("failed to read candidate: %v", err)
		}
		cand, err = fitcommon.ResampleIfNeeded(raw, candSR, *sampleRate)
		if err != nil {
			die("failed to resample candidate: %v", err)
		}
	} else {
		if *inputPath == "" || *presetPath == "" {
			die("either -candidate or both -input and -preset are required")
		}
		cand, err = renderCandidate(*inputPath, *presetPath, *bpm, *sampleRate, *writeCandidate)
		if err != nil {
			die("failed to render candidate: %v", err)
		}
	}

	opt := analysis.DefaultOptions()
	opt.MaxLagSeconds = *maxLag
	metrics := analysis.CompareWith(ref, cand, *sampleRate, opt)
	bands, err := bandTable(ref, cand, *sampleRate, *fftSize)
	if err != nil {
		die("spectrum failed: %v", err)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report{Metrics: metrics, Bands: bands}); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Reference frames: %d\n", metrics.ReferenceFrames)
	fmt.Printf("Candidate frames: %d\n", metrics.CandidateFrames)
	fmt.Printf("Aligned frames:   %d\n", metrics.AlignedFrames)
	fmt.Printf("Lag:              %d samples (%.3f ms)\n", metrics.LagSamples, 1000.0*float64(metrics.LagSamples)/float64(metrics.SampleRate))
	fmt.Printf("Time RMSE:        %.6f\n", metrics.TimeRMSE)
	fmt.Printf("Envelope RMSE:    %.2f dB\n", metrics.EnvelopeRMSEDB)
	fmt.Printf("Spectral RMSE:    %.2f dB\n", metrics.SpectralRMSEDB)
	fmt.Printf("Level diff:       %+.2f dB\n", metrics.LevelDiffDB)
	fmt.Printf("Decay slopes:     ref=%.1f dB/s  cand=%.1f dB/s\n", metrics.RefDecayDBPerS, metrics.CandDecayDBPerS)
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", metrics.Score)
	fmt.Printf("Similarity:       %.2f%%\n", metrics.Similarity*100.0)
	fmt.Println()
	fmt.Printf("%-24s %10s %10s %10s\n", "Band", "Ref dB", "Cand dB", "Delta")
	for _, b := range bands {
		fmt.Printf("%-24s %10.1f %10.1f %+10.1f\n", b.Name, b.RefDB, b.CandDB, b.DeltaDB)
	}
}

func renderCandidate(inputPath, presetPath string, bpm float64, sampleRate int, writePath string) ([]float64, error) {
	params, err := preset.LoadJSON(presetPath)
	if err != nil {
		return nil, err
	}
	in, inSR, err := fitcommon.ReadWAV(inputPath)
	if err != nil {
		return nil, err
	}
	opt := fitcommon.DefaultRenderOptions()
	opt.SampleRate = inSR
	opt.Tempo = engine.Tempo{BPM: bpm}
	opt.TailSeconds = -1
	opt.DecayDBFS = -90
	out, err := fitcommon.Render(params, in, opt)
	if err != nil {
		return nil, err
	}
	if writePath != "" {
		if err := fitcommon.WriteWAV(writePath, out, inSR); err != nil {
			return nil, err
		}
	}
	return fitcommon.ResampleIfNeeded(fitcommon.MixToMono64(out), inSR, sampleRate)
}

func bandTable(ref, cand []float64, sampleRate, fftSize int) ([]bandRow, error) {
	rs, err := analysis.AverageSpectrum(ref, sampleRate, fftSize)
	if err != nil {
		return nil, err
	}
	cs, err := analysis.AverageSpectrum(cand, sampleRate, fftSize)
	if err != nil {
		return nil, err
	}
	nyquist := float64(sampleRate) / 2
	rows := make([]bandRow, 0, len(analysis.DefaultBands))
	for _, b := range analysis.DefaultBands {
		if b.LoHz >= nyquist {
			continue
		}
		r := rs.BandLevelDB(b.LoHz, b.HiHz)
		c := cs.BandLevelDB(b.LoHz, b.HiHz)
		rows = append(rows, bandRow{Name: b.Name, RefDB: r, CandDB: c, DeltaDB: c - r})
	}
	return rows, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
