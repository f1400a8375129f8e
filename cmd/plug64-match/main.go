package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/cwbudde/algo-plug64/engine"
	"github.com/cwbudde/algo-plug64/internal/fitcommon"
	"github.com/cwbudde/algo-plug64/preset"
)

func main() {
	inputPath := flag.String("input", "", "Dry input WAV path")
	referencePath := flag.String("reference", "", "Processed reference WAV to match")
	presetPath := flag.String("preset", "", "Base preset JSON path (optional)")
	familyName := flag.String("family", "delay", "Effect family when no preset is given: delay|filter|gain|ring")
	paramList := flag.String("params", "", "Comma separated parameter IDs to fit (default: master controls of the family)")
	outputPreset := flag.String("output-preset", "out/matched.json", "Path to write the best preset JSON")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-preset>.report.json)")
	writeBest := flag.String("write-best", "", "Optional WAV path to write the best render")
	bpm := flag.Float64("bpm", 0, "Host tempo for synced parameters")
	tail := flag.Float64("tail", 0, "Seconds rendered after the input ends")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 60.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 2000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 50, "Print progress every N evaluations")
	checkpointEvery := flag.Int("checkpoint-every", 5, "Write checkpoint every N best-score improvements")
	resume := flag.Bool("resume", true, "Resume from a previous report's best values when available")
	workersRaw := flag.String("workers", "auto", "Parallel Mayfly workers: integer >= 1 or 'auto'")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	if *inputPath == "" || *referencePath == "" {
		die("-input and -reference are required")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	workers, err := fitcommon.ParseWorkers(*workersRaw)
	if err != nil {
		die("invalid -workers: %v", err)
	}
	*reportEvery = max(*reportEvery, 1)
	*checkpointEvery = max(*checkpointEvery, 1)
	*mayflyPop = max(*mayflyPop, 2)
	*mayflyRoundEvals = max(*mayflyRoundEvals, *mayflyPop*2)

	base, err := loadParams(*presetPath, *familyName)
	if err != nil {
		die("failed to load parameters: %v", err)
	}
	ids := fitcommon.ParseIDList(*paramList)
	if len(ids) == 0 {
		ids = defaultKnobIDs(base.Family)
	}
	knobs, err := resolveKnobs(base, ids)
	if err != nil {
		die("invalid -params: %v", err)
	}

	dry, sampleRate, err := fitcommon.ReadWAV(*inputPath)
	if err != nil {
		die("failed to read input: %v", err)
	}
	ref, refSR, err := fitcommon.ReadWAVMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref, err = fitcommon.ResampleIfNeeded(ref, refSR, sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	render := fitcommon.DefaultRenderOptions()
	render.SampleRate = sampleRate
	render.Tempo = engine.Tempo{BPM: *bpm}
	render.TailSeconds = *tail

	initCand := initialCandidate(base, knobs)
	if *reportPath == "" {
		*reportPath = *outputPreset + ".report.json"
	}
	if *resume {
		if resumed, ok, err := loadCandidateFromReport(*reportPath, knobs, initCand); err != nil {
			fmt.Fprintf(os.Stderr, "resume skipped (%s): %v\n", *reportPath, err)
		} else if ok {
			initCand = resumed
			fmt.Printf("Resumed candidate from %s\n", *reportPath)
		}
	}

	fmt.Printf("Fitting %d %s parameters (%s) against %s\n", len(knobs), base.Family, strings.Join(ids, ","), *referencePath)

	res, err := runOptimization(&optimizationConfig{
		reference:        ref,
		dry:              dry,
		base:             base,
		knobs:            knobs,
		initCandidate:    initCand,
		render:           render,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		checkpointEvery:  *checkpointEvery,
		mayflyVariant:    strings.ToLower(*mayflyVariant),
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          workers,
		outputPreset:     *outputPreset,
		reportPath:       *reportPath,
		referencePath:    *referencePath,
		inputPath:        *inputPath,
	})
	if err != nil {
		die("optimization failed: %v", err)
	}

	out := outputs{
		outputPreset:  *outputPreset,
		reportPath:    *reportPath,
		referencePath: *referencePath,
		inputPath:     *inputPath,
		sampleRate:    sampleRate,
		variant:       strings.ToLower(*mayflyVariant),
	}
	if err := out.write(base, knobs, res.best, res.bestMetrics, res.elapsed, res.evals, res.checkpoints); err != nil {
		die("failed to write outputs: %v", err)
	}
	if *writeBest != "" {
		if err := writeBestRender(*writeBest, base, knobs, res.best, dry, render); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write best render: %v\n", err)
		}
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n", res.evals, res.elapsed, res.bestMetrics.Score, res.bestMetrics.Similarity*100.0, out.variant)
}

func loadParams(presetPath, familyName string) (*engine.Params, error) {
	if presetPath != "" {
		return preset.LoadJSON(presetPath)
	}
	family, err := parseFamily(familyName)
	if err != nil {
		return nil, err
	}
	return engine.NewParams(family)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return fitcommon.Clamp(v, 0, 1)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
