package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-plug64/analysis"
	"github.com/cwbudde/algo-plug64/engine"
	"github.com/cwbudde/algo-plug64/internal/fitcommon"
	"github.com/cwbudde/algo-plug64/preset"
)

type runReport struct {
	ReferencePath   string             `json:"reference_path"`
	InputPath       string             `json:"input_path"`
	OutputPreset    string             `json:"output_preset"`
	Family          string             `json:"family"`
	SampleRate      int                `json:"sample_rate"`
	DurationSec     float64            `json:"elapsed_seconds"`
	Evaluations     int                `json:"evaluations"`
	MayflyVariant   string             `json:"mayfly_variant"`
	BestScore       float64            `json:"best_score"`
	BestSimilarity  float64            `json:"best_similarity"`
	BestMetrics     analysis.Metrics   `json:"best_metrics"`
	BestValues      map[string]float32 `json:"best_values"`
	CheckpointCount int                `json:"checkpoint_count"`
}

type outputs struct {
	outputPreset  string
	reportPath    string
	referencePath string
	inputPath     string
	sampleRate    int
	variant       string
}

// write stores the best preset and a report next to it.
func (o outputs) write(base *engine.Params, knobs []knob, best candidate, m analysis.Metrics, elapsed float64, evals, checkpoints int) error {
	p := applyCandidate(base, knobs, best)
	f, err := preset.FromParams(p)
	if err != nil {
		return err
	}
	if err := preset.WriteJSON(o.outputPreset, f); err != nil {
		return err
	}
	rep := runReport{
		ReferencePath:   o.referencePath,
		InputPath:       o.inputPath,
		OutputPreset:    o.outputPreset,
		Family:          p.Family.String(),
		SampleRate:      o.sampleRate,
		DurationSec:     elapsed,
		Evaluations:     evals,
		MayflyVariant:   o.variant,
		BestScore:       m.Score,
		BestSimilarity:  m.Similarity,
		BestMetrics:     m,
		BestValues:      plainValues(p, knobs),
		CheckpointCount: checkpoints,
	}
	reportPath := o.reportPath
	if reportPath == "" {
		reportPath = o.outputPreset + ".report.json"
	}
	return writeJSON(reportPath, rep)
}

// loadCandidateFromReport seeds the search with a previous run's best values.
// A missing report is not an error.
func loadCandidateFromReport(path string, knobs []knob, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, false, nil
		}
		return fallback, false, err
	}
	var rep runReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, err
	}
	if len(rep.BestValues) == 0 {
		return fallback, false, nil
	}
	c := cloneCandidate(fallback)
	updated := false
	for i, k := range knobs {
		if v, ok := rep.BestValues[k.ID]; ok {
			c.Vals[i] = clampUnit(float64(k.Range.ToNormalized(k.Range.Clamp(v))))
			updated = true
		}
	}
	if !updated {
		return fallback, false, nil
	}
	return c, true, nil
}

func writeBestRender(path string, base *engine.Params, knobs []knob, best candidate, dry [][]float32, opt fitcommon.RenderOptions) error {
	out, err := fitcommon.Render(applyCandidate(base, knobs, best), dry, opt)
	if err != nil {
		return err
	}
	return fitcommon.WriteWAV(path, out, opt.SampleRate)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
