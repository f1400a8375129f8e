package main

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-plug64/analysis"
	"github.com/cwbudde/algo-plug64/effect"
	"github.com/cwbudde/algo-plug64/engine"
	"github.com/cwbudde/algo-plug64/internal/fitcommon"
	"github.com/cwbudde/algo-plug64/preset"
)

func TestDefaultKnobIDsSkipRouting(t *testing.T) {
	tests := []struct {
		family effect.Family
		want   []string
	}{
		{effect.Delay, []string{"mastertime", "masterfeedback", "masterwet"}},
		{effect.Filter, []string{"mastertype", "mastercutoff", "masterresonance", "masterdrive"}},
		{effect.Gain, []string{"mastergain"}},
		{effect.Ring, []string{"mastermod", "masterfreq", "masterwet"}},
	}
	for _, tt := range tests {
		got := defaultKnobIDs(tt.family)
		if len(got) != len(tt.want) {
			t.Fatalf("%v: got %v want %v", tt.family, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("%v: got %v want %v", tt.family, got, tt.want)
			}
		}
	}
}

func TestResolveKnobsValidates(t *testing.T) {
	p, _ := engine.NewParams(effect.Delay)
	if _, err := resolveKnobs(p, nil); err == nil {
		t.Fatalf("expected error for empty list")
	}
	if _, err := resolveKnobs(p, []string{"mastertime", "mastertime"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := resolveKnobs(p, []string{"mastercutoff"}); !errors.Is(err, engine.ErrUnknownParam) {
		t.Fatalf("expected ErrUnknownParam, got %v", err)
	}
}

func TestApplyCandidateLeavesBaseUntouched(t *testing.T) {
	base, _ := engine.NewParams(effect.Filter)
	knobs, err := resolveKnobs(base, []string{"mastercutoff", "chtype2"})
	if err != nil {
		t.Fatal(err)
	}
	start := initialCandidate(base, knobs)
	if start.Vals[0] != 1 || start.Vals[1] != 0 {
		t.Fatalf("initial candidate %v", start.Vals)
	}
	p := applyCandidate(base, knobs, candidate{Vals: []float64{0, 1}})
	if p.Master.Cutoff.Load() != 20 || p.Channels[1].Type.Load() != 6 {
		t.Fatalf("candidate not applied: cutoff=%f type=%f", p.Master.Cutoff.Load(), p.Channels[1].Type.Load())
	}
	if base.Master.Cutoff.Load() != 20000 || base.Channels[1].Type.Load() != 0 {
		t.Fatalf("base params modified")
	}
	vals := plainValues(p, knobs)
	if vals["mastercutoff"] != 20 || vals["chtype2"] != 6 {
		t.Fatalf("plain values %v", vals)
	}
}

func TestFromNormalizedClamps(t *testing.T) {
	c := fromNormalized([]float64{-1, 2, math.NaN()}, 4)
	want := []float64{0, 1, 0, 0}
	for i := range want {
		if c.Vals[i] != want[i] {
			t.Fatalf("vals=%v want %v", c.Vals, want)
		}
	}
}

func TestEvaluateFindsExactMatch(t *testing.T) {
	const sr = 8000
	dry := make([]float32, sr/2)
	for i := range dry {
		dry[i] = float32(0.5 * math.Sin(2*math.Pi*220*float64(i)/sr))
	}
	opt := fitcommon.DefaultRenderOptions()
	opt.SampleRate = sr

	target, _ := engine.NewParams(effect.Gain)
	target.Master.Gain.Store(-12)
	refOut, err := fitcommon.Render(target, [][]float32{dry}, opt)
	if err != nil {
		t.Fatal(err)
	}
	ref := fitcommon.MixToMono64(refOut)

	base, _ := engine.NewParams(effect.Gain)
	knobs, _ := resolveKnobs(base, []string{"mastergain"})
	exact := candidate{Vals: []float64{float64(knobs[0].Range.ToNormalized(-12))}}
	off := candidate{Vals: []float64{float64(knobs[0].Range.ToNormalized(0))}}

	mExact, err := evaluateCandidate(base, knobs, exact, [][]float32{dry}, ref, opt)
	if err != nil {
		t.Fatal(err)
	}
	mOff, err := evaluateCandidate(base, knobs, off, [][]float32{dry}, ref, opt)
	if err != nil {
		t.Fatal(err)
	}
	if mExact.Score > 0.01 {
		t.Fatalf("exact candidate score %f", mExact.Score)
	}
	if mOff.Score <= mExact.Score {
		t.Fatalf("mismatched gain scored %f, exact %f", mOff.Score, mExact.Score)
	}
}

func TestOutputsWriteAndResume(t *testing.T) {
	dir := t.TempDir()
	base, _ := engine.NewParams(effect.Delay)
	knobs, _ := resolveKnobs(base, []string{"mastertime", "masterwet"})
	best := candidate{Vals: []float64{
		float64(knobs[0].Range.ToNormalized(250)),
		float64(knobs[1].Range.ToNormalized(60)),
	}}
	o := outputs{outputPreset: filepath.Join(dir, "fit.json"), variant: "desma", sampleRate: 48000}
	if err := o.write(base, knobs, best, analysisMetrics(0.2), 1.5, 10, 1); err != nil {
		t.Fatalf("write: %v", err)
	}

	p, err := preset.LoadJSON(o.outputPreset)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if p.Master.Time.Load() != 250 || p.Master.Mix.Load() != 60 {
		t.Fatalf("preset time=%f wet=%f", p.Master.Time.Load(), p.Master.Mix.Load())
	}

	fallback := initialCandidate(base, knobs)
	got, ok, err := loadCandidateFromReport(o.outputPreset+".report.json", knobs, fallback)
	if err != nil || !ok {
		t.Fatalf("resume: ok=%v err=%v", ok, err)
	}
	for i := range got.Vals {
		if math.Abs(got.Vals[i]-best.Vals[i]) > 1e-4 {
			t.Fatalf("resumed %v want %v", got.Vals, best.Vals)
		}
	}

	if _, ok, err := loadCandidateFromReport(filepath.Join(dir, "missing.json"), knobs, fallback); ok || err != nil {
		t.Fatalf("missing report: ok=%v err=%v", ok, err)
	}
}

func TestNewMayflyConfigVariants(t *testing.T) {
	for _, v := range []string{"ma", "desma", "olce", "eobbma", "gsasma", "mpma", "aoblmoa"} {
		cfg, err := newMayflyConfig(v, 10, 3, 5)
		if err != nil {
			t.Fatalf("%s: %v", v, err)
		}
		if cfg.ProblemSize != 3 || cfg.NC != 20 || cfg.NM != 1 || cfg.UpperBound != 1 {
			t.Fatalf("%s: unexpected config %+v", v, cfg)
		}
	}
	if _, err := newMayflyConfig("pso", 10, 3, 5); err == nil {
		t.Fatalf("expected unsupported variant error")
	}
}

func TestReserveEvalStopsAtBudget(t *testing.T) {
	var evals int64
	for i := 1; i <= 3; i++ {
		n, ok := reserveEval(&evals, 3)
		if !ok || n != int64(i) {
			t.Fatalf("reserve %d: n=%d ok=%v", i, n, ok)
		}
	}
	if _, ok := reserveEval(&evals, 3); ok {
		t.Fatalf("reserved past budget")
	}
}

func analysisMetrics(score float64) analysis.Metrics {
	return analysis.Metrics{Score: score, Similarity: math.Exp(-4 * score)}
}
