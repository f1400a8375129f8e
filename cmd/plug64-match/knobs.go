package main

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-plug64/analysis"
	"github.com/cwbudde/algo-plug64/effect"
	"github.com/cwbudde/algo-plug64/engine"
	"github.com/cwbudde/algo-plug64/internal/fitcommon"
)

// knob is one fitted parameter. The optimizer works in the parameter's
// normalized 0..1 space so skewed ranges are searched evenly.
type knob struct {
	ID    string
	Range engine.Range
}

type candidate struct {
	Vals []float64 // normalized
}

func parseFamily(name string) (effect.Family, error) {
	return effect.ParseFamily(strings.TrimSpace(name))
}

// defaultKnobIDs returns the master controls worth fitting for a family.
// Sync and modulator routing are left to the preset.
func defaultKnobIDs(f effect.Family) []string {
	layout, err := engine.Layout(f)
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(layout))
	for _, field := range layout {
		switch field.Name {
		case "sync", "modch":
			continue
		}
		ids = append(ids, engine.MasterID(field.Name))
	}
	return ids
}

func resolveKnobs(p *engine.Params, ids []string) ([]knob, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no parameters to fit")
	}
	seen := make(map[string]bool, len(ids))
	knobs := make([]knob, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("duplicate parameter %q", id)
		}
		seen[id] = true
		prm, ok := p.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", engine.ErrUnknownParam, id)
		}
		knobs = append(knobs, knob{ID: id, Range: prm.Range()})
	}
	return knobs, nil
}

func initialCandidate(p *engine.Params, knobs []knob) candidate {
	vals := make([]float64, len(knobs))
	for i, k := range knobs {
		prm, _ := p.Lookup(k.ID)
		vals[i] = float64(prm.Normalized())
	}
	return candidate{Vals: vals}
}

func fromNormalized(pos []float64, n int) candidate {
	vals := make([]float64, n)
	for i := range vals {
		if i < len(pos) {
			vals[i] = clampUnit(pos[i])
		}
	}
	return candidate{Vals: vals}
}

func cloneCandidate(c candidate) candidate {
	vals := make([]float64, len(c.Vals))
	copy(vals, c.Vals)
	return candidate{Vals: vals}
}

// applyCandidate returns a copy of base with the candidate's values stored.
func applyCandidate(base *engine.Params, knobs []knob, c candidate) *engine.Params {
	p := base.Clone()
	for i, k := range knobs {
		if prm, ok := p.Lookup(k.ID); ok && i < len(c.Vals) {
			prm.SetNormalized(float32(clampUnit(c.Vals[i])))
		}
	}
	return p
}

// plainValues maps each knob to its stored (snapped) value.
func plainValues(p *engine.Params, knobs []knob) map[string]float32 {
	out := make(map[string]float32, len(knobs))
	for _, k := range knobs {
		if prm, ok := p.Lookup(k.ID); ok {
			out[k.ID] = prm.Load()
		}
	}
	return out
}

func evaluateCandidate(base *engine.Params, knobs []knob, c candidate, dry [][]float32, ref []float64, opt fitcommon.RenderOptions) (analysis.Metrics, error) {
	p := applyCandidate(base, knobs, c)
	out, err := fitcommon.Render(p, dry, opt)
	if err != nil {
		return analysis.Metrics{}, err
	}
	return analysis.Compare(ref, fitcommon.MixToMono64(out), opt.SampleRate), nil
}
