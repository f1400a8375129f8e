package fitcommon

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-plug64/effect"
	"github.com/cwbudde/algo-plug64/engine"
)

func impulse(n int) []float32 {
	x := make([]float32, n)
	x[0] = 1
	return x
}

func TestRenderDelayTail(t *testing.T) {
	p, _ := engine.NewParams(effect.Delay)
	if err := p.Set("mastertime", 10); err != nil {
		t.Fatal(err)
	}
	if err := p.Set("masterwet", 100); err != nil {
		t.Fatal(err)
	}
	if err := p.Set("masterfeedback", 0); err != nil {
		t.Fatal(err)
	}
	opt := DefaultRenderOptions()
	opt.SampleRate = 1000
	opt.BlockSize = 4
	opt.TailSeconds = 0.02

	out, err := Render(p, [][]float32{impulse(5)}, opt)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out) != 1 || len(out[0]) != 25 {
		t.Fatalf("shape %d x %d, want 1 x 25", len(out), len(out[0]))
	}
	for i, v := range out[0] {
		want := float32(0)
		if i == 10 {
			want = 1
		}
		if math.Abs(float64(v-want)) > 1e-6 {
			t.Fatalf("out[%d]=%f want %f", i, v, want)
		}
	}
}

func TestRenderClearsExtraOutputs(t *testing.T) {
	p, _ := engine.NewParams(effect.Gain)
	opt := DefaultRenderOptions()
	opt.Outputs = 3
	in := [][]float32{{0.5, 0.5, 0.5}, {0.25, 0.25, 0.25}}
	out, err := Render(p, in, opt)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("outputs=%d", len(out))
	}
	for i := range 3 {
		if out[0][i] != 0.5 || out[1][i] != 0.25 || out[2][i] != 0 {
			t.Fatalf("frame %d: %f %f %f", i, out[0][i], out[1][i], out[2][i])
		}
	}
}

func TestRenderDecayStopsEarly(t *testing.T) {
	p, _ := engine.NewParams(effect.Gain)
	opt := DefaultRenderOptions()
	opt.SampleRate = 1000
	opt.BlockSize = 10
	opt.TailSeconds = 5
	opt.DecayDBFS = -90
	opt.DecayHoldBlocks = 2
	out, err := Render(p, [][]float32{impulse(10)}, opt)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(out[0]); got != 30 {
		t.Fatalf("rendered %d frames, want 30", got)
	}
}

func TestRenderValidates(t *testing.T) {
	p, _ := engine.NewParams(effect.Gain)
	if _, err := Render(p, nil, DefaultRenderOptions()); err == nil {
		t.Fatalf("expected error for empty input")
	}
	opt := DefaultRenderOptions()
	opt.BlockSize = 0
	if _, err := Render(p, [][]float32{{1}}, opt); err == nil {
		t.Fatalf("expected block size error")
	}
	opt = DefaultRenderOptions()
	opt.SampleRate = 0
	if _, err := Render(p, [][]float32{{1}}, opt); err == nil {
		t.Fatalf("expected sample rate error")
	}
}
