package dsp

import (
	"fmt"
	"math"
	"testing"
)

func TestDelayLineIntegerReads(t *testing.T) {
	d := NewDelayLine(16)
	for i := 1; i <= 20; i++ {
		d.Write(float32(i))
	}
	for delay := 0; delay <= d.MaxDelay(); delay++ {
		want := float32(20 - delay)
		if got := d.Read(delay); got != want {
			t.Fatalf("Read(%d)=%f want %f", delay, got, want)
		}
		if got := d.ReadFractional(float32(delay)); got != want {
			t.Fatalf("ReadFractional(%d)=%f want %f", delay, got, want)
		}
	}
}

func TestDelayLineFractionalOnRamp(t *testing.T) {
	d := NewDelayLine(64)
	for i := 0; i < 64; i++ {
		d.Write(float32(i))
	}
	for _, delay := range []float32{1.25, 2.5, 10.75, 30.5} {
		want := 63 - delay
		got := d.ReadFractional(delay)
		if math.Abs(float64(got-want)) > 1e-4 {
			t.Fatalf("ReadFractional(%.2f)=%f want %f", delay, got, want)
		}
	}
}

func TestDelayLineClampsPastCapacity(t *testing.T) {
	d := NewDelayLine(8)
	for i := 0; i < 32; i++ {
		d.Write(float32(i))
	}
	if got, want := d.ReadFractional(1000), d.Read(8); got != want {
		t.Fatalf("clamped read=%f want %f", got, want)
	}
}

func TestDelayLineOverwriteAndReset(t *testing.T) {
	d := NewDelayLine(4)
	d.Write(1)
	d.Overwrite(5)
	if got := d.Read(0); got != 5 {
		t.Fatalf("Overwrite not visible: %f", got)
	}
	d.Reset()
	for i := 0; i <= d.MaxDelay(); i++ {
		if d.Read(i) != 0 {
			t.Fatalf("Reset left data at %d", i)
		}
	}
}

func TestDBToGain(t *testing.T) {
	for _, db := range []float32{-70, -12, -6, 0, 6, 12} {
		want := math.Pow(10, float64(db)/20)
		got := float64(DBToGain(db))
		if math.Abs(got-want)/want > 0.01 {
			t.Errorf("DBToGain(%.0f)=%g want %g", db, got, want)
		}
	}
}

func TestTanhSaturates(t *testing.T) {
	for _, x := range []float32{-20, -3, -0.5, 0, 0.5, 3, 20} {
		got := float64(Tanh(x))
		want := math.Tanh(float64(x))
		if math.Abs(got-want) > 0.05 {
			t.Errorf("Tanh(%.1f)=%f want %f", x, got, want)
		}
		if got > 1 || got < -1 {
			t.Errorf("Tanh(%.1f)=%f out of range", x, got)
		}
	}
}

func TestFlushDenormals(t *testing.T) {
	if FlushDenormals(1e-35) != 0 {
		t.Fatalf("tiny value not flushed")
	}
	if FlushDenormals(0.25) != 0.25 {
		t.Fatalf("normal value altered")
	}
}

func TestBlendEndpointsExact(t *testing.T) {
	values := []float32{-1, -0.123456, 0, 1e-7, 0.3333333, 0.99, 7}
	for _, dry := range values {
		for _, wet := range values {
			if got := Blend(dry, wet, 0); got != dry {
				t.Fatalf("Blend(%g,%g,0)=%g", dry, wet, got)
			}
			if got := Blend(dry, wet, 100); got != wet {
				t.Fatalf("Blend(%g,%g,100)=%g", dry, wet, got)
			}
		}
	}
	if got := Blend(0, 1, 25); math.Abs(float64(got)-0.25) > 1e-6 {
		t.Fatalf("Blend(0,1,25)=%g", got)
	}
}

func TestSmootherConvergesWithinRamp(t *testing.T) {
	rates := []float64{22050, 44100, 48000, 96000}
	for _, sr := range rates {
		t.Run(fmt.Sprintf("SR%.0f", sr), func(t *testing.T) {
			s := NewSmoother(sr, 0.05, 0)
			s.SetTarget(1000)
			n := int(math.Floor(0.05 * sr))
			prev := float32(0)
			for i := 0; i < n; i++ {
				v := s.Next()
				if v < prev || v > 1000 {
					t.Fatalf("non-monotonic or overshoot at %d: prev=%f v=%f", i, prev, v)
				}
				prev = v
			}
			if prev != 1000 {
				t.Fatalf("not converged after %d steps: %f", n, prev)
			}
			for i := 0; i < 10; i++ {
				if v := s.Next(); v != 1000 {
					t.Fatalf("moved after convergence: %f", v)
				}
			}
		})
	}
}

func TestSmootherDownwardRamp(t *testing.T) {
	s := NewSmoother(1000, 0.01, 5)
	s.SetTarget(-5)
	prev := float32(5)
	for i := 0; i < 10; i++ {
		v := s.Next()
		if v > prev || v < -5 {
			t.Fatalf("step %d: prev=%f v=%f", i, prev, v)
		}
		prev = v
	}
	if prev != -5 {
		t.Fatalf("final=%f", prev)
	}
}

func TestSmootherSameTargetDoesNotRestart(t *testing.T) {
	s := NewSmoother(1000, 0.01, 0)
	s.SetTarget(10)
	s.Next()
	s.Next()
	mid := s.Current()
	s.SetTarget(10)
	for i := 0; i < 8; i++ {
		s.Next()
	}
	if s.Current() != 10 || s.IsSmoothing() {
		t.Fatalf("ramp restarted: mid=%f now=%f", mid, s.Current())
	}
}

func TestSmootherZeroRampJumps(t *testing.T) {
	s := NewSmoother(48000, 0, 1)
	s.SetTarget(3)
	if s.Next() != 3 {
		t.Fatalf("zero ramp did not jump")
	}
}

func TestOscillatorZeroFrequencyIsConstant(t *testing.T) {
	for _, w := range []Waveform{WaveSine, WaveTriangle} {
		o := NewOscillator(48000)
		o.SetWaveform(w)
		first := o.Next()
		for i := 0; i < 1000; i++ {
			if v := o.Next(); v != first {
				t.Fatalf("waveform %d drifted at %d: %f vs %f", w, i, v, first)
			}
		}
	}
}

func TestOscillatorFrequency(t *testing.T) {
	const sr = 48000
	for _, w := range []Waveform{WaveSine, WaveTriangle} {
		t.Run(fmt.Sprintf("Waveform%d", w), func(t *testing.T) {
			o := NewOscillator(sr)
			o.SetWaveform(w)
			o.SetFrequency(440)
			samples := make([]float32, sr)
			for i := range samples {
				samples[i] = o.Next()
				if samples[i] > 1 || samples[i] < -1 {
					t.Fatalf("sample %d out of range: %f", i, samples[i])
				}
			}
			got := zeroCrossingFreq(samples[sr/10:], sr)
			if math.Abs(got-440) > 3 {
				t.Fatalf("measured %.2f Hz want 440", got)
			}
			if peak := peakAbs(samples[sr/2:]); peak < 0.9 {
				t.Fatalf("amplitude too low: %f", peak)
			}
		})
	}
}

func TestLadderLowpassAttenuatesHighs(t *testing.T) {
	const sr = 48000
	low := ladderRMS(t, LadderLPF24, 500, 100, sr)
	high := ladderRMS(t, LadderLPF24, 500, 8000, sr)
	if high > 0.1*low {
		t.Fatalf("lowpass leak: low=%f high=%f", low, high)
	}
}

func TestLadderHighpassAttenuatesLows(t *testing.T) {
	const sr = 48000
	low := ladderRMS(t, LadderHPF12, 2000, 100, sr)
	high := ladderRMS(t, LadderHPF12, 2000, 8000, sr)
	if low > 0.2*high {
		t.Fatalf("highpass leak: low=%f high=%f", low, high)
	}
}

func TestLadderBandpassPassesCenter(t *testing.T) {
	const sr = 48000
	for _, mode := range []LadderMode{LadderBPF12, LadderBPF24} {
		mid := ladderRMS(t, mode, 1000, 1000, sr)
		low := ladderRMS(t, mode, 1000, 50, sr)
		high := ladderRMS(t, mode, 1000, 15000, sr)
		if low > mid/3 || high > mid/3 {
			t.Errorf("mode %d: low=%f mid=%f high=%f", mode, low, mid, high)
		}
	}
}

func TestLadder24dBModesAreSteeper(t *testing.T) {
	const sr = 48000
	tests := []struct {
		name         string
		m12, m24     LadderMode
		cutoff       float32
		pass, reject float64
	}{
		{"lowpass", LadderLPF12, LadderLPF24, 500, 100, 8000},
		{"highpass", LadderHPF12, LadderHPF24, 4000, 16000, 250},
		{"bandpass low side", LadderBPF12, LadderBPF24, 1000, 1000, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r12 := ladderRMS(t, tt.m12, tt.cutoff, tt.reject, sr) / ladderRMS(t, tt.m12, tt.cutoff, tt.pass, sr)
			r24 := ladderRMS(t, tt.m24, tt.cutoff, tt.reject, sr) / ladderRMS(t, tt.m24, tt.cutoff, tt.pass, sr)
			if r24 >= r12/2 {
				t.Fatalf("24 dB rejection %f not steeper than 12 dB %f", r24, r12)
			}
		})
	}
}

func TestLadderModeChangeClearsState(t *testing.T) {
	f := NewLadderFilter(48000)
	for i := 0; i < 100; i++ {
		f.Process(0.5)
	}
	f.SetMode(LadderLPF24)
	for i, s := range f.state {
		if s != 0 {
			t.Fatalf("state[%d]=%f after mode change", i, s)
		}
	}
}

func ladderRMS(t *testing.T, mode LadderMode, cutoff float32, freq float64, sr int) float64 {
	t.Helper()
	f := NewLadderFilter(float64(sr))
	f.SetMode(mode)
	f.SetCutoff(cutoff)
	f.SetResonance(0)
	f.SetDrive(1)
	n := sr / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		x := float32(0.25 * math.Sin(2*math.Pi*freq*float64(i)/float64(sr)))
		out[i] = f.Process(x)
	}
	return rms(out[n/2:])
}

func zeroCrossingFreq(samples []float32, sampleRate int) float64 {
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] < 0 && samples[i] >= 0) || (samples[i-1] >= 0 && samples[i] < 0) {
			crossings++
		}
	}
	duration := float64(len(samples)) / float64(sampleRate)
	return float64(crossings) / (2 * duration)
}

func rms(samples []float32) float64 {
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func peakAbs(samples []float32) float32 {
	var p float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > p {
			p = s
		}
	}
	return p
}
