package analysis

import (
	"math"
	"testing"
)

func sine(sr int, freq, amp float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
	}
	return out
}

func TestAverageSpectrumFindsSinePeak(t *testing.T) {
	const sr = 48000
	for _, freq := range []float64{200, 1000, 5000} {
		s, err := AverageSpectrum(sine(sr, freq, 0.5, sr), sr, 4096)
		if err != nil {
			t.Fatalf("AverageSpectrum: %v", err)
		}
		df := float64(sr) / 4096
		if got := s.PeakFrequency(20, 20000); math.Abs(got-freq) > df {
			t.Errorf("peak %f Hz, want %f", got, freq)
		}
		if s.Frames < 2 {
			t.Errorf("expected overlapped frames, got %d", s.Frames)
		}
	}
}

func TestAverageSpectrumBandLevels(t *testing.T) {
	const sr = 48000
	s, err := AverageSpectrum(sine(sr, 1500, 0.5, sr/2), sr, 2048)
	if err != nil {
		t.Fatal(err)
	}
	mid := s.BandLevelDB(1000, 3000)
	low := s.BandLevelDB(20, 100)
	if mid-low < 40 {
		t.Fatalf("mid band %f dB should dominate sub band %f dB", mid, low)
	}
}

func TestAverageSpectrumShortInputIsPadded(t *testing.T) {
	s, err := AverageSpectrum(sine(48000, 1000, 1, 100), 48000, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if s.Frames != 1 || len(s.Mag) != 513 {
		t.Fatalf("frames=%d bins=%d", s.Frames, len(s.Mag))
	}
}

func TestAverageSpectrumValidates(t *testing.T) {
	x := sine(48000, 1000, 1, 4096)
	if _, err := AverageSpectrum(x, 0, 1024); err == nil {
		t.Errorf("expected sample rate error")
	}
	for _, size := range []int{0, 8, 1000} {
		if _, err := AverageSpectrum(x, 48000, size); err == nil {
			t.Errorf("size %d: expected error", size)
		}
	}
}

func TestLevels(t *testing.T) {
	x := sine(48000, 1000, 0.5, 48000)
	if p := Peak(x); math.Abs(p-0.5) > 1e-3 {
		t.Fatalf("peak=%f", p)
	}
	if r := RMS(x); math.Abs(r-0.5/math.Sqrt2) > 1e-3 {
		t.Fatalf("rms=%f", r)
	}
	if db := DBFS(1); db != 0 {
		t.Fatalf("DBFS(1)=%f", db)
	}
	if Peak(nil) != 0 || RMS(nil) != 0 {
		t.Fatalf("empty input should measure 0")
	}

	lv := MeasureChannels([][]float32{{0.5, -0.5}, {0, 0}})
	if len(lv) != 2 || lv[0].Channel != 1 || math.Abs(lv[0].PeakDB+6.0206) > 0.01 {
		t.Fatalf("levels=%+v", lv)
	}
	if lv[1].RMSDB > -200 {
		t.Fatalf("silent channel rms=%f", lv[1].RMSDB)
	}
}
