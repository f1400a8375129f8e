package analysis

import (
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// Spectrum is a Hann-windowed magnitude spectrum averaged over 50% overlapped frames.
type Spectrum struct {
	SampleRate int
	FFTSize    int
	Frames     int
	Mag        []float64 // FFTSize/2+1 bins
}

// Band is a named frequency range.
type Band struct {
	Name string
	LoHz float64
	HiHz float64
}

// DefaultBands splits the audio range into the bands the compare tool reports.
var DefaultBands = []Band{
	{"sub-bass (20-100Hz)", 20, 100},
	{"bass (100-300Hz)", 100, 300},
	{"low-mid (300-1kHz)", 300, 1000},
	{"mid (1-3kHz)", 1000, 3000},
	{"high-mid (3-6kHz)", 3000, 6000},
	{"presence (6-10kHz)", 6000, 10000},
	{"brilliance (10-20kHz)", 10000, 20000},
}

// AverageSpectrum computes the mean magnitude spectrum of x. Signals shorter
// than fftSize are zero-padded into a single frame.
func AverageSpectrum(x []float64, sampleRate int, fftSize int) (*Spectrum, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0: %d", sampleRate)
	}
	if fftSize < 16 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two >= 16: %d", fftSize)
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, err
	}
	win, err := window.Hann(fftSize)
	if err != nil {
		return nil, err
	}

	bins := fftSize/2 + 1
	s := &Spectrum{
		SampleRate: sampleRate,
		FFTSize:    fftSize,
		Mag:        make([]float64, bins),
	}
	frame := make([]float64, fftSize)
	spec := make([]complex128, bins)
	re := make([]float64, bins)
	im := make([]float64, bins)
	mag := make([]float64, bins)

	analyze := func(src []float64) {
		clear(frame)
		copy(frame, src)
		vecmath.MulBlockInPlace(frame, win)
		plan.Forward(spec, frame)
		for k, c := range spec {
			re[k] = real(c)
			im[k] = imag(c)
		}
		vecmath.Magnitude(mag, re, im)
		vecmath.AddBlockInPlace(s.Mag, mag)
		s.Frames++
	}

	if len(x) <= fftSize {
		analyze(x)
	} else {
		hop := fftSize / 2
		for pos := 0; pos+fftSize <= len(x); pos += hop {
			analyze(x[pos : pos+fftSize])
		}
	}
	vecmath.ScaleBlockInPlace(s.Mag, 1/float64(s.Frames))
	return s, nil
}

// BinFrequency returns the center frequency of bin k in Hz.
func (s *Spectrum) BinFrequency(k int) float64 {
	return float64(k) * float64(s.SampleRate) / float64(s.FFTSize)
}

func (s *Spectrum) binRange(loHz, hiHz float64) (int, int) {
	df := float64(s.SampleRate) / float64(s.FFTSize)
	lo := int(math.Ceil(loHz / df))
	hi := int(math.Floor(hiHz / df))
	if lo < 1 {
		lo = 1
	}
	if hi > len(s.Mag)-1 {
		hi = len(s.Mag) - 1
	}
	return lo, hi
}

// PeakFrequency returns the frequency of the strongest bin in [loHz, hiHz].
func (s *Spectrum) PeakFrequency(loHz, hiHz float64) float64 {
	lo, hi := s.binRange(loHz, hiHz)
	if lo > hi {
		return 0
	}
	best := lo
	for k := lo + 1; k <= hi; k++ {
		if s.Mag[k] > s.Mag[best] {
			best = k
		}
	}
	return s.BinFrequency(best)
}

// BandLevelDB returns the RMS bin magnitude in [loHz, hiHz] in dB.
func (s *Spectrum) BandLevelDB(loHz, hiHz float64) float64 {
	lo, hi := s.binRange(loHz, hiHz)
	if lo > hi {
		return linToDB(0)
	}
	band := s.Mag[lo : hi+1]
	return linToDB(math.Sqrt(vecmath.DotProduct(band, band) / float64(len(band))))
}
