// Package analysis measures rendered audio: levels, averaged spectra and a
// distance score between a reference and a candidate rendering.
package analysis

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Metrics contains distance and similarity measurements between two audio signals.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	TimeRMSE        float64 `json:"time_rmse"`
	EnvelopeRMSEDB  float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB  float64 `json:"spectral_rmse_db"`
	LevelDiffDB     float64 `json:"level_diff_db"`
	RefDecayDBPerS  float64 `json:"ref_decay_db_per_s"`
	CandDecayDBPerS float64 `json:"cand_decay_db_per_s"`
	DecayDiffDBPerS float64 `json:"decay_diff_db_per_s"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Options tunes Compare.
type Options struct {
	// MaxLagSeconds bounds the alignment search. Effects such as delay shift
	// energy in time on purpose, so the default window is small.
	MaxLagSeconds float64
	// MaxSeconds caps the compared span after alignment. <= 0 compares everything.
	MaxSeconds float64
}

// DefaultOptions returns the options used by Compare.
func DefaultOptions() Options {
	return Options{MaxLagSeconds: 0.01, MaxSeconds: 12}
}

const (
	envFrame = 256
	envHop   = 128
)

// Compare returns objective distance metrics and a combined score in [0,1]
// using DefaultOptions. Signals are compared at their recorded level.
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	return CompareWith(reference, candidate, sampleRate, DefaultOptions())
}

// CompareWith is Compare with explicit options.
func CompareWith(reference []float64, candidate []float64, sampleRate int, opt Options) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1.0,
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		return m
	}

	maxLag := int(opt.MaxLagSeconds * float64(sampleRate))
	maxLag = min(maxLag, len(reference)-1, len(candidate)-1)
	lag := 0
	if maxLag > 0 {
		lag = estimateLag(reference, candidate, maxLag)
	}
	m.LagSamples = lag

	refA, candA := alignByLag(reference, candidate, lag)
	n := min(len(refA), len(candA))
	if n < envFrame {
		return m
	}
	if opt.MaxSeconds > 0 {
		n = min(n, int(opt.MaxSeconds*float64(sampleRate)))
	}
	refA = refA[:n]
	candA = candA[:n]
	m.AlignedFrames = n

	m.TimeRMSE = rmse(refA, candA)
	m.LevelDiffDB = linToDB(RMS(candA)) - linToDB(RMS(refA))

	refEnv := rmsEnvelope(refA, envFrame, envHop)
	candEnv := rmsEnvelope(candA, envFrame, envHop)
	envN := min(len(refEnv), len(candEnv))
	if envN > 0 {
		envDiff := make([]float64, envN)
		for i := 0; i < envN; i++ {
			envDiff[i] = linToDB(refEnv[i]) - linToDB(candEnv[i])
		}
		m.EnvelopeRMSEDB = RMS(envDiff)
	}

	m.SpectralRMSEDB = spectralRMSEDB(refA, candA, sampleRate)

	hopSec := float64(envHop) / float64(sampleRate)
	m.RefDecayDBPerS = decaySlopeDBPerS(refEnv, hopSec)
	m.CandDecayDBPerS = decaySlopeDBPerS(candEnv, hopSec)
	if isFinite(m.RefDecayDBPerS) && isFinite(m.CandDecayDBPerS) {
		m.DecayDiffDBPerS = math.Abs(m.RefDecayDBPerS - m.CandDecayDBPerS)
	}

	timeNorm := clamp01(m.TimeRMSE / 0.25)
	envNorm := clamp01(m.EnvelopeRMSEDB / 30.0)
	specNorm := clamp01(m.SpectralRMSEDB / 30.0)
	levelNorm := clamp01(math.Abs(m.LevelDiffDB) / 24.0)
	decNorm := clamp01(m.DecayDiffDBPerS / 40.0)
	m.Score = clamp01(0.30*timeNorm + 0.20*envNorm + 0.25*specNorm + 0.15*levelNorm + 0.10*decNorm)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))

	return m
}

// estimateLag returns the shift of cand relative to ref with the largest
// cross-correlation in [-maxLag, maxLag]. Positive means cand starts later in ref.
func estimateLag(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		s := dotAtLag(ref, cand, lag)
		if s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func dotAtLag(a []float64, b []float64, lag int) float64 {
	var ai, bi int
	if lag >= 0 {
		ai = lag
	} else {
		bi = -lag
	}
	n := min(len(a)-ai, len(b)-bi)
	if n <= 0 {
		return 0
	}
	return vecmath.DotProduct(a[ai:ai+n], b[bi:bi+n])
}

func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	o := -lag
	if o >= len(cand) {
		return nil, nil
	}
	return ref, cand[o:]
}

func rmse(a []float64, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	diff := make([]float64, n)
	vecmath.ScaleBlock(diff, b[:n], -1)
	vecmath.AddBlockInPlace(diff, a[:n])
	return RMS(diff)
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = RMS(x[start : start+frame])
	}
	return out
}

// spectralRMSEDB is the RMS of the per-bin dB difference of the averaged
// spectra, skipping DC.
func spectralRMSEDB(a []float64, b []float64, sampleRate int) float64 {
	n := min(len(a), len(b))
	if n < 512 {
		return 0
	}
	size := 4096
	for size > n {
		size >>= 1
	}
	sa, err := AverageSpectrum(a[:n], sampleRate, size)
	if err != nil {
		return 0
	}
	sb, err := AverageSpectrum(b[:n], sampleRate, size)
	if err != nil {
		return 0
	}
	bins := len(sa.Mag)
	var sum float64
	for k := 1; k < bins; k++ {
		d := linToDB(sa.Mag[k]) - linToDB(sb.Mag[k])
		sum += d * d
	}
	return math.Sqrt(sum / float64(bins-1))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func decaySlopeDBPerS(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	peak := -math.MaxFloat64
	peakIdx := 0
	for i, v := range env {
		db := linToDB(v)
		if db > peak {
			peak = db
			peakIdx = i
		}
	}
	start := peakIdx + 1
	if start >= len(env)-4 {
		return math.NaN()
	}

	threshold := peak - 60.0
	end := len(env)
	for i := start; i < len(env); i++ {
		if linToDB(env[i]) < threshold {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * hopSec
		y := linToDB(env[i])
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
