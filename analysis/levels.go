package analysis

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Peak returns the largest absolute sample value.
func Peak(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return vecmath.MaxAbs(x)
}

// RMS returns the root mean square of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(vecmath.DotProduct(x, x) / float64(len(x)))
}

// DBFS converts a linear level to decibels relative to full scale, floored at -240 dB.
func DBFS(level float64) float64 {
	return linToDB(level)
}

// Widen copies float32 samples into dst, growing it as needed.
func Widen(dst []float64, src []float32) []float64 {
	if cap(dst) < len(src) {
		dst = make([]float64, len(src))
	}
	dst = dst[:len(src)]
	for i, v := range src {
		dst[i] = float64(v)
	}
	return dst
}

// ChannelLevels reports peak and RMS of one channel.
type ChannelLevels struct {
	Channel int     `json:"channel"`
	PeakDB  float64 `json:"peak_db"`
	RMSDB   float64 `json:"rms_db"`
}

// MeasureChannels returns per-channel levels for planar audio.
func MeasureChannels(channels [][]float32) []ChannelLevels {
	out := make([]ChannelLevels, len(channels))
	var scratch []float64
	for c, ch := range channels {
		scratch = Widen(scratch, ch)
		out[c] = ChannelLevels{
			Channel: c + 1,
			PeakDB:  DBFS(Peak(scratch)),
			RMSDB:   DBFS(RMS(scratch)),
		}
	}
	return out
}
