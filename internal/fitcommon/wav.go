package fitcommon

import (
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadWAV decodes a WAV file into one float32 slice per channel.
func ReadWAV(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	if buf.Format.SampleRate <= 0 {
		return nil, 0, fmt.Errorf("invalid wav sample-rate: %d", buf.Format.SampleRate)
	}
	return Deinterleave(buf.Data, buf.Format.NumChannels), buf.Format.SampleRate, nil
}

// ReadWAVMono decodes a WAV file and averages its channels.
func ReadWAVMono(path string) ([]float64, int, error) {
	planar, sr, err := ReadWAV(path)
	if err != nil {
		return nil, 0, err
	}
	return MixToMono64(planar), sr, nil
}

// WriteWAV writes planar float32 channels as 16-bit PCM.
func WriteWAV(path string, channels [][]float32, sampleRate int) error {
	if len(channels) == 0 {
		return fmt.Errorf("no channels to write")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, len(channels), 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: len(channels),
		},
		Data:           Interleave(channels),
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}

// Interleave packs planar channels frame by frame. Shorter channels are
// padded with silence.
func Interleave(channels [][]float32) []float32 {
	frames := 0
	for _, ch := range channels {
		frames = max(frames, len(ch))
	}
	n := len(channels)
	out := make([]float32, frames*n)
	for c, ch := range channels {
		for i, v := range ch {
			out[i*n+c] = v
		}
	}
	return out
}

// Deinterleave splits interleaved samples into numChannels planar slices.
func Deinterleave(data []float32, numChannels int) [][]float32 {
	if numChannels < 1 {
		return nil
	}
	frames := len(data) / numChannels
	out := make([][]float32, numChannels)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < numChannels; c++ {
			out[c][i] = data[i*numChannels+c]
		}
	}
	return out
}

// MixToMono64 averages planar channels into one float64 signal.
func MixToMono64(channels [][]float32) []float64 {
	if len(channels) == 0 {
		return nil
	}
	frames := 0
	for _, ch := range channels {
		frames = max(frames, len(ch))
	}
	out := make([]float64, frames)
	for _, ch := range channels {
		for i, v := range ch {
			out[i] += float64(v)
		}
	}
	scale := 1 / float64(len(channels))
	for i := range out {
		out[i] *= scale
	}
	return out
}

// ResampleIfNeeded converts in from fromRate to toRate.
func ResampleIfNeeded(in []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(in), nil
}
