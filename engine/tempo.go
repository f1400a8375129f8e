package engine

import "math"

// Tempo is the host transport tempo. BPM <= 0 means no tempo is available.
type Tempo struct {
	BPM float64
}

// NoTempo is the tempo used when the host reports none.
var NoTempo = Tempo{}

// Valid reports whether the tempo can drive sync resolution.
func (t Tempo) Valid() bool {
	return t.BPM > 0 && !math.IsInf(t.BPM, 0)
}

// SixteenthMS returns the length of one sixteenth note in milliseconds.
func (t Tempo) SixteenthMS() float64 {
	return 60000 / (t.BPM * 4)
}

// ResolveTime returns the effective time in ms. Selector 0 or an unavailable
// tempo passes ms through; otherwise the result is selector sixteenth notes.
func ResolveTime(selector int, ms float32, t Tempo) float32 {
	if selector <= 0 || !t.Valid() {
		return ms
	}
	return float32(t.SixteenthMS() * float64(selector))
}

// ResolveFrequency returns the effective frequency in Hz. Selector 0 or an
// unavailable tempo passes hz through; otherwise one cycle lasts selector
// sixteenth notes.
func ResolveFrequency(selector int, hz float32, t Tempo) float32 {
	if selector <= 0 || !t.Valid() {
		return hz
	}
	return float32(1000 / (t.SixteenthMS() * float64(selector)))
}
