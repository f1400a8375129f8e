package main

import (
	"math"
	"testing"
)

func TestBandTableSkipsBandsAboveNyquist(t *testing.T) {
	const sr = 16000
	x := make([]float64, sr)
	for i := range x {
		x[i] = 0.5 * math.Sin(2*math.Pi*1000*float64(i)/sr)
	}
	rows, err := bandTable(x, x, sr, 1024)
	if err != nil {
		t.Fatalf("bandTable: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 6 below 8 kHz", len(rows))
	}
	for _, r := range rows {
		if r.DeltaDB != 0 {
			t.Fatalf("%s: identical signals differ by %f dB", r.Name, r.DeltaDB)
		}
	}
}
