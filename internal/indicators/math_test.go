package indicators

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		value  float64
		places int
		want   float64
	}{
		{5.199999, 2, 5.2},
		{13.0000000001, 2, 13.0},
		{2.5, 0, 3},
		{-2.5, 0, -3},
		{0, 2, 0},
	}
	for _, tt := range tests {
		if got := round(tt.value, tt.places); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("round(%v, %d) = %v, want %v", tt.value, tt.places, got, tt.want)
		}
	}
}

func TestMean(t *testing.T) {
	if got := mean(nil); got != 0 {
		t.Errorf("mean(nil) = %v, want 0", got)
	}
	if got := mean([]float64{2, 4, 6}); got != 4 {
		t.Errorf("mean = %v, want 4", got)
	}
}

func TestPstdev(t *testing.T) {
	// Population standard deviation of {2, 4, 4, 4, 5, 5, 7, 9} is exactly 2.
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := pstdev(values); math.Abs(got-2.0) > 1e-9 {
		t.Errorf("pstdev = %v, want 2.0", got)
	}

	if got := pstdev(nil); got != 0 {
		t.Errorf("pstdev(nil) = %v, want 0", got)
	}
	// A single value has zero dispersion under the population definition,
	// where the sample definition would be undefined.
	if got := pstdev([]float64{3.5}); got != 0 {
		t.Errorf("pstdev(single) = %v, want 0", got)
	}
}

func TestParseVolume(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"1,234,567", 1234567, true},
		{"1000000", 1000000, true},
		{" 42 ", 42, true},
		{"0", 0, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"-", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseVolume(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseVolume(%q) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseClose(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"$1,234.56", 1234.56, true},
		{"100.00", 100, true},
		{"$0.0001", 0.0001, true},
		{"N/A", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseClose(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseClose(%q) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
