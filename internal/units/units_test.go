package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		unit string
		want bool
	}{
		{"px", true},
		{"m", true},
		{"ft", true},
		{"", false},
		{"yards", false},
		{"M", false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.unit); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.want)
		}
	}
}

func TestConvertWidth(t *testing.T) {
	const mpp = 0.025 // 25 mm per pixel

	tests := []struct {
		name  string
		px    float64
		units string
		want  float64
	}{
		{"pixels passthrough", 140, "px", 140},
		{"meters", 140, "m", 3.5},
		{"feet", 100, "ft", 8.2020997375328},
		{"unknown unit stays px", 140, "furlongs", 140},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertWidth(tt.px, mpp, tt.units)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ConvertWidth(%v, %v, %q) = %v, want %v", tt.px, mpp, tt.units, got, tt.want)
			}
		})
	}
}

func TestLateralOffset(t *testing.T) {
	const mpp = 0.05

	// Column 208 in a 416-wide image sits exactly on the centreline.
	if got := LateralOffset(208, 416, mpp, Meters); got != 0 {
		t.Errorf("centre offset = %v, want 0", got)
	}
	if got := LateralOffset(258, 416, mpp, Meters); math.Abs(got-2.5) > 1e-9 {
		t.Errorf("right offset = %v, want 2.5", got)
	}
	if got := LateralOffset(158, 416, mpp, Meters); math.Abs(got+2.5) > 1e-9 {
		t.Errorf("left offset = %v, want -2.5", got)
	}
}
