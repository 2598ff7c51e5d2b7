// Package testutil provides shared test fixtures, mainly synthetic grayscale
// frames for exercising the vision pipeline and the capture paths.
package testutil

import "testing"

// UniformFrame returns a w by h frame filled with a single value.
func UniformFrame(w, h int, value uint8) []uint8 {
	frame := make([]uint8, w*h)
	for i := range frame {
		frame[i] = value
	}
	return frame
}

// StripeFrame paints vertical bright stripes of the given width starting at
// each listed column, on a black background. Stripes mimic lane markings.
func StripeFrame(w, h, stripeWidth int, cols ...int) []uint8 {
	frame := make([]uint8, w*h)
	for r := 0; r < h; r++ {
		for _, s := range cols {
			for c := s; c < s+stripeWidth && c < w; c++ {
				frame[r*w+c] = 255
			}
		}
	}
	return frame
}

// StepFrame returns a frame that is dark left of col and bright from col on.
func StepFrame(w, h, col int) []uint8 {
	frame := make([]uint8, w*h)
	for r := 0; r < h; r++ {
		for c := col; c < w; c++ {
			frame[r*w+c] = 255
		}
	}
	return frame
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
