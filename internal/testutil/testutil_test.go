package testutil

import "testing"

func TestStripeFrame(t *testing.T) {
	frame := StripeFrame(16, 2, 3, 4, 14)

	if frame[4] != 255 || frame[5] != 255 || frame[6] != 255 {
		t.Error("first stripe not painted at columns 4-6")
	}
	if frame[3] != 0 || frame[7] != 0 {
		t.Error("stripe bled outside its width")
	}
	// The second stripe starts at 14, so its third column is clipped off
	// at the right edge.
	if frame[13] != 0 || frame[14] != 255 || frame[15] != 255 {
		t.Error("clipped stripe not painted to the edge")
	}
	if frame[16+4] != 255 {
		t.Error("second row missing the stripe")
	}
}

func TestStepFrame(t *testing.T) {
	frame := StepFrame(8, 1, 5)
	for c := 0; c < 8; c++ {
		want := uint8(0)
		if c >= 5 {
			want = 255
		}
		if frame[c] != want {
			t.Errorf("col %d = %d, want %d", c, frame[c], want)
		}
	}
}
