package vision

import "testing"

func TestWindowShift(t *testing.T) {
	var w Window

	w.Shift(1, 2, 3)
	w.Shift(4, 5, 6)
	w.Shift(7, 8, 9)

	want := [3][3]int32{
		{1, 4, 7},
		{2, 5, 8},
		{3, 6, 9},
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if got := w.At(r, c); got != want[r][c] {
				t.Errorf("cell[%d][%d] = %d, want %d", r, c, got, want[r][c])
			}
		}
	}

	// The next shift pushes the oldest column out.
	w.Shift(10, 11, 12)
	if got := w.At(0, 0); got != 4 {
		t.Errorf("after fourth shift cell[0][0] = %d, want 4", got)
	}
	if got := w.At(2, 2); got != 12 {
		t.Errorf("after fourth shift cell[2][2] = %d, want 12", got)
	}
}

func TestWindowSum(t *testing.T) {
	var w Window
	w.Shift(1, 1, 1)
	w.Shift(1, 1, 1)
	w.Shift(1, 1, 1)
	if got := w.Sum(); got != 9 {
		t.Fatalf("sum = %d, want 9", got)
	}

	// Zero-padded boundary column: the sum degrades to six cells.
	w.Reset()
	w.Shift(0, 0, 0)
	w.Shift(1, 1, 1)
	w.Shift(1, 1, 1)
	if got := w.Sum(); got != 6 {
		t.Fatalf("boundary sum = %d, want 6", got)
	}
}

func TestWindowSobel(t *testing.T) {
	var w Window

	// Vertical step: left column dark, middle and right bright.
	w.Shift(0, 0, 0)
	w.Shift(100, 100, 100)
	w.Shift(100, 100, 100)
	gx, gy := w.Sobel()
	if gx != 400 {
		t.Errorf("gx = %d, want 400", gx)
	}
	if gy != 0 {
		t.Errorf("gy = %d, want 0", gy)
	}

	// Horizontal step: previous row dark, next row bright.
	w.Reset()
	w.Shift(0, 50, 100)
	w.Shift(0, 50, 100)
	w.Shift(0, 50, 100)
	gx, gy = w.Sobel()
	if gx != 0 {
		t.Errorf("gx = %d, want 0", gx)
	}
	if gy != 400 {
		t.Errorf("gy = %d, want 400", gy)
	}

	w.Reset()
	gx, gy = w.Sobel()
	if gx != 0 || gy != 0 {
		t.Errorf("sobel after reset = (%d,%d), want (0,0)", gx, gy)
	}
}
