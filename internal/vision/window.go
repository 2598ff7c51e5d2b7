package vision

// Window is the 3x3 pixel neighborhood shared between consecutive column
// ticks. Each valid tick shifts every row one column left and inserts the
// three freshly read samples into the rightmost column, so the window walks
// the row one column at a time. Cells beyond a boundary hold zero: the
// caller substitutes zero for absent rows, and the reset state provides the
// zero padding to the left of column zero.
type Window struct {
	cells [3][3]int32
}

// Shift advances the window by one column, inserting the previous, current
// and next row samples on the right.
func (w *Window) Shift(prev, cur, next int32) {
	for r := 0; r < 3; r++ {
		w.cells[r][0] = w.cells[r][1]
		w.cells[r][1] = w.cells[r][2]
	}
	w.cells[0][2] = prev
	w.cells[1][2] = cur
	w.cells[2][2] = next
}

// At returns the cell at window row r and column c, both in [0,2]. Row 0 is
// the previous image row, row 2 the next.
func (w *Window) At(r, c int) int32 { return w.cells[r][c] }

// Sum returns the sum of all nine cells. Cells that are zero-padded at a
// boundary contribute nothing, so this doubles as the 6-cell boundary sum.
func (w *Window) Sum() int64 {
	var s int64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			s += int64(w.cells[r][c])
		}
	}
	return s
}

// Sobel returns the horizontal and vertical gradient responses:
//
//	Gx = [[-1 0 1] [-2 0 2] [-1 0 1]]    Gy = [[-1 -2 -1] [0 0 0] [1 2 1]]
//
// The result is only meaningful for interior pixels: zero-padded boundary
// cells read as a spurious step, so the gradient stage suppresses its
// output on the frame border.
func (w *Window) Sobel() (gx, gy int32) {
	gx = -w.cells[0][0] + w.cells[0][2] +
		-2*w.cells[1][0] + 2*w.cells[1][2] +
		-w.cells[2][0] + w.cells[2][2]
	gy = -w.cells[0][0] - 2*w.cells[0][1] - w.cells[0][2] +
		w.cells[2][0] + 2*w.cells[2][1] + w.cells[2][2]
	return gx, gy
}

// Reset clears every cell to zero.
func (w *Window) Reset() {
	w.cells = [3][3]int32{}
}
