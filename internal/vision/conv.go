package vision

// Fixed-point smoothing constant: the hardware multiplies the neighbor sum
// by 57/512 (~0.1113) regardless of whether six or nine cells contributed.
const (
	smoothNumerator = 57
	smoothShift     = 9
)

type stageKind int

const (
	kindSmoothing stageKind = iota
	kindGradient
)

// ConvStage is one row-buffered sliding-window convolution stage. The
// pipeline instantiates it twice: a smoothing stage producing box-averaged
// pixels and a gradient stage producing binary edge bits via Sobel kernels
// and the edge classifier.
//
// A row is processed only once its lookahead is satisfied: the current-row
// buffer is full and, except on the last row of the frame, the next-row
// buffer is full as well. While a row is active the stage consumes one
// column per step, destructively draining the previous-row buffer and
// recycling the current and next rows so they survive the rotation. One
// extra zero-insertion step per row flushes the window tail so the last
// column is emitted.
//
// If the downstream buffer is full the stage stalls without touching the
// window or the row buffers; nothing is dropped.
type ConvStage struct {
	params Params
	kind   stageKind
	rot    *RowRotator
	win    Window
	out    *RowBuffer
	edge   EdgeClassifier

	row    int // image row being processed, 0..ImageHeight-1
	tick   int // column ticks taken this row, wraps at ImageWidth+1
	active bool
}

// NewSmoothingStage creates the box-average stage writing smoothed pixels
// into out.
func NewSmoothingStage(params Params, out *RowBuffer) *ConvStage {
	return newConvStage(params, kindSmoothing, out)
}

// NewGradientStage creates the Sobel stage. Gradients are classified by edge
// and the resulting 0/1 bits are written into out.
func NewGradientStage(params Params, out *RowBuffer, edge EdgeClassifier) *ConvStage {
	s := newConvStage(params, kindGradient, out)
	s.edge = edge
	return s
}

func newConvStage(params Params, kind stageKind, out *RowBuffer) *ConvStage {
	return &ConvStage{
		params: params,
		kind:   kind,
		rot:    NewRowRotator(params.ImageWidth),
		out:    out,
	}
}

// CanAccept reports whether an input pixel would be taken this tick. Pixels
// belonging to the next frame are refused until the current frame's last row
// has been flushed, so a burst across a frame boundary cannot corrupt the
// buffers that are about to be reset.
func (s *ConvStage) CanAccept() bool {
	return s.rot.RowsBuffered() < s.params.ImageHeight && s.rot.CanAccept()
}

// Offer routes one input pixel into the stage's row buffers. It returns
// false while all buffers are busy; the caller must hold the pixel and
// re-offer it (upstream backpressure).
func (s *ConvStage) Offer(v int32) bool {
	if s.rot.RowsBuffered() >= s.params.ImageHeight {
		return false
	}
	return s.rot.Offer(v)
}

// Step advances the stage by one tick.
func (s *ConvStage) Step() {
	if !s.active {
		if !s.rowReady() {
			return
		}
		s.active = true
	}
	if s.out.Full() {
		// Downstream backpressure. The window and counters are left
		// untouched so the in-flight state survives the stall.
		return
	}

	width := s.params.ImageWidth
	var prev, cur, next int32
	if s.tick < width {
		// The previous row is drained for good; it is not needed after
		// this pass and its buffer becomes the next fill target. The
		// current and next rows are recycled back into their buffers so
		// they are intact after rotation.
		if s.row > 0 {
			prev, _ = s.rot.Buffer(RolePrevious).Read()
		}
		cur, _ = s.rot.Buffer(RoleCurrent).Recycle()
		if s.row < s.params.ImageHeight-1 {
			next, _ = s.rot.Buffer(RoleNext).Recycle()
		}
	}
	// Past the last column the shift inserts zeros, flushing the tail.
	s.win.Shift(prev, cur, next)
	s.tick++

	// The window center lags the insert by one column; the first output
	// appears once two columns are in.
	if s.tick >= 2 {
		s.emit(s.tick - 2)
	}
	if s.tick == width+1 {
		s.endRow()
	}
}

// rowReady is the row-active gate: the current row must be fully buffered,
// and so must the next row unless this is the last row of the frame.
func (s *ConvStage) rowReady() bool {
	if !s.rot.Buffer(RoleCurrent).Full() {
		return false
	}
	if s.row == s.params.ImageHeight-1 {
		return true
	}
	return s.rot.Buffer(RoleNext).Full()
}

func (s *ConvStage) emit(col int) {
	switch s.kind {
	case kindSmoothing:
		s.out.Write(s.smoothed(col))
	case kindGradient:
		var bit int32
		// Border pixels never classify: the window is zero-padded past
		// the frame, which reads as a strong false gradient wherever the
		// image is bright.
		if s.row > 0 && s.row < s.params.ImageHeight-1 &&
			col > 0 && col < s.params.ImageWidth-1 {
			gx, gy := s.win.Sobel()
			if s.edge.Classify(gx, gy) {
				bit = 1
			}
		}
		s.out.Write(bit)
	}
}

func (s *ConvStage) smoothed(col int) int32 {
	sum := s.win.Sum()
	if s.params.LegacySmoothing {
		return int32(sum * smoothNumerator >> smoothShift)
	}
	rows := 3
	if s.row == 0 {
		rows--
	}
	if s.row == s.params.ImageHeight-1 {
		rows--
	}
	cols := 3
	if col == 0 {
		cols--
	}
	if col == s.params.ImageWidth-1 {
		cols--
	}
	return int32(sum / int64(rows*cols))
}

func (s *ConvStage) endRow() {
	s.tick = 0
	s.win.Reset()
	s.active = false
	if s.row == s.params.ImageHeight-1 {
		// Frame complete: restart cleanly for the next frame.
		s.row = 0
		s.rot.Reset()
		return
	}
	s.row++
	s.rot.Rotate()
}

// Row returns the image row currently being processed.
func (s *ConvStage) Row() int { return s.row }

// Reset synchronously returns the stage to its initial state, abandoning any
// partially processed row.
func (s *ConvStage) Reset() {
	s.rot.Reset()
	s.win.Reset()
	s.row = 0
	s.tick = 0
	s.active = false
}
