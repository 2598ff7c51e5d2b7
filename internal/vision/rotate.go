package vision

// Role identifies the logical row a physical buffer is currently playing in
// a convolution stage's 3-row neighborhood.
type Role int

const (
	RolePrevious Role = iota
	RoleCurrent
	RoleNext
)

// String returns the role name for diagnostics.
func (r Role) String() string {
	switch r {
	case RolePrevious:
		return "previous"
	case RoleCurrent:
		return "current"
	case RoleNext:
		return "next"
	default:
		return "invalid"
	}
}

// RowRotator presents three logical row roles backed by three physical
// RowBuffers. Incoming pixels always fill a single target buffer: the
// current-row buffer on the very first row of a frame (there is no next row
// to fill yet) and the next-row buffer afterwards. Rotating shifts every
// role by one, so the buffer that held the current row starts serving as the
// previous row without any data movement.
//
// The fill side runs the shared two-state machine: FILLING while the target
// buffer has room, IDLE once it is full, resuming only after a rotation
// frees a buffer.
type RowRotator struct {
	bufs   [3]*RowBuffer
	base   int // physical index backing RolePrevious
	loaded int // rows completely buffered since the last reset
	fm     fillMachine
}

// NewRowRotator creates a rotator whose three buffers each hold one row of
// width pixels.
func NewRowRotator(width int) *RowRotator {
	r := &RowRotator{}
	for i := range r.bufs {
		r.bufs[i] = NewRowBuffer(width)
	}
	r.fm = fillMachine{
		activate:   func() bool { return r.fillTarget() != nil },
		deactivate: func() bool { return r.fillTarget() == nil },
	}
	return r
}

// Buffer returns the physical buffer currently backing the given role.
func (r *RowRotator) Buffer(role Role) *RowBuffer {
	return r.bufs[(r.base+int(role))%3]
}

// roleSelect is the per-row role index: 1 routes writes to the to-be-current
// buffer (start of frame), 2 to the to-be-next buffer, 0 means no buffer has
// room and the fill side idles.
func (r *RowRotator) roleSelect() int {
	if r.loaded == 0 && !r.Buffer(RoleCurrent).Full() {
		return 1
	}
	if !r.Buffer(RoleNext).Full() {
		return 2
	}
	return 0
}

func (r *RowRotator) fillTarget() *RowBuffer {
	switch r.roleSelect() {
	case 1:
		return r.Buffer(RoleCurrent)
	case 2:
		return r.Buffer(RoleNext)
	default:
		return nil
	}
}

// CanAccept reports whether an offered pixel would be taken this tick.
func (r *RowRotator) CanAccept() bool { return r.fillTarget() != nil }

// Offer routes one incoming pixel to the fill target. It returns false, and
// the pixel must be re-offered, while the machine is idle waiting for a
// buffer to free up.
func (r *RowRotator) Offer(v int32) bool {
	if !r.fm.step() {
		return false
	}
	target := r.fillTarget()
	if target == nil {
		return false
	}
	target.Write(v)
	if target.Full() {
		r.loaded++
	}
	return true
}

// RowsBuffered returns how many complete rows have been accepted since the
// last reset.
func (r *RowRotator) RowsBuffered() int { return r.loaded }

// Rotate advances the role assignment after a processed row: current becomes
// previous, next becomes current, and the drained previous buffer is reused
// as the new next-row fill target.
func (r *RowRotator) Rotate() {
	r.base = (r.base + 1) % 3
}

// Reset empties all buffers and restores the initial role assignment.
func (r *RowRotator) Reset() {
	for _, b := range r.bufs {
		b.Reset()
	}
	r.base = 0
	r.loaded = 0
	r.fm.reset()
}
