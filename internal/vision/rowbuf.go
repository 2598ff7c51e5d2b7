package vision

// RowBuffer is a fixed-capacity FIFO sized to one image row. It supports a
// simultaneous read+write in the same tick: on a non-empty buffer the oldest
// value is returned, the new value is stored, both positions advance and the
// occupancy is unchanged. A write to a full buffer and a read from an empty
// buffer are silent no-ops; callers must check the returned acknowledgments
// rather than assume the operation happened.
type RowBuffer struct {
	data []int32
	rd   int
	wr   int
	n    int
}

// NewRowBuffer returns an empty buffer holding up to capacity values.
func NewRowBuffer(capacity int) *RowBuffer {
	if capacity < 1 {
		panic("vision: row buffer capacity must be positive")
	}
	return &RowBuffer{data: make([]int32, capacity)}
}

// Cap returns the buffer capacity.
func (b *RowBuffer) Cap() int { return len(b.data) }

// Len returns the current occupancy, always in [0, Cap].
func (b *RowBuffer) Len() int { return b.n }

// Empty reports whether the occupancy is zero.
func (b *RowBuffer) Empty() bool { return b.n == 0 }

// Full reports whether the occupancy equals the capacity.
func (b *RowBuffer) Full() bool { return b.n == len(b.data) }

// Write appends v and reports whether the write was accepted. Writes to a
// full buffer are rejected without error.
func (b *RowBuffer) Write(v int32) bool {
	if b.Full() {
		return false
	}
	b.data[b.wr] = v
	b.wr = b.inc(b.wr)
	b.n++
	return true
}

// Read removes and returns the oldest value. The second result is false when
// the buffer is empty and nothing was read.
func (b *RowBuffer) Read() (int32, bool) {
	if b.Empty() {
		return 0, false
	}
	v := b.data[b.rd]
	b.rd = b.inc(b.rd)
	b.n--
	return v, true
}

// ReadWrite performs the read and the write of a single tick. The read is
// applied first, so a simultaneous read+write succeeds even on a full buffer
// as long as it is non-empty, leaving the occupancy unchanged. On an empty
// buffer only the write takes effect.
func (b *RowBuffer) ReadWrite(v int32) (old int32, wrote, read bool) {
	old, read = b.Read()
	wrote = b.Write(v)
	return old, wrote, read
}

// Recycle reads the oldest value and writes it straight back, leaving the
// buffer contents in order. This is how a row survives being scanned as the
// current row so that it can serve as the previous row one row later.
func (b *RowBuffer) Recycle() (int32, bool) {
	v, ok := b.Read()
	if !ok {
		return 0, false
	}
	b.Write(v)
	return v, true
}

// Reset discards all contents.
func (b *RowBuffer) Reset() {
	b.rd, b.wr, b.n = 0, 0, 0
}

func (b *RowBuffer) inc(i int) int {
	i++
	if i == len(b.data) {
		return 0
	}
	return i
}
