package framestream

import (
	"fmt"

	"github.com/meridian-data/lanewatch/internal/monitoring"
)

// Frame is one fully reassembled raster in row-major order.
type Frame struct {
	ID     uint32
	Pixels []uint8
}

// FrameAssembler collects row packets into whole frames. It tracks a single
// frame at a time: a packet for a newer frame abandons the one in progress
// (rows from already-completed or abandoned frames are dropped). The sensors
// emit rows in order, so one frame of state is enough.
type FrameAssembler struct {
	width  int
	height int

	cur      uint32
	have     []bool
	haveRows int
	pixels   []uint8
	active   bool

	stats *PacketStats
}

// NewFrameAssembler creates an assembler for frames of the given geometry.
func NewFrameAssembler(width, height int, stats *PacketStats) *FrameAssembler {
	if stats == nil {
		stats = NewPacketStats()
	}
	return &FrameAssembler{
		width:  width,
		height: height,
		have:   make([]bool, height),
		pixels: make([]uint8, width*height),
		stats:  stats,
	}
}

// Add feeds one row packet. When the packet completes a frame the frame is
// returned; otherwise the Frame return is nil.
func (a *FrameAssembler) Add(pkt RowPacket) (*Frame, error) {
	if len(pkt.Pixels) != a.width {
		return nil, fmt.Errorf("row width %d does not match frame width %d", len(pkt.Pixels), a.width)
	}
	if int(pkt.Row) >= a.height {
		return nil, fmt.Errorf("row index %d out of range for height %d", pkt.Row, a.height)
	}

	if a.active && pkt.FrameID != a.cur {
		// uint32 wraparound keeps long sessions safe.
		if pkt.FrameID-a.cur > 1<<31 {
			// Row from an older frame, already emitted or abandoned.
			a.stats.AddStaleRow()
			return nil, nil
		}
		monitoring.Logf("abandoning frame %d at %d/%d rows (frame %d arrived)",
			a.cur, a.haveRows, a.height, pkt.FrameID)
		a.stats.AddAbandonedFrame()
		a.reset()
	}

	if !a.active {
		a.cur = pkt.FrameID
		a.active = true
	}

	if a.have[pkt.Row] {
		a.stats.AddStaleRow()
		return nil, nil
	}
	copy(a.pixels[int(pkt.Row)*a.width:], pkt.Pixels)
	a.have[pkt.Row] = true
	a.haveRows++

	if a.haveRows < a.height {
		return nil, nil
	}

	frame := &Frame{ID: a.cur, Pixels: make([]uint8, len(a.pixels))}
	copy(frame.Pixels, a.pixels)
	a.stats.AddFrame()
	a.reset()
	return frame, nil
}

func (a *FrameAssembler) reset() {
	for i := range a.have {
		a.have[i] = false
	}
	a.haveRows = 0
	a.active = false
}
