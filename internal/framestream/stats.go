package framestream

import (
	"fmt"
	"sync"
	"time"

	"github.com/meridian-data/lanewatch/internal/monitoring"
)

// PacketStats tracks receive statistics with thread-safe operations.
type PacketStats struct {
	mu              sync.Mutex
	packetCount     int64
	byteCount       int64
	badPacketCount  int64
	staleRowCount   int64
	frameCount      int64
	abandonedFrames int64
	droppedFrames   int64
	lastReset       time.Time
}

// NewPacketStats creates a new PacketStats instance.
func NewPacketStats() *PacketStats {
	return &PacketStats{lastReset: time.Now()}
}

// AddPacket increments packet count and byte count.
func (ps *PacketStats) AddPacket(bytes int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.packetCount++
	ps.byteCount += int64(bytes)
}

// AddBadPacket counts a packet that failed to parse.
func (ps *PacketStats) AddBadPacket() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.badPacketCount++
}

// AddStaleRow counts a duplicate or out-of-date row.
func (ps *PacketStats) AddStaleRow() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.staleRowCount++
}

// AddFrame counts a completed frame.
func (ps *PacketStats) AddFrame() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.frameCount++
}

// AddAbandonedFrame counts a frame abandoned before completion.
func (ps *PacketStats) AddAbandonedFrame() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.abandonedFrames++
}

// AddDroppedFrame counts a completed frame discarded because the consumer
// was behind.
func (ps *PacketStats) AddDroppedFrame() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.droppedFrames++
}

// GetAndReset returns current stats and resets counters.
func (ps *PacketStats) GetAndReset() (packets, bytes, bad, stale, frames, abandoned, dropped int64, duration time.Duration) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	now := time.Now()
	duration = now.Sub(ps.lastReset)
	packets = ps.packetCount
	bytes = ps.byteCount
	bad = ps.badPacketCount
	stale = ps.staleRowCount
	frames = ps.frameCount
	abandoned = ps.abandonedFrames
	dropped = ps.droppedFrames

	ps.packetCount = 0
	ps.byteCount = 0
	ps.badPacketCount = 0
	ps.staleRowCount = 0
	ps.frameCount = 0
	ps.abandonedFrames = 0
	ps.droppedFrames = 0
	ps.lastReset = now

	return
}

// LogStats logs formatted statistics for the interval since the last call.
func (ps *PacketStats) LogStats() {
	packets, bytes, bad, stale, frames, abandoned, dropped, duration := ps.GetAndReset()
	if packets == 0 && bad == 0 {
		return
	}

	packetsPerSec := float64(packets) / duration.Seconds()
	mbPerSec := float64(bytes) / duration.Seconds() / (1024 * 1024)
	framesPerSec := float64(frames) / duration.Seconds()

	logMsg := fmt.Sprintf("Frame stats (/sec): %.2f MB, %.1f packets, %.1f frames",
		mbPerSec, packetsPerSec, framesPerSec)
	if bad > 0 {
		logMsg += fmt.Sprintf(", %d unparseable", bad)
	}
	if stale > 0 {
		logMsg += fmt.Sprintf(", %d stale rows", stale)
	}
	if abandoned > 0 {
		logMsg += fmt.Sprintf(", %d abandoned frames", abandoned)
	}
	if dropped > 0 {
		logMsg += fmt.Sprintf(", %d frames dropped on hand-off", dropped)
	}
	monitoring.Logf("%s", logMsg)
}
