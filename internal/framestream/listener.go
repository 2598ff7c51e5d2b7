package framestream

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/meridian-data/lanewatch/internal/monitoring"
)

// UDPListener receives row packets from the capture front end, reassembles
// frames and hands them off on a bounded channel. A slow consumer costs
// whole frames, never partial ones.
type UDPListener struct {
	address     string
	rcvBuf      int
	logInterval time.Duration
	buffer      []byte
	stats       *PacketStats
	assembler   *FrameAssembler
	frames      chan *Frame
}

// UDPListenerConfig contains configuration options for the UDP listener.
type UDPListenerConfig struct {
	Address     string
	Width       int
	Height      int
	RcvBuf      int
	LogInterval time.Duration
	Stats       *PacketStats
	// FrameBacklog is the hand-off channel depth; completed frames beyond
	// it are dropped. Defaults to 4.
	FrameBacklog int
}

// NewUDPListener creates a new UDP listener with the provided configuration.
func NewUDPListener(config UDPListenerConfig) *UDPListener {
	if config.Stats == nil {
		config.Stats = NewPacketStats()
	}
	if config.RcvBuf <= 0 {
		config.RcvBuf = 1 << 20
	}
	if config.LogInterval <= 0 {
		config.LogInterval = time.Minute
	}
	if config.FrameBacklog <= 0 {
		config.FrameBacklog = 4
	}
	return &UDPListener{
		address:     config.Address,
		rcvBuf:      config.RcvBuf,
		logInterval: config.LogInterval,
		buffer:      make([]byte, HeaderSize+MaxWidth),
		stats:       config.Stats,
		assembler:   NewFrameAssembler(config.Width, config.Height, config.Stats),
		frames:      make(chan *Frame, config.FrameBacklog),
	}
}

// Frames is the channel of completed frames.
func (l *UDPListener) Frames() <-chan *Frame {
	return l.frames
}

// Start begins listening for packets and reassembling frames. Returns when
// the context is cancelled or an unrecoverable error occurs.
func (l *UDPListener) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP: %w", err)
	}
	defer conn.Close()

	if err := conn.SetReadBuffer(l.rcvBuf); err != nil {
		monitoring.Logf("warning: failed to set UDP receive buffer to %d bytes: %v (some OSes clamp buffer sizes)", l.rcvBuf, err)
	}

	monitoring.Logf("listening for frame packets on %s", conn.LocalAddr())

	go l.startStatsLogging(ctx)

	timeoutCount := 0
	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("UDP listener shutting down")
			return ctx.Err()
		default:
			// A short read deadline keeps the loop responsive to
			// cancellation.
			if err := conn.SetReadDeadline(time.Now().Add(1 * time.Second)); err != nil {
				monitoring.Logf("error setting read deadline: %v", err)
				continue
			}

			n, _, err := conn.ReadFromUDP(l.buffer)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					timeoutCount++
					if timeoutCount%30 == 0 {
						monitoring.Logf("no frame packets received for %d seconds", timeoutCount)
					}
					continue
				}
				monitoring.Logf("error reading UDP packet: %v", err)
				continue
			}
			timeoutCount = 0

			l.handlePacket(l.buffer[:n])
		}
	}
}

// LocalAddr returns the configured listen address.
func (l *UDPListener) LocalAddr() string {
	return l.address
}

func (l *UDPListener) handlePacket(packet []byte) {
	l.stats.AddPacket(len(packet))

	pkt, err := ParseRowPacket(packet)
	if err != nil {
		l.stats.AddBadPacket()
		return
	}

	frame, err := l.assembler.Add(pkt)
	if err != nil {
		l.stats.AddBadPacket()
		return
	}
	if frame == nil {
		return
	}

	select {
	case l.frames <- frame:
	default:
		l.stats.AddDroppedFrame()
	}
}

func (l *UDPListener) startStatsLogging(ctx context.Context) {
	ticker := time.NewTicker(l.logInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.stats.LogStats()
		}
	}
}
