//go:build pcap
// +build pcap

package framestream

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/meridian-data/lanewatch/internal/monitoring"
)

// ReplayConfig configures PCAP replay behavior.
type ReplayConfig struct {
	// SpeedMultiplier controls replay speed (1.0 = real-time, 2.0 = 2x
	// speed, 0 = as fast as possible).
	SpeedMultiplier float64

	// UDPPort filters the capture to row packets sent to this port.
	UDPPort int

	// Target is the address replayed packets are sent to.
	Target string
}

// ReplayPCAPFile reads a capture of row packets and re-sends the UDP
// payloads to the configured target, respecting original packet timing.
func ReplayPCAPFile(ctx context.Context, pcapFile string, config ReplayConfig) error {
	handle, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return fmt.Errorf("failed to open PCAP file %s: %w", pcapFile, err)
	}
	defer handle.Close()

	filterStr := fmt.Sprintf("udp port %d", config.UDPPort)
	if err := handle.SetBPFFilter(filterStr); err != nil {
		return fmt.Errorf("failed to set BPF filter %q: %w", filterStr, err)
	}

	raddr, err := net.ResolveUDPAddr("udp", config.Target)
	if err != nil {
		return fmt.Errorf("failed to resolve replay target: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return fmt.Errorf("failed to dial replay target: %w", err)
	}
	defer conn.Close()

	monitoring.Logf("replaying %s to %s (filter %q, speed %.1fx)",
		pcapFile, config.Target, filterStr, config.SpeedMultiplier)

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	packetCount := 0
	var firstCaptureTime time.Time
	replayStart := time.Now()

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("replay stopping after %d packets: %v", packetCount, ctx.Err())
			return ctx.Err()
		case packet := <-packetSource.Packets():
			if packet == nil {
				monitoring.Logf("replay complete: %d packets in %v", packetCount, time.Since(replayStart))
				return nil
			}

			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			payload := udpLayer.(*layers.UDP).Payload
			if len(payload) == 0 {
				continue
			}

			if config.SpeedMultiplier > 0 {
				captured := packet.Metadata().Timestamp
				if firstCaptureTime.IsZero() {
					firstCaptureTime = captured
				}
				due := replayStart.Add(time.Duration(
					float64(captured.Sub(firstCaptureTime)) / config.SpeedMultiplier))
				if wait := time.Until(due); wait > 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(wait):
					}
				}
			}

			if _, err := conn.Write(payload); err != nil {
				monitoring.Logf("replay write failed: %v", err)
				continue
			}
			packetCount++
		}
	}
}
