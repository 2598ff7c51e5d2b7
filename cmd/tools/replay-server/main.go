// Command replay-server re-sends a PCAP capture of row packets to a running
// lanewatch daemon, preserving the original packet timing.
//
// Requires building with the pcap tag (needs libpcap):
//
//	go run -tags pcap ./cmd/tools/replay-server -pcap capture.pcap
//
// Flags:
//
//	-pcap    Path to the capture file (required)
//	-target  Address to send packets to (default: localhost:2468)
//	-port    UDP port filter applied to the capture (default: 2468)
//	-speed   Replay speed multiplier; 0 replays as fast as possible
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/meridian-data/lanewatch/internal/framestream"
)

func main() {
	pcapFile := flag.String("pcap", "", "Path to PCAP capture (required)")
	target := flag.String("target", "localhost:2468", "Address to replay packets to")
	port := flag.Int("port", 2468, "UDP port filter for the capture")
	speed := flag.Float64("speed", 1.0, "Replay speed multiplier (0 = as fast as possible)")
	flag.Parse()

	if *pcapFile == "" {
		log.Fatal("Error: -pcap flag is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := framestream.ReplayPCAPFile(ctx, *pcapFile, framestream.ReplayConfig{
		SpeedMultiplier: *speed,
		UDPPort:         *port,
		Target:          *target,
	})
	if err != nil && err != context.Canceled {
		log.Fatalf("Replay failed: %v", err)
	}
}
