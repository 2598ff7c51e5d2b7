//go:build !pcap
// +build !pcap

package framestream

import (
	"context"
	"errors"
)

// ReplayConfig configures PCAP replay behavior. Replay requires building
// with the pcap tag (needs libpcap).
type ReplayConfig struct {
	SpeedMultiplier float64
	UDPPort         int
	Target          string
}

// ReplayPCAPFile is unavailable without the pcap build tag.
func ReplayPCAPFile(ctx context.Context, pcapFile string, config ReplayConfig) error {
	return errors.New("pcap replay requires building with -tags pcap")
}
