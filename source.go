package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/meridian-data/lanewatch/internal/config"
	"github.com/meridian-data/lanewatch/internal/framestream"
	"github.com/meridian-data/lanewatch/internal/pixelmux"
)

// frameSource bundles a running frame producer with the handles main needs:
// the frame channel, the camera mux for admin routes (nil for UDP), and a
// close function for shutdown.
type frameSource struct {
	frames <-chan *framestream.Frame
	mux    pixelmux.PixelMuxInterface
	close  func()
}

// buildFrameSource starts the producer selected by the -source flag. Source
// goroutines that need supervision are added to wg.
func buildFrameSource(ctx context.Context, wg *sync.WaitGroup, cfg *config.TuningConfig) (*frameSource, error) {
	params := cfg.VisionParams()

	switch *source {
	case "udp":
		listener := framestream.NewUDPListener(framestream.UDPListenerConfig{
			Address:     udpListenAddr(*udpAddress, *udpPort),
			Width:       params.ImageWidth,
			Height:      params.ImageHeight,
			RcvBuf:      *rcvBuf,
			LogInterval: cfg.GetStatsInterval(),
			Stats:       framestream.NewPacketStats(),
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := listener.Start(ctx); err != nil && err != context.Canceled {
				log.Printf("UDP listener error: %v", err)
			}
			log.Print("UDP listener routine terminated")
		}()
		return &frameSource{frames: listener.Frames(), close: func() {}}, nil

	case "serial":
		opts := pixelmux.PortOptions{BaudRate: *serialBaud}
		m, err := pixelmux.NewRealPixelMux(*serialPort, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open camera port %s: %w", *serialPort, err)
		}
		if err := m.Initialize(params.ImageWidth, params.ImageHeight); err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to initialize camera: %w", err)
		}
		return runMuxSource(ctx, wg, cfg, m)

	case "mock":
		m := pixelmux.NewMockPixelMux(params.ImageWidth, params.ImageHeight, *mockInterval)
		return runMuxSource(ctx, wg, cfg, m)

	case "file":
		frames, err := loadFixtureFrames(*fixturePath, params.ImageWidth, params.ImageHeight)
		if err != nil {
			return nil, err
		}
		out := make(chan *framestream.Frame, 4)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer close(out)
			ticker := time.NewTicker(*mockInterval)
			defer ticker.Stop()
			for i := 0; ; i++ {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					src := frames[i%len(frames)]
					select {
					case out <- &framestream.Frame{ID: uint32(i + 1), Pixels: src.Pixels}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
		return &frameSource{frames: out, close: func() {}}, nil

	default:
		return nil, fmt.Errorf("unknown frame source %q: expected udp, serial, mock, or file", *source)
	}
}

// loadFixtureFrames decodes a recorded protocol capture into frames. Lines
// that fail to decode are logged and skipped, matching the live decoder.
func loadFixtureFrames(path string, width, height int) ([]*framestream.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixtures file: %w", err)
	}

	decoder := pixelmux.NewFrameDecoder(width, height)
	var frames []*framestream.Frame
	for _, line := range strings.Split(string(data), "\n") {
		frame, err := decoder.Feed(line)
		if err != nil {
			log.Printf("fixture: skipping bad line: %v", err)
			continue
		}
		if frame != nil {
			frames = append(frames, frame)
		}
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("fixtures file %s contains no complete frames", path)
	}
	return frames, nil
}

// runMuxSource wires a camera mux into the monitor and decode goroutines
// shared by the serial and mock sources.
func runMuxSource(ctx context.Context, wg *sync.WaitGroup, cfg *config.TuningConfig, m pixelmux.PixelMuxInterface) (*frameSource, error) {
	params := cfg.VisionParams()
	stats := framestream.NewPacketStats()
	out := make(chan *framestream.Frame, 4)

	// run the monitor routine to manage IO on the camera port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := m.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor camera port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// decode protocol lines into frames
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(out)
		pixelmux.StreamFrames(ctx, m, params.ImageWidth, params.ImageHeight, stats, out)
		log.Print("frame decode routine terminated")
	}()

	// periodic source statistics
	go func() {
		ticker := time.NewTicker(cfg.GetStatsInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats.LogStats()
			}
		}
	}()

	return &frameSource{frames: out, mux: m, close: func() { m.Close() }}, nil
}
