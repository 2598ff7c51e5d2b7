// Command framegen streams synthetic grayscale frames as UDP row packets.
//
// It paints a light road surface with evenly spaced dark lane markings and
// sends one frame per tick, which makes it a self-contained load and
// correctness source for a lanewatch daemon running with -source udp.
//
// Usage:
//
//	go run ./cmd/tools/framegen -target localhost:2468 -fps 30
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridian-data/lanewatch/internal/framestream"
)

var (
	target    = flag.String("target", "localhost:2468", "UDP address of the lanewatch daemon")
	width     = flag.Int("width", 416, "Frame width in pixels")
	height    = flag.Int("height", 416, "Frame height in pixels")
	fps       = flag.Float64("fps", 30, "Frames per second")
	count     = flag.Int("frames", 0, "Number of frames to send (0 = until interrupted)")
	markings  = flag.Int("markings", 3, "Number of lane markings to paint")
	roadLevel = flag.Int("road", 200, "Road surface gray level (0-255)")
	inkLevel  = flag.Int("ink", 20, "Lane marking gray level (0-255)")
)

// paintFrame draws the synthetic road: a uniform surface with markings evenly
// spaced across the width, each three pixels wide.
func paintFrame(w, h, n int, road, ink uint8) []uint8 {
	pixels := make([]uint8, w*h)
	for i := range pixels {
		pixels[i] = road
	}
	for m := 1; m <= n; m++ {
		center := m * w / (n + 1)
		for row := 0; row < h; row++ {
			for col := center - 1; col <= center+1; col++ {
				if col >= 0 && col < w {
					pixels[row*w+col] = ink
				}
			}
		}
	}
	return pixels
}

func sendFrame(conn *net.UDPConn, frameID uint32, pixels []uint8, w, h int) error {
	for row := 0; row < h; row++ {
		pkt, err := framestream.EncodeRowPacket(frameID, uint16(row), pixels[row*w:(row+1)*w])
		if err != nil {
			return err
		}
		if _, err := conn.Write(pkt); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	flag.Parse()

	if *width <= 0 || *height <= 0 || *width > framestream.MaxWidth {
		log.Fatalf("Invalid geometry %dx%d (max width %d)", *width, *height, framestream.MaxWidth)
	}
	if *fps <= 0 {
		log.Fatal("-fps must be positive")
	}

	raddr, err := net.ResolveUDPAddr("udp", *target)
	if err != nil {
		log.Fatalf("Failed to resolve target: %v", err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		log.Fatalf("Failed to dial target: %v", err)
	}
	defer conn.Close()

	pixels := paintFrame(*width, *height, *markings, uint8(*roadLevel), uint8(*inkLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	interval := time.Duration(float64(time.Second) / *fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Streaming %dx%d frames with %d markings to %s at %.1f fps",
		*width, *height, *markings, *target, *fps)

	var frameID uint32
	for {
		select {
		case <-ctx.Done():
			log.Printf("Stopped after %d frames", frameID)
			return
		case <-ticker.C:
			frameID++
			if err := sendFrame(conn, frameID, pixels, *width, *height); err != nil {
				log.Fatalf("Failed to send frame %d: %v", frameID, err)
			}
			if *count > 0 && int(frameID) >= *count {
				log.Printf("Sent %d frames", frameID)
				return
			}
		}
	}
}
