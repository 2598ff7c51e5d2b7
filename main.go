// Command lanewatch runs the lane detection daemon: it ingests grayscale
// frames from a UDP stream or a serial camera front end, runs them through
// the detection pipeline, and records lane decisions to SQLite behind an
// HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/meridian-data/lanewatch/internal/api"
	"github.com/meridian-data/lanewatch/internal/config"
	"github.com/meridian-data/lanewatch/internal/db"
	"github.com/meridian-data/lanewatch/internal/framestream"
	"github.com/meridian-data/lanewatch/internal/vision"
)

var (
	listen       = flag.String("listen", ":8080", "HTTP listen address")
	dbFile       = flag.String("db", "lane_data.db", "Path to the SQLite database file")
	configPath   = flag.String("config", "", "Path to tuning config JSON (default: search for "+config.DefaultConfigPath+")")
	source       = flag.String("source", "udp", "Frame source: udp, serial, mock, or file")
	fixturePath  = flag.String("fixture", "fixtures.txt", "Protocol capture to replay (for -source file)")
	udpPort      = flag.Int("udp-port", 2468, "UDP port to listen for row packets")
	udpAddress   = flag.String("udp-addr", "", "UDP bind address (default: listen on all interfaces)")
	rcvBuf       = flag.Int("rcvbuf", 4<<20, "UDP receive buffer size in bytes")
	serialPort   = flag.String("serial-port", "/dev/ttyUSB0", "Camera serial port path (for -source serial)")
	serialBaud   = flag.Int("baud", 0, "Camera serial baud rate (0 = default)")
	mockInterval = flag.Duration("mock-interval", 100*time.Millisecond, "Synthetic frame interval (for -source mock)")
	sessionNotes = flag.String("notes", "", "Free-form notes recorded with the capture session")
)

// processFrames drains the frame channel through the pipeline, enqueueing one
// decision record per completed frame. It returns the number of frames
// processed once the channel closes or the context is cancelled.
func processFrames(ctx context.Context, frames <-chan *framestream.Frame, pipeline *vision.Pipeline, sessionID string, enqueue func(db.DecisionRecord) bool) int64 {
	var frameIndex int64
	for {
		select {
		case <-ctx.Done():
			return frameIndex
		case frame, ok := <-frames:
			if !ok {
				return frameIndex
			}
			dec, err := pipeline.ProcessFrame(frame.Pixels)
			if err != nil {
				log.Printf("dropping frame %d: %v", frame.ID, err)
				continue
			}
			if !enqueue(db.NewDecisionRecord(sessionID, frameIndex, dec)) {
				log.Printf("decision queue full, dropped frame %d", frameIndex)
			}
			frameIndex++
		}
	}
}

// udpListenAddr builds the bind address from the -udp-addr and -udp-port
// flags.
func udpListenAddr(addr string, port int) string {
	if addr == "" {
		return fmt.Sprintf(":%d", port)
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// Main
func main() {
	flag.Parse()

	// Schema management runs as a subcommand and exits.
	if flag.Arg(0) == "migrate" {
		db.RunMigrateCommand(flag.Args()[1:], *dbFile)
		return
	}

	if *listen == "" {
		log.Fatal("HTTP listen address is required")
	}

	var cfg *config.TuningConfig
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
	} else {
		cfg = config.MustLoadDefaultConfig()
	}

	params := cfg.VisionParams()
	pipeline, err := vision.NewPipeline(params)
	if err != nil {
		log.Fatalf("Invalid pipeline parameters: %v", err)
	}

	database, err := db.Open(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()
	if err := database.MigrateUp(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Create a wait group for the frame source, processing, and HTTP server
	// routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessionID, err := database.StartSession(ctx, *source, *sessionNotes)
	if err != nil {
		log.Fatalf("Failed to start capture session: %v", err)
	}
	log.Printf("Started capture session %s (source %s)", sessionID, *source)

	worker := db.NewDecisionWorker(database, cfg.GetFlushInterval(), cfg.GetFlushBatchSize())
	worker.Start()

	src, err := buildFrameSource(ctx, &wg, cfg)
	if err != nil {
		log.Fatalf("Failed to build frame source: %v", err)
	}

	// Processing goroutine: frames in, decisions out.
	var frameCount atomic.Int64
	wg.Add(1)
	go func() {
		defer wg.Done()
		n := processFrames(ctx, src.frames, pipeline, sessionID, worker.Enqueue)
		frameCount.Store(n)
		log.Printf("processing routine terminated after %d frames", n)
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode or
		// over Tailscale)
		if err := database.AttachAdminRoutes(mux); err != nil {
			log.Printf("Failed to attach db admin routes: %v", err)
		}
		if src.mux != nil {
			src.mux.AttachAdminRoutes(mux)
		}

		// mount the API handlers; the API mux registers absolute paths
		apiMux := api.NewServer(database, cfg).ServeMux()
		mux.Handle("/", apiMux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("Starting HTTP server on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		// Create a shutdown context with a timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	src.close()
	worker.Stop()

	endCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.EndSession(endCtx, sessionID, frameCount.Load()); err != nil {
		log.Printf("Failed to end capture session: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}
