package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/meridian-data/lanewatch/internal/config"
	"github.com/meridian-data/lanewatch/internal/db"
	"github.com/meridian-data/lanewatch/internal/framestream"
	"github.com/meridian-data/lanewatch/internal/pixelmux"
	"github.com/meridian-data/lanewatch/internal/testutil"
	"github.com/meridian-data/lanewatch/internal/vision"
)

func TestUDPListenAddr(t *testing.T) {
	tests := []struct {
		addr string
		port int
		want string
	}{
		{"", 2468, ":2468"},
		{"127.0.0.1", 2468, "127.0.0.1:2468"},
		{"10.0.0.5", 9999, "10.0.0.5:9999"},
	}
	for _, tt := range tests {
		if got := udpListenAddr(tt.addr, tt.port); got != tt.want {
			t.Errorf("udpListenAddr(%q, %d) = %q, want %q", tt.addr, tt.port, got, tt.want)
		}
	}
}

func testPipeline(t *testing.T, w, h int) *vision.Pipeline {
	t.Helper()
	p, err := vision.NewPipeline(vision.Params{
		PixelWidth:    8,
		ImageWidth:    w,
		ImageHeight:   h,
		EdgeThreshold: 22500,
		GapThreshold:  10,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func TestProcessFramesRecordsDecisions(t *testing.T) {
	const w, h = 16, 8
	pipeline := testPipeline(t, w, h)

	frames := make(chan *framestream.Frame, 3)
	for i := 1; i <= 3; i++ {
		frames <- &framestream.Frame{ID: uint32(i), Pixels: testutil.UniformFrame(w, h, 128)}
	}
	close(frames)

	var recs []db.DecisionRecord
	enqueue := func(rec db.DecisionRecord) bool {
		recs = append(recs, rec)
		return true
	}

	n := processFrames(context.Background(), frames, pipeline, "session-1", enqueue)
	if n != 3 {
		t.Fatalf("processed %d frames, want 3", n)
	}
	if len(recs) != 3 {
		t.Fatalf("enqueued %d records, want 3", len(recs))
	}
	for i, rec := range recs {
		if rec.SessionID != "session-1" {
			t.Errorf("record %d session = %q", i, rec.SessionID)
		}
		if rec.FrameIndex != int64(i) {
			t.Errorf("record %d frame index = %d", i, rec.FrameIndex)
		}
	}
}

func TestProcessFramesSkipsBadGeometry(t *testing.T) {
	const w, h = 16, 8
	pipeline := testPipeline(t, w, h)

	frames := make(chan *framestream.Frame, 2)
	frames <- &framestream.Frame{ID: 1, Pixels: make([]uint8, 5)}
	frames <- &framestream.Frame{ID: 2, Pixels: testutil.UniformFrame(w, h, 50)}
	close(frames)

	count := 0
	n := processFrames(context.Background(), frames, pipeline, "s", func(db.DecisionRecord) bool {
		count++
		return true
	})
	if n != 1 || count != 1 {
		t.Errorf("processed=%d enqueued=%d, want 1 and 1", n, count)
	}
}

func TestProcessFramesStopsOnCancel(t *testing.T) {
	pipeline := testPipeline(t, 16, 8)
	frames := make(chan *framestream.Frame)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := processFrames(ctx, frames, pipeline, "s", func(db.DecisionRecord) bool { return true })
	if n != 0 {
		t.Errorf("processed %d frames after cancel, want 0", n)
	}
}

func TestLoadFixtureFrames(t *testing.T) {
	const w, h = 8, 4
	text1, err := pixelmux.EncodeFrame(&framestream.Frame{ID: 1, Pixels: testutil.UniformFrame(w, h, 10)}, w, h)
	if err != nil {
		t.Fatal(err)
	}
	text2, err := pixelmux.EncodeFrame(&framestream.Frame{ID: 2, Pixels: testutil.StepFrame(w, h, 4)}, w, h)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "fixtures.txt")
	if err := os.WriteFile(path, []byte("RDY\n"+text1+"garbage\n"+text2), 0o644); err != nil {
		t.Fatal(err)
	}

	frames, err := loadFixtureFrames(path, w, h)
	if err != nil {
		t.Fatalf("loadFixtureFrames: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("decoded %d frames, want 2", len(frames))
	}
	if frames[0].ID != 1 || frames[1].ID != 2 {
		t.Errorf("frame ids = %d, %d", frames[0].ID, frames[1].ID)
	}

	if _, err := loadFixtureFrames(filepath.Join(t.TempDir(), "missing.txt"), w, h); err == nil {
		t.Error("missing fixtures file accepted")
	}
}

func TestBuildFrameSourceRejectsUnknown(t *testing.T) {
	orig := *source
	defer func() { *source = orig }()
	*source = "carrier-pigeon"

	var wg sync.WaitGroup
	if _, err := buildFrameSource(context.Background(), &wg, config.EmptyTuningConfig()); err == nil {
		t.Fatal("unknown source accepted")
	}
}
