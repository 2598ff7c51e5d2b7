package pixelmux

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/meridian-data/lanewatch/internal/framestream"
	"github.com/meridian-data/lanewatch/internal/monitoring"
)

// MockPixelPort implements PixelPorter for testing and for running the
// pipeline without camera hardware.
type MockPixelPort struct {
	io.Reader
	io.WriteCloser
}

func (m *MockPixelPort) Write(p []byte) (n int, err error) {
	return m.WriteCloser.Write(p)
}

// NewMockPixelMux creates a PixelMux backed by a mock camera port that
// streams synthetic frames of the given geometry at the given interval.
// Writes to the port (commands) are discarded.
func NewMockPixelMux(width, height int, interval time.Duration) *PixelMux[*MockPixelPort] {
	r, w := io.Pipe()

	mockPort := &MockPixelPort{
		Reader:      r,
		WriteCloser: discardCloser{},
	}

	// generate frames periodically to simulate camera input. Two dark
	// vertical bands on a light road surface give the pipeline real lane
	// boundaries to find.
	go func() {
		defer w.Close()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var id uint32
		for range ticker.C {
			id++
			frame := &framestream.Frame{ID: id, Pixels: syntheticRoad(width, height)}
			text, err := EncodeFrame(frame, width, height)
			if err != nil {
				monitoring.Logf("mock camera: encode failed: %v", err)
				return
			}
			if _, err := io.WriteString(w, text); err != nil {
				return
			}
		}
	}()

	return NewPixelMux(mockPort)
}

// syntheticRoad paints a uniform surface with two dark lane-marking bands at
// one third and two thirds of the width.
func syntheticRoad(width, height int) []uint8 {
	pixels := make([]uint8, width*height)
	for i := range pixels {
		pixels[i] = 200
	}
	for _, center := range []int{width / 3, 2 * width / 3} {
		for row := 0; row < height; row++ {
			for col := center - 1; col <= center+1; col++ {
				if col >= 0 && col < width {
					pixels[row*width+col] = 20
				}
			}
		}
	}
	return pixels
}

type discardCloser struct{}

func (discardCloser) Write(p []byte) (int, error) { return len(p), nil }
func (discardCloser) Close() error                { return nil }

// TestablePixelPort implements PixelPorter with configurable behaviour for
// testing. It provides control over reads, writes, and injected errors.
type TestablePixelPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set
	ReadError error

	// WriteError is returned by the next Write call if set
	WriteError error

	// ShortWrite truncates the next Write to half its length if set
	ShortWrite bool

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	// BlockReads causes Read to block until data is added or Close is called
	BlockReads bool

	readCond *sync.Cond
}

// NewTestablePixelPort creates a new TestablePixelPort for testing.
func NewTestablePixelPort() *TestablePixelPort {
	tp := &TestablePixelPort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
	tp.readCond = sync.NewCond(&tp.mu)
	return tp
}

// Read reads from the read buffer, optionally blocking until data arrives.
func (t *TestablePixelPort) Read(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed {
		return 0, errors.New("camera port closed")
	}

	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}

	if t.BlockReads && t.ReadBuffer.Len() == 0 {
		for !t.Closed && t.ReadBuffer.Len() == 0 {
			t.readCond.Wait()
		}
		if t.Closed {
			return 0, errors.New("camera port closed")
		}
	}

	return t.ReadBuffer.Read(p)
}

// Write writes to the write buffer, optionally simulating failures.
func (t *TestablePixelPort) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed {
		return 0, errors.New("camera port closed")
	}

	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}

	if t.ShortWrite {
		t.ShortWrite = false
		return t.WriteBuffer.Write(p[:len(p)/2])
	}

	return t.WriteBuffer.Write(p)
}

// Close marks the port as closed and wakes any blocked readers.
func (t *TestablePixelPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Closed = true
	t.readCond.Broadcast()

	return t.CloseError
}

// AddReadData adds data to be returned by subsequent Read calls.
func (t *TestablePixelPort) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadBuffer.Write(data)
	t.readCond.Signal()
}

// GetWrittenData returns all data written to the port.
func (t *TestablePixelPort) GetWrittenData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.WriteBuffer.Bytes()
}
