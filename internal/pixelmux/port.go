package pixelmux

import (
	"io"
	"time"
)

// PixelPorter defines the minimal interface needed for a camera port.
// This abstraction enables unit testing without real camera hardware.
type PixelPorter interface {
	io.ReadWriter
	io.Closer
}

// PixelPortMode defines camera port configuration parameters.
type PixelPortMode struct {
	BaudRate int
	DataBits int
	Parity   Parity
	StopBits StopBits
}

// Parity defines serial port parity options.
type Parity int

const (
	NoParity Parity = iota
	OddParity
	EvenParity
)

// StopBits defines serial port stop bit options.
type StopBits int

const (
	OneStopBit StopBits = iota
	TwoStopBits
)

// DefaultPixelPortMode returns the default mode for camera front ends. The
// hex row encoding roughly doubles the pixel rate on the wire, so the
// default baud is as high as the USB bridge supports.
func DefaultPixelPortMode() *PixelPortMode {
	return &PixelPortMode{
		BaudRate: 921600,
		DataBits: 8,
		Parity:   NoParity,
		StopBits: OneStopBit,
	}
}

// PixelPortFactory defines an interface for creating camera ports.
// This abstraction enables dependency injection of port creation.
type PixelPortFactory interface {
	// Open opens a camera port at the specified path with the given mode.
	Open(path string, mode *PixelPortMode) (PixelPorter, error)
}

// TimeoutPixelPorter extends PixelPorter with timeout capabilities.
// This is an optional interface that ports may implement.
type TimeoutPixelPorter interface {
	PixelPorter
	// SetReadTimeout sets the read timeout for the camera port.
	SetReadTimeout(timeout time.Duration) error
}
