package pixelmux

import (
	"go.bug.st/serial"
)

// NewRealPixelMux creates a PixelMux instance backed by a real camera port at
// the given path using the provided serial options.
func NewRealPixelMux(path string, opts PortOptions) (*PixelMux[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return NewPixelMux[serial.Port](port), nil
}
