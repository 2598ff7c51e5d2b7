// Package framestream receives grayscale frames over UDP as row packets and
// reassembles them for the vision pipeline. One packet carries one raster
// row, so a frame fits standard MTUs for widths up to ~1400 columns.
package framestream

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Row packet wire format, big-endian:
//
//	offset 0  magic      "LWF1"
//	offset 4  frame id   uint32
//	offset 8  row index  uint16
//	offset 10 row width  uint16
//	offset 12 payload    width bytes, one grayscale sample per column
const (
	HeaderSize = 12
	MaxWidth   = 1400
)

var magic = [4]byte{'L', 'W', 'F', '1'}

var (
	ErrPacketTooShort = errors.New("packet shorter than header")
	ErrBadMagic       = errors.New("bad packet magic")
	ErrLengthMismatch = errors.New("payload length does not match header width")
)

// RowPacket is one decoded row of a frame.
type RowPacket struct {
	FrameID uint32
	Row     uint16
	Pixels  []byte
}

// EncodeRowPacket serializes a row packet. The payload is copied into the
// returned buffer.
func EncodeRowPacket(frameID uint32, row uint16, pixels []byte) ([]byte, error) {
	if len(pixels) == 0 || len(pixels) > MaxWidth {
		return nil, fmt.Errorf("row width %d out of range [1,%d]", len(pixels), MaxWidth)
	}
	buf := make([]byte, HeaderSize+len(pixels))
	copy(buf[0:4], magic[:])
	binary.BigEndian.PutUint32(buf[4:8], frameID)
	binary.BigEndian.PutUint16(buf[8:10], row)
	binary.BigEndian.PutUint16(buf[10:12], uint16(len(pixels)))
	copy(buf[HeaderSize:], pixels)
	return buf, nil
}

// ParseRowPacket decodes a row packet. The returned Pixels slice is a copy;
// callers may retain it after the read buffer is reused.
func ParseRowPacket(data []byte) (RowPacket, error) {
	if len(data) < HeaderSize {
		return RowPacket{}, ErrPacketTooShort
	}
	if [4]byte(data[0:4]) != magic {
		return RowPacket{}, ErrBadMagic
	}
	width := int(binary.BigEndian.Uint16(data[10:12]))
	if len(data) != HeaderSize+width {
		return RowPacket{}, fmt.Errorf("%w: header says %d, got %d payload bytes",
			ErrLengthMismatch, width, len(data)-HeaderSize)
	}

	pixels := make([]byte, width)
	copy(pixels, data[HeaderSize:])
	return RowPacket{
		FrameID: binary.BigEndian.Uint32(data[4:8]),
		Row:     binary.BigEndian.Uint16(data[8:10]),
		Pixels:  pixels,
	}, nil
}
