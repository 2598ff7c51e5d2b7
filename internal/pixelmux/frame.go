package pixelmux

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/meridian-data/lanewatch/internal/framestream"
	"github.com/meridian-data/lanewatch/internal/monitoring"
)

// The camera front end streams frames as a line-oriented text protocol:
//
//	FRAME <id> <width> <height>
//	<2*width hex characters>    (repeated height times, top row first)
//	END
//
// Lines that are not part of a frame (command acknowledgements, status
// chatter) may appear between frames and are ignored by the decoder.

const (
	frameHeaderPrefix = "FRAME"
	frameTrailer      = "END"

	// maxLineBytes bounds the scanner buffer. The widest supported row is
	// framestream.MaxWidth pixels at two hex characters each.
	maxLineBytes = 2*framestream.MaxWidth + 64
)

var (
	ErrBadHeader    = fmt.Errorf("malformed frame header")
	ErrBadRow       = fmt.Errorf("malformed row payload")
	ErrBadGeometry  = fmt.Errorf("frame geometry does not match decoder")
	ErrMissingFrame = fmt.Errorf("row or trailer outside a frame")
)

// EncodeFrame renders a frame as protocol text, trailing newline included.
// Width and height describe the layout of f.Pixels.
func EncodeFrame(f *framestream.Frame, width, height int) (string, error) {
	if width <= 0 || height <= 0 || len(f.Pixels) != width*height {
		return "", fmt.Errorf("%w: %d pixels for %dx%d", ErrBadGeometry, len(f.Pixels), width, height)
	}
	var b strings.Builder
	b.Grow((2*width + 1) * (height + 2))
	fmt.Fprintf(&b, "%s %d %d %d\n", frameHeaderPrefix, f.ID, width, height)
	for row := 0; row < height; row++ {
		b.WriteString(hex.EncodeToString(f.Pixels[row*width : (row+1)*width]))
		b.WriteByte('\n')
	}
	b.WriteString(frameTrailer)
	b.WriteByte('\n')
	return b.String(), nil
}

// FrameDecoder assembles protocol lines back into frames. It expects a fixed
// geometry and rejects frames that declare anything else.
type FrameDecoder struct {
	width  int
	height int

	inFrame bool
	id      uint32
	row     int
	pixels  []uint8
}

// NewFrameDecoder creates a decoder for frames of the given geometry.
func NewFrameDecoder(width, height int) *FrameDecoder {
	return &FrameDecoder{width: width, height: height}
}

// Feed consumes one protocol line. It returns a completed frame when the
// trailer of a well-formed frame arrives, and nil otherwise. A malformed
// line aborts the frame in progress; decoding resumes at the next header.
func (d *FrameDecoder) Feed(line string) (*framestream.Frame, error) {
	line = strings.TrimRight(line, "\r")

	switch {
	case strings.HasPrefix(line, frameHeaderPrefix+" "):
		if d.inFrame {
			// A new header mid-frame means the previous frame was truncated.
			d.reset()
		}
		var id uint32
		var w, h int
		if _, err := fmt.Sscanf(line, frameHeaderPrefix+" %d %d %d", &id, &w, &h); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadHeader, line)
		}
		if w != d.width || h != d.height {
			return nil, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrBadGeometry, w, h, d.width, d.height)
		}
		d.inFrame = true
		d.id = id
		d.row = 0
		d.pixels = make([]uint8, d.width*d.height)
		return nil, nil

	case line == frameTrailer:
		if !d.inFrame {
			return nil, ErrMissingFrame
		}
		if d.row != d.height {
			rows := d.row
			d.reset()
			return nil, fmt.Errorf("%w: trailer after %d of %d rows", ErrBadRow, rows, d.height)
		}
		frame := &framestream.Frame{ID: d.id, Pixels: d.pixels}
		d.reset()
		return frame, nil

	case d.inFrame:
		if d.row >= d.height {
			d.reset()
			return nil, fmt.Errorf("%w: extra row", ErrBadRow)
		}
		decoded, err := hex.DecodeString(line)
		if err != nil || len(decoded) != d.width {
			d.reset()
			return nil, fmt.Errorf("%w: %q", ErrBadRow, line)
		}
		copy(d.pixels[d.row*d.width:], decoded)
		d.row++
		return nil, nil

	default:
		// Chatter between frames (acknowledgements etc) is not an error.
		return nil, nil
	}
}

func (d *FrameDecoder) reset() {
	d.inFrame = false
	d.row = 0
	d.pixels = nil
}

// StreamFrames subscribes to the mux and decodes its lines onto the out
// channel until the context is cancelled or the subscription closes. Decode
// errors are logged and counted against stats, not fatal: the camera keeps
// streaming and the next header resynchronizes.
func StreamFrames(ctx context.Context, mux PixelMuxInterface, width, height int, stats *framestream.PacketStats, out chan<- *framestream.Frame) {
	// A frame is height rows plus header and trailer, delivered as one
	// burst; the subscription must buffer all of it because the mux drops
	// lines for subscribers that aren't ready.
	id, lines := mux.SubscribeBuffered(height + 8)
	defer mux.Unsubscribe(id)

	decoder := NewFrameDecoder(width, height)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			frame, err := decoder.Feed(line)
			if err != nil {
				monitoring.Logf("pixelmux: dropping bad line: %v", err)
				if stats != nil {
					stats.AddBadPacket()
				}
				continue
			}
			if frame == nil {
				continue
			}
			if stats != nil {
				stats.AddFrame()
			}
			select {
			case out <- frame:
			default:
				// a slow consumer drops frames rather than stalling the
				// decode loop
				if stats != nil {
					stats.AddDroppedFrame()
				}
			}
		}
	}
}
