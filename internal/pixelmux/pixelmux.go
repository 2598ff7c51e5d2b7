// Pixelmux provides an abstraction over a serial-attached camera front end
// with the ability for multiple clients to subscribe to protocol lines from
// the device and send control commands to a single port.
package pixelmux

import (
	"bufio"
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"tailscale.com/tsweb"
)

var ErrWriteFailed = fmt.Errorf("failed to write to camera port")

// PixelMux is a generic camera port multiplexer that allows multiple clients
// to subscribe to protocol lines from a single device.
type PixelMux[T PixelPorter] struct {
	port         T
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	commandMu    sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// PixelMuxInterface defines the interface for the PixelMux type.
type PixelMuxInterface interface {
	// Subscribe creates a new channel for receiving protocol lines from the
	// camera port. The channel ID is used to identify the unique channel when
	// unsubscribing.
	Subscribe() (string, chan string)
	// SubscribeBuffered creates a subscription whose channel buffers up to n
	// lines. The fan-out never blocks on a subscriber, so consumers that
	// must see every line of a burst (the frame decoder) need a buffer
	// covering the burst.
	SubscribeBuffered(n int) (string, chan string)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// SendCommand writes the provided command to the camera port.
	SendCommand(string) error
	// Monitor reads lines from the camera port and sends them to the
	// appropriate channels.
	Monitor(context.Context) error
	// Close closes all subscribed channels and closes the camera port.
	Close() error

	Initialize(width, height int) error

	// AttachAdminRoutes attaches admin debugging endpoints to the given HTTP
	// mux served at /debug/. These routes are accessible only over
	// localhost/via Tailscale and are not publicly accessible.
	AttachAdminRoutes(*http.ServeMux)
}

// NewPixelMux creates a PixelMux instance backed by a camera port.
func NewPixelMux[T PixelPorter](port T) *PixelMux[T] {
	return &PixelMux[T]{
		port:         port,
		subscribers:  make(map[string]chan string),
		subscriberMu: sync.Mutex{},
		commandMu:    sync.Mutex{},
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (p *PixelMux[T]) Subscribe() (string, chan string) {
	return p.SubscribeBuffered(0)
}

// SubscribeBuffered registers a subscriber whose channel holds up to n lines.
// Frame rows arrive back to back in a single read burst, so the decoder
// subscribes with a buffer covering a whole frame; lossy consumers like the
// SSE tail use Subscribe.
func (p *PixelMux[T]) SubscribeBuffered(n int) (string, chan string) {
	id := randomID()
	ch := make(chan string, n)
	p.subscriberMu.Lock()
	defer p.subscriberMu.Unlock()
	p.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the pixel mux.
func (p *PixelMux[T]) Unsubscribe(id string) {
	p.subscriberMu.Lock()
	defer p.subscriberMu.Unlock()
	if ch, ok := p.subscribers[id]; ok {
		close(ch)
		delete(p.subscribers, id)
	}
}

// Initialize configures the camera for the pipeline's geometry and starts
// streaming. The front end acknowledges each command with an "OK" line on
// the same stream; acknowledgements pass through to subscribers unparsed.
func (p *PixelMux[T]) Initialize(width, height int) error {
	for _, command := range []string{
		"RST",       // reset the front end to defaults
		fmt.Sprintf("GEO %d %d", width, height), // set frame geometry
		"FMT GRAY8", // 8-bit grayscale output
		"ENC HEX",   // hex row encoding over the line protocol
		"RUN",       // start streaming frames
	} {
		if err := p.SendCommand(command); err != nil {
			return fmt.Errorf("failed to send start command %q: %w", command, err)
		}
	}

	return nil
}

// SendCommand sends a command to the camera port.
func (p *PixelMux[T]) SendCommand(command string) error {
	p.commandMu.Lock()
	defer p.commandMu.Unlock()
	if !bytes.HasSuffix([]byte(command), []byte("\n")) {
		command += "\n" // ensure command ends with a newline
	}
	n, err := p.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor monitors the camera port for protocol lines and sends them to
// subscribers.
func (p *PixelMux[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(p.port)
	scan.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// start a goroutine to read from the camera port & send any lines that
	// are scanned to lineChan, and any errors to scanErrChan.
	//
	// the blocking scan.Scan will not interfere with our outer loop awaiting
	// lines & context cancellation.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		// check if the context is done
		// and exit the loop if so
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			// if the channel is closed, we're done reading from the port
			if !ok {
				if err := scan.Err(); err != nil {
					return err
				}
				return nil
			}
			// Check if we're closing
			p.closingMu.Lock()
			if p.closing {
				p.closingMu.Unlock()
				return nil
			}
			p.closingMu.Unlock()

			// otherwise take a lock on the subscriber map
			p.subscriberMu.Lock()
			for _, ch := range p.subscribers {
				select {
				case ch <- line:
				default:
					// if the channel is full/blocking skip so as not to block the outer loop
				}
			}
			p.subscriberMu.Unlock()
		}
	}
}

func (p *PixelMux[T]) Close() error {
	p.closingMu.Lock()
	p.closing = true
	p.closingMu.Unlock()

	p.subscriberMu.Lock()
	defer p.subscriberMu.Unlock()
	for id, ch := range p.subscribers {
		close(ch)
		delete(p.subscribers, id)
	}
	return p.port.Close()
}

func (p *PixelMux[T]) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	// API endpoint to write a command to the camera port
	debug.HandleSilentFunc("send-command-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		command := strings.TrimSpace(r.FormValue("command"))
		if command == "" {
			http.Error(w, "Missing command", http.StatusBadRequest)
			return
		}
		if err := p.SendCommand(command); err != nil {
			http.Error(w, "Failed to write command", http.StatusInternalServerError)
			return
		}
		io.WriteString(w, fmt.Sprintf("Wrote command %q to camera port", command))
	})

	// API endpoint to issue Server-Side Events (SSE) in response to lines
	// coming from the camera port. Row payloads are long; the browser tail
	// is mostly useful for headers and acknowledgements.
	debug.HandleSilentFunc("tail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

		id, c := p.Subscribe()
		defer p.Unsubscribe(id)

		// Send initial ping to establish connection
		w.Write([]byte(": ping\n\n"))
		w.(http.Flusher).Flush()

		for {
			select {
			case payload, ok := <-c:
				if !ok {
					// Channel closed, exit gracefully
					return
				}
				_, err := w.Write([]byte(fmt.Sprintf("data: %s\n\n", payload)))
				if err != nil {
					return
				}
				w.(http.Flusher).Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
}
