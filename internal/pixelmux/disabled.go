package pixelmux

import (
	"context"
	"net/http"
	"sync"
)

// DisabledPixelMux is a no-op PixelMux implementation used when no camera is
// attached (UDP-only deployments). It allows the server and admin routes to
// run without a real device. It tracks subscribers so their channels can be
// deterministically closed on Unsubscribe() or Close(), allowing readers to
// unblock predictably during shutdown.
type DisabledPixelMux struct {
	mu          sync.Mutex
	subscribers map[string]chan string
	closing     bool
}

func NewDisabledPixelMux() *DisabledPixelMux {
	return &DisabledPixelMux{
		subscribers: make(map[string]chan string),
	}
}

func (d *DisabledPixelMux) Subscribe() (string, chan string) {
	return d.SubscribeBuffered(0)
}

func (d *DisabledPixelMux) SubscribeBuffered(n int) (string, chan string) {
	id := randomID()
	ch := make(chan string, n)

	d.mu.Lock()
	if d.closing {
		// If already closing, return a closed channel so callers don't block.
		close(ch)
		d.mu.Unlock()
		return id, ch
	}
	d.subscribers[id] = ch
	d.mu.Unlock()
	return id, ch
}

func (d *DisabledPixelMux) Unsubscribe(id string) {
	d.mu.Lock()
	if ch, ok := d.subscribers[id]; ok {
		close(ch)
		delete(d.subscribers, id)
	}
	d.mu.Unlock()
}

func (d *DisabledPixelMux) SendCommand(string) error { return nil }

func (d *DisabledPixelMux) Monitor(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }

func (d *DisabledPixelMux) Close() error {
	d.mu.Lock()
	if d.closing {
		d.mu.Unlock()
		return nil
	}
	d.closing = true
	for id, ch := range d.subscribers {
		close(ch)
		delete(d.subscribers, id)
	}
	d.mu.Unlock()
	return nil
}

func (d *DisabledPixelMux) Initialize(width, height int) error { return nil }

func (d *DisabledPixelMux) AttachAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/camera-disabled", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("camera disabled"))
	})
}
