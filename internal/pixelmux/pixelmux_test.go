package pixelmux

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	mux := NewPixelMux(NewTestablePixelPort())

	id1, ch1 := mux.Subscribe()
	id2, ch2 := mux.Subscribe()
	if id1 == id2 {
		t.Fatalf("subscriber ids collide: %q", id1)
	}

	mux.Unsubscribe(id1)
	if _, ok := <-ch1; ok {
		t.Error("unsubscribed channel not closed")
	}

	// Unsubscribing an unknown id is a no-op.
	mux.Unsubscribe("nope")

	select {
	case _, ok := <-ch2:
		if !ok {
			t.Error("unrelated channel closed by Unsubscribe")
		}
	default:
	}
	mux.Unsubscribe(id2)
}

func TestSendCommandAppendsNewline(t *testing.T) {
	port := NewTestablePixelPort()
	mux := NewPixelMux(port)

	if err := mux.SendCommand("RUN"); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if err := mux.SendCommand("RST\n"); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}

	if got, want := string(port.GetWrittenData()), "RUN\nRST\n"; got != want {
		t.Errorf("written = %q, want %q", got, want)
	}
}

func TestSendCommandErrors(t *testing.T) {
	port := NewTestablePixelPort()
	mux := NewPixelMux(port)

	wantErr := errors.New("bus fault")
	port.WriteError = wantErr
	if err := mux.SendCommand("RUN"); !errors.Is(err, wantErr) {
		t.Errorf("write error = %v, want %v", err, wantErr)
	}

	port.ShortWrite = true
	if err := mux.SendCommand("RUN"); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("short write error = %v, want ErrWriteFailed", err)
	}
}

func TestInitializeSendsStartSequence(t *testing.T) {
	port := NewTestablePixelPort()
	mux := NewPixelMux(port)

	if err := mux.Initialize(416, 416); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	got := string(port.GetWrittenData())
	for _, want := range []string{"RST\n", "GEO 416 416\n", "FMT GRAY8\n", "ENC HEX\n", "RUN\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("start sequence missing %q in %q", want, got)
		}
	}
}

func TestMonitorFansOutLines(t *testing.T) {
	port := NewTestablePixelPort()
	port.BlockReads = true
	mux := NewPixelMux(port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- mux.Monitor(ctx) }()

	id, lines := mux.Subscribe()
	defer mux.Unsubscribe(id)

	// The fan-out drops lines for subscribers that aren't ready, so keep a
	// reader parked before the data arrives.
	got := make(chan string, 1)
	go func() { got <- <-lines }()

	deadline := time.After(5 * time.Second)
	for {
		port.AddReadData([]byte("OK\n"))
		select {
		case line := <-got:
			if line != "OK" {
				t.Fatalf("line = %q, want OK", line)
			}
			cancel()
			if err := <-done; err != context.Canceled {
				t.Fatalf("Monitor returned %v, want context.Canceled", err)
			}
			return
		case <-deadline:
			t.Fatal("no line fanned out")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// TestSubscribeBufferedAbsorbsBurst sends a whole frame's worth of lines in
// one read burst with nobody draining the subscription; every line must
// survive the non-blocking fan-out.
func TestSubscribeBufferedAbsorbsBurst(t *testing.T) {
	port := NewTestablePixelPort()
	port.BlockReads = true
	mux := NewPixelMux(port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	id, lines := mux.SubscribeBuffered(4)
	defer mux.Unsubscribe(id)

	port.AddReadData([]byte("FRAME 1 2 2\n0001\n0203\nEND\n"))

	want := []string{"FRAME 1 2 2", "0001", "0203", "END"}
	for i, w := range want {
		select {
		case got := <-lines:
			if got != w {
				t.Fatalf("line %d = %q, want %q", i, got, w)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("line %d never arrived; burst was dropped", i)
		}
	}
}

func TestCloseClosesSubscribersAndPort(t *testing.T) {
	port := NewTestablePixelPort()
	mux := NewPixelMux(port)

	_, ch := mux.Subscribe()
	if err := mux.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("subscriber channel not closed by Close")
	}
	if !port.Closed {
		t.Error("port not closed by Close")
	}
}

func TestDisabledPixelMux(t *testing.T) {
	mux := NewDisabledPixelMux()

	_, ch := mux.Subscribe()
	if err := mux.SendCommand("RUN"); err != nil {
		t.Errorf("SendCommand: %v", err)
	}
	if err := mux.Initialize(4, 4); err != nil {
		t.Errorf("Initialize: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mux.Monitor(ctx) }()
	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Monitor returned %v, want context.Canceled", err)
	}

	if err := mux.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("subscriber channel not closed by Close")
	}

	// Subscribing after Close yields an already-closed channel.
	_, ch2 := mux.Subscribe()
	if _, ok := <-ch2; ok {
		t.Error("post-close subscription channel not closed")
	}
}

func TestPortOptionsNormalize(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if opts.BaudRate != 921600 || opts.DataBits != 8 || opts.StopBits != 1 || opts.Parity != "N" {
		t.Errorf("defaults = %+v", opts)
	}

	if _, err := (PortOptions{DataBits: 9}).Normalize(); err == nil {
		t.Error("data bits 9 accepted")
	}
	if _, err := (PortOptions{StopBits: 3}).Normalize(); err == nil {
		t.Error("stop bits 3 accepted")
	}
	if _, err := (PortOptions{Parity: "Q"}).Normalize(); err == nil {
		t.Error("parity Q accepted")
	}

	opts, err = PortOptions{Parity: "even"}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if opts.Parity != "E" {
		t.Errorf("parity = %q, want E", opts.Parity)
	}
}

func TestSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 115200, StopBits: 2, Parity: "O"}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode: %v", err)
	}
	if mode.BaudRate != 115200 || mode.DataBits != 8 {
		t.Errorf("mode = %+v", mode)
	}
}
