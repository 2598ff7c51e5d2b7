package framestream

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/meridian-data/lanewatch/internal/testutil"
)

func TestListenerReassemblesOverLoopback(t *testing.T) {
	const w, h = 16, 4

	l := NewUDPListener(UDPListenerConfig{
		Address: "127.0.0.1:0",
		Width:   w,
		Height:  h,
	})

	// Bind explicitly so the test knows the ephemeral port before Start.
	addr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	probe, err := net.ListenUDP("udp", addr)
	if err != nil {
		t.Fatal(err)
	}
	port := probe.LocalAddr().(*net.UDPAddr).Port
	probe.Close()
	l.address = net.JoinHostPort("127.0.0.1", strconv.Itoa(port))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Start(ctx) }()

	conn, err := net.Dial("udp", l.LocalAddr())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	want := testutil.StripeFrame(w, h, 3, 5)
	send := func() {
		for row := 0; row < h; row++ {
			pkt, err := EncodeRowPacket(1, uint16(row), rowOf(want, w, row))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := conn.Write(pkt); err != nil {
				// A connected-UDP write before the listener's socket is
				// up surfaces an ICMP refusal; the outer loop resends.
				t.Logf("retrying after send error: %v", err)
				return
			}
		}
	}

	// UDP sends can race the listener's socket setup; retry the whole
	// frame until it lands or the deadline passes.
	deadline := time.After(5 * time.Second)
	for {
		send()
		select {
		case frame := <-l.Frames():
			if frame.ID != 1 {
				t.Fatalf("frame id = %d, want 1", frame.ID)
			}
			if diff := cmp.Diff(want, frame.Pixels); diff != "" {
				t.Fatalf("pixels mismatch (-want +got):\n%s", diff)
			}
			cancel()
			if err := <-errCh; err != context.Canceled {
				t.Fatalf("Start returned %v, want context.Canceled", err)
			}
			return
		case <-deadline:
			t.Fatal("no frame received over loopback")
		case <-time.After(50 * time.Millisecond):
			// resend
		}
	}
}

func TestListenerStartFailsOnBadAddress(t *testing.T) {
	l := NewUDPListener(UDPListenerConfig{Address: "not-an-address", Width: 4, Height: 4})
	if err := l.Start(context.Background()); err == nil {
		t.Fatal("Start succeeded on unresolvable address")
	}
}
