package timeutil

import (
	"testing"
	"time"
)

func TestMockClockAdvance(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if !clock.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", clock.Now(), start)
	}

	clock.Advance(90 * time.Second)
	if got := clock.Since(start); got != 90*time.Second {
		t.Errorf("Since(start) = %v, want 90s", got)
	}
}

func TestMockClockSleepRecords(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))

	clock.Sleep(time.Second)
	clock.Sleep(250 * time.Millisecond)

	got := clock.Sleeps()
	if len(got) != 2 || got[0] != time.Second || got[1] != 250*time.Millisecond {
		t.Errorf("Sleeps() = %v", got)
	}
}

func TestMockTickerFiresOnAdvance(t *testing.T) {
	clock := NewMockClock(time.Unix(1000, 0))
	ticker := clock.NewTicker(time.Minute)
	defer ticker.Stop()

	select {
	case <-ticker.C():
		t.Fatal("ticker fired before the interval elapsed")
	default:
	}

	clock.Advance(time.Minute)
	select {
	case <-ticker.C():
	default:
		t.Fatal("ticker did not fire after a full interval")
	}

	// A stopped ticker stays quiet.
	ticker.Stop()
	clock.Advance(10 * time.Minute)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestMockTickerTrigger(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	ticker := clock.NewTicker(time.Hour).(*MockTicker)

	at := time.Unix(42, 0)
	ticker.Trigger(at)
	select {
	case got := <-ticker.C():
		if !got.Equal(at) {
			t.Errorf("tick time = %v, want %v", got, at)
		}
	default:
		t.Fatal("no tick after Trigger")
	}
}

func TestRealClockTicker(t *testing.T) {
	var clock RealClock
	ticker := clock.NewTicker(time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker never fired")
	}
}
