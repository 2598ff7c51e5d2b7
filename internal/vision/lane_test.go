package vision

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// feedRows pushes whole rows of edge bits through the decider, returning the
// decision if one was emitted.
func feedRows(t *testing.T, d *LaneDecider, in *RowBuffer, rows [][]int32) (Decision, bool) {
	t.Helper()
	var (
		dec   Decision
		done  bool
		next  int
		flat  []int32
		limit int
	)
	for _, row := range rows {
		flat = append(flat, row...)
	}
	limit = 10*len(flat) + 100
	for tick := 0; tick < limit; tick++ {
		if next < len(flat) && in.Write(flat[next]) {
			next++
		}
		if d2, ok := d.Step(); ok {
			dec, done = d2, true
		}
		if done && next == len(flat) {
			break
		}
	}
	if next != len(flat) {
		t.Fatalf("decider consumed %d bits, want %d", next, len(flat))
	}
	return dec, done
}

func edgeRow(width int, ones ...int) []int32 {
	row := make([]int32, width)
	for _, c := range ones {
		row[c] = 1
	}
	return row
}

func laneParams(w, h int) Params {
	p := DefaultParams()
	p.ImageWidth = w
	p.ImageHeight = h
	return p
}

func TestClusterCountingWithGap(t *testing.T) {
	const w = 15
	params := laneParams(w, 1)
	in := NewRowBuffer(w)
	d := NewLaneDecider(params, in)

	// Two bursts of 1s. The second burst starts 10 columns after the last
	// 1-bit of the first, exactly the gap threshold, so it opens a second
	// cluster; the adjacent 1s inside each burst do not.
	row := edgeRow(w, 2, 3, 13, 14)
	dec, done := feedRows(t, d, in, [][]int32{row})
	if !done {
		t.Fatal("no decision emitted for a completed frame")
	}

	if dec.LaneCount != 1 {
		t.Errorf("lane count = %d, want 1", dec.LaneCount)
	}
	if dec.LeftBoundary != 2 || dec.RightBoundary != 13 {
		t.Errorf("boundaries = (%d,%d), want (2,13)", dec.LeftBoundary, dec.RightBoundary)
	}
	if dec.CurrentLane != 1 {
		t.Errorf("current lane = %d, want 1", dec.CurrentLane)
	}
	if !dec.Valid {
		t.Error("decision not marked valid")
	}
}

func TestClusterGapBelowThresholdMerges(t *testing.T) {
	const w = 15
	params := laneParams(w, 1)
	in := NewRowBuffer(w)
	d := NewLaneDecider(params, in)

	// The second burst is only 8 columns past the previous 1-bit: one
	// cluster, so zero lanes.
	row := edgeRow(w, 2, 3, 11, 12)
	dec, _ := feedRows(t, d, in, [][]int32{row})
	if dec.LaneCount != 0 {
		t.Errorf("lane count = %d, want 0 (single merged cluster)", dec.LaneCount)
	}
}

func TestHistogramFirstToMaxWins(t *testing.T) {
	const w = 40
	params := laneParams(w, 5)
	params.GapThreshold = 5
	in := NewRowBuffer(w)
	d := NewLaneDecider(params, in)

	// Cluster counts per row: 2,3,3,2,2. Bucket 2 is first to reach every
	// new maximum (1 at row 0, 2 is reached by bucket 3 first at row 2,
	// then bucket 2 breaks the tie at 3 hits on row 4). The snapshot must
	// come from row 4, not from the earlier two-cluster rows.
	rows := [][]int32{
		edgeRow(w, 1, 20),
		edgeRow(w, 2, 12, 22),
		edgeRow(w, 3, 13, 23),
		edgeRow(w, 4, 24),
		edgeRow(w, 5, 25),
	}
	dec, done := feedRows(t, d, in, rows)
	if !done {
		t.Fatal("no decision emitted")
	}

	// Mode bucket is 2 (three rows), lane count 1. The snapshot is row 4's
	// cluster list {5,25}; 25 > 20 midpoint.
	if dec.LaneCount != 1 {
		t.Errorf("lane count = %d, want 1", dec.LaneCount)
	}
	if dec.LeftBoundary != 5 || dec.RightBoundary != 25 {
		t.Errorf("boundaries = (%d,%d), want (5,25)", dec.LeftBoundary, dec.RightBoundary)
	}
}

func TestClusterListTruncation(t *testing.T) {
	const w = 200
	params := laneParams(w, 1)
	in := NewRowBuffer(w)
	d := NewLaneDecider(params, in)

	// 20 clusters, one every 10 columns. Only the first 16 start columns
	// are recorded; the histogram bucket saturates at 15.
	ones := make([]int, 20)
	for i := range ones {
		ones[i] = i * 10
	}
	dec, _ := feedRows(t, d, in, [][]int32{edgeRow(w, ones...)})

	if dec.LaneCount != MaxClustersPerRow-2 {
		t.Errorf("lane count = %d, want %d (capped bucket minus one)", dec.LaneCount, MaxClustersPerRow-2)
	}
	// The truncated snapshot ends at column 150; the scan finds the last
	// recorded entry past the midpoint (100).
	if dec.RightBoundary != 150 || dec.LeftBoundary != 140 {
		t.Errorf("boundaries = (%d,%d), want (140,150)", dec.LeftBoundary, dec.RightBoundary)
	}
	if dec.CurrentLane != 15 {
		t.Errorf("current lane = %d, want 15", dec.CurrentLane)
	}
}

func TestStaleOutputsWhenNothingPastMidpoint(t *testing.T) {
	const w = 20
	params := laneParams(w, 1)
	params.GapThreshold = 4
	in := NewRowBuffer(w)
	d := NewLaneDecider(params, in)

	// Frame 1 establishes boundaries spanning the midpoint.
	dec1, _ := feedRows(t, d, in, [][]int32{edgeRow(w, 3, 15)})
	if dec1.LeftBoundary != 3 || dec1.RightBoundary != 15 {
		t.Fatalf("frame 1 boundaries = (%d,%d), want (3,15)", dec1.LeftBoundary, dec1.RightBoundary)
	}

	// Frame 2 has clusters only left of the midpoint (10): the lane count
	// refreshes but the current-lane fields stay at frame 1's values.
	dec2, _ := feedRows(t, d, in, [][]int32{edgeRow(w, 2, 7)})
	if dec2.LaneCount != 1 {
		t.Errorf("frame 2 lane count = %d, want 1", dec2.LaneCount)
	}
	if dec2.LeftBoundary != 3 || dec2.RightBoundary != 15 || dec2.CurrentLane != 1 {
		t.Errorf("frame 2 lane outputs = (lane=%d l=%d r=%d), want stale (1,3,15)",
			dec2.CurrentLane, dec2.LeftBoundary, dec2.RightBoundary)
	}
}

func TestSnapshotEntryZeroPastMidpoint(t *testing.T) {
	const w = 10
	params := laneParams(w, 1)
	in := NewRowBuffer(w)
	d := NewLaneDecider(params, in)

	// A single cluster whose start column is already past the midpoint:
	// there is no preceding entry, so the lane extends to the left edge.
	dec, _ := feedRows(t, d, in, [][]int32{edgeRow(w, 7)})
	if dec.RightBoundary != 7 || dec.LeftBoundary != 0 || dec.CurrentLane != 0 {
		t.Errorf("lane outputs = (lane=%d l=%d r=%d), want (0,0,7)",
			dec.CurrentLane, dec.LeftBoundary, dec.RightBoundary)
	}
}

func TestDeciderEmitsOncePerFrame(t *testing.T) {
	const w, h = 15, 3
	params := laneParams(w, h)
	in := NewRowBuffer(w)
	d := NewLaneDecider(params, in)

	rows := make([][]int32, h)
	for i := range rows {
		rows[i] = edgeRow(w, 2, 3, 13, 14)
	}
	flat := make([]int32, 0, w*h)
	for _, r := range rows {
		flat = append(flat, r...)
	}

	var pulses int
	var last Decision
	next := 0
	for tick := 0; tick < 20*len(flat); tick++ {
		if next < len(flat) {
			if in.Write(flat[next]) {
				next++
			}
		}
		if dec, ok := d.Step(); ok {
			pulses++
			last = dec
		}
	}

	if pulses != 1 {
		t.Fatalf("valid pulses = %d, want exactly 1", pulses)
	}
	want := Decision{LaneCount: 1, CurrentLane: 1, LeftBoundary: 2, RightBoundary: 13, Valid: true}
	if diff := cmp.Diff(want, last); diff != "" {
		t.Errorf("decision mismatch (-want +got):\n%s", diff)
	}
}

func TestDeciderReset(t *testing.T) {
	const w = 15
	params := laneParams(w, 2)
	in := NewRowBuffer(w)
	d := NewLaneDecider(params, in)

	// Half a frame, then reset.
	for _, b := range edgeRow(w, 2, 13) {
		in.Write(b)
	}
	for tick := 0; tick < 5*w; tick++ {
		d.Step()
	}
	d.Reset()
	in.Reset()

	// A fresh frame after the reset behaves as from power-on.
	rows := [][]int32{edgeRow(w, 2, 3, 13, 14), edgeRow(w, 2, 3, 13, 14)}
	dec, done := feedRows(t, d, in, rows)
	if !done {
		t.Fatal("no decision after reset")
	}
	if dec.LeftBoundary != 2 || dec.RightBoundary != 13 {
		t.Errorf("post-reset boundaries = (%d,%d), want (2,13)", dec.LeftBoundary, dec.RightBoundary)
	}
}
