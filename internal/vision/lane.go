package vision

// Decision is the per-frame output of the lane decision engine. It is
// emitted with Valid set for exactly one tick per completed frame.
//
// When no boundary in the frame's snapshot crosses the image midpoint the
// current-lane fields keep their previous values (stale output); LaneCount
// is still refreshed from the frame's histogram.
type Decision struct {
	LaneCount     int  `json:"lane_count"`
	CurrentLane   int  `json:"current_lane"`
	LeftBoundary  int  `json:"left_boundary"`
	RightBoundary int  `json:"right_boundary"`
	Valid         bool `json:"valid"`
}

// LaneDecider consumes the binary edge stream in raster order, clusters edge
// pixels per row, votes rows into a cluster-count histogram and derives one
// Decision per frame.
//
// Clustering: a 1-bit starts a new cluster when it is the first of its row
// or at least GapThreshold columns from the previous 1-bit; closer 1-bits
// extend the running cluster. A row records at most MaxClustersPerRow
// cluster start columns; the excess is silently dropped.
//
// Voting: when a row's histogram bucket newly exceeds the running maximum,
// that row's cluster list becomes the frame's boundary snapshot. Later rows
// that merely tie the maximum do not replace it (first to reach the maximum
// wins).
type LaneDecider struct {
	width  int
	height int
	gap    int
	in     *RowBuffer
	fm     fillMachine

	col          int
	row          int
	clusters     []int
	clusterCount int
	lastOne      int // column of the most recent 1-bit this row, -1 when none

	hist       [MaxClustersPerRow]int
	histMax    int
	modeBucket int
	snapshot   []int

	// Current-lane outputs persist across frames so that a frame with no
	// boundary past the midpoint reports the previous lane position.
	laneCount   int
	currentLane int
	left        int
	right       int
}

// NewLaneDecider creates a decider reading edge bits from in.
func NewLaneDecider(params Params, in *RowBuffer) *LaneDecider {
	d := &LaneDecider{
		width:    params.ImageWidth,
		height:   params.ImageHeight,
		gap:      params.GapThreshold,
		in:       in,
		clusters: make([]int, 0, MaxClustersPerRow),
		snapshot: make([]int, 0, MaxClustersPerRow),
		lastOne:  -1,
	}
	d.fm = fillMachine{
		activate:   func() bool { return !d.in.Empty() },
		deactivate: func() bool { return d.in.Len() <= 1 },
	}
	return d
}

// Step advances the decider by one tick, consuming at most one edge bit.
// done is true for exactly the tick on which a frame decision is emitted.
func (d *LaneDecider) Step() (dec Decision, done bool) {
	if !d.fm.step() {
		return Decision{}, false
	}
	bit, ok := d.in.Read()
	if !ok {
		return Decision{}, false
	}
	return d.consume(bit)
}

func (d *LaneDecider) consume(bit int32) (Decision, bool) {
	if bit != 0 {
		if d.lastOne < 0 || d.col-d.lastOne >= d.gap {
			d.clusterCount++
			if len(d.clusters) < MaxClustersPerRow {
				d.clusters = append(d.clusters, d.col)
			}
		}
		d.lastOne = d.col
	}
	if d.col < d.width-1 {
		d.col++
		return Decision{}, false
	}
	d.endRow()
	if d.row < d.height {
		return Decision{}, false
	}
	return d.endFrame(), true
}

func (d *LaneDecider) endRow() {
	bucket := d.clusterCount
	if bucket >= MaxClustersPerRow {
		bucket = MaxClustersPerRow - 1
	}
	d.hist[bucket]++
	if d.hist[bucket] > d.histMax {
		d.histMax = d.hist[bucket]
		d.modeBucket = bucket
		d.snapshot = append(d.snapshot[:0], d.clusters...)
	}
	d.col = 0
	d.clusterCount = 0
	d.clusters = d.clusters[:0]
	d.lastOne = -1
	d.row++
}

func (d *LaneDecider) endFrame() Decision {
	// Lane markings produce one more edge cluster than the lanes between
	// them, hence the -1. A frame whose mode is zero clusters clamps to
	// zero lanes.
	d.laneCount = d.modeBucket - 1
	if d.laneCount < 0 {
		d.laneCount = 0
	}

	mid := d.width / 2
	for i := len(d.snapshot) - 1; i >= 0; i-- {
		if d.snapshot[i] > mid {
			d.right = d.snapshot[i]
			if i > 0 {
				d.left = d.snapshot[i-1]
			} else {
				// No entry precedes the boundary; the lane extends to
				// the left image edge.
				d.left = 0
			}
			d.currentLane = i
			break
		}
	}

	dec := Decision{
		LaneCount:     d.laneCount,
		CurrentLane:   d.currentLane,
		LeftBoundary:  d.left,
		RightBoundary: d.right,
		Valid:         true,
	}
	d.resetFrame()
	return dec
}

// resetFrame clears per-frame state while keeping the stale current-lane
// outputs.
func (d *LaneDecider) resetFrame() {
	d.row = 0
	for i := range d.hist {
		d.hist[i] = 0
	}
	d.histMax = 0
	d.modeBucket = 0
	d.snapshot = d.snapshot[:0]
}

// Reset synchronously restores the decider's initial state, including the
// otherwise sticky current-lane outputs.
func (d *LaneDecider) Reset() {
	d.resetFrame()
	d.col = 0
	d.clusterCount = 0
	d.clusters = d.clusters[:0]
	d.lastOne = -1
	d.laneCount = 0
	d.currentLane = 0
	d.left = 0
	d.right = 0
	d.fm.reset()
}
