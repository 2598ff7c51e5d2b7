package vision

import (
	"errors"
	"fmt"
)

// ErrPipelineStalled is returned by ProcessFrame when the pipeline stops
// making progress before emitting a frame decision. With a well-formed frame
// this indicates a wiring bug, not a data condition; the streaming design
// has no timeout and a permanently blocked consumer stalls it by design.
var ErrPipelineStalled = errors.New("vision: pipeline stalled before frame decision")

// Pipeline is the fixed stage topology: grayscale pixels flow through the
// smoothing stage, the gradient stage and the lane decider, connected by
// bounded row-width buffers. One Tick advances every stage exactly once, in
// consumer-to-producer order so that space freed downstream is usable in the
// same tick.
type Pipeline struct {
	params  Params
	smooth  *ConvStage
	grad    *ConvStage
	decider *LaneDecider
	sbuf    *RowBuffer // smoothed pixels between the two convolution stages
	ebuf    *RowBuffer // binary edge stream into the decider
}

// NewPipeline validates params and builds the stage topology.
func NewPipeline(params Params) (*Pipeline, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("vision: invalid params: %w", err)
	}
	sbuf := NewRowBuffer(params.ImageWidth)
	ebuf := NewRowBuffer(params.ImageWidth)
	return &Pipeline{
		params:  params,
		smooth:  NewSmoothingStage(params, sbuf),
		grad:    NewGradientStage(params, ebuf, EdgeClassifier{Threshold: params.EdgeThreshold}),
		decider: NewLaneDecider(params, ebuf),
		sbuf:    sbuf,
		ebuf:    ebuf,
	}, nil
}

// Params returns the pipeline's instantiation-time configuration.
func (p *Pipeline) Params() Params { return p.params }

// Tick advances the whole pipeline by one step. When hasPixel is true the
// pixel is offered to the head of the pipeline under the valid/ready
// handshake; accepted reports whether it was taken and the caller must
// re-offer a refused pixel next tick. dec is meaningful only when done is
// true, which holds for exactly one tick per completed frame.
func (p *Pipeline) Tick(pixel int32, hasPixel bool) (accepted bool, dec Decision, done bool) {
	dec, done = p.decider.Step()
	p.grad.Step()
	if !p.sbuf.Empty() && p.grad.CanAccept() {
		v, _ := p.sbuf.Read()
		p.grad.Offer(v)
	}
	p.smooth.Step()
	if hasPixel {
		accepted = p.smooth.Offer(pixel & p.params.PixelMax())
	}
	return accepted, dec, done
}

// ProcessFrame streams a whole raster-ordered grayscale frame through the
// pipeline and returns its decision. The pipeline is left ready for the next
// frame.
func (p *Pipeline) ProcessFrame(frame []uint8) (Decision, error) {
	want := p.params.ImageWidth * p.params.ImageHeight
	if len(frame) != want {
		return Decision{}, fmt.Errorf("vision: frame has %d samples, want %d", len(frame), want)
	}

	// Every pixel traverses three stages with at most a few ticks of
	// buffering between them; this bound is generous enough that hitting
	// it means the pipeline is wedged.
	maxTicks := 10*want + 64*p.params.ImageWidth + 1024

	next := 0
	for tick := 0; tick < maxTicks; tick++ {
		hasPixel := next < len(frame)
		var px int32
		if hasPixel {
			px = int32(frame[next])
		}
		accepted, dec, done := p.Tick(px, hasPixel)
		if accepted {
			next++
		}
		if done {
			return dec, nil
		}
	}
	return Decision{}, ErrPipelineStalled
}

// Reset synchronously returns every stage, buffer and counter to its initial
// state, abandoning any partially processed frame. No decision is emitted
// for the aborted frame.
func (p *Pipeline) Reset() {
	p.smooth.Reset()
	p.grad.Reset()
	p.decider.Reset()
	p.sbuf.Reset()
	p.ebuf.Reset()
}
