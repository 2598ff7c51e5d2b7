// Package vision implements the streaming lane detection pipeline: a
// bounded-memory 3x3 convolution chain (box smoothing followed by Sobel
// gradients) over a raster-ordered grayscale pixel stream, an edge
// classifier, and a per-frame lane decision engine.
//
// The pipeline never holds a full frame in memory. Each convolution stage
// keeps exactly three row buffers whose previous/current/next roles rotate
// once per row, so the working set is a handful of image rows regardless of
// frame height. Stages are connected by bounded single-producer
// single-consumer row buffers with strict backpressure: a stage that cannot
// write downstream simply does not advance that tick, and nothing is ever
// dropped.
//
// All components are single-threaded and tick-driven. The Pipeline type owns
// the fixed topology and advances every stage exactly once per Tick call;
// callers that want whole-frame convenience can use Pipeline.ProcessFrame.
package vision
