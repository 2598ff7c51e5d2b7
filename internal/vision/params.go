package vision

import "fmt"

// Defaults for the pipeline geometry and thresholds. Image dimensions match
// the 416x416 rasters produced by the capture front end.
const (
	DefaultPixelWidth    = 8
	DefaultImageWidth    = 416
	DefaultImageHeight   = 416
	DefaultEdgeThreshold = 22500 // approximately 150^2 in gradient-magnitude units
	DefaultGapThreshold  = 10    // columns between edge pixels before a new cluster starts
)

// MaxClustersPerRow bounds the per-row cluster list. Rows that produce more
// clusters than this silently drop the excess.
const MaxClustersPerRow = 16

// Params holds the instantiation-time configuration of a Pipeline. None of
// the fields are runtime-mutable; changing geometry requires building a new
// Pipeline.
type Params struct {
	// PixelWidth is the number of bits per grayscale sample. Samples are
	// masked to this width on ingest.
	PixelWidth int

	// ImageWidth and ImageHeight are the raster dimensions in pixels.
	ImageWidth  int
	ImageHeight int

	// EdgeThreshold is compared against Gx^2 + Gy^2.
	EdgeThreshold int64

	// GapThreshold is the column distance at or beyond which a 1-bit starts
	// a new cluster instead of extending the previous one.
	GapThreshold int

	// LegacySmoothing selects the fixed 57/512 smoothing constant applied
	// uniformly regardless of how many neighbors contribute to the sum.
	// This reproduces the original fixed-point hardware bit-for-bit but
	// makes boundary rows and columns slightly darker than the interior.
	// When false the stage divides by the live neighbor count, which is an
	// exact box average.
	LegacySmoothing bool
}

// DefaultParams returns the standard pipeline configuration.
func DefaultParams() Params {
	return Params{
		PixelWidth:    DefaultPixelWidth,
		ImageWidth:    DefaultImageWidth,
		ImageHeight:   DefaultImageHeight,
		EdgeThreshold: DefaultEdgeThreshold,
		GapThreshold:  DefaultGapThreshold,
	}
}

// PixelMax returns the largest representable sample value.
func (p Params) PixelMax() int32 {
	return int32(1)<<p.PixelWidth - 1
}

// Validate checks that the parameters describe a usable pipeline.
func (p Params) Validate() error {
	if p.PixelWidth < 1 || p.PixelWidth > 16 {
		return fmt.Errorf("pixel width must be in [1,16], got %d", p.PixelWidth)
	}
	if p.ImageWidth < 3 {
		return fmt.Errorf("image width must be at least 3, got %d", p.ImageWidth)
	}
	if p.ImageHeight < 1 {
		return fmt.Errorf("image height must be at least 1, got %d", p.ImageHeight)
	}
	if p.EdgeThreshold < 0 {
		return fmt.Errorf("edge threshold must be non-negative, got %d", p.EdgeThreshold)
	}
	if p.GapThreshold < 1 {
		return fmt.Errorf("gap threshold must be at least 1, got %d", p.GapThreshold)
	}
	return nil
}
