package vision

// Fixed-point luma weights: 77/256, 150/256 and 29/256 approximate the
// 0.299/0.587/0.114 BT.601 coefficients. Each channel term is truncated
// independently before summing, matching the capture front end.
const (
	lumaWeightR = 77
	lumaWeightG = 150
	lumaWeightB = 29
	lumaShift   = 8
)

// LumaConverter turns RGB samples into the grayscale stream the pipeline
// consumes. Arithmetic overflow saturates to the maximum representable pixel
// value instead of wrapping.
type LumaConverter struct {
	max int32
}

// NewLumaConverter builds a converter clamping to the pixel width in params.
func NewLumaConverter(params Params) LumaConverter {
	return LumaConverter{max: params.PixelMax()}
}

// Convert computes the fixed-point luma of one RGB pixel.
func (c LumaConverter) Convert(r, g, b uint8) int32 {
	y := int32(uint32(r)*lumaWeightR>>lumaShift) +
		int32(uint32(g)*lumaWeightG>>lumaShift) +
		int32(uint32(b)*lumaWeightB>>lumaShift)
	if y > c.max {
		y = c.max
	}
	return y
}
