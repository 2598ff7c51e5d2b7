package vision

import "testing"

func TestLumaConvert(t *testing.T) {
	conv := NewLumaConverter(DefaultParams())

	tests := []struct {
		name    string
		r, g, b uint8
		want    int32
	}{
		// Each channel term truncates independently: 255*77>>8 = 76,
		// 255*150>>8 = 149, 255*29>>8 = 28.
		{"white", 255, 255, 255, 253},
		{"black", 0, 0, 0, 0},
		{"pure red", 255, 0, 0, 76},
		{"pure green", 0, 255, 0, 149},
		{"pure blue", 0, 0, 255, 28},
		{"mid gray", 128, 128, 128, 38 + 75 + 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := conv.Convert(tt.r, tt.g, tt.b); got != tt.want {
				t.Errorf("Convert(%d,%d,%d) = %d, want %d", tt.r, tt.g, tt.b, got, tt.want)
			}
		})
	}
}

func TestLumaSaturates(t *testing.T) {
	params := DefaultParams()
	params.PixelWidth = 6 // max sample value 63
	conv := NewLumaConverter(params)

	if got := conv.Convert(255, 255, 255); got != 63 {
		t.Errorf("saturated luma = %d, want 63", got)
	}
	if got := conv.Convert(10, 10, 10); got != 3+5+1 {
		t.Errorf("in-range luma = %d, want 9", got)
	}
}
