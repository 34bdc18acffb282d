package window

import (
	"slices"
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"

	"framekit/internal/gpu"
)

func TestConvertModes(t *testing.T) {
	in := []*glfw.VidMode{
		{Width: 800, Height: 600, RedBits: 8, GreenBits: 8, BlueBits: 8, RefreshRate: 60},
		{Width: 1024, Height: 768, RedBits: 5, GreenBits: 6, BlueBits: 5, RefreshRate: 60},
		nil,
		{Width: 1920, Height: 1080, RedBits: 8, GreenBits: 8, BlueBits: 8, RefreshRate: 144},
	}
	want := []gpu.DisplayMode{
		{Width: 800, Height: 600, Format: gpu.FormatRGBA8Unorm, RefreshRate: gpu.Rational{Numerator: 60, Denominator: 1}},
		{Width: 1920, Height: 1080, Format: gpu.FormatRGBA8Unorm, RefreshRate: gpu.Rational{Numerator: 144, Denominator: 1}},
	}
	if got := convertModes(in); !slices.Equal(got, want) {
		t.Errorf("convertModes:\n got %+v\nwant %+v", got, want)
	}
	if got := convertModes(nil); len(got) != 0 {
		t.Errorf("convertModes(nil) = %v", got)
	}
}

func TestKeyCodesDistinct(t *testing.T) {
	keys := []int{KeyEscape, KeyF11, KeyUp, KeyDown}
	seen := make(map[int]bool)
	for _, k := range keys {
		if seen[k] {
			t.Errorf("key code %d repeated", k)
		}
		seen[k] = true
	}
}
