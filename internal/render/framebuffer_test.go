package render

import (
	"image/color"
	"testing"
)

func TestFillRectClips(t *testing.T) {
	fb := NewFrameBuffer(4, 3)
	red := color.RGBA{0xFF, 0, 0, 0xFF}
	fb.FillRect(-2, -2, 4, 4, red)
	if got := fb.At(1, 1); got != red {
		t.Fatalf("At(1,1) = %v, want %v", got, red)
	}
	if got := fb.At(2, 2); got != (color.RGBA{}) {
		t.Fatalf("At(2,2) = %v, want untouched", got)
	}
	fb.FillRect(10, 10, 5, 5, red)
}

func TestBlendRect(t *testing.T) {
	fb := NewFrameBuffer(2, 1)
	fb.Clear(color.RGBA{0, 0, 0, 0xFF})
	fb.BlendRect(0, 0, 1, 1, color.RGBA{0xFF, 0xFF, 0xFF, 0x80})
	got := fb.At(0, 0)
	if got.R != 0x80 || got.G != 0x80 || got.B != 0x80 || got.A != 0xFF {
		t.Fatalf("blended = %v", got)
	}
	if fb.At(1, 0) != (color.RGBA{0, 0, 0, 0xFF}) {
		t.Fatalf("neighbour changed: %v", fb.At(1, 0))
	}

	fb.BlendRect(0, 0, 2, 1, color.RGBA{0x10, 0x20, 0x30, 0})
	if fb.At(1, 0) != (color.RGBA{0, 0, 0, 0xFF}) {
		t.Fatalf("transparent blend changed pixels")
	}
	opaque := color.RGBA{0x10, 0x20, 0x30, 0xFF}
	fb.BlendRect(0, 0, 2, 1, opaque)
	if fb.At(1, 0) != opaque {
		t.Fatalf("opaque blend = %v", fb.At(1, 0))
	}
}

func TestHLineDashed(t *testing.T) {
	fb := NewFrameBuffer(10, 1)
	c := color.RGBA{1, 2, 3, 0xFF}
	fb.HLine(0, 0, 10, 1, 2, c)
	want := []bool{true, true, false, false, true, true, false, false, true, true}
	for x, on := range want {
		if (fb.At(x, 0) == c) != on {
			t.Fatalf("pixel %d on=%v", x, !on)
		}
	}
}
