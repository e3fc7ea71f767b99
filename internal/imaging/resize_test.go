package imaging

import (
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func samePixels(t *testing.T, a, b image.Image) {
	t.Helper()
	if a.Bounds() != b.Bounds() {
		t.Fatalf("bounds differ: %v vs %v", a.Bounds(), b.Bounds())
	}
	bo := a.Bounds()
	for y := bo.Min.Y; y < bo.Max.Y; y++ {
		for x := bo.Min.X; x < bo.Max.X; x++ {
			ar, ag, ab, aa := a.At(x, y).RGBA()
			br, bg, bb, ba := b.At(x, y).RGBA()
			if ar != br || ag != bg || ab != bb || aa != ba {
				t.Fatalf("pixel (%d,%d) differs", x, y)
			}
		}
	}
}

func TestResizeWithPaddingDimensions(t *testing.T) {
	img := solid(100, 50, color.NRGBA{R: 200, A: 255})
	out := ResizeWithPadding(img, 512, 512, color.Black)
	if out.Bounds().Dx() != 512 || out.Bounds().Dy() != 512 {
		t.Fatalf("bounds = %v, want 512x512", out.Bounds())
	}
}

func TestResizeWithPaddingPadsWithFill(t *testing.T) {
	// A 2:1 image letterboxed into a square leaves fill bands above and below.
	img := solid(100, 50, color.NRGBA{R: 255, A: 255})
	out := ResizeWithPadding(img, 512, 512, color.Black)

	r, g, b, _ := out.At(256, 10).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("top band not fill color: (%d,%d,%d)", r, g, b)
	}
	r, _, _, _ = out.At(256, 256).RGBA()
	if r == 0 {
		t.Fatalf("center should hold scaled content")
	}
}

func TestResizeWithPaddingContentCentered(t *testing.T) {
	img := solid(50, 100, color.NRGBA{G: 255, A: 255})
	out := ResizeWithPadding(img, 512, 512, color.Black)

	// Content width is 256, centered: columns [128, 384).
	_, g, _, _ := out.At(100, 256).RGBA()
	if g != 0 {
		t.Fatalf("left band should be fill")
	}
	_, g, _, _ = out.At(256, 256).RGBA()
	if g == 0 {
		t.Fatalf("center column should hold content")
	}
}

func TestResizeWithPaddingIdempotent(t *testing.T) {
	img := solid(300, 200, color.NRGBA{R: 10, G: 120, B: 230, A: 255})
	once := ResizeWithPadding(img, 512, 512, color.Black)
	twice := ResizeWithPadding(once, 512, 512, color.Black)
	samePixels(t, once, twice)
}

func TestResizeWithPaddingExactFitIsCopy(t *testing.T) {
	img := solid(512, 512, color.NRGBA{R: 33, G: 44, B: 55, A: 255})
	out := ResizeWithPadding(img, 512, 512, color.Black)
	samePixels(t, img, out)
}

func TestRotate90CWSwapsDimensions(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	out := rotate90CW(img)
	if out.Bounds().Dx() != 2 || out.Bounds().Dy() != 4 {
		t.Fatalf("bounds = %v, want 2x4", out.Bounds())
	}
	// Top-left lands at top-right after a clockwise quarter turn.
	r, _, _, _ := out.At(1, 0).RGBA()
	if r == 0 {
		t.Fatalf("marker pixel not at expected position")
	}
}

func TestRotate90CCWSwapsDimensions(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	out := rotate90CCW(img)
	if out.Bounds().Dx() != 2 || out.Bounds().Dy() != 4 {
		t.Fatalf("bounds = %v, want 2x4", out.Bounds())
	}
	// Top-left lands at bottom-left after a counter-clockwise quarter turn.
	r, _, _, _ := out.At(0, 3).RGBA()
	if r == 0 {
		t.Fatalf("marker pixel not at expected position")
	}
}

func TestRotate180(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	out := rotate180(img)
	r, _, _, _ := out.At(2, 1).RGBA()
	if r == 0 {
		t.Fatalf("marker pixel not at opposite corner")
	}
	if rotated := rotate180(out); func() bool {
		r, _, _, _ := rotated.At(0, 0).RGBA()
		return r == 0
	}() {
		t.Fatalf("double rotation should restore the marker")
	}
}
