package imaging

import (
	"image"
	"image/color"
	stddraw "image/draw"

	"golang.org/x/image/draw"
)

// ResizeWithPadding letterboxes img into a width x height canvas: scale to
// fit preserving aspect ratio, center, pad with fill. Deterministic for a
// given (image, size), and idempotent on an image that already fits exactly.
func ResizeWithPadding(img image.Image, width, height int, fill color.Color) image.Image {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	ratio := min(float64(width)/float64(srcW), float64(height)/float64(srcH))
	newW := int(float64(srcW) * ratio)
	newH := int(float64(srcH) * ratio)

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	stddraw.Draw(canvas, canvas.Bounds(), image.NewUniform(fill), image.Point{}, stddraw.Src)

	offset := image.Pt((width-newW)/2, (height-newH)/2)
	target := image.Rect(offset.X, offset.Y, offset.X+newW, offset.Y+newH)

	if newW == srcW && newH == srcH {
		stddraw.Draw(canvas, target, img, b.Min, stddraw.Src)
		return canvas
	}
	draw.CatmullRom.Scale(canvas, target, img, b, draw.Src, nil)
	return canvas
}
