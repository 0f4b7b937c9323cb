package graphics

import (
	"image"
	"image/draw"

	"github.com/menta2k/page-annotator/pkg/types"
)

// DrawRect draws an unfilled bounding box of the given stroke width along the
// inside of rect. The color's alpha is blended over the existing pixels.
// Parts of rect outside img are clipped.
func DrawRect(img draw.Image, rect types.Rectangle, c types.Color, width int) {
	if width <= 0 {
		return
	}
	r := rect.ImageRect()
	if r.Empty() {
		return
	}

	src := image.NewUniform(c.NRGBA(true))

	// A stroke that meets itself fills the box.
	if 2*width >= r.Dx() || 2*width >= r.Dy() {
		draw.Draw(img, r.Intersect(img.Bounds()), src, image.Point{}, draw.Over)
		return
	}

	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width),
		image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y+width, r.Min.X+width, r.Max.Y-width),
		image.Rect(r.Max.X-width, r.Min.Y+width, r.Max.X, r.Max.Y-width),
	}
	for _, edge := range edges {
		edge = edge.Intersect(img.Bounds())
		if edge.Empty() {
			continue
		}
		draw.Draw(img, edge, src, image.Point{}, draw.Over)
	}
}
