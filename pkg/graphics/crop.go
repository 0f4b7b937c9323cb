// Package graphics crops, measures and annotates browser screenshots.
//
// Rectangles are expressed in the pixel space of the screenshot, with the
// origin at the image's top-left corner. Crops always return a freshly
// allocated *image.NRGBA; drawing functions mutate the image they are given.
package graphics

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/page-annotator/pkg/types"
)

// imageArea returns the rectangle (0,0)-(w,h) of img
func imageArea(img image.Image) types.Rectangle {
	b := img.Bounds()
	return types.Rect(0, 0, b.Dx(), b.Dy())
}

// CropImage returns a copy of the part of img covered by rect.
// rect must lie inside the image bounds.
func CropImage(img image.Image, rect types.Rectangle) (*image.NRGBA, error) {
	area := imageArea(img)
	if !area.Contains(rect) {
		return nil, &RectError{
			Op:     "crop image",
			Rect:   rect,
			Bounds: area,
			Reason: "outside of image area",
		}
	}

	src := rect.ImageRect().Add(img.Bounds().Min)
	return imaging.Crop(img, src), nil
}

// TakeElementScreenshot returns the part of a full page screenshot covered
// by an element's bounding box.
func TakeElementScreenshot(page image.Image, bbox types.Rectangle) (*image.NRGBA, error) {
	viewport := imageArea(page)

	if bbox.Area() == 0 {
		return nil, &RectError{
			Op:     "take element screenshot",
			Rect:   bbox,
			Bounds: viewport,
			Reason: "is degenerate",
		}
	}
	if !viewport.Contains(bbox) {
		return nil, &RectError{
			Op:     "take element screenshot",
			Rect:   bbox,
			Bounds: viewport,
			Reason: "not contained in the viewport",
		}
	}

	return CropImage(page, bbox)
}
