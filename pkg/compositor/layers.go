package compositor

import (
	"image"

	"github.com/disintegration/imaging"
)

// CropCenter cuts a w x h box from the middle of img. The crop is skipped when
// either dimension is non-positive or larger than the source.
func CropCenter(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if w <= 0 || h <= 0 || w > b.Dx() || h > b.Dy() {
		return img
	}
	return imaging.CropCenter(img, w, h)
}

// Paste draws src onto dst at pt, blending through src's alpha channel when it
// has transparent pixels and overwriting otherwise.
func Paste(dst *image.NRGBA, src image.Image, pt image.Point) *image.NRGBA {
	if hasAlpha(src) {
		return imaging.Overlay(dst, src, pt, 1.0)
	}
	return imaging.Paste(dst, src, pt)
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}
