package resize

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Dimensions scales width x height so that the longer side is at most
// maxDim, keeping the aspect ratio. The shorter side is rounded to the
// nearest integer. Images already within bounds are returned unchanged.
func Dimensions(width, height, maxDim int) (int, int) {
	if maxDim <= 0 {
		return width, height
	}
	if width > height {
		if width > maxDim {
			return maxDim, max(1, int(math.Round(float64(height*maxDim)/float64(width))))
		}
	} else if height > maxDim {
		return max(1, int(math.Round(float64(width*maxDim)/float64(height)))), maxDim
	}
	return width, height
}

// Fit returns src as RGBA bounded by maxDim.
func Fit(src image.Image, maxDim int) *image.RGBA {
	bounds := src.Bounds()
	w, h := Dimensions(bounds.Dx(), bounds.Dy(), maxDim)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}
