package channel

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

var ErrInvalidInput = errors.New("channel: invalid input")

// Matrix is one color plane stored row-major: Rows is the image height and
// Cols the image width.
type Matrix struct {
	Data       []float32
	Rows, Cols int
}

func checkShape(n, width, height, perPixel int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidInput, width, height)
	}
	if n != width*height*perPixel {
		return fmt.Errorf("%w: %d values for %dx%d", ErrInvalidInput, n, width, height)
	}
	return nil
}

// Extract splits tightly packed RGBA pixels into three float32 planes.
// Alpha is ignored.
func Extract(pixels []uint8, width, height int) (r, g, b Matrix, err error) {
	if err = checkShape(len(pixels), width, height, 4); err != nil {
		return
	}
	area := width * height
	r = Matrix{Data: make([]float32, area), Rows: height, Cols: width}
	g = Matrix{Data: make([]float32, area), Rows: height, Cols: width}
	b = Matrix{Data: make([]float32, area), Rows: height, Cols: width}
	for i := range area {
		px := pixels[i<<2 : i<<2+3 : i<<2+3]
		r.Data[i] = float32(px[0])
		g.Data[i] = float32(px[1])
		b.Data[i] = float32(px[2])
	}
	return
}

// Compose packs three float32 planes into opaque RGBA pixels, clamping each
// value to [0, 255].
func Compose(r, g, b []float32, width, height int) ([]uint8, error) {
	for _, c := range [][]float32{r, g, b} {
		if err := checkShape(len(c), width, height, 1); err != nil {
			return nil, err
		}
	}
	area := width * height
	pixels := make([]uint8, area<<2)
	for i := range area {
		px := pixels[i<<2 : i<<2+4 : i<<2+4]
		px[0] = Clip(r[i])
		px[1] = Clip(g[i])
		px[2] = Clip(b[i])
		px[3] = 255
	}
	return pixels, nil
}

// Clip maps v to a byte. Values inside the range are truncated toward zero.
func Clip(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// FromImage returns the pixels of src as tightly packed RGBA.
func FromImage(src image.Image) (pixels []uint8, width, height int) {
	bounds := src.Bounds()
	width, height = bounds.Dx(), bounds.Dy()
	if rgba, ok := src.(*image.RGBA); ok && rgba.Stride == width*4 && rgba.Rect.Min == (image.Point{}) {
		return rgba.Pix[:width*height*4], width, height
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst.Pix, width, height
}

// ToImage wraps RGBA pixels as an image without copying.
func ToImage(pixels []uint8, width, height int) *image.RGBA {
	return &image.RGBA{
		Pix:    pixels,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
}
