package channel_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yyyoichi/lowrank/internal/channel"
)

func TestExtract(t *testing.T) {
	pixels := []uint8{
		10, 20, 30, 255, 40, 50, 60, 0,
		70, 80, 90, 128, 100, 110, 120, 255,
		130, 140, 150, 1, 160, 170, 180, 2,
	}
	r, g, b, err := channel.Extract(pixels, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, []float32{10, 40, 70, 100, 130, 160}, r.Data)
	assert.Equal(t, []float32{20, 50, 80, 110, 140, 170}, g.Data)
	assert.Equal(t, []float32{30, 60, 90, 120, 150, 180}, b.Data)
	for _, m := range []channel.Matrix{r, g, b} {
		assert.Equal(t, 3, m.Rows)
		assert.Equal(t, 2, m.Cols)
	}
}

func TestExtract_InvalidInput(t *testing.T) {
	test := []struct {
		name          string
		pixels        []uint8
		width, height int
	}{
		{"zero_width", make([]uint8, 0), 0, 3},
		{"negative_height", make([]uint8, 8), 2, -1},
		{"short_buffer", make([]uint8, 15), 2, 2},
		{"rgb_buffer", make([]uint8, 12), 2, 2},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := channel.Extract(tt.pixels, tt.width, tt.height)
			assert.ErrorIs(t, err, channel.ErrInvalidInput)
		})
	}
}

func TestClip(t *testing.T) {
	test := []struct {
		in   float32
		want uint8
	}{
		{-1000, 0},
		{-0.5, 0},
		{0, 0},
		{0.99, 0},
		{1, 1},
		{127.5, 127},
		{254.999, 254},
		{255, 255},
		{255.01, 255},
		{1e9, 255},
	}
	for _, tt := range test {
		assert.Equal(t, tt.want, channel.Clip(tt.in), "Clip(%v)", tt.in)
	}
}

func TestCompose(t *testing.T) {
	r := []float32{-3, 12.7, 300, 255}
	g := []float32{0, 128.9, 256, -0.1}
	b := []float32{1.5, 254.5, 99.99, 42}
	pixels, err := channel.Compose(r, g, b, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint8{
		0, 0, 1, 255,
		12, 128, 254, 255,
		255, 255, 99, 255,
		255, 0, 42, 255,
	}, pixels)

	_, err = channel.Compose(r, g, b[:3], 2, 2)
	assert.ErrorIs(t, err, channel.ErrInvalidInput)
	_, err = channel.Compose(r, g, b, 0, 4)
	assert.ErrorIs(t, err, channel.ErrInvalidInput)
}

func TestExtractCompose_RoundTrip(t *testing.T) {
	pixels := make([]uint8, 5*4*4)
	for i := range pixels {
		pixels[i] = uint8(i * 7)
	}
	for i := 3; i < len(pixels); i += 4 {
		pixels[i] = 255
	}
	r, g, b, err := channel.Extract(pixels, 5, 4)
	require.NoError(t, err)
	out, err := channel.Compose(r.Data, g.Data, b.Data, 5, 4)
	require.NoError(t, err)
	assert.Equal(t, pixels, out)
}

func TestFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(3, 5, 5, 6))
	src.Set(3, 5, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	src.Set(4, 5, color.NRGBA{R: 4, G: 5, B: 6, A: 255})

	pixels, w, h := channel.FromImage(src)
	assert.Equal(t, 2, w)
	assert.Equal(t, 1, h)
	assert.Equal(t, []uint8{1, 2, 3, 255, 4, 5, 6, 255}, pixels)

	img := channel.ToImage(pixels, w, h)
	assert.Equal(t, color.RGBA{R: 4, G: 5, B: 6, A: 255}, img.RGBAAt(1, 0))

	// packed RGBA is returned as is
	again, _, _ := channel.FromImage(img)
	assert.Same(t, &pixels[0], &again[0])
}
