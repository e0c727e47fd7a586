package lowrank_test

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/yyyoichi/lowrank"
)

// BenchmarkTick measures one rendering tick (three reconstructions plus
// composition) for typical working sizes.
func BenchmarkTick(b *testing.B) {
	test := []struct {
		name          string
		width, height int
		ranks         []int
	}{
		{name: "320x240", width: 320, height: 240, ranks: []int{10, 50, 240}},
		{name: "640x480", width: 640, height: 480, ranks: []int{10, 50, 200}},
	}

	for _, tt := range test {
		s, err := lowrank.New()
		if err != nil {
			b.Fatalf("Failed to create Scheduler (%s): %v", tt.name, err)
		}
		pixels, w, h := lowrank.Pixels(createImage(tt.width, tt.height))
		done, err := s.SubmitImage(b.Context(), pixels, w, h)
		if err != nil {
			b.Fatalf("Failed to submit image (%s): %v", tt.name, err)
		}
		if err := <-done; err != nil {
			b.Fatalf("Failed to factorize image (%s): %v", tt.name, err)
		}

		for _, k := range tt.ranks {
			b.Run(fmt.Sprintf("%s_k%d", tt.name, k), func(b *testing.B) {
				for b.Loop() {
					_ = s.SetRank(k)
					if _, ok := s.Tick(); !ok {
						b.Fatal("no frame rendered")
					}
				}
			})
		}
	}
}

// createImage creates a widthxheight test image with gradient pattern
func createImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			b := uint8(((x + y) * 255) / (width + height))
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}
	return img
}
