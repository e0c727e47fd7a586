package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yyyoichi/lowrank/internal/report"
)

func TestSweepRanks(t *testing.T) {
	test := []struct {
		name       string
		maxRank, n int
		want       []int
	}{
		{"even", 10, 4, []int{1, 4, 7, 10}},
		{"more_points_than_ranks", 3, 10, []int{1, 2, 3}},
		{"single", 40, 1, []int{40}},
		{"rank_one", 1, 5, []int{1}},
		{"none", 0, 5, nil},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sweepRanks(tt.maxRank, tt.n))
		})
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "gradient.png")

	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := range 30 {
		for x := range 40 {
			img.Set(x, y, color.RGBA{uint8(x * 6), uint8(y * 8), uint8((x * y) % 256), 255})
		}
	}
	f, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	cfg := config{
		src:    src,
		rank:   5,
		out:    filepath.Join(dir, "out.png"),
		maxDim: 20,
		sweep:  4,
		chart:  filepath.Join(dir, "chart.html"),
		dbPath: filepath.Join(dir, "samples.db"),
	}
	require.NoError(t, run(t.Context(), cfg))

	out, err := os.Open(cfg.out)
	require.NoError(t, err)
	defer out.Close()
	rendered, err := png.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 15), rendered.Bounds())

	chart, err := os.ReadFile(cfg.chart)
	require.NoError(t, err)
	assert.Contains(t, string(chart), "gradient.png")

	store, err := report.Open(cfg.dbPath)
	require.NoError(t, err)
	defer store.Close()
	samples, err := store.Samples(t.Context(), src)
	require.NoError(t, err)
	require.Len(t, samples, 4)
	assert.Equal(t, 1, samples[0].Rank)
	assert.Equal(t, 15, samples[3].Rank)
	assert.GreaterOrEqual(t, samples[0].MAE, samples[3].MAE)
}

func TestRun_MissingSource(t *testing.T) {
	err := run(t.Context(), config{src: filepath.Join(t.TempDir(), "missing.png"), out: "unused.png"})
	assert.Error(t, err)
}
