package lowrank

import (
	"context"
	"fmt"
	"image"

	"github.com/yyyoichi/lowrank/internal/channel"
	"github.com/yyyoichi/lowrank/internal/reconstruct"
	"github.com/yyyoichi/lowrank/internal/resize"
	"github.com/yyyoichi/lowrank/internal/savings"
	"github.com/yyyoichi/lowrank/internal/svd"
)

// DefaultMaxDim bounds the longer side of a prepared image.
const DefaultMaxDim = 1000

type (
	// ChannelMatrix is one color plane, row-major, Rows = height.
	ChannelMatrix = channel.Matrix
	// FactorizationRecord is the SVD of one ChannelMatrix with V stored
	// transposed.
	FactorizationRecord = svd.Record
)

// ExtractChannels splits RGBA pixels (4 bytes per pixel) into R, G and B
// matrices.
func ExtractChannels(pixels []uint8, width, height int) (r, g, b ChannelMatrix, err error) {
	r, g, b, err = channel.Extract(pixels, width, height)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return
}

// ComposePixels clamps three channel buffers into opaque RGBA pixels.
func ComposePixels(r, g, b []float32, width, height int) ([]uint8, error) {
	pixels, err := channel.Compose(r, g, b, width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return pixels, nil
}

// Reconstruct writes the rank-k approximation of rec into target.
// k above the available rank is clamped.
func Reconstruct(rec *FactorizationRecord, k int, target []float32) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if k < 1 {
		return fmt.Errorf("%w: rank %d", ErrInvalidInput, k)
	}
	if len(target) != rec.Rows*rec.Cols {
		return fmt.Errorf("%w: target length %d, want %d", ErrInvalidInput, len(target), rec.Rows*rec.Cols)
	}
	reconstruct.Into(rec, k, target)
	return nil
}

// EstimateSavings returns 1 - k(rows+cols+1)/(rows*cols), or 0 for an
// empty matrix.
func EstimateSavings(rows, cols, k int) float64 {
	return savings.Estimate(rows, cols, k)
}

// Decompose factorizes m with gonum's thin SVD.
func Decompose(ctx context.Context, m ChannelMatrix) (*FactorizationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return svd.Decompose(m.Data, m.Rows, m.Cols)
}

// Prepare converts src to RGBA, scaling it down so that its longer side is
// at most maxDim. maxDim <= 0 keeps the original size.
func Prepare(src image.Image, maxDim int) *image.RGBA {
	return resize.Fit(src, maxDim)
}

// Pixels returns the packed RGBA pixels of img and its size.
func Pixels(img image.Image) ([]uint8, int, int) {
	return channel.FromImage(img)
}
