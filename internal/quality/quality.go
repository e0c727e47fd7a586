package quality

import "math"

// MeanAbsError is the mean absolute difference of the RGB components of two
// RGBA buffers of equal length. Alpha is ignored.
func MeanAbsError(a, b []uint8) float64 {
	n := min(len(a), len(b)) / 4
	if n == 0 {
		return 0
	}
	var sum int64
	for i := range n {
		for c := range 3 {
			d := int64(a[i*4+c]) - int64(b[i*4+c])
			if d < 0 {
				d = -d
			}
			sum += d
		}
	}
	return float64(sum) / float64(n*3)
}

// PSNR is the peak signal-to-noise ratio in dB over the RGB components.
// Identical buffers give +Inf.
func PSNR(a, b []uint8) float64 {
	n := min(len(a), len(b)) / 4
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range n {
		for c := range 3 {
			d := float64(a[i*4+c]) - float64(b[i*4+c])
			sum += d * d
		}
	}
	mse := sum / float64(n*3)
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/mse)
}
