package savings

// Estimate returns the fraction of storage saved by keeping k singular
// triplets of a rows x cols matrix instead of its rows*cols entries:
//
//	1 - k*(rows+cols+1) / (rows*cols)
//
// The result is negative when the truncated form is larger than the
// original. A degenerate matrix (rows*cols == 0) yields 0.
func Estimate(rows, cols, k int) float64 {
	area := rows * cols
	if area == 0 {
		return 0
	}
	kept := float64(k) * float64(rows+cols+1)
	return 1 - kept/float64(area)
}
