package reconstruct

import (
	"fmt"

	"github.com/yyyoichi/lowrank/internal/svd"
)

// Into overwrites target with the rank-k approximation U_k * diag(S_k) * Vt_k.
//
// k is clamped to the rank of rec; k <= 0 leaves target zeroed.
// target must hold exactly rec.Rows*rec.Cols values. It is written in place
// and never retained.
//
// The loops run row, mode, column so that the innermost loop walks target
// and Vt contiguously. Accumulation is float32 and sequential, so identical
// inputs give bit-identical output.
func Into(rec *svd.Record, k int, target []float32) {
	rows, cols := rec.Rows, rec.Cols
	if len(target) != rows*cols {
		panic(fmt.Sprintf("reconstruct: target length %d, want %dx%d", len(target), rows, cols))
	}
	rank := len(rec.S)
	k = max(0, min(k, rank))

	clear(target)
	u, s, vt := rec.U, rec.S, rec.Vt
	for i := range rows {
		out := target[i*cols : (i+1)*cols : (i+1)*cols]
		ui := u[i*rank : i*rank+k]
		for m, um := range ui {
			scale := um * s[m]
			vm := vt[m*cols : (m+1)*cols : (m+1)*cols]
			for j, v := range vm {
				out[j] += scale * v
			}
		}
	}
}
