package svd

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrInvalidRecord = errors.New("svd: invalid record")

// Record is the factorization of one rows x cols matrix.
//
// U is rows x r with stride r, S holds the r singular values in
// non-increasing order and Vt is r x cols, the transpose of V, so that a
// row of Vt is contiguous in memory.
type Record struct {
	U, S, Vt   []float32
	Rows, Cols int
}

// Rank returns r, the number of stored singular triplets.
func (r *Record) Rank() int {
	return len(r.S)
}

// Validate checks the shape invariants of the record.
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil", ErrInvalidRecord)
	}
	if r.Rows <= 0 || r.Cols <= 0 {
		return fmt.Errorf("%w: shape %dx%d", ErrInvalidRecord, r.Rows, r.Cols)
	}
	rank := len(r.S)
	if rank == 0 || rank > min(r.Rows, r.Cols) {
		return fmt.Errorf("%w: rank %d for shape %dx%d", ErrInvalidRecord, rank, r.Rows, r.Cols)
	}
	if len(r.U) != r.Rows*rank {
		return fmt.Errorf("%w: len(U)=%d, want %d", ErrInvalidRecord, len(r.U), r.Rows*rank)
	}
	if len(r.Vt) != rank*r.Cols {
		return fmt.Errorf("%w: len(Vt)=%d, want %d", ErrInvalidRecord, len(r.Vt), rank*r.Cols)
	}
	return nil
}

// Decompose computes the thin SVD of a rows x cols row-major matrix.
// The input is widened to float64 for gonum and the factors are narrowed
// back to float32.
func Decompose(data []float32, rows, cols int) (*Record, error) {
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("cannot factorize %d values as %dx%d", len(data), rows, cols)
	}
	wide := make([]float64, len(data))
	for i, v := range data {
		wide[i] = float64(v)
	}

	a := mat.NewDense(rows, cols, wide)
	var result mat.SVD
	if ok := result.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("cannot factorize")
	}

	var u, v mat.Dense
	result.UTo(&u)
	result.VTo(&v)
	s := result.Values(nil)
	rank := len(s)

	rec := &Record{
		U:    make([]float32, rows*rank),
		S:    make([]float32, rank),
		Vt:   make([]float32, rank*cols),
		Rows: rows,
		Cols: cols,
	}
	for i := range rank {
		rec.S[i] = float32(s[i])
	}
	for i := range rows {
		row := rec.U[i*rank : (i+1)*rank : (i+1)*rank]
		for m := range rank {
			row[m] = float32(u.At(i, m))
		}
	}
	// V is cols x rank; store its transpose so that Vt[m] is contiguous.
	for m := range rank {
		row := rec.Vt[m*cols : (m+1)*cols : (m+1)*cols]
		for j := range cols {
			row[j] = float32(v.At(j, m))
		}
	}
	return rec, nil
}
