package gf

import "fmt"

// Matrix operations over a finite field. Matrices are dense row-major
// [][]uint16 slices of field elements.

// InvertMatrix computes the inverse of an n x n matrix over the field using
// Gauss-Jordan elimination with row pivoting.
func (f *Field) InvertMatrix(a [][]uint16) ([][]uint16, error) {
	n := len(a)

	// Initialize the inverse as the identity matrix.
	inv := make([][]uint16, n)
	for i := range inv {
		inv[i] = make([]uint16, n)
		inv[i][i] = 1
	}

	// Work on a copy so the caller's matrix survives.
	b := make([][]uint16, n)
	for i := range a {
		b[i] = make([]uint16, n)
		copy(b[i], a[i])
	}

	for i := 0; i < n; i++ {
		// Find a non-zero pivot in column i.
		pivot := -1
		for k := i; k < n; k++ {
			if b[k][i] != 0 {
				pivot = k
				break
			}
		}
		if pivot == -1 {
			return nil, fmt.Errorf("matrix not invertible")
		}
		if pivot != i {
			b[i], b[pivot] = b[pivot], b[i]
			inv[i], inv[pivot] = inv[pivot], inv[i]
		}

		// Normalize the pivot row.
		invPivot := f.Inv(b[i][i])
		for j := 0; j < n; j++ {
			b[i][j] = f.Mul(b[i][j], invPivot)
			inv[i][j] = f.Mul(inv[i][j], invPivot)
		}

		// Eliminate column i from every other row.
		for k := 0; k < n; k++ {
			if k == i || b[k][i] == 0 {
				continue
			}
			factor := b[k][i]
			for j := 0; j < n; j++ {
				b[k][j] ^= f.Mul(factor, b[i][j])
				inv[k][j] ^= f.Mul(factor, inv[i][j])
			}
		}
	}
	return inv, nil
}

// MulMatrix computes the product A x B over the field. A is m x n, B is
// n x p.
func (f *Field) MulMatrix(a, b [][]uint16) [][]uint16 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	m := len(a)
	n := len(a[0])
	p := len(b[0])
	if len(b) != n {
		panic(fmt.Sprintf("matrix dimensions mismatch: A is %dx%d, B is %dx%d", m, n, len(b), p))
	}

	c := make([][]uint16, m)
	for i := range c {
		c[i] = make([]uint16, p)
		for k := 0; k < n; k++ {
			if a[i][k] == 0 {
				continue
			}
			for j := 0; j < p; j++ {
				c[i][j] ^= f.Mul(a[i][k], b[k][j])
			}
		}
	}
	return c
}
