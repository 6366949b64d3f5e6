// Package rs implements a systematic Reed-Solomon block code over GF(2^8) or
// GF(2^16).
//
// The codeword is the original data followed by parity blocks:
//
//	C = [D[0], ..., D[k-1], P[0], ..., P[p-1]]
//
// The generator matrix is built from a Vandermonde matrix A (size n x k)
// whose evaluation points are successive powers of the field generator:
// G = A x A_top^(-1), so the first k rows of G form the identity matrix and
// the last p rows carry the parity coefficients. Distinct evaluation points
// make every k x k submatrix of G invertible (the MDS property), so any k of
// the n blocks recover the original data.
package rs

import (
	"fmt"

	"github.com/chunkflow/resilience/ec/code"
	"github.com/chunkflow/resilience/ec/gf"
)

// Coder is a systematic Reed-Solomon coder bound to one field. It carries no
// per-operation state and is safe for concurrent use.
type Coder struct {
	field *gf.Field
}

// New creates a Reed-Solomon coder over the given field.
func New(field *gf.Field) *Coder {
	return &Coder{field: field}
}

// Field returns the field the coder operates over.
func (c *Coder) Field() *gf.Field { return c.field }

// Encode produces the systematic block set for data at the given redundancy
// ratio. The first len(data) entries of the result are the input blocks
// themselves. Negative redundancy is treated as zero. Encode never fails.
//
// With GF(2^16) an odd block length is padded internally with one zero byte;
// parity blocks then come out one byte longer than the source blocks.
func (c *Coder) Encode(data [][]byte, redundancy float64) [][]byte {
	k := len(data)
	if k == 0 {
		return [][]byte{}
	}
	p := code.ParityCount(k, redundancy)

	out := make([][]byte, 0, k+p)
	out = append(out, data...)
	if p == 0 {
		return out
	}

	workLen := c.alignUp(len(data[0]))
	g := c.generatorMatrix(k, p)

	// P[j] = sum over i of G[k+j][i] * D[i], symbol-wise across the block.
	for j := 0; j < p; j++ {
		parity := make([]byte, workLen)
		for i := 0; i < k; i++ {
			c.field.MulAdd(parity, data[i], g[k+j][i])
		}
		out = append(out, parity)
	}
	return out
}

// Decode recovers the originalCount source blocks from a sparse block set in
// which nil entries mark erasures. It succeeds whenever at least
// originalCount blocks are present, by the MDS guarantee; it never returns a
// partial result.
func (c *Coder) Decode(blocks [][]byte, originalCount int) ([][]byte, error) {
	k := originalCount
	if k == 0 {
		return [][]byte{}, nil
	}
	if k > len(blocks) {
		return nil, fmt.Errorf("original count %d exceeds block set size %d: %w",
			k, len(blocks), code.ErrInsufficientBlocks)
	}

	presentIdx := make([]int, 0, len(blocks))
	for i, b := range blocks {
		if b != nil {
			presentIdx = append(presentIdx, i)
		}
	}
	if len(presentIdx) == 0 {
		return nil, fmt.Errorf("no blocks present: %w", code.ErrDecodingFailed)
	}
	if len(presentIdx) < k {
		return nil, fmt.Errorf("have %d blocks, need %d: %w",
			len(presentIdx), k, code.ErrInsufficientBlocks)
	}

	// Fast path: every systematic slot survived.
	systematic := true
	for i := 0; i < k; i++ {
		if blocks[i] == nil {
			systematic = false
			break
		}
	}
	if systematic {
		out := make([][]byte, k)
		copy(out, blocks[:k])
		return out, nil
	}

	// Source block length comes from any surviving source block; if none
	// survived, fall back to the (symbol-aligned) parity length.
	srcLen := -1
	workLen := 0
	for _, i := range presentIdx {
		if i < k && srcLen == -1 {
			srcLen = len(blocks[i])
		}
		if al := c.alignUp(len(blocks[i])); al > workLen {
			workLen = al
		}
	}
	if srcLen == -1 {
		srcLen = workLen
	}

	// Any k present rows of the generator matrix form an invertible system
	// A * D = R, where R holds the corresponding received blocks. Solve
	// D = A^(-1) * R to recover the missing source blocks.
	p := len(blocks) - k
	g := c.generatorMatrix(k, p)

	rows := presentIdx[:k]
	sub := make([][]uint16, k)
	for i, idx := range rows {
		sub[i] = g[idx]
	}
	inv, err := c.field.InvertMatrix(sub)
	if err != nil {
		// Only possible once n exceeds the field's group order and the
		// evaluation points wrap around.
		return nil, fmt.Errorf("singular decoding matrix: %w", code.ErrDecodingFailed)
	}

	out := make([][]byte, k)
	for i := 0; i < k; i++ {
		if blocks[i] != nil {
			out[i] = blocks[i]
			continue
		}
		rec := make([]byte, workLen)
		for j, idx := range rows {
			c.field.MulAdd(rec, blocks[idx], inv[i][j])
		}
		out[i] = rec[:srcLen]
	}
	return out, nil
}

// alignUp rounds n up to a whole number of field symbols.
func (c *Coder) alignUp(n int) int {
	sym := c.field.SymbolBytes()
	return (n + sym - 1) / sym * sym
}

// generatorMatrix builds the full systematic generator matrix G = [I | P]
// for k data blocks and p parity blocks. The matrix is a pure function of
// (k, p, field), so encoder and decoder derive identical coefficients from
// block indices alone.
func (c *Coder) generatorMatrix(k, p int) [][]uint16 {
	n := k + p

	// Vandermonde matrix V[i][j] = x_i^j with x_i = generator^i.
	v := make([][]uint16, n)
	for i := 0; i < n; i++ {
		v[i] = make([]uint16, k)
		x := c.field.Exp(i)
		pow := uint16(1)
		for j := 0; j < k; j++ {
			v[i][j] = pow
			pow = c.field.Mul(pow, x)
		}
	}

	top := make([][]uint16, k)
	copy(top, v[:k])
	invTop, err := c.field.InvertMatrix(top)
	if err != nil {
		// Distinct evaluation points make the top submatrix invertible.
		panic(fmt.Sprintf("rs: top Vandermonde submatrix not invertible: %v", err))
	}
	return c.field.MulMatrix(v, invTop)
}
