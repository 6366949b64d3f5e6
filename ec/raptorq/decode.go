package raptorq

import (
	"fmt"

	"github.com/chunkflow/resilience/ec/code"
)

// equation is one received repair symbol reduced to the missing source
// unknowns: coefs[c] is the GF(2^8) coefficient of the c-th missing source
// block, rhs the repair block with every known contribution subtracted out.
type equation struct {
	coefs []byte
	rhs   []byte
}

// Decode recovers the originalCount source blocks from a sparse block set in
// which nil entries mark erasures. Slots [0, originalCount) are source
// symbols, later slots repair symbols in ESI order, exactly as Encode laid
// them out.
//
// Every available repair symbol is expanded through the precode relations
// into an equation over the missing source blocks, then solved in two
// phases: a peeling pass that resolves equations reduced to a single unknown
// (this is where LDPC sparsity pays off), and an inactivation pass that
// solves whatever remains as one small dense system by ordinary Gaussian
// elimination. Decoding is all-or-nothing.
func (c *Coder) Decode(blocks [][]byte, originalCount int) ([][]byte, error) {
	k := originalCount
	if k == 0 {
		return [][]byte{}, nil
	}
	if k > len(blocks) {
		return nil, fmt.Errorf("original count %d exceeds block set size %d: %w",
			k, len(blocks), code.ErrInsufficientBlocks)
	}

	present := 0
	blockLen := 0
	for _, b := range blocks {
		if b != nil {
			present++
			blockLen = len(b)
		}
	}
	if present == 0 {
		return nil, fmt.Errorf("no blocks present: %w", code.ErrDecodingFailed)
	}
	if present < k {
		return nil, fmt.Errorf("have %d blocks, need %d: %w",
			present, k, code.ErrInsufficientBlocks)
	}

	// Fast path: every systematic slot survived.
	var missing []int
	for i := 0; i < k; i++ {
		if blocks[i] == nil {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		out := make([][]byte, k)
		copy(out, blocks[:k])
		return out, nil
	}

	pr := paramsFor(k)
	col := make(map[int]int, len(missing))
	for j, i := range missing {
		col[i] = j
	}

	// Build one equation per available repair symbol.
	var eqs []*equation
	for idx := k; idx < len(blocks); idx++ {
		if blocks[idx] == nil {
			continue
		}
		eqs = append(eqs, c.buildEquation(pr, idx-k, blocks, missing, col))
	}

	solved := make([][]byte, len(missing))

	// Phase 1: peeling. Resolve any equation holding a single unknown and
	// substitute it everywhere, until no such equation remains.
	active := eqs
	for {
		progressed := false
		next := active[:0]
		for _, eq := range active {
			j, nonzeros := eq.single()
			if nonzeros != 1 || solved[j] != nil {
				if nonzeros > 0 {
					next = append(next, eq)
				}
				continue
			}
			val := make([]byte, blockLen)
			c.field.MulAdd(val, eq.rhs, c.field.Inv(uint16(eq.coefs[j])))
			solved[j] = val
			for _, other := range eqs {
				if other == eq || other.coefs[j] == 0 {
					continue
				}
				c.field.MulAdd(other.rhs, val, uint16(other.coefs[j]))
				other.coefs[j] = 0
			}
			eq.coefs[j] = 0
			progressed = true
		}
		active = next
		if !progressed {
			break
		}
	}

	// Phase 2: inactivation. The unknowns the sparse pass could not reach
	// form a dense subsystem of at most len(missing) columns, solved by
	// Gauss-Jordan elimination. Transient memory here is bounded by the
	// erasure count, not by k.
	var open []int
	for j := range solved {
		if solved[j] == nil {
			open = append(open, j)
		}
	}
	if len(open) > 0 {
		if err := c.solveDense(active, open, solved, blockLen); err != nil {
			return nil, err
		}
	}

	out := make([][]byte, k)
	for i := 0; i < k; i++ {
		if blocks[i] != nil {
			out[i] = blocks[i]
		} else {
			out[i] = solved[col[i]]
		}
	}
	return out, nil
}

// buildEquation expands the repair symbol with ESI k+x into an equation over
// the missing source blocks: precode constraints are substituted through to
// source symbols, and every present source contribution is folded into the
// right-hand side.
func (c *Coder) buildEquation(pr codeParams, x int, blocks [][]byte, missing []int, col map[int]int) *equation {
	row := make([]uint16, pr.k)
	for _, term := range c.repairTerms(pr, x) {
		switch {
		case term.idx < pr.k:
			row[term.idx] ^= term.coef
		case term.idx < pr.k+pr.s:
			j := term.idx - pr.k
			for i := 0; i < pr.k; i++ {
				a, b := ldpcRows(i, pr.s)
				if a == j || b == j {
					row[i] ^= term.coef
				}
			}
		default:
			h := term.idx - pr.k - pr.s
			for i := 0; i < pr.k; i++ {
				row[i] ^= c.field.Mul(term.coef, c.hdpcCoeff(h, i))
			}
		}
	}

	rhs := append([]byte(nil), blocks[pr.k+x]...)
	for i := 0; i < pr.k; i++ {
		if row[i] == 0 || blocks[i] == nil {
			continue
		}
		c.field.MulAdd(rhs, blocks[i], row[i])
		row[i] = 0
	}

	coefs := make([]byte, len(missing))
	for j, i := range missing {
		coefs[j] = byte(row[i])
	}
	return &equation{coefs: coefs, rhs: rhs}
}

// single reports the only nonzero column of the equation, along with the
// total nonzero count.
func (e *equation) single() (int, int) {
	idx, n := -1, 0
	for j, v := range e.coefs {
		if v != 0 {
			idx = j
			n++
		}
	}
	return idx, n
}

// solveDense runs Gauss-Jordan elimination over the still-open columns. A
// missing pivot means the received symbols do not span the erased blocks.
func (c *Coder) solveDense(eqs []*equation, open []int, solved [][]byte, blockLen int) error {
	rows := make([]*equation, len(eqs))
	copy(rows, eqs)

	pivotOf := make(map[int]*equation, len(open))
	r := 0
	for _, j := range open {
		pivot := -1
		for i := r; i < len(rows); i++ {
			if rows[i].coefs[j] != 0 {
				pivot = i
				break
			}
		}
		if pivot == -1 {
			return fmt.Errorf("inactivation system singular at column %d: %w",
				j, code.ErrDecodingFailed)
		}
		rows[r], rows[pivot] = rows[pivot], rows[r]
		eq := rows[r]

		inv := c.field.Inv(uint16(eq.coefs[j]))
		for _, jc := range open {
			eq.coefs[jc] = byte(c.field.Mul(uint16(eq.coefs[jc]), inv))
		}
		c.scaleBlock(eq.rhs, inv)

		for _, other := range rows {
			if other == eq || other.coefs[j] == 0 {
				continue
			}
			f := uint16(other.coefs[j])
			for _, jc := range open {
				other.coefs[jc] ^= byte(c.field.Mul(f, uint16(eq.coefs[jc])))
			}
			c.field.MulAdd(other.rhs, eq.rhs, f)
		}
		pivotOf[j] = eq
		r++
	}

	for _, j := range open {
		val := pivotOf[j].rhs
		if len(val) != blockLen {
			val = append(append([]byte(nil), val...), make([]byte, blockLen-len(val))...)
		}
		solved[j] = val
	}
	return nil
}

// scaleBlock multiplies a block by a scalar in place.
func (c *Coder) scaleBlock(b []byte, v uint16) {
	for i := range b {
		b[i] = byte(c.field.Mul(v, uint16(b[i])))
	}
}
