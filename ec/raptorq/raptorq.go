// Package raptorq implements a rateless fountain code in the RaptorQ style:
// an LDPC+HDPC precode over the source blocks, followed by an LT-style
// repair-symbol generator that can emit an unbounded stream of repair
// blocks, and a two-phase (peeling + inactivation) decoder.
//
// The code is systematic: the encoded block set starts with the source
// blocks verbatim. Every repair symbol is a GF(2^8) combination of a
// pseudo-randomly chosen subset of the intermediate symbols, where subset,
// degree and coefficients all derive from a deterministic stream seeded by
// (k, symbol ID). Repeated encodes of identical input therefore produce
// identical repair blocks, and the decoder reconstructs every coefficient
// from block indices alone.
package raptorq

import (
	"math"

	"github.com/chunkflow/resilience/ec/code"
	"github.com/chunkflow/resilience/ec/gf"
)

// Coder is a rateless RaptorQ-style coder over GF(2^8). It carries no
// per-operation state and is safe for concurrent use.
type Coder struct {
	field *gf.Field
}

// New creates a RaptorQ coder. The shared GF(2^8) tables are built on first
// use.
func New() *Coder {
	return &Coder{field: gf.GF256()}
}

// codeParams describes the precode shape for one source block count.
//
//	k  source symbols
//	s  sparse LDPC constraint rows
//	h  dense HDPC constraint rows
//	l  intermediate symbols, k + s + h
type codeParams struct {
	k, s, h, l int
}

// paramsFor derives the precode parameters from the source block count. The
// LDPC row count grows roughly with sqrt(2k) plus one percent of k, rounded
// up to a prime so the circulant row assignment below cycles through all
// rows; the HDPC row count grows logarithmically.
func paramsFor(k int) codeParams {
	s := int(math.Ceil(0.01*float64(k))) + int(math.Ceil(math.Sqrt(2*float64(k))))
	for !isPrime(s) {
		s++
	}
	h := int(math.Ceil(math.Log2(float64(k+1)))) + 1
	return codeParams{k: k, s: s, h: h, l: k + s + h}
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for i := 2; i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}

// ldpcRows returns the two LDPC rows source symbol i participates in. Each
// source symbol lands in exactly two of the s sparse rows, giving every row
// a degree of roughly 2k/s.
func ldpcRows(i, s int) (int, int) {
	return i % s, (i + 1 + i/s) % s
}

// hdpcCoeff returns the HDPC coefficient of source symbol i in dense row h,
// a power of the field generator. Never zero, so HDPC rows stay dense.
func (c *Coder) hdpcCoeff(h, i int) uint16 {
	return c.field.Exp((h + 1) * (i + 1))
}

// splitmix64 is the deterministic stream behind symbol generation. It is
// seeded per repair symbol; no external randomness is involved anywhere.
type splitmix64 struct {
	state uint64
}

func (r *splitmix64) next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func repairSeed(k, esi int) uint64 {
	return uint64(k)*0x9E3779B97F4A7C15 ^ uint64(esi)
}

// Degree distribution for repair symbols, as a CDF over [0, 2^20). The
// thresholds follow the RFC 5053 lookup-table shape: mostly low-degree
// symbols that peel cheaply, with a dense tail for coverage.
var (
	degreeThresholds = [...]uint64{0, 10241, 491582, 712794, 831695, 948446, 1032189, 1048576}
	degreeValues     = [...]int{0, 1, 2, 3, 4, 10, 11, 40}
)

func degree(v uint64) int {
	for j := 1; j < len(degreeThresholds)-1; j++ {
		if v < degreeThresholds[j] {
			return degreeValues[j]
		}
	}
	return degreeValues[len(degreeValues)-1]
}

// symbolTerm is one (intermediate symbol, coefficient) pair of a repair
// combination.
type symbolTerm struct {
	idx  int
	coef uint16
}

// repairTerms derives the combination for the repair symbol with ESI k+x.
// About half of all repair symbols fold in an HDPC intermediate, which keeps
// the dense phase of the decoder well conditioned even with few symbols.
func (c *Coder) repairTerms(pr codeParams, x int) []symbolTerm {
	rng := splitmix64{state: repairSeed(pr.k, pr.k+x)}

	d := degree(rng.next() % 1048576)
	if d > pr.l {
		d = pr.l
	}
	wantHDPC := rng.next()&1 == 1

	idxs := make([]int, 0, d+1)
	seen := make(map[int]struct{}, d+1)
	for len(idxs) < d {
		t := int(rng.next() % uint64(pr.l))
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		idxs = append(idxs, t)
	}
	if wantHDPC {
		hasHDPC := false
		for _, t := range idxs {
			if t >= pr.k+pr.s {
				hasHDPC = true
				break
			}
		}
		if !hasHDPC {
			t := pr.k + pr.s + int(rng.next()%uint64(pr.h))
			if _, dup := seen[t]; !dup {
				seen[t] = struct{}{}
				idxs = append(idxs, t)
			}
		}
	}

	terms := make([]symbolTerm, len(idxs))
	for i, t := range idxs {
		terms[i] = symbolTerm{idx: t, coef: uint16(1 + rng.next()%255)}
	}
	return terms
}

// intermediates builds the L intermediate symbol blocks: the k source blocks
// themselves, then s sparse LDPC parities, then h dense HDPC parities.
func (c *Coder) intermediates(pr codeParams, data [][]byte, blockLen int) [][]byte {
	inter := make([][]byte, pr.l)
	copy(inter, data)

	for j := 0; j < pr.s; j++ {
		inter[pr.k+j] = make([]byte, blockLen)
	}
	for i := 0; i < pr.k; i++ {
		a, b := ldpcRows(i, pr.s)
		c.field.MulAdd(inter[pr.k+a], data[i], 1)
		if b != a {
			c.field.MulAdd(inter[pr.k+b], data[i], 1)
		}
	}

	for j := 0; j < pr.h; j++ {
		hd := make([]byte, blockLen)
		for i := 0; i < pr.k; i++ {
			c.field.MulAdd(hd, data[i], c.hdpcCoeff(j, i))
		}
		inter[pr.k+pr.s+j] = hd
	}
	return inter
}

// Encode produces the systematic block set for data at the given redundancy
// ratio: the source blocks verbatim, followed by max(1, ceil(k*redundancy))
// repair blocks for positive redundancy. Negative redundancy is treated as
// zero. Encode never fails.
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

	blockLen := len(data[0])
	pr := paramsFor(k)
	inter := c.intermediates(pr, data, blockLen)

	for x := 0; x < p; x++ {
		repair := make([]byte, blockLen)
		for _, term := range c.repairTerms(pr, x) {
			c.field.MulAdd(repair, inter[term.idx], term.coef)
		}
		out = append(out, repair)
	}
	return out
}
