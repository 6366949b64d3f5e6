// Package gf implements arithmetic over the binary extension fields GF(2^8)
// and GF(2^16) using precomputed log/antilog tables.
//
// Both fields are built once from a fixed primitive polynomial, so every
// coefficient derived from an index is identical on the encoding and the
// decoding side. The tables are read-only after construction and are safe to
// share across concurrent operations without locking.
package gf

import "sync"

// Primitive polynomials and generators. Both generators have full
// multiplicative order (255 and 65535 respectively).
const (
	poly256   = 0x11D   // x^8 + x^4 + x^3 + x^2 + 1
	poly65536 = 0x1100B // x^16 + x^12 + x^3 + x + 1

	generator = 2
)

// Field is a binary extension field GF(2^bits) with table-driven arithmetic.
// Elements are represented as uint16 values; GF(256) elements occupy the low
// byte only.
type Field struct {
	bits       int
	order      int // 2^bits
	groupOrder int // order - 1

	// exp[i] = generator^i for i in [0, 2*groupOrder) so that products of
	// two logs never need an explicit modular reduction.
	exp []uint16
	// log[x] = discrete log of x base generator; log[0] is unused.
	log []uint16
}

func newField(bits, poly int) *Field {
	f := &Field{
		bits:       bits,
		order:      1 << bits,
		groupOrder: (1 << bits) - 1,
	}
	f.exp = make([]uint16, 2*f.groupOrder)
	f.log = make([]uint16, f.order)

	x := 1
	for i := 0; i < f.groupOrder; i++ {
		f.exp[i] = uint16(x)
		f.log[x] = uint16(i)
		x <<= 1
		if x&f.order != 0 {
			x ^= poly
		}
	}
	for i := f.groupOrder; i < 2*f.groupOrder; i++ {
		f.exp[i] = f.exp[i-f.groupOrder]
	}
	return f
}

var (
	gf256   = sync.OnceValue(func() *Field { return newField(8, poly256) })
	gf65536 = sync.OnceValue(func() *Field { return newField(16, poly65536) })
)

// GF256 returns the shared GF(2^8) field. The tables are built on first use.
func GF256() *Field { return gf256() }

// GF65536 returns the shared GF(2^16) field. The tables are built on first use.
func GF65536() *Field { return gf65536() }

// Bits returns the field extension degree (8 or 16).
func (f *Field) Bits() int { return f.bits }

// Order returns the number of elements in the field.
func (f *Field) Order() int { return f.order }

// SymbolBytes returns the number of bytes occupied by one field symbol.
func (f *Field) SymbolBytes() int { return f.bits / 8 }

// Add returns a + b. Addition in a binary field is XOR, and is its own
// inverse, so Add doubles as subtraction.
func (f *Field) Add(a, b uint16) uint16 { return a ^ b }

// Mul returns a * b.
func (f *Field) Mul(a, b uint16) uint16 {
	if a == 0 || b == 0 {
		return 0
	}
	return f.exp[int(f.log[a])+int(f.log[b])]
}

// Inv returns the multiplicative inverse of a. Inv(0) is undefined; callers
// performing elimination check for a zero pivot first and report a decoding
// failure instead of ever asking for it. It returns 0 so an unexpected call
// cannot read outside the tables.
func (f *Field) Inv(a uint16) uint16 {
	if a == 0 {
		return 0
	}
	return f.exp[f.groupOrder-int(f.log[a])]
}

// Div returns a / b, with the same zero-divisor caveat as Inv.
func (f *Field) Div(a, b uint16) uint16 {
	if a == 0 || b == 0 {
		return 0
	}
	return f.exp[int(f.log[a])+f.groupOrder-int(f.log[b])]
}

// Exp returns generator^e. Negative exponents are reduced into the group.
func (f *Field) Exp(e int) uint16 {
	e %= f.groupOrder
	if e < 0 {
		e += f.groupOrder
	}
	return f.exp[e]
}

// MulAdd accumulates dst ^= c * src, symbol-wise across the block length.
// For GF(2^16) the blocks are interpreted as big-endian 16-bit symbols; when
// src is shorter than dst the missing trailing bytes are treated as zero, so
// an odd-length block behaves as if padded with one zero byte.
func (f *Field) MulAdd(dst, src []byte, c uint16) {
	if c == 0 {
		return
	}
	if f.bits == 8 {
		n := len(dst)
		if len(src) < n {
			n = len(src)
		}
		if c == 1 {
			for i := 0; i < n; i++ {
				dst[i] ^= src[i]
			}
			return
		}
		logC := int(f.log[c])
		for i := 0; i < n; i++ {
			if src[i] != 0 {
				dst[i] ^= byte(f.exp[logC+int(f.log[src[i]])])
			}
		}
		return
	}
	for i := 0; i+1 < len(dst); i += 2 {
		var s uint16
		if i < len(src) {
			s = uint16(src[i]) << 8
			if i+1 < len(src) {
				s |= uint16(src[i+1])
			}
		}
		v := f.Mul(c, s)
		dst[i] ^= byte(v >> 8)
		dst[i+1] ^= byte(v)
	}
}
