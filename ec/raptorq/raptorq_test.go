package raptorq

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/chunkflow/resilience/ec/code"
)

func makeBlocks(k, blockLen int) [][]byte {
	data := make([][]byte, k)
	for i := range data {
		data[i] = make([]byte, blockLen)
		for j := range data[i] {
			data[i][j] = byte(i*7 + j + 1)
		}
	}
	return data
}

func blocksEqual(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestPrecodeParams(t *testing.T) {
	tests := []struct {
		k, s, h int
	}{
		{1, 3, 2},
		{5, 5, 4},
		{20, 11, 6},
		{100, 17, 8},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("k=%d", tt.k), func(t *testing.T) {
			pr := paramsFor(tt.k)
			if pr.s != tt.s || pr.h != tt.h {
				t.Errorf("paramsFor(%d) = (s=%d, h=%d), want (s=%d, h=%d)",
					tt.k, pr.s, pr.h, tt.s, tt.h)
			}
			if !isPrime(pr.s) {
				t.Errorf("s = %d is not prime", pr.s)
			}
			if pr.l != tt.k+pr.s+pr.h {
				t.Errorf("l = %d, want %d", pr.l, tt.k+pr.s+pr.h)
			}
		})
	}
}

func TestEncodeBlockCount(t *testing.T) {
	coder := New()
	tests := []struct {
		k          int
		redundancy float64
		want       int
	}{
		{1, 0.1, 2}, // at least one repair block for positive redundancy
		{20, 0.3, 26},
		{100, 0.02, 102}, // realized overhead equals the request exactly
		{10, 0, 10},
		{10, -1, 10},
		{0, 0.5, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("k=%d r=%v", tt.k, tt.redundancy), func(t *testing.T) {
			out := coder.Encode(makeBlocks(tt.k, 8), tt.redundancy)
			if len(out) != tt.want {
				t.Errorf("got %d blocks, want %d", len(out), tt.want)
			}
		})
	}
}

func TestEncodeSystematic(t *testing.T) {
	coder := New()
	data := makeBlocks(16, 40)
	out := coder.Encode(data, 0.5)
	for i := range data {
		if !bytes.Equal(out[i], data[i]) {
			t.Fatalf("systematic block %d differs from input", i)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	coder := New()
	a := coder.Encode(makeBlocks(20, 64), 0.3)
	b := coder.Encode(makeBlocks(20, 64), 0.3)
	if !blocksEqual(a, b) {
		t.Error("two encodes of identical input differ")
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		k          int
		blockLen   int
		redundancy float64
		erase      []int
	}{
		{"k20 scattered", 20, 64, 0.3, []int{2, 7, 11, 19}},
		{"k20 leading", 20, 1, 0.2, []int{0, 1, 2, 3}},
		{"k5", 5, 32, 0.5, []int{1, 3}},
		{"k1", 1, 16, 0.1, []int{0}},
		{"k100", 100, 32, 0.05, []int{10, 50, 99}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coder := New()
			data := makeBlocks(tt.k, tt.blockLen)
			out := coder.Encode(data, tt.redundancy)

			blocks := make([][]byte, len(out))
			copy(blocks, out)
			for _, i := range tt.erase {
				blocks[i] = nil
			}
			got, err := coder.Decode(blocks, tt.k)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if !blocksEqual(got, data) {
				t.Error("wrong recovery")
			}
		})
	}
}

func TestRoundTripSingleRepair(t *testing.T) {
	// One erased source recovered from a single surviving repair symbol.
	coder := New()
	data := makeBlocks(100, 16)
	out := coder.Encode(data, 0.02)
	if len(out) != 102 {
		t.Fatalf("got %d blocks, want 102", len(out))
	}

	blocks := make([][]byte, len(out))
	copy(blocks, out)
	blocks[42] = nil  // erased source
	blocks[101] = nil // second repair lost as well
	got, err := coder.Decode(blocks, 100)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !blocksEqual(got, data) {
		t.Error("wrong recovery")
	}
}

func TestDecodeSingularSystem(t *testing.T) {
	// With k=3, repair symbol 18's combination has no contribution from
	// source 0 once expanded through the precode, so sources {1, 2} plus
	// that single repair cannot span the erased block. Enough blocks are
	// present, but the elimination system is singular.
	coder := New()
	data := makeBlocks(3, 8)
	out := coder.Encode(data, 7.0)
	if len(out) != 24 {
		t.Fatalf("got %d blocks, want 24", len(out))
	}

	blocks := make([][]byte, len(out))
	blocks[1] = out[1]
	blocks[2] = out[2]
	blocks[3+18] = out[3+18]
	_, err := coder.Decode(blocks, 3)
	if !errors.Is(err, code.ErrDecodingFailed) {
		t.Errorf("got %v, want ErrDecodingFailed", err)
	}
}

func TestDecodeFastPath(t *testing.T) {
	coder := New()
	data := makeBlocks(12, 24)
	out := coder.Encode(data, 0.25)

	blocks := make([][]byte, len(out))
	copy(blocks, out[:12])
	got, err := coder.Decode(blocks, 12)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !blocksEqual(got, data) {
		t.Error("fast path returned wrong blocks")
	}
}

func TestDecodeErrors(t *testing.T) {
	coder := New()

	t.Run("original count exceeds block set", func(t *testing.T) {
		if _, err := coder.Decode([][]byte{{1}}, 2); !errors.Is(err, code.ErrInsufficientBlocks) {
			t.Errorf("got %v, want ErrInsufficientBlocks", err)
		}
	})

	t.Run("all nil", func(t *testing.T) {
		if _, err := coder.Decode(make([][]byte, 4), 2); !errors.Is(err, code.ErrDecodingFailed) {
			t.Errorf("got %v, want ErrDecodingFailed", err)
		}
	})

	t.Run("too few present", func(t *testing.T) {
		coderOut := coder.Encode(makeBlocks(4, 8), 0.25)
		blocks := make([][]byte, len(coderOut))
		blocks[0] = coderOut[0]
		blocks[4] = coderOut[4]
		if _, err := coder.Decode(blocks, 4); !errors.Is(err, code.ErrInsufficientBlocks) {
			t.Errorf("got %v, want ErrInsufficientBlocks", err)
		}
	})

	t.Run("zero original count", func(t *testing.T) {
		got, err := coder.Decode(make([][]byte, 3), 0)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %d blocks, want 0", len(got))
		}
	})
}

func TestEncodeEmpty(t *testing.T) {
	coder := New()
	if out := coder.Encode(nil, 0.1); len(out) != 0 {
		t.Errorf("encode of empty input returned %d blocks", len(out))
	}
}

func TestRepairTermsDeterministic(t *testing.T) {
	coder := New()
	pr := paramsFor(50)
	for x := 0; x < 10; x++ {
		a := coder.repairTerms(pr, x)
		b := coder.repairTerms(pr, x)
		if len(a) != len(b) {
			t.Fatalf("repair %d: lengths differ", x)
		}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("repair %d: term %d differs", x, i)
			}
		}
		for _, term := range a {
			if term.coef == 0 {
				t.Errorf("repair %d carries a zero coefficient", x)
			}
			if term.idx < 0 || term.idx >= pr.l {
				t.Errorf("repair %d references symbol %d outside [0, %d)", x, term.idx, pr.l)
			}
		}
	}
}
