package gf

import "testing"

func identity(n int) [][]uint16 {
	m := make([][]uint16, n)
	for i := range m {
		m[i] = make([]uint16, n)
		m[i][i] = 1
	}
	return m
}

func matricesEqual(a, b [][]uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func TestInvertIdentity(t *testing.T) {
	f := GF256()
	inv, err := f.InvertMatrix(identity(4))
	if err != nil {
		t.Fatalf("InvertMatrix failed: %v", err)
	}
	if !matricesEqual(inv, identity(4)) {
		t.Errorf("inverse of identity is not identity: %v", inv)
	}
}

func TestInvertRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name  string
		field *Field
	}{
		{"gf256", GF256()},
		{"gf65536", GF65536()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := tc.field
			// A Vandermonde-style matrix with distinct points is invertible.
			n := 5
			a := make([][]uint16, n)
			for i := 0; i < n; i++ {
				a[i] = make([]uint16, n)
				x := f.Exp(i)
				pow := uint16(1)
				for j := 0; j < n; j++ {
					a[i][j] = pow
					pow = f.Mul(pow, x)
				}
			}
			inv, err := f.InvertMatrix(a)
			if err != nil {
				t.Fatalf("InvertMatrix failed: %v", err)
			}
			if !matricesEqual(f.MulMatrix(a, inv), identity(n)) {
				t.Error("A * A^-1 is not identity")
			}
			if !matricesEqual(f.MulMatrix(inv, a), identity(n)) {
				t.Error("A^-1 * A is not identity")
			}
		})
	}
}

func TestInvertSingular(t *testing.T) {
	f := GF256()
	// Rows 0 and 2 are identical.
	a := [][]uint16{
		{1, 2, 3},
		{4, 5, 6},
		{1, 2, 3},
	}
	if _, err := f.InvertMatrix(a); err == nil {
		t.Error("expected error for singular matrix")
	}
}

func TestInvertDoesNotMutateInput(t *testing.T) {
	f := GF256()
	a := [][]uint16{
		{1, 1},
		{1, 2},
	}
	if _, err := f.InvertMatrix(a); err != nil {
		t.Fatalf("InvertMatrix failed: %v", err)
	}
	if !matricesEqual(a, [][]uint16{{1, 1}, {1, 2}}) {
		t.Errorf("input mutated: %v", a)
	}
}

func TestMulMatrix(t *testing.T) {
	f := GF256()
	a := [][]uint16{
		{1, 0, 2},
		{0, 1, 3},
	}
	b := [][]uint16{
		{5, 1},
		{6, 1},
		{7, 0},
	}
	got := f.MulMatrix(a, b)
	want := [][]uint16{
		{5 ^ f.Mul(2, 7), 1},
		{6 ^ f.Mul(3, 7), 1},
	}
	if !matricesEqual(got, want) {
		t.Errorf("MulMatrix = %v, want %v", got, want)
	}
}
