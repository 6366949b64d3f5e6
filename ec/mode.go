package ec

// FieldSize selects the coefficient field of a Reed-Solomon mode.
type FieldSize int

const (
	GF256   FieldSize = 256
	GF65536 FieldSize = 65536
)

func (s FieldSize) String() string {
	switch s {
	case GF256:
		return "gf256"
	case GF65536:
		return "gf65536"
	default:
		return "gf?"
	}
}

// CodingMode identifies which coder produced (or should produce) a block
// set. It is a closed sum type: the concrete modes below are plain
// comparable values, so modes can be compared with == and switched over.
type CodingMode interface {
	codingMode()
	String() string
}

// ReedSolomonMode selects the systematic Reed-Solomon coder over the given
// field.
type ReedSolomonMode struct {
	Field FieldSize
}

func (ReedSolomonMode) codingMode() {}

func (m ReedSolomonMode) String() string { return "reed-solomon/" + m.Field.String() }

// RaptorQMode selects the rateless RaptorQ coder.
type RaptorQMode struct{}

func (RaptorQMode) codingMode() {}

func (RaptorQMode) String() string { return "raptorq" }

// SelectCoder maps a chunk count and an observed (or predicted) loss rate to
// a coding mode, using the default parameters. It is a pure function: no
// side effects, no I/O, and for a fixed chunk count there is a single loss
// threshold below which the result is Reed-Solomon and at or above which it
// is RaptorQ.
func SelectCoder(chunkCount int, lossRate float64) CodingMode {
	return selectCoder(DefaultParams(), chunkCount, lossRate)
}

func selectCoder(params Params, chunkCount int, lossRate float64) CodingMode {
	if lossRate < 0 {
		lossRate = 0
	}
	if lossRate > 1 {
		lossRate = 1
	}
	if chunkCount <= 0 {
		return ReedSolomonMode{Field: GF256}
	}

	field, ceiling := GF256, params.GF256LossCeiling
	if chunkCount > 255 {
		// GF(256) runs out of distinct code symbols past 255 chunks.
		field, ceiling = GF65536, params.GF65536LossCeiling
	}
	if lossRate >= ceiling {
		// Fixed-rate parity cannot keep up; switch to the fountain code.
		return RaptorQMode{}
	}
	return ReedSolomonMode{Field: field}
}
