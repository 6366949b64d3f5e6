// Package ec is the resilience layer of the chunked-upload pipeline: it
// encodes chunk sets with redundant blocks so the receiving side can
// reconstruct the original data despite lost, dropped, or unacknowledged
// chunks, without retransmission.
//
// The engine performs no network I/O and persists nothing; it is pure CPU
// work over caller-supplied buffers and is safe for concurrent use. Callers
// pick a coder (or let SelectCoder pick one from the observed loss rate),
// encode, and later decode with a sparse block set in which nil entries mark
// erasures. Decoding is all-or-nothing: exact reconstruction or an explicit
// error, never silent corruption.
package ec

import (
	"fmt"
	"sync"

	"github.com/chunkflow/resilience/ec/code"
	"github.com/chunkflow/resilience/ec/gf"
	"github.com/chunkflow/resilience/ec/raptorq"
	"github.com/chunkflow/resilience/ec/rs"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("ec")

// Option configures an Engine during construction.
type Option func(*Engine) error

// Engine is the erasure coding engine. One instance per upload session, or a
// process-wide singleton; construction is cheap and the shared field tables
// are built once on first use. All methods are safe for concurrent use.
type Engine struct {
	params Params

	rs256 *rs.Coder
	rs64k *rs.Coder

	// The RaptorQ sub-coder is built exactly once, on first need.
	rqOnce sync.Once
	rq     *raptorq.Coder
}

// NewEngine creates an engine with default parameters and applies options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		params: DefaultParams(),
		rs256:  rs.New(gf.GF256()),
		rs64k:  rs.New(gf.GF65536()),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// WithParams sets custom engine parameters.
func WithParams(params Params) Option {
	return func(e *Engine) error {
		if err := params.Validate(); err != nil {
			return err
		}
		e.params = params
		return nil
	}
}

// Params returns the engine's parameters.
func (e *Engine) Params() Params { return e.params }

// SelectCoder maps a chunk count and loss rate to a coding mode using the
// engine's parameters. Pure function; see the package-level SelectCoder.
func (e *Engine) SelectCoder(chunkCount int, lossRate float64) CodingMode {
	return selectCoder(e.params, chunkCount, lossRate)
}

// EncodeReedSolomon encodes data with the systematic Reed-Solomon coder,
// choosing the field by chunk count (up to 255 chunks fits GF(2^8)). The
// first len(data) blocks of the result are the input blocks verbatim.
// Never fails: negative redundancy is clamped, empty input yields empty
// output.
func (e *Engine) EncodeReedSolomon(data [][]byte, redundancy float64) [][]byte {
	out := e.rsCoder(len(data)).Encode(data, redundancy)
	log.Debugf("reed-solomon encode: %d data blocks -> %d total", len(data), len(out))
	return out
}

// EncodeRaptorQ encodes data with the rateless RaptorQ coder. Same
// systematic and never-fails contract as EncodeReedSolomon.
func (e *Engine) EncodeRaptorQ(data [][]byte, redundancy float64) [][]byte {
	out := e.raptorQ().Encode(data, redundancy)
	log.Debugf("raptorq encode: %d data blocks -> %d total", len(data), len(out))
	return out
}

// EncodeAuto selects a coder from the chunk count and loss rate, encodes,
// and returns the mode alongside the block set. The caller must hand the
// same mode back to Decode; there is no implicit cross-algorithm fallback.
func (e *Engine) EncodeAuto(data [][]byte, redundancy, lossRate float64) (CodingMode, [][]byte) {
	mode := e.SelectCoder(len(data), lossRate)
	switch mode.(type) {
	case RaptorQMode:
		return mode, e.EncodeRaptorQ(data, redundancy)
	default:
		return mode, e.EncodeReedSolomon(data, redundancy)
	}
}

// Decode recovers the originalCount source blocks from a sparse block set in
// which nil entries mark erasures, using the mode that produced the blocks.
// It returns exactly originalCount blocks or an error, never a partial
// result.
func (e *Engine) Decode(mode CodingMode, blocks [][]byte, originalCount int) ([][]byte, error) {
	var coder code.Coder
	switch m := mode.(type) {
	case ReedSolomonMode:
		if m.Field == GF65536 {
			coder = e.rs64k
		} else {
			coder = e.rs256
		}
	case RaptorQMode:
		coder = e.raptorQ()
	default:
		return nil, fmt.Errorf("no coding mode given")
	}
	return coder.Decode(blocks, originalCount)
}

func (e *Engine) rsCoder(chunkCount int) *rs.Coder {
	if chunkCount > 255 {
		return e.rs64k
	}
	return e.rs256
}

func (e *Engine) raptorQ() *raptorq.Coder {
	e.rqOnce.Do(func() {
		log.Debugf("constructing raptorq sub-coder")
		e.rq = raptorq.New()
	})
	return e.rq
}
