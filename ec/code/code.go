// Package code defines the surface shared by the concrete erasure coders.
package code

import "errors"

// Sentinel errors returned by Decode implementations. Encode never fails:
// malformed inputs are clamped to their nearest valid interpretation.
var (
	// ErrDecodingFailed reports that the presented blocks carry too little
	// information, or that the elimination system turned out singular.
	ErrDecodingFailed = errors.New("erasure coding: decoding failed")

	// ErrInsufficientBlocks reports that fewer blocks are present than the
	// original count requires.
	ErrInsufficientBlocks = errors.New("erasure coding: insufficient blocks")

	// ErrInvalidRedundancy reports an explicitly rejected redundancy value.
	// Encode calls clamp rather than reject, so it only surfaces through
	// parameter validation.
	ErrInvalidRedundancy = errors.New("erasure coding: invalid redundancy")
)

// Coder is the contract every erasure coding algorithm implements.
//
// Encode returns the systematic block set: the input blocks verbatim,
// followed by parity or repair blocks. Decode takes a sparse block set in
// which nil entries mark erasures and recovers exactly originalCount source
// blocks, or fails; it never returns a partial result.
type Coder interface {
	Encode(data [][]byte, redundancy float64) [][]byte
	Decode(blocks [][]byte, originalCount int) ([][]byte, error)
}
