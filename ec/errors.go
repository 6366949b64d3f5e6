package ec

import "github.com/chunkflow/resilience/ec/code"

// The engine's error kinds, re-exported from the shared coder surface so
// callers can match with errors.Is without importing the subpackages. Encode
// operations never return them; Decode is the sole error surface.
var (
	ErrDecodingFailed     = code.ErrDecodingFailed
	ErrInsufficientBlocks = code.ErrInsufficientBlocks
	ErrInvalidRedundancy  = code.ErrInvalidRedundancy
)
