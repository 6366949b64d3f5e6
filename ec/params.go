package ec

import (
	"fmt"
	"math"

	"github.com/BurntSushi/toml"
)

// Params carries the engine's tunables. The zero value is not useful; start
// from DefaultParams or LoadParams.
type Params struct {
	// Loss-rate ceilings above which the selector abandons fixed-rate
	// Reed-Solomon for the rateless coder. The wider field gets a lower
	// ceiling: with many chunks the same loss rate costs more absolute
	// blocks than a practical parity budget covers.
	GF256LossCeiling   float64 `toml:"gf256_loss_ceiling"`
	GF65536LossCeiling float64 `toml:"gf65536_loss_ceiling"`

	// DefaultRedundancy is the ratio used when the caller has no priority
	// policy or loss estimate to derive one from.
	DefaultRedundancy float64 `toml:"default_redundancy"`
}

// DefaultParams returns the stock tunables.
func DefaultParams() Params {
	return Params{
		GF256LossCeiling:   0.08,
		GF65536LossCeiling: 0.03,
		DefaultRedundancy:  1.5,
	}
}

// LoadParams reads a TOML file over the defaults, so a file only needs to
// name the values it changes.
func LoadParams(path string) (Params, error) {
	params := DefaultParams()
	if _, err := toml.DecodeFile(path, &params); err != nil {
		return Params{}, fmt.Errorf("load params from %s: %w", path, err)
	}
	if err := params.Validate(); err != nil {
		return Params{}, err
	}
	return params, nil
}

// Validate rejects parameter sets the engine cannot operate with. Note that
// encode calls still clamp redundancy per call; this is the one place a bad
// redundancy value is rejected rather than clamped.
func (p Params) Validate() error {
	if p.DefaultRedundancy < 0 || math.IsNaN(p.DefaultRedundancy) || math.IsInf(p.DefaultRedundancy, 0) {
		return fmt.Errorf("default redundancy %v: %w", p.DefaultRedundancy, ErrInvalidRedundancy)
	}
	if p.GF256LossCeiling < 0 || p.GF256LossCeiling > 1 {
		return fmt.Errorf("gf256 loss ceiling %v outside [0, 1]", p.GF256LossCeiling)
	}
	if p.GF65536LossCeiling < 0 || p.GF65536LossCeiling > 1 {
		return fmt.Errorf("gf65536 loss ceiling %v outside [0, 1]", p.GF65536LossCeiling)
	}
	return nil
}
