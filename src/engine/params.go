// Package engine wraps the lattigo primitives behind the small surface the
// handoff protocol needs: context and key-pair generation, scheme-switching
// setup between the CKKS context and a secondary bit-oriented context, and
// the comparison-based argmin evaluation.
package engine

import (
	"fmt"
	"math"

	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

// SchemeParameters is the user-facing description of a CKKS context.
// Immutable once a Context has been derived from it.
type SchemeParameters struct {
	Depth         int `json:"depth"`
	LogRingDegree int `json:"log_ring_degree"`
	BatchSize     int `json:"batch_size"`
	ScaleModSize  int `json:"scale_mod_size"`
	FirstModSize  int `json:"first_mod_size"`
}

// ArgminParameters returns parameters deep enough to run the switching-based
// argmin over batchSize slots with the given sign scaling factor.
func ArgminParameters(batchSize int, scaleSign float64) SchemeParameters {
	return SchemeParameters{
		Depth:         ArgminDepth(batchSize, scaleSign),
		LogRingDegree: 11,
		BatchSize:     batchSize,
		ScaleModSize:  45,
		FirstModSize:  55,
	}
}

func (p SchemeParameters) validate() error {
	if p.Depth < 1 {
		return fmt.Errorf("engine: depth must be at least 1, got %d", p.Depth)
	}
	if p.BatchSize < 2 || p.BatchSize&(p.BatchSize-1) != 0 {
		return fmt.Errorf("engine: batch size must be a power of two >= 2, got %d", p.BatchSize)
	}
	if 1<<(p.LogRingDegree-1) < p.BatchSize {
		return fmt.Errorf("engine: ring degree 2^%d too small for batch size %d", p.LogRingDegree, p.BatchSize)
	}
	return nil
}

// LogBatchSize returns log2 of the batch size.
func (p SchemeParameters) LogBatchSize() int {
	return int(math.Round(math.Log2(float64(p.BatchSize))))
}

// literal expands the parameters into a lattigo literal: one first prime and
// Depth scaling primes, with two auxiliary primes for the key switching.
func (p SchemeParameters) literal() ckks.ParametersLiteral {
	logQ := make([]int, p.Depth+1)
	logQ[0] = p.FirstModSize
	for i := 1; i <= p.Depth; i++ {
		logQ[i] = p.ScaleModSize
	}
	return ckks.ParametersLiteral{
		LogN:            p.LogRingDegree,
		LogQ:            logQ,
		LogP:            []int{61, 61},
		LogDefaultScale: p.ScaleModSize,
	}
}
