package engine

import (
	"fmt"
	"math"

	ckkspoly "github.com/tuneinsight/lattigo/v6/circuits/ckks/polynomial"
	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

// ArgminDepth returns the multiplicative depth consumed by the switching
// argmin over slots values with the given sign scaling factor: per tournament
// round, one level to normalize the differences, four per sign approximation
// pass, one for the selector and one for the select/indicator products, plus
// slack for the result encoding.
func ArgminDepth(slots int, scaleSign float64) int {
	rounds := int(math.Ceil(math.Log2(float64(slots))))
	perRound := 4*signPasses(scaleSign) + 3
	return rounds*perRound + 2
}

// EvalMinSchemeSwitching runs the comparison-based argmin over the slot range
// [start, end) of ct. It returns two ciphertexts: the running minimum
// replicated in every slot, and either a one-hot indicator of the minimum's
// position (oneHot true) or the position itself replicated in every slot
// (oneHot false). Both results are re-randomized under pk before they are
// returned.
//
// The secondary context, the inter-scheme switching key, the comparison
// precompute, and the full evaluation key set must all be attached; any
// absence fails fast before evaluation starts.
func (c *Context) EvalMinSchemeSwitching(ct *rlwe.Ciphertext, pk *rlwe.PublicKey, start, end int, oneHot bool) ([]*rlwe.Ciphertext, error) {
	if c.bin == nil {
		return nil, ErrNoBinContext
	}
	if c.switchKeyFC == nil {
		return nil, ErrNoSwitchingKey
	}
	if c.precomp == nil {
		return nil, ErrNoPrecompute
	}
	if err := c.checkRotationKeys(); err != nil {
		return nil, err
	}
	evk, err := c.evaluationKeySet()
	if err != nil {
		return nil, err
	}

	n := end - start
	if n < 2 || n&(n-1) != 0 {
		return nil, fmt.Errorf("engine: argmin range must cover a power of two >= 2 slots, got %d", n)
	}
	if n != ct.Slots() {
		return nil, fmt.Errorf("engine: argmin range %d does not match ciphertext slot count %d", n, ct.Slots())
	}

	eval := ckks.NewEvaluator(c.params, evk)
	polyEval := ckkspoly.NewEvaluator(c.params, eval)

	minimum := ct.CopyNew()

	// indicator[j] accumulates the product of the selectors of slot j's
	// comparisons; it ends up 1 exactly where the global minimum sits.
	var indicator *rlwe.Ciphertext

	for shift := n / 2; shift >= 1; shift >>= 1 {

		var rot, diff, sel *rlwe.Ciphertext

		if rot, err = eval.RotateNew(minimum, shift); err != nil {
			return nil, fmt.Errorf("engine: rotate by %d: %w", shift, err)
		}
		if diff, err = eval.SubNew(minimum, rot); err != nil {
			return nil, err
		}

		// Normalized difference in [-1, 1], then its sign.
		var x *rlwe.Ciphertext
		if x, err = eval.MulNew(diff, 1/c.precomp.ScaleSign); err != nil {
			return nil, err
		}
		if err = eval.Rescale(x, x); err != nil {
			return nil, err
		}
		if x, err = c.evalSign(eval, polyEval, x); err != nil {
			return nil, fmt.Errorf("engine: sign evaluation: %w", err)
		}

		// Selector (1 - sign)/2: 1 when the local value is the smaller
		// of the compared pair.
		if sel, err = eval.MulNew(x, -0.5); err != nil {
			return nil, err
		}
		if err = eval.Rescale(sel, sel); err != nil {
			return nil, err
		}
		if err = eval.Add(sel, 0.5, sel); err != nil {
			return nil, err
		}

		// minimum = rot + sel*diff
		var keep *rlwe.Ciphertext
		if keep, err = eval.MulRelinNew(sel, diff); err != nil {
			return nil, err
		}
		if err = eval.Rescale(keep, keep); err != nil {
			return nil, err
		}
		if minimum, err = eval.AddNew(rot, keep); err != nil {
			return nil, err
		}

		if indicator == nil {
			indicator = sel
		} else {
			if indicator, err = eval.MulRelinNew(indicator, sel); err != nil {
				return nil, err
			}
			if err = eval.Rescale(indicator, indicator); err != nil {
				return nil, err
			}
		}
	}

	if !oneHot {
		if indicator, err = c.indexEncode(eval, indicator, n); err != nil {
			return nil, fmt.Errorf("engine: index encoding: %w", err)
		}
	}

	// Re-randomize before handing the results back.
	enc := rlwe.NewEncryptor(c.params, pk)
	for _, res := range []*rlwe.Ciphertext{minimum, indicator} {
		zero := enc.EncryptZeroNew(res.Level())
		*zero.MetaData = *res.MetaData
		if err = eval.Add(res, zero, res); err != nil {
			return nil, err
		}
	}

	return []*rlwe.Ciphertext{minimum, indicator}, nil
}

// evalSign applies the composite sign approximation: repeated evaluation of
// the base polynomial, cleaning the imaginary part after each pass.
func (c *Context) evalSign(eval *ckks.Evaluator, polyEval *ckkspoly.Evaluator, x *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	var err error
	half := rlwe.NewScale(2)
	for i := 0; i < c.precomp.passes; i++ {
		if x, err = polyEval.Evaluate(x, c.precomp.signPoly, c.params.DefaultScale().Div(half)); err != nil {
			return nil, err
		}
		// (v + conj(v)) recovers twice the real part; declaring twice
		// the scale folds the doubling away.
		x.Scale = x.Scale.Mul(half)
		var conj *rlwe.Ciphertext
		if conj, err = eval.ConjugateNew(x); err != nil {
			return nil, err
		}
		if err = eval.Add(x, conj, x); err != nil {
			return nil, err
		}
	}
	return x, nil
}

// indexEncode turns the one-hot indicator into the minimum's position
// replicated in every slot: multiply by [0, 1, ..., n-1], then fold with
// power-of-two rotations.
func (c *Context) indexEncode(eval *ckks.Evaluator, indicator *rlwe.Ciphertext, n int) (*rlwe.Ciphertext, error) {
	indices := make([]float64, n)
	for i := range indices {
		indices[i] = float64(i)
	}
	pos, err := eval.MulRelinNew(indicator, indices)
	if err != nil {
		return nil, err
	}
	if err = eval.Rescale(pos, pos); err != nil {
		return nil, err
	}
	for shift := 1; shift < n; shift <<= 1 {
		rot, err := eval.RotateNew(pos, shift)
		if err != nil {
			return nil, err
		}
		if err = eval.Add(pos, rot, pos); err != nil {
			return nil, err
		}
	}
	return pos, nil
}
