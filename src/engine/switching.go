package engine

import (
	"fmt"
	"math"
	"math/big"

	ckkspoly "github.com/tuneinsight/lattigo/v6/circuits/ckks/polynomial"
	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
	"github.com/tuneinsight/lattigo/v6/utils"
	"github.com/tuneinsight/lattigo/v6/utils/bignum"
)

// DefaultDecompositionBase is the decomposition base used for the bootstrap
// key map when the caller does not name any.
const DefaultDecompositionBase = 1 << 18

// SwitchingConfig parameterizes the secondary context and the key material
// binding it to the primary one.
type SwitchingConfig struct {
	Preset            SecurityPreset
	ArbitraryFunction bool
	LogModulus        int // LWE ciphertext modulus bits
	BatchSize         int // values carried through the switch
	Slots             int
	OneHot            bool
	Bases             []int // decomposition bases for the bootstrap key map
}

func (cfg *SwitchingConfig) fillDefaults(c *Context) {
	if cfg.LogModulus == 0 {
		cfg.LogModulus = 25
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = c.scheme.BatchSize
	}
	if cfg.Slots == 0 {
		cfg.Slots = cfg.BatchSize
	}
	if len(cfg.Bases) == 0 {
		cfg.Bases = []int{DefaultDecompositionBase}
	}
}

// SecondarySecret is the secondary scheme's private key handle returned by
// SchemeSwitchingSetup. It is consumable only by SchemeSwitchingKeyGen on the
// same context and is neither retained nor transported.
type SecondarySecret struct {
	owner *Context
	bin   *BinContext
	sk    *rlwe.SecretKey
	cfg   SwitchingConfig
}

// SchemeSwitchingSetup allocates and parameterizes the secondary context,
// binds it to the primary one, and returns the secondary private-key handle
// needed by the keygen step.
func (c *Context) SchemeSwitchingSetup(cfg SwitchingConfig) (*SecondarySecret, error) {
	if err := c.require(CapRefresh | CapSchemeSwitching); err != nil {
		return nil, err
	}
	cfg.fillDefaults(c)

	if cfg.BatchSize > c.scheme.BatchSize {
		return nil, fmt.Errorf("engine: switching batch %d exceeds context batch %d", cfg.BatchSize, c.scheme.BatchSize)
	}
	for _, base := range cfg.Bases {
		if base < 2 || base&(base-1) != 0 {
			return nil, fmt.Errorf("engine: decomposition base must be a power of two >= 2, got %d", base)
		}
	}

	bin, err := newBinContext(cfg.Preset, cfg.ArbitraryFunction, cfg.LogModulus)
	if err != nil {
		return nil, err
	}
	if bin.params.N() > c.params.MaxSlots() {
		return nil, fmt.Errorf("engine: bin ring degree %d does not fit in %d primary slots", bin.params.N(), c.params.MaxSlots())
	}

	kgen := rlwe.NewKeyGenerator(bin.params)
	sec := &SecondarySecret{
		owner: c,
		bin:   bin,
		sk:    kgen.GenSecretKeyNew(),
		cfg:   cfg,
	}
	c.SetBinContext(bin)
	return sec, nil
}

// SchemeSwitchingKeyGen consumes the secondary private handle to finalize the
// switching material: the secondary context's default and per-base bootstrap
// keys, and the inter-scheme switching key attached to the primary context.
func (c *Context) SchemeSwitchingKeyGen(kp *KeyPair, sec *SecondarySecret) error {
	if kp == nil || kp.Secret == nil || kp.Public == nil {
		return fmt.Errorf("engine: scheme-switching keygen requires a complete key pair")
	}
	if sec == nil || sec.owner != c || sec.bin != c.bin {
		return fmt.Errorf("engine: secondary secret handle does not belong to this context")
	}

	bin := sec.bin
	kgen := rlwe.NewKeyGenerator(bin.params)

	bin.SetBootstrapKey(&BootstrapKey{
		Refresh: kgen.GenEvaluationKeyNew(sec.sk, sec.sk),
		Switch:  kgen.GenEvaluationKeyNew(sec.sk, sec.sk),
	})

	for _, base := range sec.cfg.Bases {
		evkParams := rlwe.EvaluationKeyParameters{
			BaseTwoDecomposition: utils.Pointy(int(math.Log2(float64(base)))),
		}
		entry := &BootstrapKey{
			Refresh: kgen.GenEvaluationKeyNew(sec.sk, sec.sk, evkParams),
			Switch:  kgen.GenEvaluationKeyNew(sec.sk, sec.sk, evkParams),
		}
		if err := bin.LoadBootstrapEntry(base, entry); err != nil {
			return err
		}
	}

	swk, err := c.genSwitchingKey(kp.Public, sec)
	if err != nil {
		return fmt.Errorf("engine: inter-scheme switching key: %w", err)
	}
	c.SetSwitchingKey(swk)

	// The handle is single-use.
	sec.sk = nil
	sec.owner = nil
	return nil
}

// genSwitchingKey encrypts the secondary secret's coefficient vector under
// the primary public key, producing the ciphertext-shaped key that lets a
// ciphertext cross from the secondary scheme back into the primary one.
func (c *Context) genSwitchingKey(pk *rlwe.PublicKey, sec *SecondarySecret) (*rlwe.Ciphertext, error) {
	bin := sec.bin
	ringQ := bin.params.RingQ()

	coeffs := sec.sk.Value.Q.CopyNew()
	ringQ.INTT(*coeffs, *coeffs)
	ringQ.IMForm(*coeffs, *coeffs)

	q := ringQ.SubRings[0].Modulus
	half := q >> 1
	values := make([]float64, bin.params.N())
	for i, coeff := range coeffs.Coeffs[0] {
		if coeff > half {
			values[i] = -float64(q - coeff)
		} else {
			values[i] = float64(coeff)
		}
	}

	pt := ckks.NewPlaintext(c.params, c.params.MaxLevel())
	ecd := ckks.NewEncoder(c.params)
	if err := ecd.Encode(values, pt); err != nil {
		return nil, err
	}
	enc := rlwe.NewEncryptor(c.params, pk)
	return enc.EncryptNew(pt)
}

// ComparePrecompute is the one-time precomputation required before any
// comparison-based switching evaluation.
type ComparePrecompute struct {
	PLWE      uint64
	Shift     float64
	ScaleSign float64
	Unit      bool

	passes   int
	signPoly ckkspoly.Polynomial
}

// EvalCompareSwitchPrecompute derives the sign-evaluation schedule for
// comparisons over differences bounded by scaleSign, against the working
// plaintext modulus pLWE. Must run after the secondary context is attached
// and before EvalMinSchemeSwitching.
func (c *Context) EvalCompareSwitchPrecompute(pLWE uint64, shift, scaleSign float64, unit bool) error {
	if c.bin == nil {
		return ErrNoBinContext
	}
	if pLWE == 0 {
		return fmt.Errorf("engine: precompute requires a positive plaintext modulus")
	}
	if scaleSign < 1 || scaleSign > float64(pLWE) {
		return fmt.Errorf("engine: scaleSign %.1f outside [1, pLWE=%d]", scaleSign, pLWE)
	}

	c.precomp = &ComparePrecompute{
		PLWE:      pLWE,
		Shift:     shift,
		ScaleSign: scaleSign,
		Unit:      unit,
		passes:    signPasses(scaleSign),
		signPoly:  ckkspoly.NewPolynomial(signBasePolynomial()),
	}
	return nil
}

// Precomputed reports whether the comparison precompute has run.
func (c *Context) Precomputed() bool {
	return c.precomp != nil
}

// signSlope is the per-pass gain of the sign approximation.
const signSlope = 4.0

// signPolyDegree is the Chebyshev degree of one approximation pass.
const signPolyDegree = 15

// signPasses returns how many composite passes of the base polynomial are
// needed to saturate sign(x) for |x| >= 1/scaleSign.
func signPasses(scaleSign float64) int {
	return int(math.Ceil(math.Log2(3*scaleSign) / math.Log2(signSlope)))
}

// signBasePolynomial approximates tanh(4x) on [-1, 1]. Composing it with
// itself steepens the transition around zero while keeping the output inside
// [-1, 1], so the composition converges to the sign function.
func signBasePolynomial() bignum.Polynomial {
	const prec = 128
	f := func(x *big.Float) (y *big.Float) {
		v, _ := x.Float64()
		return new(big.Float).SetPrec(prec).SetFloat64(math.Tanh(signSlope * v))
	}
	return bignum.ChebyshevApproximation(f, bignum.Interval{
		A:     *bignum.NewFloat(-1, prec),
		B:     *bignum.NewFloat(1, prec),
		Nodes: signPolyDegree,
	})
}
