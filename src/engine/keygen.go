package engine

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
)

// KeyPair holds the primary scheme's key material. The secret key stays with
// the party that generated it and is never packed into a bundle.
type KeyPair struct {
	Secret *rlwe.SecretKey
	Public *rlwe.PublicKey
}

// GenKeyPair generates a fresh key pair. Requires the encryption capability.
func (c *Context) GenKeyPair() (*KeyPair, error) {
	if err := c.require(CapEncryption); err != nil {
		return nil, err
	}
	kgen := rlwe.NewKeyGenerator(c.params)
	sk := kgen.GenSecretKeyNew()
	return &KeyPair{
		Secret: sk,
		Public: kgen.GenPublicKeyNew(sk),
	}, nil
}

// GenMultiplicationKey generates the relinearization key and attaches it to
// the live registry.
func (c *Context) GenMultiplicationKey(kp *KeyPair) error {
	if err := c.require(CapKeySwitching | CapLeveledOps); err != nil {
		return err
	}
	kgen := rlwe.NewKeyGenerator(c.params)
	c.AttachRelinearizationKey(kgen.GenRelinearizationKeyNew(kp.Secret))
	return nil
}

// GenRotationKeys generates the Galois keys for every power-of-two left
// rotation within the batch, plus the complex conjugation, and attaches them
// to the live registry. These cover every automorphism the argmin circuit
// applies.
func (c *Context) GenRotationKeys(kp *KeyPair) error {
	if err := c.require(CapAdvancedOps); err != nil {
		return err
	}
	galEls := make([]uint64, 0, c.scheme.LogBatchSize()+1)
	for s := 1; s < c.scheme.BatchSize; s <<= 1 {
		galEls = append(galEls, c.params.GaloisElementForRotation(s))
	}
	galEls = append(galEls, c.params.GaloisElementForComplexConjugation())

	kgen := rlwe.NewKeyGenerator(c.params)
	c.AttachGaloisKeys(kgen.GenGaloisKeysNew(galEls, kp.Secret)...)
	return nil
}

// missingRotation returns the first rotation amount whose Galois key is not
// in the live registry, if any.
func (c *Context) missingRotation() (int, bool) {
	for s := 1; s < c.scheme.BatchSize; s <<= 1 {
		if _, ok := c.galoisKeys[c.params.GaloisElementForRotation(s)]; !ok {
			return s, true
		}
	}
	if _, ok := c.galoisKeys[c.params.GaloisElementForComplexConjugation()]; !ok {
		return -1, true
	}
	return 0, false
}

// checkRotationKeys verifies the registry holds every key the argmin circuit
// rotates with.
func (c *Context) checkRotationKeys() error {
	if s, missing := c.missingRotation(); missing {
		if s < 0 {
			return fmt.Errorf("%w: conjugation key absent", ErrNoRotationKeys)
		}
		return fmt.Errorf("%w: rotation by %d absent", ErrNoRotationKeys, s)
	}
	return nil
}
