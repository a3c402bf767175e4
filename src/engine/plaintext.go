package engine

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/ring"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

// Plaintext is a decoded vector with an explicit logical length. The slot
// count of the ciphertext it came from may exceed the number of meaningful
// values; the logical length is tracked here, out of band.
type Plaintext struct {
	values []float64
	length int
}

func NewPlaintext(values []float64) *Plaintext {
	return &Plaintext{values: values, length: len(values)}
}

// SetLength truncates the logical length. The underlying slots are kept.
func (p *Plaintext) SetLength(n int) error {
	if n < 0 || n > len(p.values) {
		return fmt.Errorf("engine: logical length %d outside [0, %d]", n, len(p.values))
	}
	p.length = n
	return nil
}

func (p *Plaintext) Length() int {
	return p.length
}

// Values returns the meaningful prefix of the decoded slots.
func (p *Plaintext) Values() []float64 {
	return p.values[:p.length]
}

// Slots returns every decoded slot, residue included.
func (p *Plaintext) Slots() []float64 {
	return p.values
}

// Encrypt encodes pt into the context's batch and encrypts it under pk. The
// resulting ciphertext carries the batch as its slot count; the logical
// length does not travel with it.
func (c *Context) Encrypt(pk *rlwe.PublicKey, pt *Plaintext) (*rlwe.Ciphertext, error) {
	if err := c.require(CapEncryption); err != nil {
		return nil, err
	}
	if len(pt.values) > c.scheme.BatchSize {
		return nil, fmt.Errorf("engine: %d values exceed batch size %d", len(pt.values), c.scheme.BatchSize)
	}

	values := make([]float64, c.scheme.BatchSize)
	copy(values, pt.values)

	ctPt := ckks.NewPlaintext(c.params, c.params.MaxLevel())
	ctPt.LogDimensions = ring.Dimensions{Rows: 0, Cols: c.scheme.LogBatchSize()}

	ecd := ckks.NewEncoder(c.params)
	if err := ecd.Encode(values, ctPt); err != nil {
		return nil, fmt.Errorf("engine: encode: %w", err)
	}
	enc := rlwe.NewEncryptor(c.params, pk)
	ct, err := enc.EncryptNew(ctPt)
	if err != nil {
		return nil, fmt.Errorf("engine: encrypt: %w", err)
	}
	return ct, nil
}

// Decrypt decrypts and decodes ct. The returned Plaintext's logical length
// starts at the slot count; callers truncate it to the length they tracked.
func (c *Context) Decrypt(sk *rlwe.SecretKey, ct *rlwe.Ciphertext) (*Plaintext, error) {
	if err := c.require(CapEncryption); err != nil {
		return nil, err
	}
	dec := rlwe.NewDecryptor(c.params, sk)
	ecd := ckks.NewEncoder(c.params)

	values := make([]float64, ct.Slots())
	if err := ecd.Decode(dec.DecryptNew(ct), values); err != nil {
		return nil, fmt.Errorf("engine: decode: %w", err)
	}
	return NewPlaintext(values), nil
}
