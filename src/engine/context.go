package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
	"golang.org/x/exp/maps"
)

// Capability gates the operations a Context may perform. Capabilities must be
// enabled explicitly before the dependent key-generation call; enabling the
// same capability twice is a no-op.
type Capability uint32

const (
	CapEncryption Capability = 1 << iota
	CapKeySwitching
	CapLeveledOps
	CapAdvancedOps
	CapRefresh
	CapSchemeSwitching
)

// CapAll is the full capability set required by the argmin handoff.
const CapAll = CapEncryption | CapKeySwitching | CapLeveledOps |
	CapAdvancedOps | CapRefresh | CapSchemeSwitching

func (c Capability) String() string {
	switch c {
	case CapEncryption:
		return "encryption"
	case CapKeySwitching:
		return "key-switching"
	case CapLeveledOps:
		return "leveled-ops"
	case CapAdvancedOps:
		return "advanced-ops"
	case CapRefresh:
		return "refresh"
	case CapSchemeSwitching:
		return "scheme-switching"
	}
	return fmt.Sprintf("capability(%#x)", uint32(c))
}

var (
	ErrNoRelinearizationKey = errors.New("engine: relinearization key not attached")
	ErrNoRotationKeys       = errors.New("engine: rotation keys not attached")
	ErrNoBinContext         = errors.New("engine: secondary bin context not attached")
	ErrNoSwitchingKey       = errors.New("engine: inter-scheme switching key not attached")
	ErrNoPrecompute         = errors.New("engine: comparison precompute has not been run")
)

// Context is a CKKS evaluation context together with its live key registry.
// The registry (relinearization key, rotation keys, attached bin context,
// inter-scheme switching key) is never serialized with the context itself;
// each piece is re-attached explicitly after transport.
type Context struct {
	scheme SchemeParameters
	params ckks.Parameters
	caps   Capability

	relinKey   *rlwe.RelinearizationKey
	galoisKeys map[uint64]*rlwe.GaloisKey

	bin         *BinContext
	switchKeyFC *rlwe.Ciphertext
	precomp     *ComparePrecompute
}

// NewContext derives a fresh Context with no enabled capabilities and an
// empty key registry.
func NewContext(sp SchemeParameters) (*Context, error) {
	if err := sp.validate(); err != nil {
		return nil, err
	}
	params, err := ckks.NewParametersFromLiteral(sp.literal())
	if err != nil {
		return nil, fmt.Errorf("engine: ckks parameters: %w", err)
	}
	return &Context{
		scheme:     sp,
		params:     params,
		galoisKeys: make(map[uint64]*rlwe.GaloisKey),
	}, nil
}

// Enable turns on the given capabilities. Idempotent.
func (c *Context) Enable(caps Capability) {
	c.caps |= caps
}

// Enabled reports whether every capability in caps is enabled.
func (c *Context) Enabled(caps Capability) bool {
	return c.caps&caps == caps
}

func (c *Context) require(caps Capability) error {
	if missing := caps &^ c.caps; missing != 0 {
		return fmt.Errorf("engine: capability %v not enabled on context", missing)
	}
	return nil
}

// Parameters exposes the underlying lattigo parameter set.
func (c *Context) Parameters() ckks.Parameters {
	return c.params
}

// SchemeParameters returns the literal the context was derived from.
func (c *Context) SchemeParameters() SchemeParameters {
	return c.scheme
}

// AttachRelinearizationKey puts rlk into the live key registry.
func (c *Context) AttachRelinearizationKey(rlk *rlwe.RelinearizationKey) {
	c.relinKey = rlk
}

// AttachGaloisKeys merges the given keys into the live registry, indexed by
// their Galois element.
func (c *Context) AttachGaloisKeys(gks ...*rlwe.GaloisKey) {
	for _, gk := range gks {
		c.galoisKeys[gk.GaloisElement] = gk
	}
}

// MultiplicationKeySet returns the relinearization key wrapped as a key set,
// the unit the multi-key encoder transports.
func (c *Context) MultiplicationKeySet() (*rlwe.MemEvaluationKeySet, error) {
	if c.relinKey == nil {
		return nil, ErrNoRelinearizationKey
	}
	return rlwe.NewMemEvaluationKeySet(c.relinKey), nil
}

// RotationKeySet returns every rotation key in the live registry as a single
// key set.
func (c *Context) RotationKeySet() (*rlwe.MemEvaluationKeySet, error) {
	if len(c.galoisKeys) == 0 {
		return nil, ErrNoRotationKeys
	}
	return rlwe.NewMemEvaluationKeySet(nil, maps.Values(c.galoisKeys)...), nil
}

// evaluationKeySet assembles the full live registry for an evaluator.
func (c *Context) evaluationKeySet() (*rlwe.MemEvaluationKeySet, error) {
	if c.relinKey == nil {
		return nil, ErrNoRelinearizationKey
	}
	if len(c.galoisKeys) == 0 {
		return nil, ErrNoRotationKeys
	}
	return rlwe.NewMemEvaluationKeySet(c.relinKey, maps.Values(c.galoisKeys)...), nil
}

// SetBinContext re-attaches the secondary context. Context deserialization
// never restores it automatically.
func (c *Context) SetBinContext(bin *BinContext) {
	c.bin = bin
}

// BinContext returns the attached secondary context, or nil.
func (c *Context) BinContext() *BinContext {
	return c.bin
}

// SetSwitchingKey re-attaches the inter-scheme switching key, a
// ciphertext-shaped object owned by the primary context.
func (c *Context) SetSwitchingKey(swk *rlwe.Ciphertext) {
	c.switchKeyFC = swk
}

// SwitchingKey returns the attached inter-scheme switching key, or nil.
func (c *Context) SwitchingKey() *rlwe.Ciphertext {
	return c.switchKeyFC
}

// MarshalBinary encodes the capability set and the scheme parameters. Keys,
// the bin context, and the switching key are transported separately.
func (c *Context) MarshalBinary() (data []byte, err error) {
	var params []byte
	if params, err = c.params.MarshalBinary(); err != nil {
		return nil, fmt.Errorf("engine: marshal parameters: %w", err)
	}
	buf := new(bytes.Buffer)
	if err = binary.Write(buf, binary.BigEndian, uint32(c.caps)); err != nil {
		return nil, err
	}
	sp := [5]int32{
		int32(c.scheme.Depth), int32(c.scheme.LogRingDegree), int32(c.scheme.BatchSize),
		int32(c.scheme.ScaleModSize), int32(c.scheme.FirstModSize),
	}
	if err = binary.Write(buf, binary.BigEndian, sp); err != nil {
		return nil, err
	}
	buf.Write(params)
	return buf.Bytes(), nil
}

// UnmarshalBinary is the inverse of MarshalBinary. The key registry of the
// decoded context is empty.
func (c *Context) UnmarshalBinary(data []byte) (err error) {
	if len(data) < 4+5*4 {
		return fmt.Errorf("engine: context blob too short (%d bytes)", len(data))
	}
	buf := bytes.NewReader(data)
	var caps uint32
	if err = binary.Read(buf, binary.BigEndian, &caps); err != nil {
		return err
	}
	var sp [5]int32
	if err = binary.Read(buf, binary.BigEndian, &sp); err != nil {
		return err
	}
	if err = c.params.UnmarshalBinary(data[4+5*4:]); err != nil {
		return fmt.Errorf("engine: unmarshal parameters: %w", err)
	}
	c.caps = Capability(caps)
	c.scheme = SchemeParameters{
		Depth: int(sp[0]), LogRingDegree: int(sp[1]), BatchSize: int(sp[2]),
		ScaleModSize: int(sp[3]), FirstModSize: int(sp[4]),
	}
	c.relinKey = nil
	c.galoisKeys = make(map[uint64]*rlwe.GaloisKey)
	c.bin = nil
	c.switchKeyFC = nil
	c.precomp = nil
	return nil
}
