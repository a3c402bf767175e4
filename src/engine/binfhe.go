package engine

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
)

// SecurityPreset selects the secondary context's parameter set.
type SecurityPreset uint8

const (
	// BinToy is an insecure parameter set for fast demonstration runs.
	BinToy SecurityPreset = iota
	// BinStd128 targets 128-bit security for the secondary scheme.
	BinStd128
)

func (p SecurityPreset) String() string {
	switch p {
	case BinToy:
		return "toy"
	case BinStd128:
		return "std128"
	}
	return fmt.Sprintf("preset(%d)", uint8(p))
}

// binBeta is the noise-bound parameter of the bit-oriented scheme. The
// working plaintext modulus for comparisons is modulus/(2*beta).
const binBeta = 128

// BootstrapKey is one refresh/switching key pair for the secondary context's
// internal bootstrapping.
type BootstrapKey struct {
	Refresh *rlwe.EvaluationKey
	Switch  *rlwe.EvaluationKey
}

// BootstrapKeyMap holds one BootstrapKey per decomposition base. Entries are
// inserted one at a time, both during generation and during per-entry
// reconstruction; no entry depends on the presence of any other.
type BootstrapKeyMap struct {
	entries map[int]*BootstrapKey
}

func NewBootstrapKeyMap() *BootstrapKeyMap {
	return &BootstrapKeyMap{entries: make(map[int]*BootstrapKey)}
}

// Insert stores key under base, replacing any previous entry.
func (m *BootstrapKeyMap) Insert(base int, key *BootstrapKey) {
	m.entries[base] = key
}

// Lookup returns the entry for base.
func (m *BootstrapKeyMap) Lookup(base int) (*BootstrapKey, bool) {
	key, ok := m.entries[base]
	return key, ok
}

// Bases returns the sorted set of decomposition bases present in the map.
func (m *BootstrapKeyMap) Bases() []int {
	bases := make([]int, 0, len(m.entries))
	for base := range m.entries {
		bases = append(bases, base)
	}
	sort.Ints(bases)
	return bases
}

func (m *BootstrapKeyMap) Len() int {
	return len(m.entries)
}

// BinContext is the secondary, bit-oriented evaluation context used as the
// scheme-switching target. It is created only through SchemeSwitchingSetup,
// which binds it to a primary context.
type BinContext struct {
	params     rlwe.Parameters
	preset     SecurityPreset
	arbitrary  bool
	logModulus int

	boot    *BootstrapKey
	bootMap *BootstrapKeyMap
}

func newBinContext(preset SecurityPreset, arbitrary bool, logModulus int) (*BinContext, error) {
	var logN int
	switch preset {
	case BinToy:
		logN = 9
	case BinStd128:
		logN = 10
	default:
		return nil, fmt.Errorf("engine: unknown security preset %v", preset)
	}
	if logModulus < 12 || logModulus > 29 {
		return nil, fmt.Errorf("engine: bin modulus must have 12..29 bits, got %d", logModulus)
	}
	params, err := rlwe.NewParametersFromLiteral(rlwe.ParametersLiteral{
		LogN:    logN,
		LogQ:    []int{logModulus},
		LogP:    []int{15},
		NTTFlag: true,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: bin parameters: %w", err)
	}
	return &BinContext{
		params:     params,
		preset:     preset,
		arbitrary:  arbitrary,
		logModulus: logModulus,
		bootMap:    NewBootstrapKeyMap(),
	}, nil
}

// Parameters exposes the secondary scheme's lattigo parameters.
func (b *BinContext) Parameters() rlwe.Parameters {
	return b.params
}

// Preset returns the security preset the context was built with.
func (b *BinContext) Preset() SecurityPreset {
	return b.preset
}

// ArbitraryFunction reports whether the context supports arbitrary function
// evaluation.
func (b *BinContext) ArbitraryFunction() bool {
	return b.arbitrary
}

// LogModulus returns the bit-length of the LWE ciphertext modulus.
func (b *BinContext) LogModulus() int {
	return b.logModulus
}

// Modulus returns the power-of-two LWE ciphertext modulus.
func (b *BinContext) Modulus() uint64 {
	return 1 << b.logModulus
}

// Beta returns the noise-bound parameter used to derive the comparison
// plaintext modulus.
func (b *BinContext) Beta() int {
	return binBeta
}

// SetBootstrapKey installs the default refresh/switching bundle.
func (b *BinContext) SetBootstrapKey(key *BootstrapKey) {
	b.boot = key
}

// BootstrapKey returns the default bundle, or nil.
func (b *BinContext) BootstrapKey() *BootstrapKey {
	return b.boot
}

// LoadBootstrapEntry inserts one refresh/switching pair into the map under
// its decomposition base. Entries may arrive in any order.
func (b *BinContext) LoadBootstrapEntry(base int, key *BootstrapKey) error {
	if base < 2 {
		return fmt.Errorf("engine: decomposition base must be >= 2, got %d", base)
	}
	if key == nil || key.Refresh == nil || key.Switch == nil {
		return fmt.Errorf("engine: incomplete bootstrap entry for base %d", base)
	}
	b.bootMap.Insert(base, key)
	return nil
}

// BootstrapEntry returns the map entry for base.
func (b *BinContext) BootstrapEntry(base int) (*BootstrapKey, bool) {
	return b.bootMap.Lookup(base)
}

// Bases returns the decomposition bases currently loaded.
func (b *BinContext) Bases() []int {
	return b.bootMap.Bases()
}

// MarshalBinary encodes the parameter set and flags. Bootstrap keys travel
// as separate blobs and are never encoded with the context.
func (b *BinContext) MarshalBinary() (data []byte, err error) {
	var params []byte
	if params, err = b.params.MarshalBinary(); err != nil {
		return nil, fmt.Errorf("engine: marshal bin parameters: %w", err)
	}
	buf := new(bytes.Buffer)
	buf.WriteByte(byte(b.preset))
	if b.arbitrary {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	if err = binary.Write(buf, binary.BigEndian, int32(b.logModulus)); err != nil {
		return nil, err
	}
	buf.Write(params)
	return buf.Bytes(), nil
}

// UnmarshalBinary is the inverse of MarshalBinary. The decoded context holds
// no bootstrap keys.
func (b *BinContext) UnmarshalBinary(data []byte) (err error) {
	if len(data) < 6 {
		return fmt.Errorf("engine: bin context blob too short (%d bytes)", len(data))
	}
	b.preset = SecurityPreset(data[0])
	b.arbitrary = data[1] == 1
	b.logModulus = int(int32(binary.BigEndian.Uint32(data[2:6])))
	if err = b.params.UnmarshalBinary(data[6:]); err != nil {
		return fmt.Errorf("engine: unmarshal bin parameters: %w", err)
	}
	b.boot = nil
	b.bootMap = NewBootstrapKeyMap()
	return nil
}
