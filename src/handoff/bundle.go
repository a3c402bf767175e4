// Package handoff implements the transport layer between the two parties: a
// shared bundle directory of named binary blobs plus a manifest listing every
// blob with its content digest and the decomposition bases present in the
// bootstrap key map.
package handoff

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"heswitch/configs"
	"heswitch/src/utils"

	"github.com/zeebo/blake3"
)

// Artifact kinds, written into every blob header so a file fed to the wrong
// loader is rejected before cryptographic parsing.
const (
	KindContext byte = iota + 1
	KindPublicKey
	KindMultiplicationKeys
	KindRotationKeys
	KindSwitchingKey
	KindCiphertext
	KindBinContext
	KindBootstrapKey

	// KindSecretKey never appears in a bundle; it tags the server's local
	// key file so a bundle blob can not be loaded as a secret key.
	KindSecretKey
)

// Manifest is the bundle's table of contents. A blob missing from the
// directory, or whose digest does not match, makes the whole bundle invalid.
type Manifest struct {
	Blobs map[string]string `json:"blobs"`
	Bases []int             `json:"bases"`
}

// RefreshBlobName returns the blob name of the refresh key for base.
func RefreshBlobName(base int) string {
	return fmt.Sprintf(configs.BinMapRefreshFormat, base)
}

// SwitchBlobName returns the blob name of the switching key for base.
func SwitchBlobName(base int) string {
	return fmt.Sprintf(configs.BinMapSwitchFormat, base)
}

func digest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	hasher := blake3.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Packager writes artifacts into a bundle directory and records them in the
// manifest.
type Packager struct {
	dir      string
	manifest Manifest
}

func NewPackager(dir string) *Packager {
	utils.CreateDir(dir)
	return &Packager{
		dir:      dir,
		manifest: Manifest{Blobs: make(map[string]string)},
	}
}

// Pack serializes artifact into the named blob and records its digest.
func (p *Packager) Pack(name string, kind byte, artifact any) error {
	path := filepath.Join(p.dir, name)
	if err := utils.Pack(artifact, kind, path); err != nil {
		return fmt.Errorf("pack %s: %w", name, err)
	}
	sum, err := digest(path)
	if err != nil {
		return fmt.Errorf("pack %s: digest: %w", name, err)
	}
	p.manifest.Blobs[name] = sum
	return nil
}

// PackBootstrapEntry records base in the manifest and packs its key pair.
func (p *Packager) PackBootstrapEntry(base int, refresh, swk any) error {
	if err := p.Pack(RefreshBlobName(base), KindBootstrapKey, refresh); err != nil {
		return err
	}
	if err := p.Pack(SwitchBlobName(base), KindBootstrapKey, swk); err != nil {
		return err
	}
	p.manifest.Bases = append(p.manifest.Bases, base)
	sort.Ints(p.manifest.Bases)
	return nil
}

// Finalize writes the manifest. A bundle without a manifest is not a bundle.
func (p *Packager) Finalize() error {
	data, err := json.MarshalIndent(p.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("finalize bundle: %w", err)
	}
	path := filepath.Join(p.dir, configs.Manifest)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("finalize bundle: %w", err)
	}
	return nil
}

// Unpackager reads artifacts back out of a bundle directory, verifying each
// blob against the manifest before deserializing it.
type Unpackager struct {
	dir      string
	manifest Manifest
}

// OpenBundle reads and parses the bundle's manifest.
func OpenBundle(dir string) (*Unpackager, error) {
	data, err := os.ReadFile(filepath.Join(dir, configs.Manifest))
	if err != nil {
		return nil, fmt.Errorf("open bundle: manifest: %w", err)
	}
	u := &Unpackager{dir: dir}
	if err := json.Unmarshal(data, &u.manifest); err != nil {
		return nil, fmt.Errorf("open bundle: manifest: %w", err)
	}
	if len(u.manifest.Bases) == 0 {
		return nil, fmt.Errorf("open bundle: manifest lists no decomposition bases")
	}
	return u, nil
}

// Bases returns the decomposition bases the bundle carries bootstrap entries
// for, in ascending order.
func (u *Unpackager) Bases() []int {
	bases := make([]int, len(u.manifest.Bases))
	copy(bases, u.manifest.Bases)
	return bases
}

// Unpack verifies the named blob's digest and deserializes it into artifact.
func (u *Unpackager) Unpack(name string, kind byte, artifact any) error {
	want, ok := u.manifest.Blobs[name]
	if !ok {
		return fmt.Errorf("unpack %s: not listed in manifest", name)
	}
	path := filepath.Join(u.dir, name)
	have, err := digest(path)
	if err != nil {
		return fmt.Errorf("unpack %s: %w", name, err)
	}
	if have != want {
		return fmt.Errorf("unpack %s: digest mismatch", name)
	}
	if err := utils.Unpack(artifact, kind, path); err != nil {
		return fmt.Errorf("unpack %s: %w", name, err)
	}
	return nil
}
