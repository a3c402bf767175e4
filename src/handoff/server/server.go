// Package server implements the generating party: context and key
// generation, bundle emission, and verification of the returned result.
package server

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"heswitch/configs"
	"heswitch/src/engine"
	"heswitch/src/handoff"
	"heswitch/src/utils"

	"github.com/montanaflynn/stats"
	"github.com/tuneinsight/lattigo/v6/core/rlwe"
)

type Server struct {
	logger    utils.Logger
	bundleDir string
	keysDir   string

	ctx    *engine.Context
	keys   *engine.KeyPair
	vector []float64
}

func NewServer(logger utils.Logger, root string) *Server {
	return &Server{
		logger:    logger,
		bundleDir: filepath.Join(root, configs.Bundle),
		keysDir:   filepath.Join(root, configs.Keys),
	}
}

// Setup runs the whole generation side: context with capabilities, key pair,
// scheme-switching setup and keygen, sample vector encryption, and the
// ordered emission of every public artifact into the bundle directory. The
// secret key and the sample vector stay with the server.
func (s *Server) Setup(params engine.SchemeParameters, cfg engine.SwitchingConfig, vector []float64) error {
	s.logger.PrintHeader("[Server] Context and key generation")
	s.logger.PrintFormatted("depth = %d, logN = %d, batch = %d", params.Depth, params.LogRingDegree, params.BatchSize)

	ctx, err := engine.NewContext(params)
	if err != nil {
		return err
	}
	ctx.Enable(engine.CapAll)

	t := time.Now()
	kp, err := ctx.GenKeyPair()
	if err != nil {
		return err
	}
	if err = ctx.GenMultiplicationKey(kp); err != nil {
		return err
	}
	if err = ctx.GenRotationKeys(kp); err != nil {
		return err
	}
	s.logger.PrintRunningTime("Primary key generation", t)
	s.logger.PrintMemUsage("Primary key generation")

	t = time.Now()
	secondary, err := ctx.SchemeSwitchingSetup(cfg)
	if err != nil {
		return err
	}
	if err = ctx.SchemeSwitchingKeyGen(kp, secondary); err != nil {
		return err
	}
	s.logger.PrintRunningTime("Scheme-switching key generation", t)
	s.logger.PrintMemUsage("Scheme-switching key generation")

	// Retrieved from the context, not re-derived: these are the exact
	// objects the keygen attached.
	bin := ctx.BinContext()
	swk := ctx.SwitchingKey()

	ct, err := ctx.Encrypt(kp.Public, engine.NewPlaintext(vector))
	if err != nil {
		return err
	}

	s.ctx = ctx
	s.keys = kp
	s.vector = append([]float64(nil), vector...)

	if err = s.saveSecretKey(kp.Secret); err != nil {
		return err
	}
	return s.emit(ctx, kp.Public, bin, swk, ct)
}

// emit packs the bundle in dependency order: primary context and its keys,
// the inter-scheme switching key, the ciphertext, then the secondary context
// and its bootstrap material.
func (s *Server) emit(ctx *engine.Context, pk *rlwe.PublicKey, bin *engine.BinContext, swk *rlwe.Ciphertext, ct *rlwe.Ciphertext) error {
	s.logger.PrintHeader("[Server] Emitting bundle")
	s.logger.PrintFormatted("Bundle directory: %s", s.bundleDir)

	// A stale result ciphertext from a previous run must not survive into
	// the new bundle.
	utils.ResetDir(s.bundleDir)
	packer := handoff.NewPackager(s.bundleDir)

	if err := packer.Pack(configs.Context, handoff.KindContext, ctx); err != nil {
		return err
	}
	if err := packer.Pack(configs.PublicKey, handoff.KindPublicKey, pk); err != nil {
		return err
	}
	multKeys, err := ctx.MultiplicationKeySet()
	if err != nil {
		return err
	}
	if err := packer.Pack(configs.RelinearizationKey, handoff.KindMultiplicationKeys, multKeys); err != nil {
		return err
	}
	rotKeys, err := ctx.RotationKeySet()
	if err != nil {
		return err
	}
	if err := packer.Pack(configs.RotationKeys, handoff.KindRotationKeys, rotKeys); err != nil {
		return err
	}
	if err := packer.Pack(configs.SwitchingKey, handoff.KindSwitchingKey, swk); err != nil {
		return err
	}
	if err := packer.Pack(configs.Ciphertext, handoff.KindCiphertext, ct); err != nil {
		return err
	}
	if err := packer.Pack(configs.BinContext, handoff.KindBinContext, bin); err != nil {
		return err
	}

	boot := bin.BootstrapKey()
	if boot == nil {
		return fmt.Errorf("emit: secondary context has no default bootstrap key")
	}
	if err := packer.Pack(configs.BinRefreshKey, handoff.KindBootstrapKey, boot.Refresh); err != nil {
		return err
	}
	if err := packer.Pack(configs.BinSwitchKey, handoff.KindBootstrapKey, boot.Switch); err != nil {
		return err
	}

	for _, base := range bin.Bases() {
		entry, ok := bin.BootstrapEntry(base)
		if !ok {
			return fmt.Errorf("emit: bootstrap entry for base %d missing", base)
		}
		if err := packer.PackBootstrapEntry(base, entry.Refresh, entry.Switch); err != nil {
			return err
		}
		s.logger.PrintFormatted("Packed bootstrap entry for base 2^%d", int(math.Log2(float64(base))))
	}

	return packer.Finalize()
}

func (s *Server) saveSecretKey(sk *rlwe.SecretKey) error {
	utils.CreateDir(s.keysDir)
	path := filepath.Join(s.keysDir, configs.SecretKey)
	if err := utils.Pack(sk, handoff.KindSecretKey, path); err != nil {
		return fmt.Errorf("save secret key: %w", err)
	}
	return nil
}

// Verify unpacks the result ciphertext the client wrote back, decrypts it
// with the retained secret key, truncates to the expected logical length,
// and reports how far the decoded prefix is from expected. A mismatch is
// reported, not fatal.
func (s *Server) Verify(expected []float64) ([]float64, error) {
	s.logger.PrintHeader("[Server] Verifying returned result")

	ctx, sk, err := s.retained()
	if err != nil {
		return nil, err
	}

	ct := new(rlwe.Ciphertext)
	path := filepath.Join(s.bundleDir, configs.ResultCiphertext)
	if err := utils.Unpack(ct, handoff.KindCiphertext, path); err != nil {
		return nil, fmt.Errorf("verify: result ciphertext: %w", err)
	}

	pt, err := ctx.Decrypt(sk, ct)
	if err != nil {
		return nil, err
	}
	if err := pt.SetLength(len(expected)); err != nil {
		return nil, err
	}
	values := pt.Values()

	errs := make([]float64, len(expected))
	for i := range expected {
		errs[i] = math.Abs(values[i] - expected[i])
	}
	maxErr, _ := stats.Max(errs)
	meanErr, _ := stats.Mean(errs)
	s.logger.PrintFormatted("Result: %v", values)
	s.logger.PrintFormatted("Expected: %v", expected)
	s.logger.PrintFormatted("Error: max %.3e, mean %.3e", maxErr, meanErr)
	if maxErr > 0.5 {
		s.logger.PrintMessage("VERIFICATION MISMATCH: result does not round to the expected vector")
	}
	return values, nil
}

// retained returns the in-memory context and secret key, reloading both from
// disk when Verify runs in a fresh process.
func (s *Server) retained() (*engine.Context, *rlwe.SecretKey, error) {
	if s.ctx != nil && s.keys != nil {
		return s.ctx, s.keys.Secret, nil
	}

	ctx := new(engine.Context)
	if err := utils.Unpack(ctx, handoff.KindContext, filepath.Join(s.bundleDir, configs.Context)); err != nil {
		return nil, nil, fmt.Errorf("verify: context: %w", err)
	}
	sk := new(rlwe.SecretKey)
	if err := utils.Unpack(sk, handoff.KindSecretKey, filepath.Join(s.keysDir, configs.SecretKey)); err != nil {
		return nil, nil, fmt.Errorf("verify: secret key: %w", err)
	}
	return ctx, sk, nil
}
