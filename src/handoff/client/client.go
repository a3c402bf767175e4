// Package client implements the receiving party: it reconstructs the
// evaluation context from the bundle, runs the encrypted argmin, and writes
// the result ciphertext back.
package client

import (
	"fmt"
	"path/filepath"
	"time"

	"heswitch/configs"
	"heswitch/src/engine"
	"heswitch/src/handoff"
	"heswitch/src/utils"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
)

type Client struct {
	logger    utils.Logger
	bundleDir string
	registry  *engine.Registry
}

func NewClient(logger utils.Logger, root string) *Client {
	return &Client{
		logger:    logger,
		bundleDir: filepath.Join(root, configs.Bundle),
		registry:  engine.NewRegistry(),
	}
}

// Process reconstructs the full evaluation context from the bundle, runs the
// encrypted argmin over the received ciphertext with the given sign scaling
// factor, and packs the indicator result back into the bundle directory.
// Every artifact is loaded and attached before evaluation starts; a missing
// or corrupted blob fails here, not mid-circuit.
func (c *Client) Process(scaleSign float64, oneHot bool) error {
	c.logger.PrintHeader("[Client] Reconstructing context from bundle")

	// Reconstruction always starts from a clean slate; a context left over
	// from a previous run would collide with the reloaded one.
	c.registry.Reset()

	bundle, err := handoff.OpenBundle(c.bundleDir)
	if err != nil {
		return err
	}

	t := time.Now()
	ctx, pk, err := c.loadPrimary(bundle)
	if err != nil {
		return err
	}
	if err = c.loadSecondary(bundle, ctx); err != nil {
		return err
	}
	c.logger.PrintRunningTime("Context reconstruction", t)
	c.logger.PrintMemUsage("Context reconstruction")

	ct := new(rlwe.Ciphertext)
	if err = bundle.Unpack(configs.Ciphertext, handoff.KindCiphertext, ct); err != nil {
		return err
	}

	bin := ctx.BinContext()
	pLWE := bin.Modulus() / (2 * uint64(bin.Beta()))
	if err = ctx.EvalCompareSwitchPrecompute(pLWE, 0, scaleSign, false); err != nil {
		return err
	}
	c.logger.PrintFormatted("pLWE = %d, scaleSign = %.0f", pLWE, scaleSign)

	c.logger.PrintHeader("[Client] Evaluating encrypted argmin")
	t = time.Now()
	results, err := ctx.EvalMinSchemeSwitching(ct, pk, 0, ct.Slots(), oneHot)
	if err != nil {
		return err
	}
	c.logger.PrintRunningTime("Argmin evaluation", t)
	c.logger.PrintMemUsage("Argmin evaluation")

	// results[0] is the replicated minimum; the indicator in results[1] is
	// what the other party asked for.
	path := filepath.Join(c.bundleDir, configs.ResultCiphertext)
	if err = utils.Pack(results[1], handoff.KindCiphertext, path); err != nil {
		return fmt.Errorf("pack result: %w", err)
	}
	c.logger.PrintFormatted("Result written to %s", path)
	return nil
}

// loadPrimary reconstructs the primary context and attaches its public key
// material: the public key itself, the relinearization key, and the rotation
// keys.
func (c *Client) loadPrimary(bundle *handoff.Unpackager) (*engine.Context, *rlwe.PublicKey, error) {
	ctx := new(engine.Context)
	if err := bundle.Unpack(configs.Context, handoff.KindContext, ctx); err != nil {
		return nil, nil, err
	}
	id, err := c.registry.Attach(ctx)
	if err != nil {
		return nil, nil, err
	}
	c.logger.PrintFormatted("Context %s live", id)

	pk := new(rlwe.PublicKey)
	if err := bundle.Unpack(configs.PublicKey, handoff.KindPublicKey, pk); err != nil {
		return nil, nil, err
	}

	multSet := new(rlwe.MemEvaluationKeySet)
	if err := bundle.Unpack(configs.RelinearizationKey, handoff.KindMultiplicationKeys, multSet); err != nil {
		return nil, nil, err
	}
	if multSet.RelinearizationKey == nil {
		return nil, nil, fmt.Errorf("bundle multiplication key set carries no relinearization key")
	}
	ctx.AttachRelinearizationKey(multSet.RelinearizationKey)

	rotSet := new(rlwe.MemEvaluationKeySet)
	if err := bundle.Unpack(configs.RotationKeys, handoff.KindRotationKeys, rotSet); err != nil {
		return nil, nil, err
	}
	for _, gk := range rotSet.GaloisKeys {
		ctx.AttachGaloisKeys(gk)
	}
	c.logger.PrintFormatted("Attached %d rotation keys", len(rotSet.GaloisKeys))
	return ctx, pk, nil
}

// loadSecondary reconstructs the bin context, its default and per-base
// bootstrap keys, and the inter-scheme switching key, then attaches the lot
// to ctx. Per-base entries load independently, in whatever order the
// manifest lists them.
func (c *Client) loadSecondary(bundle *handoff.Unpackager, ctx *engine.Context) error {
	bin := new(engine.BinContext)
	if err := bundle.Unpack(configs.BinContext, handoff.KindBinContext, bin); err != nil {
		return err
	}

	boot := &engine.BootstrapKey{
		Refresh: new(rlwe.EvaluationKey),
		Switch:  new(rlwe.EvaluationKey),
	}
	if err := bundle.Unpack(configs.BinRefreshKey, handoff.KindBootstrapKey, boot.Refresh); err != nil {
		return err
	}
	if err := bundle.Unpack(configs.BinSwitchKey, handoff.KindBootstrapKey, boot.Switch); err != nil {
		return err
	}
	bin.SetBootstrapKey(boot)

	for _, base := range bundle.Bases() {
		entry := &engine.BootstrapKey{
			Refresh: new(rlwe.EvaluationKey),
			Switch:  new(rlwe.EvaluationKey),
		}
		if err := bundle.Unpack(handoff.RefreshBlobName(base), handoff.KindBootstrapKey, entry.Refresh); err != nil {
			return err
		}
		if err := bundle.Unpack(handoff.SwitchBlobName(base), handoff.KindBootstrapKey, entry.Switch); err != nil {
			return err
		}
		if err := bin.LoadBootstrapEntry(base, entry); err != nil {
			return err
		}
	}
	c.logger.PrintFormatted("Loaded bootstrap entries for bases %v", bin.Bases())

	swk := new(rlwe.Ciphertext)
	if err := bundle.Unpack(configs.SwitchingKey, handoff.KindSwitchingKey, swk); err != nil {
		return err
	}

	ctx.SetBinContext(bin)
	ctx.SetSwitchingKey(swk)
	return nil
}
