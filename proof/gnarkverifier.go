// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"bytes"
	"context"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"

	"github.com/luxfi/zkcred/claim"
	"github.com/luxfi/zkcred/xerrors"
)

// GnarkVerifier is the default, in-process VerifierPort backed by gnark's
// Groth16 implementation, sharing a KeyStore with Prover.
type GnarkVerifier struct {
	keys *KeyStore
}

// NewGnarkVerifier wraps keys as a VerifierPort.
func NewGnarkVerifier(keys *KeyStore) *GnarkVerifier { return &GnarkVerifier{keys: keys} }

// Verify decodes blob.Raw as a gnark Groth16 proof and checks it against
// kind's verifying key and the given decimal-string public signals.
func (v *GnarkVerifier) Verify(ctx context.Context, kind claim.Kind, blob Blob, publicSignals []string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, &xerrors.TimeoutError{Operation: "proof.Verify"}
	default:
	}

	v.keys.mu.RLock()
	vk, ok := v.keys.vk[kind]
	v.keys.mu.RUnlock()
	if !ok {
		return false, &xerrors.ConfigurationError{Reason: "proof: no verifying key for " + string(kind)}
	}

	gproof := groth16.NewProof(ecc.BN254)
	if _, err := gproof.ReadFrom(bytes.NewReader(blob.Raw)); err != nil {
		return false, &xerrors.ProofVerificationError{Reason: "proof: decode: " + err.Error()}
	}

	circuit, err := publicAssignment(kind, publicSignals)
	if err != nil {
		return false, err
	}
	pubWitness, err := frontend.NewWitness(circuit, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, &xerrors.ProofVerificationError{Reason: "proof: public witness: " + err.Error()}
	}

	if err := groth16.Verify(gproof, vk, pubWitness); err != nil {
		return false, nil
	}
	return true, nil
}
