// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package claim

import (
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"

	"github.com/luxfi/zkcred/xerrors"
	"github.com/luxfi/zkcred/zkfield"
)

// hasherFactory is the underlying gnark-crypto Merkle-Damgård Poseidon2
// sponge constructor. A package variable so tests can swap it; production
// code always uses poseidon2.NewMerkleDamgardHasher.
var hasherFactory = poseidon2.NewMerkleDamgardHasher

// Hasher wraps the out-of-circuit Poseidon2 permutation used to commit to
// witness values. It mirrors the in-circuit hasher
// (gnark/std/permutation/poseidon2 via gnark/std/hash's Merkle-Damgård
// construction) field element for field element, so a circuit's in-circuit
// hash and this engine's out-of-circuit commitment always agree.
type Hasher struct {
	mu sync.Mutex
}

// NewHasher constructs the Poseidon2 hasher. Idempotent and cheap enough to
// call once per Engine; kept as an explicit type (not a package singleton)
// per the "explicit context for process-wide state" guidance.
func NewHasher() (*Hasher, error) {
	return &Hasher{}, nil
}

// Hash computes Poseidon2(elements...) over the BN254 scalar field,
// rejecting any element outside [0, BN254_PRIME).
func (h *Hasher) Hash(elements ...*big.Int) (*big.Int, error) {
	if len(elements) == 0 {
		return nil, &xerrors.ValidationError{Reason: "poseidon: at least one element required"}
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	sponge := hasherFactory()
	for _, e := range elements {
		if !zkfield.InField(e) {
			return nil, &xerrors.ValidationError{Reason: "poseidon: element outside BN254 scalar field"}
		}
		var fe fr.Element
		fe.SetBigInt(e)
		b := fe.Bytes()
		sponge.Write(b[:])
	}
	sum := sponge.Sum(nil)
	out := new(big.Int).SetBytes(sum)
	return out, nil
}
