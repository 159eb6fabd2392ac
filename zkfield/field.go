// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package zkfield holds the BN254 scalar field modulus and the small set
// of helpers for checking membership in it, shared by validate, claim and
// proof so there is exactly one definition of "field-valid" in the repo.
package zkfield

import "math/big"

// BN254Prime is the BN254 scalar field modulus used by Groth16 over this
// curve: 21888242871839275222246405745257275088548364400416034343698204186575808495617.
var BN254Prime = func() *big.Int {
	p, ok := new(big.Int).SetString(
		"21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)
	if !ok {
		panic("zkfield: failed to parse BN254 prime")
	}
	return p
}()

// InField reports whether v is a finite, non-negative field element
// strictly less than BN254Prime.
func InField(v *big.Int) bool {
	if v == nil || v.Sign() < 0 {
		return false
	}
	return v.Cmp(BN254Prime) < 0
}

// ParseDecimal parses a decimal-string field element per the Proof wire
// format, rejecting anything outside [0, BN254Prime).
func ParseDecimal(s string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || !InField(v) {
		return nil, false
	}
	return v, true
}
