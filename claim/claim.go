// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package claim implements C8: the ZK claim engine. A ClaimStatement is a
// closed sum type over four kinds; GenerateCircuitInputs dispatches on the
// statement's kind and its matching witness to produce the public/private
// field-element inputs a Groth16 circuit of that kind consumes.
package claim

import (
	"math/big"
	"time"

	"github.com/luxfi/zkcred/crypto"
	"github.com/luxfi/zkcred/validate"
	"github.com/luxfi/zkcred/xerrors"
)

// Kind names a claim statement's case, matching the circuit naming
// convention ({circuit} = ageOver|licenseValid|clearanceLevel|
// roleAuthorization) used to resolve proving/verifying key artifacts.
type Kind string

const (
	KindAgeOver           Kind = "ageOver"
	KindLicenseValid      Kind = "licenseValid"
	KindClearanceLevel    Kind = "clearanceLevel"
	KindRoleAuthorization Kind = "roleAuthorization"
)

// Statement is the closed ClaimStatement sum type: exactly the four cases
// below implement it, enforced by the unexported marker method.
type Statement interface {
	claimKind() Kind
}

// AgeOver claims the subject's age is at least Threshold.
type AgeOver struct{ Threshold int }

func (AgeOver) claimKind() Kind { return KindAgeOver }

// LicenseValid claims the subject holds an unexpired license of LicenseType.
type LicenseValid struct{ LicenseType string }

func (LicenseValid) claimKind() Kind { return KindLicenseValid }

// ClearanceLevel claims the subject's clearance meets RequiredLevel.
type ClearanceLevel struct{ RequiredLevel int }

func (ClearanceLevel) claimKind() Kind { return KindClearanceLevel }

// RoleAuthorization claims the subject holds Role.
type RoleAuthorization struct{ Role string }

func (RoleAuthorization) claimKind() Kind { return KindRoleAuthorization }

// AgeWitness is the private input for AgeOver.
type AgeWitness struct {
	Age  int
	Salt uint32 // CSPRNG-derived if zero and unset by caller
}

// LicenseWitness is the private input for LicenseValid.
type LicenseWitness struct {
	LicenseType    string
	ExpirationDate int64 // milliseconds
	Salt           uint32
}

// ClearanceWitness is the private input for ClearanceLevel.
type ClearanceWitness struct {
	ClearanceLevel int
	Salt           uint32
}

// RoleWitness is the private input for RoleAuthorization.
type RoleWitness struct {
	Role string
	Salt uint32
}

// Inputs is the generic named field-element bag generate_circuit_inputs
// produces; a gnark circuit of the matching Kind consumes the subset it
// declares as witnesses/public inputs.
type Inputs map[string]*big.Int

func vErr(reason string) error { return &xerrors.ValidationError{Reason: reason} }

func randomSalt() (uint32, error) {
	b, err := crypto.SecureRandom(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

func bi(v int64) *big.Int { return big.NewInt(v) }

// Engine generates circuit inputs from a claim statement and its matching
// witness. Zero value is not usable; construct with New.
type Engine struct {
	hasher *Hasher
}

// New initializes the claim engine, loading the Poseidon hasher once.
// Idempotent; failures surface as *xerrors.ConfigurationError.
func New() (*Engine, error) {
	h, err := NewHasher()
	if err != nil {
		return nil, &xerrors.ConfigurationError{Reason: "claim: poseidon init failed: " + err.Error()}
	}
	return &Engine{hasher: h}, nil
}

// GenerateCircuitInputs dispatches on claim's kind, validating claim and
// witness against §4.8's per-kind rules before hashing.
func (e *Engine) GenerateCircuitInputs(claim Statement, witness interface{}, now time.Time) (Inputs, error) {
	switch c := claim.(type) {
	case AgeOver:
		w, ok := witness.(AgeWitness)
		if !ok {
			return nil, vErr("claim: AgeOver requires an AgeWitness")
		}
		return e.ageOverInputs(c, w)
	case LicenseValid:
		w, ok := witness.(LicenseWitness)
		if !ok {
			return nil, vErr("claim: LicenseValid requires a LicenseWitness")
		}
		return e.licenseValidInputs(c, w, now)
	case ClearanceLevel:
		w, ok := witness.(ClearanceWitness)
		if !ok {
			return nil, vErr("claim: ClearanceLevel requires a ClearanceWitness")
		}
		return e.clearanceLevelInputs(c, w)
	case RoleAuthorization:
		w, ok := witness.(RoleWitness)
		if !ok {
			return nil, vErr("claim: RoleAuthorization requires a RoleWitness")
		}
		return e.roleAuthorizationInputs(c, w)
	default:
		return nil, vErr("claim: unknown statement kind")
	}
}

func (e *Engine) ageOverInputs(claim AgeOver, w AgeWitness) (Inputs, error) {
	if claim.Threshold < 0 || claim.Threshold > 150 {
		return nil, vErr("claim: AgeOver threshold must be in [0,150]")
	}
	if w.Age < 0 || w.Age > 150 {
		return nil, vErr("claim: age must be in [0,150]")
	}
	salt := w.Salt
	if salt == 0 {
		s, err := randomSalt()
		if err != nil {
			return nil, err
		}
		salt = s
	}
	ageHash, err := e.hasher.Hash(bi(int64(w.Age)), bi(int64(salt)))
	if err != nil {
		return nil, err
	}
	isOver := int64(0)
	if w.Age >= claim.Threshold {
		isOver = 1
	}
	return Inputs{
		"ageHash":   ageHash,
		"threshold": bi(int64(claim.Threshold)),
		"age":       bi(int64(w.Age)),
		"salt":      bi(int64(salt)),
		"isOver":    bi(isOver),
	}, nil
}

func (e *Engine) licenseValidInputs(claim LicenseValid, w LicenseWitness, now time.Time) (Inputs, error) {
	licenseType, err := validate.SanitizeString(claim.LicenseType, 100)
	if err != nil {
		return nil, err
	}
	if licenseType == "" {
		return nil, vErr("claim: LicenseValid.licenseType must be non-empty")
	}
	witnessType, err := validate.SanitizeString(w.LicenseType, 100)
	if err != nil {
		return nil, err
	}
	if witnessType == "" {
		return nil, vErr("claim: witness licenseType must be non-empty")
	}
	if w.ExpirationDate <= 0 {
		return nil, vErr("claim: expirationDate must be > 0")
	}
	salt := w.Salt
	if salt == 0 {
		s, err := randomSalt()
		if err != nil {
			return nil, err
		}
		salt = s
	}
	licenseTypeHash := DJB2(witnessType)
	licenseHash, err := e.hasher.Hash(bi(int64(licenseTypeHash)), bi(w.ExpirationDate), bi(int64(salt)))
	if err != nil {
		return nil, err
	}
	isValid := int64(0)
	if witnessType == licenseType && w.ExpirationDate > now.UnixMilli() {
		isValid = 1
	}
	return Inputs{
		"licenseHash":         licenseHash,
		"requiredLicenseType": bi(int64(DJB2(licenseType))),
		"licenseType":         bi(int64(licenseTypeHash)),
		"expirationDate":      bi(w.ExpirationDate),
		"currentDate":         bi(now.UnixMilli()),
		"salt":                bi(int64(salt)),
		"isValid":             bi(isValid),
	}, nil
}

func (e *Engine) clearanceLevelInputs(claim ClearanceLevel, w ClearanceWitness) (Inputs, error) {
	if claim.RequiredLevel < 0 || claim.RequiredLevel > 10 {
		return nil, vErr("claim: ClearanceLevel.requiredLevel must be in [0,10]")
	}
	if w.ClearanceLevel < 0 || w.ClearanceLevel > 10 {
		return nil, vErr("claim: clearanceLevel must be in [0,10]")
	}
	salt := w.Salt
	if salt == 0 {
		s, err := randomSalt()
		if err != nil {
			return nil, err
		}
		salt = s
	}
	clearanceHash, err := e.hasher.Hash(bi(int64(w.ClearanceLevel)), bi(int64(salt)))
	if err != nil {
		return nil, err
	}
	hasAccess := int64(0)
	if w.ClearanceLevel >= claim.RequiredLevel {
		hasAccess = 1
	}
	return Inputs{
		"clearanceHash":  clearanceHash,
		"requiredLevel":  bi(int64(claim.RequiredLevel)),
		"clearanceLevel": bi(int64(w.ClearanceLevel)),
		"salt":           bi(int64(salt)),
		"hasAccess":      bi(hasAccess),
	}, nil
}

func (e *Engine) roleAuthorizationInputs(claim RoleAuthorization, w RoleWitness) (Inputs, error) {
	requiredRole, err := validate.SanitizeString(claim.Role, 100)
	if err != nil {
		return nil, err
	}
	if requiredRole == "" {
		return nil, vErr("claim: RoleAuthorization.role must be non-empty")
	}
	userRole, err := validate.SanitizeString(w.Role, 100)
	if err != nil {
		return nil, err
	}
	if userRole == "" {
		return nil, vErr("claim: witness role must be non-empty")
	}
	salt := w.Salt
	if salt == 0 {
		s, err := randomSalt()
		if err != nil {
			return nil, err
		}
		salt = s
	}
	userRoleHash := DJB2(userRole)
	roleHash, err := e.hasher.Hash(bi(int64(userRoleHash)), bi(int64(salt)))
	if err != nil {
		return nil, err
	}
	isAuthorized := int64(0)
	if userRole == requiredRole {
		isAuthorized = 1
	}
	return Inputs{
		"roleHash":     roleHash,
		"requiredRole": bi(int64(DJB2(requiredRole))),
		"userRole":     bi(int64(userRoleHash)),
		"salt":         bi(int64(salt)),
		"isAuthorized": bi(isAuthorized),
	}, nil
}
