// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/permutation/poseidon2"

	"github.com/luxfi/zkcred/claim"
)

// newPoseidon2 builds the in-circuit Poseidon2 permutation with the same
// (width=2, fullRounds=6, partialRounds=50) parameterization every circuit
// below uses, matching the out-of-circuit hasher's field-element-in,
// field-element-out behavior bit for bit.
func newPoseidon2(api frontend.API) (*poseidon2.Permutation, error) {
	return poseidon2.NewPoseidon2FromParameters(api, 2, 6, 50)
}

// ageOverCircuit proves ageHash = Poseidon(age, salt) and isOver =
// (age >= threshold).
type ageOverCircuit struct {
	AgeHash   frontend.Variable `gnark:"ageHash,public"`
	Threshold frontend.Variable `gnark:"threshold,public"`
	IsOver    frontend.Variable `gnark:"isOver,public"`

	Age  frontend.Variable `gnark:"age"`
	Salt frontend.Variable `gnark:"salt"`
}

func (c *ageOverCircuit) Define(api frontend.API) error {
	p, err := newPoseidon2(api)
	if err != nil {
		return err
	}
	hasher := hash.NewMerkleDamgardHasher(api, p, 0)
	hasher.Write(c.Age, c.Salt)
	api.AssertIsEqual(c.AgeHash, hasher.Sum())

	cmp := api.Cmp(c.Age, c.Threshold)     // -1, 0, or 1
	ageLess := api.IsZero(api.Add(cmp, 1)) // cmp == -1 means age < threshold
	api.AssertIsEqual(c.IsOver, api.Sub(1, ageLess))
	return nil
}

// licenseValidCircuit proves licenseHash = Poseidon(licenseType,
// expirationDate, salt) and isValid = (licenseType == required ∧
// expirationDate > currentDate).
type licenseValidCircuit struct {
	LicenseHash         frontend.Variable `gnark:"licenseHash,public"`
	RequiredLicenseType frontend.Variable `gnark:"requiredLicenseType,public"`
	CurrentDate         frontend.Variable `gnark:"currentDate,public"`
	IsValid             frontend.Variable `gnark:"isValid,public"`

	LicenseType    frontend.Variable `gnark:"licenseType"`
	ExpirationDate frontend.Variable `gnark:"expirationDate"`
	Salt           frontend.Variable `gnark:"salt"`
}

func (c *licenseValidCircuit) Define(api frontend.API) error {
	p, err := newPoseidon2(api)
	if err != nil {
		return err
	}
	hasher := hash.NewMerkleDamgardHasher(api, p, 0)
	hasher.Write(c.LicenseType, c.ExpirationDate, c.Salt)
	api.AssertIsEqual(c.LicenseHash, hasher.Sum())

	typeMatches := api.IsZero(api.Sub(c.LicenseType, c.RequiredLicenseType))
	notExpired := api.IsZero(api.Sub(api.Cmp(c.ExpirationDate, c.CurrentDate), 1))
	// notExpired = 1 only when Cmp(expiration, current) == 1 (expiration > current)
	api.AssertIsEqual(c.IsValid, api.Mul(typeMatches, notExpired))
	return nil
}

// clearanceLevelCircuit proves clearanceHash = Poseidon(clearanceLevel,
// salt) and hasAccess = (clearanceLevel >= requiredLevel).
type clearanceLevelCircuit struct {
	ClearanceHash frontend.Variable `gnark:"clearanceHash,public"`
	RequiredLevel frontend.Variable `gnark:"requiredLevel,public"`
	HasAccess     frontend.Variable `gnark:"hasAccess,public"`

	ClearanceLevel frontend.Variable `gnark:"clearanceLevel"`
	Salt           frontend.Variable `gnark:"salt"`
}

func (c *clearanceLevelCircuit) Define(api frontend.API) error {
	p, err := newPoseidon2(api)
	if err != nil {
		return err
	}
	hasher := hash.NewMerkleDamgardHasher(api, p, 0)
	hasher.Write(c.ClearanceLevel, c.Salt)
	api.AssertIsEqual(c.ClearanceHash, hasher.Sum())

	levelLess := api.IsZero(api.Add(api.Cmp(c.ClearanceLevel, c.RequiredLevel), 1))
	api.AssertIsEqual(c.HasAccess, api.Sub(1, levelLess))
	return nil
}

// roleAuthorizationCircuit proves roleHash = Poseidon(userRole, salt) and
// isAuthorized = (userRole == requiredRole).
type roleAuthorizationCircuit struct {
	RoleHash     frontend.Variable `gnark:"roleHash,public"`
	RequiredRole frontend.Variable `gnark:"requiredRole,public"`
	IsAuthorized frontend.Variable `gnark:"isAuthorized,public"`

	UserRole frontend.Variable `gnark:"userRole"`
	Salt     frontend.Variable `gnark:"salt"`
}

func (c *roleAuthorizationCircuit) Define(api frontend.API) error {
	p, err := newPoseidon2(api)
	if err != nil {
		return err
	}
	hasher := hash.NewMerkleDamgardHasher(api, p, 0)
	hasher.Write(c.UserRole, c.Salt)
	api.AssertIsEqual(c.RoleHash, hasher.Sum())

	matches := api.IsZero(api.Sub(c.UserRole, c.RequiredRole))
	api.AssertIsEqual(c.IsAuthorized, matches)
	return nil
}

// newCircuit returns a fresh, zero-valued circuit instance for kind, used
// both at compile time and as the frontend.Circuit template.
func newCircuit(kind claim.Kind) (frontend.Circuit, error) {
	switch kind {
	case claim.KindAgeOver:
		return &ageOverCircuit{}, nil
	case claim.KindLicenseValid:
		return &licenseValidCircuit{}, nil
	case claim.KindClearanceLevel:
		return &clearanceLevelCircuit{}, nil
	case claim.KindRoleAuthorization:
		return &roleAuthorizationCircuit{}, nil
	default:
		return nil, errUnknownKind(kind)
	}
}

// publicAssignment builds a public-only witness assignment for kind from
// decimal-string signals in the fixed publicFields order; private fields
// are left at their zero value since frontend.PublicOnly() never reads
// them.
func publicAssignment(kind claim.Kind, signals []string) (frontend.Circuit, error) {
	fields, ok := publicFields[kind]
	if !ok || len(fields) != len(signals) {
		return nil, errUnknownKind(kind)
	}
	values := make(map[string]frontend.Variable, len(fields))
	for i, name := range fields {
		values[name] = signals[i]
	}
	switch kind {
	case claim.KindAgeOver:
		return &ageOverCircuit{AgeHash: values["ageHash"], Threshold: values["threshold"], IsOver: values["isOver"]}, nil
	case claim.KindLicenseValid:
		return &licenseValidCircuit{
			LicenseHash: values["licenseHash"], RequiredLicenseType: values["requiredLicenseType"],
			CurrentDate: values["currentDate"], IsValid: values["isValid"],
		}, nil
	case claim.KindClearanceLevel:
		return &clearanceLevelCircuit{
			ClearanceHash: values["clearanceHash"], RequiredLevel: values["requiredLevel"], HasAccess: values["hasAccess"],
		}, nil
	case claim.KindRoleAuthorization:
		return &roleAuthorizationCircuit{
			RoleHash: values["roleHash"], RequiredRole: values["requiredRole"], IsAuthorized: values["isAuthorized"],
		}, nil
	default:
		return nil, errUnknownKind(kind)
	}
}

// assignment builds the full witness assignment (public + private) for
// kind from the claim engine's output bag.
func assignment(kind claim.Kind, inputs claim.Inputs) (frontend.Circuit, error) {
	switch kind {
	case claim.KindAgeOver:
		return &ageOverCircuit{
			AgeHash: inputs["ageHash"], Threshold: inputs["threshold"], IsOver: inputs["isOver"],
			Age: inputs["age"], Salt: inputs["salt"],
		}, nil
	case claim.KindLicenseValid:
		return &licenseValidCircuit{
			LicenseHash: inputs["licenseHash"], RequiredLicenseType: inputs["requiredLicenseType"],
			CurrentDate: inputs["currentDate"], IsValid: inputs["isValid"],
			LicenseType: inputs["licenseType"], ExpirationDate: inputs["expirationDate"], Salt: inputs["salt"],
		}, nil
	case claim.KindClearanceLevel:
		return &clearanceLevelCircuit{
			ClearanceHash: inputs["clearanceHash"], RequiredLevel: inputs["requiredLevel"], HasAccess: inputs["hasAccess"],
			ClearanceLevel: inputs["clearanceLevel"], Salt: inputs["salt"],
		}, nil
	case claim.KindRoleAuthorization:
		return &roleAuthorizationCircuit{
			RoleHash: inputs["roleHash"], RequiredRole: inputs["requiredRole"], IsAuthorized: inputs["isAuthorized"],
			UserRole: inputs["userRole"], Salt: inputs["salt"],
		}, nil
	default:
		return nil, errUnknownKind(kind)
	}
}
