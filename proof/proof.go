// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package proof implements C9 (Generator) and C10 (Verifier): orchestrating
// claim-input generation against an external Groth16 prover/verifier,
// enforcing the size cap, timeout, and structural invariants §4.9/§4.10
// name. The external prover/verifier is a port (ProverPort/VerifierPort);
// gnarkprover.go/gnarkverifier.go supply the in-process gnark-backed
// default, but a hosting application may wire its own.
package proof

import (
	"context"
	"encoding/json"

	"github.com/luxfi/zkcred/claim"
	"github.com/luxfi/zkcred/xerrors"
)

// Blob is the opaque Groth16 proof payload, shaped like snarkjs's
// proof.json so a hosting application can swap in a wasm/snarkjs-backed
// VerifierPort without reshaping this struct.
// Blob's pi_a/pi_b/pi_c fields mirror snarkjs's JSON shape for interop
// with a hosting application's own display/tooling; the actual verifiable
// object produced by gnark's groth16 backend is curve-internal and is
// carried in Raw (gnark's native WriteTo encoding), which gnarkverifier.go
// decodes with ReadFrom. See DESIGN.md for why pi_a/pi_b/pi_c are not
// populated with real curve coordinates by the default adapter.
type Blob struct {
	PiA      [3]string    `json:"pi_a"`
	PiB      [3][2]string `json:"pi_b"`
	PiC      [3]string    `json:"pi_c"`
	Protocol string       `json:"protocol"`
	Curve    string       `json:"curve"`
	Raw      []byte       `json:"raw"`
}

// Metadata records non-cryptographic context about how a proof was made.
type Metadata struct {
	ClaimType        claim.Kind `json:"claimType"`
	GeneratedAt      int64      `json:"generatedAt"` // milliseconds
	GenerationTimeMs int64      `json:"generationTimeMs"`
	Version          string     `json:"version"`
}

// Proof is the C9/C10 wire type: an opaque proof blob, its public signals,
// a human-readable statement, and generation metadata.
type Proof struct {
	Blob          Blob     `json:"proof"`
	PublicSignals []string `json:"publicSignals"`
	Statement     string   `json:"statement"`
	Metadata      Metadata `json:"metadata"`
}

// VerificationResult is C10's result shape per §4.10: a structural or
// cryptographic failure is reported here, as Valid=false with an opaque
// Error, not as a returned error — only a genuine external-verifier
// failure or a timeout propagates as a Go error instead.
type VerificationResult struct {
	Valid              bool   `json:"valid"`
	Statement          string `json:"statement"`
	Timestamp          int64  `json:"timestamp"` // milliseconds
	VerificationTimeMs int64  `json:"verificationTimeMs"`
	Cached             bool   `json:"cached"`
	Error              string `json:"error,omitempty"`
}

// opaqueVerificationFailure is the only message returned to a caller for a
// structural or cryptographic rejection, so a malformed or forged proof
// cannot be told apart from a merely-invalid one by its error text.
const opaqueVerificationFailure = "Verification failed"

// Size returns the proof's JSON-serialized size in bytes, the quantity
// bounded by config.Limits.ProofMaxSizeBytes.
func (p *Proof) Size() (int, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return 0, &xerrors.ProofGenerationError{Reason: "proof: size check serialization failed: " + err.Error()}
	}
	return len(b), nil
}

// ProverPort is the external Groth16 prover collaborator: given a claim
// kind and its circuit inputs, produce a proof blob over the public
// signals that kind's circuit declares.
type ProverPort interface {
	Prove(ctx context.Context, kind claim.Kind, inputs claim.Inputs) (Blob, error)
}

// VerifierPort is the external Groth16 verifier collaborator.
type VerifierPort interface {
	Verify(ctx context.Context, kind claim.Kind, blob Blob, publicSignals []string) (bool, error)
}

// publicFields names, in fixed circuit-output order, the fields of each
// claim kind's Inputs bag that become public signals; every other field
// stays witness-only. The final entry in each list is always the claim's
// boolean result field, by convention used by ExtractClaimResult.
var publicFields = map[claim.Kind][]string{
	claim.KindAgeOver:           {"ageHash", "threshold", "isOver"},
	claim.KindLicenseValid:      {"licenseHash", "requiredLicenseType", "currentDate", "isValid"},
	claim.KindClearanceLevel:    {"clearanceHash", "requiredLevel", "hasAccess"},
	claim.KindRoleAuthorization: {"roleHash", "requiredRole", "isAuthorized"},
}

func publicSignals(kind claim.Kind, inputs claim.Inputs) ([]string, error) {
	fields, ok := publicFields[kind]
	if !ok {
		return nil, &xerrors.ValidationError{Reason: "proof: unknown claim kind " + string(kind)}
	}
	out := make([]string, 0, len(fields))
	for _, name := range fields {
		v, ok := inputs[name]
		if !ok {
			return nil, &xerrors.ProofGenerationError{Reason: "proof: missing circuit input " + name}
		}
		out = append(out, v.String())
	}
	return out, nil
}

// ExtractClaimResult returns the boolean claim result encoded in the last
// public signal (isOver/isValid/hasAccess/isAuthorized, per the fixed
// publicFields ordering above).
func ExtractClaimResult(kind claim.Kind, p *Proof) (bool, error) {
	fields, ok := publicFields[kind]
	if !ok {
		return false, &xerrors.ValidationError{Reason: "proof: unknown claim kind " + string(kind)}
	}
	if len(p.PublicSignals) != len(fields) {
		return false, &xerrors.ValidationError{Reason: "proof: publicSignals length does not match claim kind"}
	}
	return p.PublicSignals[len(p.PublicSignals)-1] != "0", nil
}

func errUnknownKind(kind claim.Kind) error {
	return &xerrors.ValidationError{Reason: "proof: unknown claim kind " + string(kind)}
}

func statementFor(kind claim.Kind, c claim.Statement) string {
	switch v := c.(type) {
	case claim.AgeOver:
		return "subject's age is at least the stated threshold"
	case claim.LicenseValid:
		return "subject holds an unexpired license of type " + v.LicenseType
	case claim.ClearanceLevel:
		return "subject's clearance meets the required level"
	case claim.RoleAuthorization:
		return "subject holds the role " + v.Role
	default:
		return string(kind)
	}
}
