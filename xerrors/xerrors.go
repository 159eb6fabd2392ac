// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xerrors implements the error taxonomy shared by every component:
// a closed set of behavioral kinds rather than ad-hoc error strings, so
// callers can branch on kind with errors.As instead of string matching.
package xerrors

import "fmt"

// ValidationError reports a caller-supplied value that failed a C2 rule.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// Conflict reports a duplicate id or key.
type Conflict struct {
	Kind        string
	ExistingID  string
}

func (e *Conflict) Error() string {
	return fmt.Sprintf("conflict: %s already exists (id=%s)", e.Kind, e.ExistingID)
}

// NotFound reports a missing resource.
type NotFound struct {
	Kind string
	ID   string
}

func (e *NotFound) Error() string { return fmt.Sprintf("not found: %s %s", e.Kind, e.ID) }

// RevocationError reports a revocation registry defect (already revoked,
// malformed id).
type RevocationError struct {
	Reason string
}

func (e *RevocationError) Error() string { return "revocation: " + e.Reason }

// CredentialError reports a structural credential defect.
type CredentialError struct {
	Reason string
}

func (e *CredentialError) Error() string { return "credential: " + e.Reason }

// ProofGenerationError reports a failure while generating a proof. It is
// always operational: the caller's claim/witness was fine, generation
// itself failed (external prover error, size cap exceeded, etc).
type ProofGenerationError struct {
	Reason string
}

func (e *ProofGenerationError) Error() string { return "proof generation: " + e.Reason }

// ProofVerificationError reports a failure invoking the external verifier
// itself (not a structurally-invalid proof, which is reported as
// valid=false per §7's propagation policy).
type ProofVerificationError struct {
	Reason string
}

func (e *ProofVerificationError) Error() string { return "proof verification: " + e.Reason }

// TimeoutError reports a blocking operation exceeding its deadline.
type TimeoutError struct {
	Operation string
	LimitMS   int64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %s exceeded %dms", e.Operation, e.LimitMS)
}

// ConfigurationError reports missing artifacts or failed one-time setup
// (hash-engine init, circuit key loading). Non-operational: logged at
// ERROR, not surfaced as a 4xx-equivalent.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "configuration: " + e.Reason }

// CryptographicError reports entropy shortfall, hash failure, or signing
// failure. Non-operational.
type CryptographicError struct {
	Reason string
}

func (e *CryptographicError) Error() string { return "cryptographic: " + e.Reason }
