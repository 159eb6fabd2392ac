// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/luxfi/zkcred/audit"
	"github.com/luxfi/zkcred/claim"
	"github.com/luxfi/zkcred/config"
	"github.com/luxfi/zkcred/xerrors"
	"github.com/luxfi/zkcred/zkfield"
)

// Verifier is C10: structural checks, an external VerifierPort call under
// a hard timeout, and a bounded result cache.
type Verifier struct {
	verifier VerifierPort
	limits   *config.Limits
	auditLog *audit.Log
	cache    *resultCache
}

// NewVerifier constructs a Verifier wired to verifier.
func NewVerifier(verifier VerifierPort, limits *config.Limits, auditLog *audit.Log) (*Verifier, error) {
	cache, err := newResultCache(limits.VerificationCacheMaxEntries)
	if err != nil {
		return nil, &xerrors.ConfigurationError{Reason: "proof: cache init: " + err.Error()}
	}
	return &Verifier{verifier: verifier, limits: limits, auditLog: auditLog, cache: cache}, nil
}

func (v *Verifier) checkStructure(kind claim.Kind, p *Proof) error {
	if p.Blob.Protocol != "groth16" {
		return &xerrors.ValidationError{Reason: "proof: protocol must be groth16"}
	}
	if p.Blob.Curve != "bn128" {
		return &xerrors.ValidationError{Reason: "proof: curve must be bn128"}
	}
	if len(p.PublicSignals) < 1 || len(p.PublicSignals) > v.limits.PublicSignalsMaxCount {
		return &xerrors.ValidationError{Reason: "proof: publicSignals count out of range"}
	}
	for _, s := range p.PublicSignals {
		n, ok := new(big.Int).SetString(s, 10)
		if !ok || !zkfield.InField(n) {
			return &xerrors.ValidationError{Reason: "proof: public signal must be a decimal integer in [0, BN254_PRIME)"}
		}
	}
	size, err := p.Size()
	if err != nil {
		return err
	}
	if size > v.limits.ProofMaxSizeBytes {
		return &xerrors.ValidationError{Reason: "proof: serialized size exceeds cap"}
	}
	return nil
}

// Verify runs structural checks, consults the result cache, and otherwise
// invokes the external verifier under config.Limits.ProofVerificationTimeout.
// A structural or cryptographic rejection is reported as
// VerificationResult{Valid: false, Error: "Verification failed"}, never as
// a returned error, so a malformed or forged proof cannot be distinguished
// from a merely-invalid one by its error text (§4.10/§7). Only a genuine
// external-verifier failure or a timeout returns a non-nil error.
func (v *Verifier) Verify(ctx context.Context, kind claim.Kind, p *Proof) (*VerificationResult, error) {
	start := time.Now()

	if err := v.checkStructure(kind, p); err != nil {
		return &VerificationResult{
			Valid: false, Statement: p.Statement, Timestamp: start.UnixMilli(),
			VerificationTimeMs: time.Since(start).Milliseconds(), Error: opaqueVerificationFailure,
		}, nil
	}

	key := cacheKey(string(kind), p.Blob, p.PublicSignals)
	if valid, ok := v.cache.get(key); ok {
		return &VerificationResult{
			Valid: valid, Statement: p.Statement, Timestamp: start.UnixMilli(),
			VerificationTimeMs: time.Since(start).Milliseconds(), Cached: true,
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, v.limits.ProofVerificationTimeout)
	defer cancel()

	type result struct {
		valid bool
		err   error
	}
	done := make(chan result, 1)
	go func() {
		valid, err := v.verifier.Verify(ctx, kind, p.Blob, p.PublicSignals)
		done <- result{valid, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		if v.auditLog != nil {
			v.auditLog.Append(audit.NewProofVerifiedEvent(string(kind), "timeout"))
		}
		return nil, &xerrors.TimeoutError{Operation: "proof.Verify", LimitMS: v.limits.ProofVerificationTimeout.Milliseconds()}
	case res = <-done:
	}
	if res.err != nil {
		if v.auditLog != nil {
			v.auditLog.Append(audit.NewProofVerifiedEvent(string(kind), "failure"))
		}
		return nil, &xerrors.ProofVerificationError{Reason: "proof: verify: " + res.err.Error()}
	}

	// §4.10 step 5: only a valid result is cached, so a transient or
	// adversarial invalid proof can never poison the cache for its key.
	if res.valid {
		v.cache.put(key, res.valid)
	}

	if v.auditLog != nil {
		outcome := "success"
		if !res.valid {
			outcome = "rejected"
		}
		v.auditLog.Append(audit.NewProofVerifiedEvent(string(kind), outcome))
	}

	out := &VerificationResult{
		Valid: res.valid, Statement: p.Statement, Timestamp: start.UnixMilli(),
		VerificationTimeMs: time.Since(start).Milliseconds(),
	}
	if !res.valid {
		out.Error = opaqueVerificationFailure
	}
	return out, nil
}

// VerifyWithStatement additionally requires p.Statement to match
// expectedStatement exactly, so a caller can bind verification to the
// human-readable claim it was shown. A mismatch is itself a structural
// rejection: Valid=false with the same opaque error, not a returned error.
func (v *Verifier) VerifyWithStatement(ctx context.Context, kind claim.Kind, p *Proof, expectedStatement string) (*VerificationResult, error) {
	if p.Statement != expectedStatement {
		return &VerificationResult{
			Valid: false, Statement: p.Statement, Timestamp: time.Now().UnixMilli(),
			Error: opaqueVerificationFailure,
		}, nil
	}
	return v.Verify(ctx, kind, p)
}

// BatchItem pairs a proof with its claim kind for BatchVerify.
type BatchItem struct {
	Kind  claim.Kind
	Proof *Proof
}

// BatchVerify verifies up to config.Limits.BatchVerifyMaxProofs proofs
// concurrently, bounded to config.Limits.BatchVerifyConcurrency in-flight
// verifications, preserving input order in the result slice.
func (v *Verifier) BatchVerify(ctx context.Context, items []BatchItem) ([]*VerificationResult, error) {
	if len(items) > v.limits.BatchVerifyMaxProofs {
		return nil, &xerrors.ValidationError{Reason: "proof: batch exceeds max proofs"}
	}
	results := make([]*VerificationResult, len(items))
	errs := make([]error, len(items))

	sem := make(chan struct{}, v.limits.BatchVerifyConcurrency)
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item BatchItem) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := v.Verify(ctx, item.Kind, item.Proof)
			results[i], errs[i] = res, err
		}(i, item)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
