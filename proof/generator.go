// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"context"
	"time"

	"github.com/luxfi/zkcred/audit"
	"github.com/luxfi/zkcred/claim"
	"github.com/luxfi/zkcred/config"
	"github.com/luxfi/zkcred/xerrors"
)

const version = "1.0.0"

// Generator is C9: it orchestrates the claim engine and an external
// ProverPort under a hard timeout and a serialized-size cap.
type Generator struct {
	engine   *claim.Engine
	prover   ProverPort
	limits   *config.Limits
	auditLog *audit.Log
}

// NewGenerator constructs a Generator wired to engine and prover.
func NewGenerator(engine *claim.Engine, prover ProverPort, limits *config.Limits, auditLog *audit.Log) *Generator {
	return &Generator{engine: engine, prover: prover, limits: limits, auditLog: auditLog}
}

// Generate builds circuit inputs for (claimKind, claim, witness), invokes
// the external prover under config.Limits.ProofGenerationTimeout, and
// returns a Proof no larger than config.Limits.ProofMaxSizeBytes.
func (g *Generator) Generate(ctx context.Context, kind claim.Kind, stmt claim.Statement, witness interface{}, now time.Time) (*Proof, error) {
	ctx, cancel := context.WithTimeout(ctx, g.limits.ProofGenerationTimeout)
	defer cancel()

	start := now

	inputs, err := g.engine.GenerateCircuitInputs(stmt, witness, now)
	if err != nil {
		return nil, err
	}
	signals, err := publicSignals(kind, inputs)
	if err != nil {
		return nil, err
	}

	type result struct {
		blob Blob
		err  error
	}
	done := make(chan result, 1)
	go func() {
		blob, err := g.prover.Prove(ctx, kind, inputs)
		done <- result{blob, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, &xerrors.TimeoutError{Operation: "proof.Generate", LimitMS: g.limits.ProofGenerationTimeout.Milliseconds()}
	case res = <-done:
	}
	if res.err != nil {
		if g.auditLog != nil {
			g.auditLog.Append(audit.NewProofGeneratedEvent(string(kind), "failure"))
		}
		return nil, res.err
	}

	p := &Proof{
		Blob:          res.blob,
		PublicSignals: signals,
		Statement:     statementFor(kind, stmt),
		Metadata: Metadata{
			ClaimType:        kind,
			GeneratedAt:      start.UnixMilli(),
			GenerationTimeMs: time.Since(start).Milliseconds(),
			Version:          version,
		},
	}

	size, err := p.Size()
	if err != nil {
		return nil, err
	}
	if size > g.limits.ProofMaxSizeBytes {
		return nil, &xerrors.ProofGenerationError{Reason: "proof: serialized size exceeds cap"}
	}

	if g.auditLog != nil {
		g.auditLog.Append(audit.NewProofGeneratedEvent(string(kind), "success"))
	}
	return p, nil
}
