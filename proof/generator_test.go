// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/luxfi/zkcred/audit"
	"github.com/luxfi/zkcred/claim"
	"github.com/luxfi/zkcred/config"
	"github.com/stretchr/testify/require"
)

// fakeProver is a deterministic stand-in for the gnark-backed default,
// exercising Generator/Verifier's orchestration logic without running an
// actual Groth16 setup in every test.
type fakeProver struct {
	delay time.Duration
	err   error
}

func (f *fakeProver) Prove(ctx context.Context, kind claim.Kind, inputs claim.Inputs) (Blob, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Blob{}, ctx.Err()
		}
	}
	if f.err != nil {
		return Blob{}, f.err
	}
	return Blob{Protocol: "groth16", Curve: "bn128", Raw: []byte("fake-proof")}, nil
}

type fakeVerifier struct {
	result bool
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(ctx context.Context, kind claim.Kind, blob Blob, publicSignals []string) (bool, error) {
	f.calls++
	return f.result, f.err
}

func testEngine(t *testing.T) *claim.Engine {
	t.Helper()
	e, err := claim.New()
	require.NoError(t, err)
	return e
}

func TestGeneratorProducesWellFormedProof(t *testing.T) {
	lim := config.DefaultLimits()
	gen := NewGenerator(testEngine(t), &fakeProver{}, lim, audit.New())
	now := time.UnixMilli(1700000000000)

	p, err := gen.Generate(context.Background(), claim.KindAgeOver, claim.AgeOver{Threshold: 18}, claim.AgeWitness{Age: 25, Salt: 1}, now)
	require.NoError(t, err)
	require.Equal(t, "groth16", p.Blob.Protocol)
	require.Len(t, p.PublicSignals, 3)
	require.Equal(t, claim.KindAgeOver, p.Metadata.ClaimType)
}

func TestGeneratorTimeout(t *testing.T) {
	lim := config.DefaultLimits()
	lim.ProofGenerationTimeout = 10 * time.Millisecond
	gen := NewGenerator(testEngine(t), &fakeProver{delay: 100 * time.Millisecond}, lim, audit.New())

	_, err := gen.Generate(context.Background(), claim.KindAgeOver, claim.AgeOver{Threshold: 18}, claim.AgeWitness{Age: 25, Salt: 1}, time.Now())
	require.Error(t, err)
}

func TestGeneratorPropagatesProverError(t *testing.T) {
	lim := config.DefaultLimits()
	gen := NewGenerator(testEngine(t), &fakeProver{err: errors.New("prover unavailable")}, lim, audit.New())
	_, err := gen.Generate(context.Background(), claim.KindAgeOver, claim.AgeOver{Threshold: 18}, claim.AgeWitness{Age: 25, Salt: 1}, time.Now())
	require.Error(t, err)
}
