// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"context"
	"testing"
	"time"

	"github.com/luxfi/zkcred/audit"
	"github.com/luxfi/zkcred/claim"
	"github.com/luxfi/zkcred/config"
	"github.com/stretchr/testify/require"
)

func sampleProof() *Proof {
	return &Proof{
		Blob:          Blob{Protocol: "groth16", Curve: "bn128", Raw: []byte("x")},
		PublicSignals: []string{"1", "18", "1"},
		Statement:     "subject's age is at least the stated threshold",
		Metadata:      Metadata{ClaimType: claim.KindAgeOver},
	}
}

func TestVerifierAcceptsValidProof(t *testing.T) {
	lim := config.DefaultLimits()
	fv := &fakeVerifier{result: true}
	v, err := NewVerifier(fv, lim, audit.New())
	require.NoError(t, err)

	res, err := v.Verify(context.Background(), claim.KindAgeOver, sampleProof())
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Empty(t, res.Error)
	require.False(t, res.Cached)
}

func TestVerifierCachesResult(t *testing.T) {
	lim := config.DefaultLimits()
	fv := &fakeVerifier{result: true}
	v, err := NewVerifier(fv, lim, audit.New())
	require.NoError(t, err)

	p := sampleProof()
	first, err := v.Verify(context.Background(), claim.KindAgeOver, p)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := v.Verify(context.Background(), claim.KindAgeOver, p)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, 1, fv.calls, "second verify should hit the cache")
}

func TestVerifierDoesNotCacheInvalidResult(t *testing.T) {
	lim := config.DefaultLimits()
	fv := &fakeVerifier{result: false}
	v, err := NewVerifier(fv, lim, audit.New())
	require.NoError(t, err)

	p := sampleProof()
	first, err := v.Verify(context.Background(), claim.KindAgeOver, p)
	require.NoError(t, err)
	require.False(t, first.Valid)
	require.Equal(t, opaqueVerificationFailure, first.Error)

	second, err := v.Verify(context.Background(), claim.KindAgeOver, p)
	require.NoError(t, err)
	require.False(t, second.Cached)
	require.Equal(t, 2, fv.calls, "an invalid result must not be cached")
}

func TestVerifierRejectsBadProtocolWithoutError(t *testing.T) {
	lim := config.DefaultLimits()
	v, err := NewVerifier(&fakeVerifier{result: true}, lim, audit.New())
	require.NoError(t, err)

	p := sampleProof()
	p.Blob.Protocol = "plonk"
	res, err := v.Verify(context.Background(), claim.KindAgeOver, p)
	require.NoError(t, err, "structural rejection must not propagate as an error")
	require.False(t, res.Valid)
	require.Equal(t, opaqueVerificationFailure, res.Error)
}

func TestVerifierRejectsOutOfFieldSignalWithoutError(t *testing.T) {
	lim := config.DefaultLimits()
	v, err := NewVerifier(&fakeVerifier{result: true}, lim, audit.New())
	require.NoError(t, err)

	p := sampleProof()
	p.PublicSignals = []string{"-1", "18", "1"}
	res, err := v.Verify(context.Background(), claim.KindAgeOver, p)
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Equal(t, opaqueVerificationFailure, res.Error)
}

func TestVerifyWithStatementMismatch(t *testing.T) {
	lim := config.DefaultLimits()
	v, err := NewVerifier(&fakeVerifier{result: true}, lim, audit.New())
	require.NoError(t, err)

	res, err := v.VerifyWithStatement(context.Background(), claim.KindAgeOver, sampleProof(), "a different claim entirely")
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Equal(t, opaqueVerificationFailure, res.Error)
}

func TestBatchVerifyPreservesOrder(t *testing.T) {
	lim := config.DefaultLimits()
	v, err := NewVerifier(&fakeVerifier{result: true}, lim, audit.New())
	require.NoError(t, err)

	items := []BatchItem{
		{Kind: claim.KindAgeOver, Proof: sampleProof()},
		{Kind: claim.KindAgeOver, Proof: sampleProof()},
	}
	results, err := v.BatchVerify(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.True(t, results[0].Valid)
	require.True(t, results[1].Valid)
}

func TestBatchVerifyRejectsOversizedBatch(t *testing.T) {
	lim := config.DefaultLimits()
	lim.BatchVerifyMaxProofs = 1
	v, err := NewVerifier(&fakeVerifier{result: true}, lim, audit.New())
	require.NoError(t, err)

	items := []BatchItem{{Kind: claim.KindAgeOver, Proof: sampleProof()}, {Kind: claim.KindAgeOver, Proof: sampleProof()}}
	_, err = v.BatchVerify(context.Background(), items)
	require.Error(t, err)
}

func TestExtractClaimResult(t *testing.T) {
	valid, err := ExtractClaimResult(claim.KindAgeOver, sampleProof())
	require.NoError(t, err)
	require.True(t, valid)
}

func TestGeneratorThenVerifierRoundTrip(t *testing.T) {
	lim := config.DefaultLimits()
	gen := NewGenerator(testEngine(t), &fakeProver{}, lim, audit.New())
	ver, err := NewVerifier(&fakeVerifier{result: true}, lim, audit.New())
	require.NoError(t, err)

	now := time.UnixMilli(1700000000000)
	p, err := gen.Generate(context.Background(), claim.KindAgeOver, claim.AgeOver{Threshold: 18}, claim.AgeWitness{Age: 25, Salt: 1}, now)
	require.NoError(t, err)

	res, err := ver.Verify(context.Background(), claim.KindAgeOver, p)
	require.NoError(t, err)
	require.True(t, res.Valid)
}
