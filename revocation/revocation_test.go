// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package revocation

import (
	"strings"
	"testing"
	"time"

	"github.com/luxfi/zkcred/audit"
	"github.com/luxfi/zkcred/config"
	"github.com/luxfi/zkcred/crypto"
	"github.com/luxfi/zkcred/merkle"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(config.DefaultLimits(), audit.New())
	require.NoError(t, err)
	return r
}

func testCredID(suffix string) string {
	return "cred_" + strings.Repeat("0", 31) + suffix
}

func TestRevokeAndIsRevoked(t *testing.T) {
	r := testRegistry(t)
	now := time.UnixMilli(1700000000000)
	id := testCredID("a")

	require.False(t, r.IsRevoked(id))
	_, err := r.Revoke(id, "fraud", now)
	require.NoError(t, err)
	require.True(t, r.IsRevoked(id))
}

func TestDuplicateRevokeFails(t *testing.T) {
	r := testRegistry(t)
	now := time.UnixMilli(1700000000000)
	id := testCredID("b")
	_, err := r.Revoke(id, "", now)
	require.NoError(t, err)
	_, err = r.Revoke(id, "", now)
	require.Error(t, err)
}

func TestBatchRevokeSkipsAlreadyRevoked(t *testing.T) {
	r := testRegistry(t)
	now := time.UnixMilli(1700000000000)
	id1, id2 := testCredID("c"), testCredID("d")
	_, err := r.Revoke(id1, "", now)
	require.NoError(t, err)

	revoked, skipped, err := r.BatchRevoke([]string{id1, id2}, "", now)
	require.NoError(t, err)
	require.Equal(t, 1, revoked)
	require.Equal(t, 1, skipped)
}

func TestGenerateProofUnknownIsNotRevoked(t *testing.T) {
	r := testRegistry(t)
	proof, err := r.GenerateProof(testCredID("e"))
	require.NoError(t, err)
	require.False(t, proof.Revoked)
	require.Empty(t, proof.Siblings)
}

func TestGenerateProofRevokedVerifies(t *testing.T) {
	r := testRegistry(t)
	now := time.UnixMilli(1700000000000)
	id := testCredID("f")
	_, err := r.Revoke(id, "", now)
	require.NoError(t, err)

	proof, err := r.GenerateProof(id)
	require.NoError(t, err)
	require.True(t, proof.Revoked)
	require.Equal(t, r.Root(), proof.Root)

	// The first revocation occupies tree slot 0 with leaf hash(credentialID).
	require.True(t, merkle.VerifyProof(&merkle.Proof{
		Leaf: crypto.Hash([]byte(id)), Index: 0, Siblings: proof.Siblings, Root: proof.Root,
	}))
}

func TestRestoreDoesNotClearSMTRoot(t *testing.T) {
	r := testRegistry(t)
	now := time.UnixMilli(1700000000000)
	id := testCredID("1")
	_, err := r.Revoke(id, "", now)
	require.NoError(t, err)
	rootAfterRevoke := r.Root()

	require.NoError(t, r.Restore(id))
	require.False(t, r.IsRevoked(id))
	require.Equal(t, rootAfterRevoke, r.Root(), "restore must not clear the SMT leaf")
}

func TestStatisticsHistogram(t *testing.T) {
	r := testRegistry(t)
	now := time.UnixMilli(1700000000000)
	_, err := r.Revoke(testCredID("2"), "fraud", now)
	require.NoError(t, err)
	_, err = r.Revoke(testCredID("3"), "", now)
	require.NoError(t, err)

	stats := r.Statistics(now)
	require.Equal(t, 2, stats.Total)
	require.Equal(t, 1, stats.ByReason["fraud"])
	require.Equal(t, 1, stats.ByReason["unspecified"])
}

func TestBatchCheck(t *testing.T) {
	r := testRegistry(t)
	now := time.UnixMilli(1700000000000)
	id1, id2 := testCredID("4"), testCredID("5")
	_, err := r.Revoke(id1, "", now)
	require.NoError(t, err)

	result := r.BatchCheck([]string{id1, id2})
	require.True(t, result[id1])
	require.False(t, result[id2])
}
