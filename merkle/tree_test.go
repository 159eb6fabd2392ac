// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"testing"

	"github.com/luxfi/zkcred/crypto"
	"github.com/stretchr/testify/require"
)

func TestInsertAndVerifyProof(t *testing.T) {
	tree, err := New(20)
	require.NoError(t, err)

	leaf := crypto.Hash([]byte("cred_abc"))
	require.NoError(t, tree.Insert(42, leaf))

	proof, err := tree.GenerateProof(42)
	require.NoError(t, err)
	require.Equal(t, tree.Root(), proof.Root)
	require.True(t, VerifyProof(proof))
}

func TestForgedProofRejected(t *testing.T) {
	tree, err := New(20)
	require.NoError(t, err)
	require.NoError(t, tree.Insert(7, crypto.Hash([]byte("a"))))

	proof, err := tree.GenerateProof(7)
	require.NoError(t, err)

	forged := *proof
	forged.Siblings = append([]string{}, proof.Siblings...)
	forged.Siblings[0] = crypto.Hash([]byte("not-a-sibling"))
	require.False(t, VerifyProof(&forged))
}

func TestIndexBoundaries(t *testing.T) {
	tree, err := New(20)
	require.NoError(t, err)
	require.NoError(t, tree.Insert(0, crypto.Hash([]byte("zero"))))
	require.NoError(t, tree.Insert(tree.Capacity()-1, crypto.Hash([]byte("last"))))
	require.Error(t, tree.Insert(tree.Capacity(), crypto.Hash([]byte("over"))))
}

func TestExportImportFixedPoint(t *testing.T) {
	tree, err := New(20)
	require.NoError(t, err)
	for i, v := range []string{"a", "b", "c"} {
		require.NoError(t, tree.Insert(uint64(i*1000), crypto.Hash([]byte(v))))
	}

	exp1 := tree.Export()
	rebuilt, err := Import(exp1)
	require.NoError(t, err)
	exp2 := rebuilt.Export()

	require.Equal(t, exp1.Root, exp2.Root)
	require.Equal(t, exp1.Leaves, exp2.Leaves)
}

func TestImportRootMismatch(t *testing.T) {
	tree, err := New(20)
	require.NoError(t, err)
	require.NoError(t, tree.Insert(1, crypto.Hash([]byte("x"))))
	exp := tree.Export()
	exp.Root = crypto.Hash([]byte("tampered"))
	_, err = Import(exp)
	require.Error(t, err)
}

func TestEmptyLeafGet(t *testing.T) {
	tree, err := New(20)
	require.NoError(t, err)
	require.Equal(t, EmptyLeaf, tree.Get(123))
}
