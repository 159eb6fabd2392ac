// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package merkle implements C3: a fixed-depth sparse Merkle tree used as
// the revocation accumulator's append-only structure. Node hashing is
// crypto.DeterministicHash; empty subtrees at every level are memoized so
// inserting into a sparse tree costs exactly depth hashes, never 2^depth.
package merkle

import (
	"strings"
	"sync"

	"github.com/luxfi/zkcred/crypto"
	"github.com/luxfi/zkcred/xerrors"
)

// EmptyLeaf is the 64-hex value of an absent leaf (level 0 of the empty
// subtree chain).
var EmptyLeaf = strings.Repeat("0", 64)

// Proof is an inclusion proof: siblings[level] pairs with the path node at
// that level, lowest level first, to reconstruct the root.
type Proof struct {
	Leaf      string
	Index     uint64
	Siblings  []string
	Root      string
}

// Export is the serialized form of a Tree, suitable for persistence.
type Export struct {
	Depth  int
	Root   string
	Leaves map[uint64]string
}

// Tree is a fixed-depth append-only sparse Merkle tree. Zero value is not
// usable; construct with New.
type Tree struct {
	mu     sync.RWMutex
	depth  int
	nodes  []map[uint64]string // nodes[level][index at that level]
	empty  []string            // empty[level] = memoized empty-subtree hash
	root   string
}

// New builds an empty tree of the given depth (capacity 2^depth leaves).
func New(depth int) (*Tree, error) {
	if depth <= 0 || depth > 64 {
		return nil, &xerrors.ValidationError{Reason: "merkle: depth out of range"}
	}
	t := &Tree{
		depth: depth,
		nodes: make([]map[uint64]string, depth+1),
		empty: make([]string, depth+1),
	}
	for i := range t.nodes {
		t.nodes[i] = make(map[uint64]string)
	}
	t.empty[0] = EmptyLeaf
	for l := 1; l <= depth; l++ {
		t.empty[l] = crypto.DeterministicHash(crypto.Str(t.empty[l-1]), crypto.Str(t.empty[l-1]))
	}
	t.root = t.empty[depth]
	return t, nil
}

// Depth returns the tree's fixed depth.
func (t *Tree) Depth() int { return t.depth }

// Capacity returns 2^depth, the number of addressable leaf slots.
func (t *Tree) Capacity() uint64 { return uint64(1) << uint(t.depth) }

func (t *Tree) nodeAt(level int, index uint64) string {
	if v, ok := t.nodes[level][index]; ok {
		return v
	}
	return t.empty[level]
}

// Insert sets the leaf at index to value (a 64-hex leaf hash) and
// recomputes the root in O(depth) hashes.
func (t *Tree) Insert(index uint64, value string) error {
	if index >= t.Capacity() {
		return &xerrors.ValidationError{Reason: "merkle: index out of range"}
	}
	if len(value) != 64 {
		return &xerrors.ValidationError{Reason: "merkle: leaf value must be 64 hex chars"}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nodes[0][index] = value
	cur := value
	idx := index
	for level := 0; level < t.depth; level++ {
		sibling := t.nodeAt(level, idx^1)
		var left, right string
		if idx%2 == 0 {
			left, right = cur, sibling
		} else {
			left, right = sibling, cur
		}
		parent := crypto.DeterministicHash(crypto.Str(left), crypto.Str(right))
		idx >>= 1
		t.nodes[level+1][idx] = parent
		cur = parent
	}
	t.root = cur
	return nil
}

// Get returns the stored leaf at index, or the empty leaf if absent.
func (t *Tree) Get(index uint64) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodeAt(0, index)
}

// Root returns the current root hash.
func (t *Tree) Root() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// GenerateProof builds an inclusion proof for index: the sibling at each
// level is the cached empty hash when the corresponding subtree is absent.
func (t *Tree) GenerateProof(index uint64) (*Proof, error) {
	if index >= t.Capacity() {
		return nil, &xerrors.ValidationError{Reason: "merkle: index out of range"}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	siblings := make([]string, t.depth)
	idx := index
	for level := 0; level < t.depth; level++ {
		siblings[level] = t.nodeAt(level, idx^1)
		idx >>= 1
	}
	return &Proof{
		Leaf:     t.nodeAt(0, index),
		Index:    index,
		Siblings: siblings,
		Root:     t.root,
	}, nil
}

// VerifyProof reconstructs the root from proof.Leaf/Index/Siblings and
// compares it to proof.Root in constant time. Sibling ordering is "lower
// index = left": at each level, the node whose bit is 0 sits on the left.
func VerifyProof(proof *Proof) bool {
	if proof == nil || len(proof.Siblings) == 0 {
		return false
	}
	cur := proof.Leaf
	idx := proof.Index
	for _, sibling := range proof.Siblings {
		var left, right string
		if idx%2 == 0 {
			left, right = cur, sibling
		} else {
			left, right = sibling, cur
		}
		cur = crypto.DeterministicHash(crypto.Str(left), crypto.Str(right))
		idx >>= 1
	}
	return crypto.ConstantTimeEqual([]byte(strings.ToLower(cur)), []byte(strings.ToLower(proof.Root)))
}

// Export serializes the tree's depth, root, and sparse leaf population.
func (t *Tree) Export() *Export {
	t.mu.RLock()
	defer t.mu.RUnlock()
	leaves := make(map[uint64]string, len(t.nodes[0]))
	for k, v := range t.nodes[0] {
		leaves[k] = v
	}
	return &Export{Depth: t.depth, Root: t.root, Leaves: leaves}
}

// Import rebuilds a tree from an Export, verifying that replaying every
// leaf insert reproduces the exported root exactly.
func Import(e *Export) (*Tree, error) {
	t, err := New(e.Depth)
	if err != nil {
		return nil, err
	}
	for idx, leaf := range e.Leaves {
		if err := t.Insert(idx, leaf); err != nil {
			return nil, err
		}
	}
	if !crypto.ConstantTimeEqual([]byte(t.Root()), []byte(e.Root)) {
		return nil, &xerrors.CryptographicError{Reason: "merkle: RootMismatch on import"}
	}
	return t, nil
}
