// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle provides an implementation of a merkle tree for validation
// support for the blockchain. When a level of the tree has an odd number of
// nodes, the last node is paired with itself. The rule applies at every
// level and any proof verifier must use the same rule.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrNotFound is returned when a proof is requested for a hash that is not
// one of the leafs of the tree.
var ErrNotFound = errors.New("unable to find data in tree")

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() ([]byte, error)
	Equals(other T) bool
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Root         *Node[T]
	Leafs        []*Node[T]
	MerkleRoot   []byte
	hashStrategy func() hash.Hash
}

// WithHashStrategy is used to change the default hash strategy of using sha256
// when constructing a new tree.
func WithHashStrategy[T Hashable[T]](hashStrategy func() hash.Hash) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	t := Tree[T]{
		hashStrategy: sha256.New,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// BuildRoot is a convenience function that constructs a tree and returns
// only the root hash.
func BuildRoot[T Hashable[T]](values []T, options ...func(t *Tree[T])) ([]byte, error) {
	t, err := NewTree(values, options...)
	if err != nil {
		return nil, err
	}

	return t.MerkleRoot, nil
}

// Generate constructs the leafs and nodes of the tree from the specified
// data. If the tree has been generated previously, the tree is re-generated
// from scratch.
func (t *Tree[T]) Generate(values []T) error {
	if len(values) == 0 {
		return errors.New("cannot construct tree with no content")
	}

	leafs := make([]*Node[T], 0, len(values))
	for _, value := range values {
		hash, err := value.Hash()
		if err != nil {
			return err
		}

		leafs = append(leafs, &Node[T]{
			Hash:  hash,
			Value: value,
			leaf:  true,
			Tree:  t,
		})
	}

	root, err := t.buildIntermediate(leafs)
	if err != nil {
		return err
	}

	t.Root = root
	t.Leafs = leafs
	t.MerkleRoot = root.Hash

	return nil
}

// Rebuild is a helper function that will rebuild the tree reusing only the
// data that it currently holds in the leaves.
func (t *Tree[T]) Rebuild() error {
	return t.Generate(t.Values())
}

// Proof returns the authentication path for the specified data. See
// ProofByHash for the details of the path.
func (t *Tree[T]) Proof(data T) ([]PathNode, error) {
	hash, err := data.Hash()
	if err != nil {
		return nil, err
	}

	return t.ProofByHash(hash)
}

// ProofByHash returns the set of sibling hashes from the leaf to the root
// along with the side each sibling sits on. Folding the leaf hash with the
// path using Fold produces the merkle root.
//
// For the leafs [a, b, c] and a proof for c, the path is
//
//	[{h(c), RIGHT}, {h(h(a)+h(b)), LEFT}]
//
// because c is paired with itself on the first level.
func (t *Tree[T]) ProofByHash(leafHash []byte) ([]PathNode, error) {
	for _, node := range t.Leafs {
		if !bytes.Equal(node.Hash, leafHash) {
			continue
		}

		var path []PathNode
		for node.Parent != nil {
			parent := node.Parent

			// When a node is paired with itself, the left and right pointers
			// are the same and the sibling sits to the right.
			switch {
			case parent.Left == node:
				path = append(path, PathNode{Hash: hexutil.Encode(parent.Right.Hash), Orientation: Right})
			default:
				path = append(path, PathNode{Hash: hexutil.Encode(parent.Left.Hash), Orientation: Left})
			}

			node = parent
		}

		return path, nil
	}

	return nil, ErrNotFound
}

// Verify validates the hashes at each level of the tree and returns an
// error if the resulting hash at the root of the tree doesn't match the
// stored root hash.
func (t *Tree[T]) Verify() error {
	calculatedMerkleRoot, err := t.Root.verify()
	if err != nil {
		return err
	}

	if !bytes.Equal(t.MerkleRoot, calculatedMerkleRoot) {
		return errors.New("root hash invalid")
	}

	return nil
}

// VerifyData indicates whether a given piece of data is in the tree and if
// folding its path produces the root of the tree.
func (t *Tree[T]) VerifyData(data T) error {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		path, err := t.ProofByHash(node.Hash)
		if err != nil {
			return err
		}

		root, err := Fold(node.Hash, path, t.hashStrategy)
		if err != nil {
			return err
		}

		if !bytes.Equal(root, t.MerkleRoot) {
			return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
		}

		return nil
	}

	return ErrNotFound
}

// Values returns a slice of the values stored in the tree in leaf order.
func (t *Tree[T]) Values() []T {
	values := make([]T, len(t.Leafs))
	for i, node := range t.Leafs {
		values[i] = node.Value
	}

	return values
}

// RootHex converts the merkle root byte hash to a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return hexutil.Encode(t.MerkleRoot)
}

// String returns a string representation of the tree. Only leaf nodes are
// included in the output.
func (t *Tree[T]) String() string {
	s := ""

	for _, l := range t.Leafs {
		s += fmt.Sprint(l)
		s += "\n"
	}

	return s
}

// MarshalText implements the TextMarshaler interface and produces a panic
// if anyone tries to marshal the Merkle tree. I don't want this to happen.
// Use the Values function to return a slice that can be marshaled.
func (t *Tree[T]) MarshalText() (text []byte, err error) {
	panic("do not marshal the merkle tree, use Values")
}

// buildIntermediate constructs the intermediate and root levels of the
// tree for the given level of nodes. Returns the resulting root node.
func (t *Tree[T]) buildIntermediate(nl []*Node[T]) (*Node[T], error) {
	for {
		if len(nl) == 1 {
			return nl[0], nil
		}

		nodes := make([]*Node[T], 0, (len(nl)+1)/2)

		for i := 0; i < len(nl); i += 2 {
			left, right := nl[i], nl[i]
			if i+1 < len(nl) {
				right = nl[i+1]
			}

			h := t.hashStrategy()
			if _, err := h.Write(left.Hash); err != nil {
				return nil, err
			}
			if _, err := h.Write(right.Hash); err != nil {
				return nil, err
			}

			n := Node[T]{
				Left:  left,
				Right: right,
				Hash:  h.Sum(nil),
				Tree:  t,
				dup:   left == right,
			}

			left.Parent = &n
			right.Parent = &n
			nodes = append(nodes, &n)
		}

		nl = nodes
	}
}

// =============================================================================

// Node represents a node, root, or leaf in the tree. It stores pointers to its
// immediate relationships, a hash, the data if it is a leaf, and other metadata.
type Node[T Hashable[T]] struct {
	Tree   *Tree[T]
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   []byte
	Value  T
	leaf   bool
	dup    bool
}

// verify walks down the tree until hitting a leaf, calculating the hash at
// each level and returning the resulting hash of the node.
func (n *Node[T]) verify() ([]byte, error) {
	if n.leaf {
		return n.Value.Hash()
	}

	leftBytes, err := n.Left.verify()
	if err != nil {
		return nil, err
	}

	rightBytes, err := n.Right.verify()
	if err != nil {
		return nil, err
	}

	h := n.Tree.hashStrategy()
	if _, err := h.Write(leftBytes); err != nil {
		return nil, err
	}
	if _, err := h.Write(rightBytes); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// String returns a string representation of the node.
func (n *Node[T]) String() string {
	return fmt.Sprintf("%t %t %v %v", n.leaf, n.dup, hexutil.Encode(n.Hash), n.Value)
}
