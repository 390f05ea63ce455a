// Package merkle provides a merkle tree over the messages of a block so a
// block header can commit to the exact list of selected messages.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"hash"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrNotFound is returned when a value is not a leaf of the tree.
var ErrNotFound = errors.New("value not found in tree")

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() ([]byte, error)
	Equals(other T) bool
}

// Tree represents a merkle tree that uses data of some type T. The levels
// are stored bottom up, the first level holds the leaf hashes and the last
// level holds the root.
type Tree[T Hashable[T]] struct {
	values       []T
	levels       [][][]byte
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

// NewTree constructs a new merkle tree from the specified values.
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

// Generate constructs the levels of the tree from the specified values. An
// odd level is padded by duplicating its last hash.
func (t *Tree[T]) Generate(values []T) error {
	if len(values) == 0 {
		return errors.New("cannot construct tree with no content")
	}

	leafs := make([][]byte, 0, len(values)+1)
	for _, value := range values {
		h, err := value.Hash()
		if err != nil {
			return err
		}
		leafs = append(leafs, h)
	}

	levels := [][][]byte{leafs}
	for level := leafs; len(level) > 1 || len(levels) == 1; {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
			levels[len(levels)-1] = level
		}

		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, t.join(level[i], level[i+1]))
		}

		levels = append(levels, next)
		level = next
	}

	t.values = values
	t.levels = levels
	t.MerkleRoot = levels[len(levels)-1][0]

	return nil
}

// Proof returns the sibling hashes needed to rebuild the root from the
// value's hash. The order holds 0 when the sibling is on the left and 1 when
// it is on the right.
func (t *Tree[T]) Proof(value T) ([][]byte, []int64, error) {
	idx := -1
	for i, v := range t.values {
		if v.Equals(value) {
			idx = i
			break
		}
	}

	if idx == -1 {
		return nil, nil, ErrNotFound
	}

	var proof [][]byte
	var order []int64
	for _, level := range t.levels[:len(t.levels)-1] {
		switch idx % 2 {
		case 0:
			proof = append(proof, level[idx+1])
			order = append(order, 1)
		default:
			proof = append(proof, level[idx-1])
			order = append(order, 0)
		}
		idx /= 2
	}

	return proof, order, nil
}

// VerifyData checks the value is part of the tree by rebuilding the root
// from its proof.
func (t *Tree[T]) VerifyData(value T) error {
	proof, order, err := t.Proof(value)
	if err != nil {
		return err
	}

	h, err := value.Hash()
	if err != nil {
		return err
	}

	for i, sibling := range proof {
		switch order[i] {
		case 0:
			h = t.join(sibling, h)
		default:
			h = t.join(h, sibling)
		}
	}

	if !bytes.Equal(h, t.MerkleRoot) {
		return errors.New("merkle root is not equivalent to the value's proof")
	}

	return nil
}

// Values returns the values the tree was built from.
func (t *Tree[T]) Values() []T {
	return append([]T(nil), t.values...)
}

// RootHex converts the merkle root byte hash to a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return hexutil.Encode(t.MerkleRoot)
}

func (t *Tree[T]) join(left, right []byte) []byte {
	h := t.hashStrategy()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}
