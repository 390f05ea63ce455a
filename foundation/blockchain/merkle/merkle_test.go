package merkle_test

import (
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/ardanlabs/msgpool/foundation/blockchain/merkle"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Data uses the sha256 hashing algorithm for the merkle tree.
type Data struct {
	x string
}

// Hash hashes the values using sha256.
func (d Data) Hash() ([]byte, error) {
	h := sha256.Sum256([]byte(d.x))
	return h[:], nil
}

// Equals tests for equality of two piece of data.
func (d Data) Equals(other Data) bool {
	return d.x == other.x
}

func hashPair(a, b []byte) []byte {
	h := sha256.New()
	h.Write(a)
	h.Write(b)
	return h.Sum(nil)
}

func leaf(s string) []byte {
	h, _ := Data{x: s}.Hash()
	return h
}

// =============================================================================

func TestTree(t *testing.T) {
	type table struct {
		name string
		data []Data
		root []byte
	}

	tt := []table{
		{
			name: "single",
			data: []Data{{x: "a"}},
			root: hashPair(leaf("a"), leaf("a")),
		},
		{
			name: "even",
			data: []Data{{x: "a"}, {x: "b"}, {x: "c"}, {x: "d"}},
			root: hashPair(hashPair(leaf("a"), leaf("b")), hashPair(leaf("c"), leaf("d"))),
		},
		{
			name: "odd",
			data: []Data{{x: "a"}, {x: "b"}, {x: "c"}},
			root: hashPair(hashPair(leaf("a"), leaf("b")), hashPair(leaf("c"), leaf("c"))),
		},
	}

	t.Log("Given the need to commit to a list of values.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s list.", testID, tst.name)
			{
				f := func(t *testing.T) {
					tree, err := merkle.NewTree(tst.data)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to build the tree: %s", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to build the tree.", success, testID)

					if !bytes.Equal(tree.MerkleRoot, tst.root) {
						t.Fatalf("\t%s\tTest %d:\tShould get the right root: %s", failed, testID, tree.RootHex())
					}
					t.Logf("\t%s\tTest %d:\tShould get the right root.", success, testID)

					for _, d := range tst.data {
						if err := tree.VerifyData(d); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould verify %q: %s", failed, testID, d.x, err)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould verify every value.", success, testID)

					if err := tree.VerifyData(Data{x: "z"}); !errors.Is(err, merkle.ErrNotFound) {
						t.Fatalf("\t%s\tTest %d:\tShould not verify a missing value: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould not verify a missing value.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestHashStrategy(t *testing.T) {
	t.Log("Given the need to change the hash used by the tree.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen using md5.", testID)
		{
			data := []Data{{x: "a"}, {x: "b"}}

			tree, err := merkle.NewTree(data, merkle.WithHashStrategy[Data](md5.New))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to build the tree: %s", failed, testID, err)
			}

			if len(tree.MerkleRoot) != md5.Size {
				t.Fatalf("\t%s\tTest %d:\tShould get an md5 sized root, got %d bytes.", failed, testID, len(tree.MerkleRoot))
			}
			t.Logf("\t%s\tTest %d:\tShould get an md5 sized root.", success, testID)

			if _, err := merkle.NewTree([]Data{}); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not build a tree with no values.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not build a tree with no values.", success, testID)
		}
	}
}
