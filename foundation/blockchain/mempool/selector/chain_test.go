package selector

import (
	"math"
	"math/big"
	"sort"
	"testing"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/holiman/uint256"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const sender = database.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")

// run constructs a run of candidates with consecutive nonces, one for each
// density, all using the same gas limit.
func run(gasLimit uint64, densities ...int64) []candidate {
	cands := make([]candidate, len(densities))
	for i, d := range densities {
		cands[i] = candidate{
			msg: database.SignedMessage{
				Message: database.Message{
					From:       sender,
					Nonce:      uint64(i),
					GasLimit:   gasLimit,
					GasFeeCap:  uint256.NewInt(1_000_000),
					GasPremium: uint256.NewInt(uint64(max(d, 0))),
				},
			},
			reward: big.NewInt(d * int64(gasLimit)),
		}
	}
	return cands
}

func nonces(node chainNode) []uint64 {
	out := make([]uint64, len(node.msgs))
	for i, msg := range node.msgs {
		out[i] = msg.Nonce
	}
	return out
}

func TestChainBuilder(t *testing.T) {
	type test struct {
		name      string
		densities []int64
		exp       []float64
	}

	tt := []test{
		{name: "single", densities: []int64{3}, exp: []float64{3}},
		{name: "decreasing", densities: []int64{8, 2}, exp: []float64{8, 2}},
		{name: "subsidized", densities: []int64{2, 8}, exp: []float64{5}},
		{name: "equal", densities: []int64{5, 5, 5}, exp: []float64{5}},
		{name: "pooled tail", densities: []int64{5, 3, 4}, exp: []float64{5, 3.5}},
		{name: "cascade", densities: []int64{4, 2, 1, 9}, exp: []float64{4}},
		{name: "negative", densities: []int64{-1, 2, -3}, exp: []float64{0.5, -3}},
	}

	t.Log("Given the need to split a run of messages into chains.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s run.", testID, tst.name)
			{
				f := func(t *testing.T) {
					cs := newChains()
					idxs := cs.add(sender, run(100, tst.densities...))

					if len(idxs) != len(tst.exp) {
						t.Fatalf("\t%s\tTest %d:\tShould get %d chains, got %d.", failed, testID, len(tst.exp), len(idxs))
					}
					t.Logf("\t%s\tTest %d:\tShould get %d chains.", success, testID, len(tst.exp))

					var next uint64
					for i, idx := range idxs {
						node := cs.nodes[idx]

						if node.gasPerf != tst.exp[i] {
							t.Fatalf("\t%s\tTest %d:\tShould get density %v for chain %d, got %v.", failed, testID, tst.exp[i], i, node.gasPerf)
						}

						for _, nonce := range nonces(node) {
							if nonce != next {
								t.Fatalf("\t%s\tTest %d:\tShould get consecutive nonces, got %d exp %d.", failed, testID, nonce, next)
							}
							next++
						}

						switch {
						case i == 0 && node.prev != none:
							t.Fatalf("\t%s\tTest %d:\tShould not link the first chain to a parent.", failed, testID)
						case i > 0 && node.prev != idxs[i-1]:
							t.Fatalf("\t%s\tTest %d:\tShould link chain %d to its parent.", failed, testID, i)
						case i < len(idxs)-1 && node.next != idxs[i+1]:
							t.Fatalf("\t%s\tTest %d:\tShould link chain %d to its child.", failed, testID, i)
						}

						if i > 0 && cmpDensity(node.gasReward, node.gasLimit, cs.nodes[idxs[i-1]].gasReward, cs.nodes[idxs[i-1]].gasLimit) >= 0 {
							t.Fatalf("\t%s\tTest %d:\tShould get strictly decreasing densities.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould get the right chains.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestTrim(t *testing.T) {
	type test struct {
		name          string
		densities     []int64
		budget        uint64
		allowNegative bool
		exp           []uint64
	}

	tt := []test{
		{name: "fits", densities: []int64{5, 5, 5}, budget: 300, exp: []uint64{0, 1, 2}},
		{name: "tail", densities: []int64{5, 5, 5}, budget: 250, exp: []uint64{0, 1}},
		{name: "empty", densities: []int64{5, 5, 5}, budget: 50, exp: nil},
		{name: "negative tail", densities: []int64{-6, 4, 4}, budget: 250, exp: nil},
		{name: "negative allowed", densities: []int64{-6, 4, 4}, budget: 250, allowNegative: true, exp: []uint64{0, 1}},
	}

	t.Log("Given the need to trim a chain to the remaining gas.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen trimming a %s chain.", testID, tst.name)
			{
				f := func(t *testing.T) {
					cs := newChains()
					idxs := cs.add(sender, run(100, tst.densities...))
					if len(idxs) != 1 {
						t.Fatalf("\t%s\tTest %d:\tShould start from a single chain, got %d.", failed, testID, len(idxs))
					}

					before := cs.nodes[idxs[0]].gasLimit
					cs.trim(idxs[0], tst.budget, tst.allowNegative)
					node := cs.nodes[idxs[0]]

					if node.gasLimit > before || node.gasLimit > tst.budget {
						t.Fatalf("\t%s\tTest %d:\tShould not grow the chain or exceed the budget: %d.", failed, testID, node.gasLimit)
					}
					t.Logf("\t%s\tTest %d:\tShould not grow the chain or exceed the budget.", success, testID)

					got := nonces(node)
					if len(got) != len(tst.exp) {
						t.Fatalf("\t%s\tTest %d:\tShould keep %v, got %v.", failed, testID, tst.exp, got)
					}
					for i := range got {
						if got[i] != tst.exp[i] {
							t.Fatalf("\t%s\tTest %d:\tShould keep %v, got %v.", failed, testID, tst.exp, got)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould keep a prefix of the chain.", success, testID)

					if node.valid != (len(tst.exp) > 0) {
						t.Fatalf("\t%s\tTest %d:\tShould mark an empty chain invalid.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould mark an empty chain invalid.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestTrimInvalidatesChildren(t *testing.T) {
	t.Log("Given the need to drop the chains that depend on trimmed messages.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen trimming the first of three chains.", testID)
		{
			cs := newChains()
			idxs := cs.add(sender, run(100, 9, 9, 5, 1))
			if len(idxs) != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould start from three chains, got %d.", failed, testID, len(idxs))
			}

			cs.trim(idxs[0], 100, false)

			if !cs.nodes[idxs[0]].valid || len(cs.nodes[idxs[0]].msgs) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould keep the head of the trimmed chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the head of the trimmed chain.", success, testID)

			for _, idx := range idxs[1:] {
				if cs.nodes[idx].valid {
					t.Fatalf("\t%s\tTest %d:\tShould invalidate the chains that follow.", failed, testID)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould invalidate the chains that follow.", success, testID)
		}
	}
}

func TestCompare(t *testing.T) {
	t.Log("Given the need to order chains deterministically.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen chains have the same density.", testID)
		{
			other := database.AccountID("0x0000000000000000000000000000000000000abc")

			cs := newChains()
			a := cs.add(sender, run(100, 5))[0]
			b := cs.add(other, run(100, 5))[0]
			c := cs.add(other, run(200, 5))[0]

			order := []int{a, b, c}
			sort.Sort(byDensity{cs: cs, order: order})

			if order[0] != c || order[1] != b || order[2] != a {
				t.Fatalf("\t%s\tTest %d:\tShould get a total order, got %v.", failed, testID, order)
			}
			t.Logf("\t%s\tTest %d:\tShould get a total order.", success, testID)

			if compareDensity(&cs.nodes[c], &cs.nodes[b]) >= 0 {
				t.Fatalf("\t%s\tTest %d:\tShould order the bigger chain first.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould order the bigger chain first.", success, testID)

			if compareDensity(&cs.nodes[b], &cs.nodes[a]) >= 0 {
				t.Fatalf("\t%s\tTest %d:\tShould order by sender when the gas is the same.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould order by sender when the gas is the same.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen ordering by effective density.", testID)
		{
			cs := newChains()
			a := cs.add(sender, run(100, 9))[0]
			b := cs.add(database.AccountID("0x0000000000000000000000000000000000000abc"), run(100, 3))[0]

			cs.setEffectivePerf(a, 0.1)
			cs.setEffectivePerf(b, 1)

			if compareEffective(&cs.nodes[b], &cs.nodes[a]) >= 0 {
				t.Fatalf("\t%s\tTest %d:\tShould order by the scaled density.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould order by the scaled density.", success, testID)

			cs.nodes[a].merged = true
			if compareEffective(&cs.nodes[a], &cs.nodes[b]) >= 0 {
				t.Fatalf("\t%s\tTest %d:\tShould order merged chains first.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould order merged chains first.", success, testID)
		}
	}
}

func TestCarry(t *testing.T) {
	t.Log("Given the need to remove the parent penalty once a parent is merged.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the parent chain is merged.", testID)
		{
			cs := newChains()
			idxs := cs.add(sender, run(100, 8, 2))

			cs.setEffectivePerf(idxs[0], 1)
			cs.setEffectivePerf(idxs[1], 1)

			child := cs.nodes[idxs[1]]
			if child.effPerf != 5 || child.parentOffset != -3 {
				t.Fatalf("\t%s\tTest %d:\tShould blend the child with its parent: %v %v.", failed, testID, child.effPerf, child.parentOffset)
			}
			t.Logf("\t%s\tTest %d:\tShould blend the child with its parent.", success, testID)

			cs.nodes[idxs[0]].merged = true
			cs.carry(idxs[0])

			child = cs.nodes[idxs[1]]
			if child.effPerf != 2 || child.parentOffset != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould restore the child density: %v %v.", failed, testID, child.effPerf, child.parentOffset)
			}
			t.Logf("\t%s\tTest %d:\tShould restore the child density.", success, testID)
		}
	}
}

// =============================================================================

func TestBlockProbabilities(t *testing.T) {
	t.Log("Given the need to model the blocks produced in a round.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen computing the probabilities for a ticket.", testID)
		{
			for _, tq := range []float64{0, 0.25, 0.5, 0.84, 1} {
				probs := BlockProbabilities(tq)

				if len(probs) != MaxBlocks {
					t.Fatalf("\t%s\tTest %d:\tShould get %d places, got %d.", failed, testID, MaxBlocks, len(probs))
				}

				var sum float64
				for i, p := range probs {
					if p < 0 || p > 1 || math.IsNaN(p) {
						t.Fatalf("\t%s\tTest %d:\tShould get a probability for place %d, got %v.", failed, testID, i, p)
					}
					sum += p
				}

				if sum > 1+1e-9 {
					t.Fatalf("\t%s\tTest %d:\tShould not exceed a total of 1, got %v.", failed, testID, sum)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould get a distribution over the places.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the ticket is the best possible.", testID)
		{
			probs := BlockProbabilities(1)

			if probs[0] < 0.99 {
				t.Fatalf("\t%s\tTest %d:\tShould almost surely be first, got %v.", failed, testID, probs[0])
			}
			for i := 1; i < len(probs); i++ {
				if probs[i] != 0 {
					t.Fatalf("\t%s\tTest %d:\tShould never be at place %d, got %v.", failed, testID, i, probs[i])
				}
			}
			t.Logf("\t%s\tTest %d:\tShould almost surely be first.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen comparing tickets.", testID)
		{
			strong, weak := BlockProbabilities(0.9), BlockProbabilities(0.1)
			if strong[0] <= weak[0] {
				t.Fatalf("\t%s\tTest %d:\tShould favor the first place for a strong ticket: %v <= %v.", failed, testID, strong[0], weak[0])
			}
			t.Logf("\t%s\tTest %d:\tShould favor the first place for a strong ticket.", success, testID)
		}
	}
}
