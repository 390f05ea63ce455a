package cmd

import (
	"testing"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/genesis"
	"github.com/ardanlabs/msgpool/foundation/blockchain/mempool/selector"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestSelectPolicy(t *testing.T) {
	gen := genesis.Genesis{
		BlockGasLimit:       10_000,
		MinGasFloor:         100,
		NegativeChainCutoff: 10,
		PriorityAccounts:    []string{"0xb85c52ab3d83ab4fb47b9c284561a0e2517557eb"},
	}

	type table struct {
		name     string
		strategy string
		tq       float64
		height   uint64
		variant  selector.Variant
		negative bool
		fail     bool
	}

	tt := []table{
		{name: "auto with a good ticket", strategy: "auto", tq: 0.9, variant: selector.Greedy, negative: true},
		{name: "auto with a weak ticket", strategy: "auto", tq: 0.5, variant: selector.Probabilistic, negative: true},
		{name: "named strategy past the cutoff", strategy: "Probabilistic", tq: 1, height: 9, variant: selector.Probabilistic},
		{name: "unknown strategy", strategy: "tip", tq: 1, fail: true},
		{name: "ticket out of range", strategy: "auto", tq: 1.5, fail: true},
	}

	t.Log("Given the need to build a policy from the flags and the genesis.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					strategy, ticketQuality = tst.strategy, tst.tq

					policy, err := selectPolicy(gen, database.Tipset{Height: tst.height})
					if tst.fail {
						if err == nil {
							t.Fatalf("\t%s\tTest %d:\tShould reject the flags.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould reject the flags.", success, testID)
						return
					}
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould build a policy: %s", failed, testID, err)
					}

					if policy.Variant != tst.variant || policy.AllowNegativeChains != tst.negative {
						t.Fatalf("\t%s\tTest %d:\tShould get %s/%v, got %s/%v.", failed, testID, tst.variant, tst.negative, policy.Variant, policy.AllowNegativeChains)
					}
					if len(policy.PriorityAccounts) != 1 || policy.PriorityAccounts[0] != "0xb85C52aB3d83AB4fb47b9c284561a0e2517557EB" {
						t.Fatalf("\t%s\tTest %d:\tShould use the checksum priority account.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould build the expected policy.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
