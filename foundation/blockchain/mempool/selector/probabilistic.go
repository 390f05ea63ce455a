package selector

import "sort"

// probabilisticSelect accounts for the other blocks produced in the same
// round. The nodes are spread over the blocks of the round in density order
// and the density of every node is scaled by the probability of its block
// being included before the merge pass runs.
func probabilisticSelect(sel *selection, cs *chains) {
	order := cs.order()
	if len(order) == 0 {
		return
	}

	sort.Sort(byDensity{cs: cs, order: order})

	if !sel.policy.AllowNegativeChains && cs.nodes[order[0]].gasReward.Sign() < 0 {
		return
	}

	probs := sel.policy.Probabilities(sel.policy.TicketQuality)

	// The full block gas limit is used for every block since the other
	// producers are not bound by the gas taken by the priority lane.
	partitions := cs.partition(order, len(probs), sel.policy.BlockGasLimit, sel.policy.MinGasFloor)

	var placed int
	for i, partition := range partitions {
		for _, idx := range partition {
			cs.setEffectivePerf(idx, probs[i])
		}
		placed += len(partition)
	}

	for _, idx := range order[placed:] {
		cs.setNullEffectivePerf(idx)
	}

	sort.Sort(byEffective{cs: cs, order: order})

	sel.mergeAndTrim(cs, order, sel.policy.AllowNegativeChains, true)
}

// partition fills the specified number of blocks with the ordered nodes,
// without trimming. The nodes that don't fit any block are left out.
func (cs *chains) partition(order []int, blocks int, blockGasLimit uint64, minGas uint64) [][]int {
	partitions := make([][]int, blocks)

	next := 0
	for i := 0; i < blocks && next < len(order); i++ {
		gasLimit := blockGasLimit
		for next < len(order) {
			node := &cs.nodes[order[next]]
			if node.gasLimit > gasLimit {
				break
			}

			partitions[i] = append(partitions[i], order[next])
			gasLimit -= node.gasLimit
			next++

			if gasLimit < minGas {
				break
			}
		}
	}

	return partitions
}
