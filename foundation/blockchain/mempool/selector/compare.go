package selector

import "sort"

// compareDensity orders nodes by density, highest first. Ties are broken by
// gas limit, highest first, then by sender and starting nonce so the order
// is total.
func compareDensity(a, b *chainNode) int {
	if c := cmpDensity(a.gasReward, a.gasLimit, b.gasReward, b.gasLimit); c != 0 {
		return -c
	}

	switch {
	case a.gasLimit > b.gasLimit:
		return -1
	case a.gasLimit < b.gasLimit:
		return 1
	}

	switch {
	case a.sender.Less(b.sender):
		return -1
	case b.sender.Less(a.sender):
		return 1
	}

	switch {
	case a.nonce < b.nonce:
		return -1
	case a.nonce > b.nonce:
		return 1
	}

	return 0
}

// compareEffective orders nodes for the probabilistic strategy. Merged nodes
// come first, then nodes with a reward that is not negative. The remaining
// nodes are ordered by effective density and then by density.
func compareEffective(a, b *chainNode) int {
	if a.merged != b.merged {
		if a.merged {
			return -1
		}
		return 1
	}

	aNeg, bNeg := a.gasReward.Sign() < 0, b.gasReward.Sign() < 0
	if aNeg != bNeg {
		if bNeg {
			return -1
		}
		return 1
	}

	switch {
	case a.effPerf > b.effPerf:
		return -1
	case a.effPerf < b.effPerf:
		return 1
	}

	return compareDensity(a, b)
}

// =============================================================================

// byDensity provides sorting support by node density.
type byDensity struct {
	cs    *chains
	order []int
}

// Len returns the number of nodes in the list.
func (bd byDensity) Len() int {
	return len(bd.order)
}

// Less helps to sort the list by density in descending order to pick the
// nodes that pay the most per unit of gas.
func (bd byDensity) Less(i, j int) bool {
	return compareDensity(&bd.cs.nodes[bd.order[i]], &bd.cs.nodes[bd.order[j]]) < 0
}

// Swap moves nodes in the order of the density value.
func (bd byDensity) Swap(i, j int) {
	bd.order[i], bd.order[j] = bd.order[j], bd.order[i]
}

// byEffective provides sorting support by effective node density.
type byEffective struct {
	cs    *chains
	order []int
}

// Len returns the number of nodes in the list.
func (be byEffective) Len() int {
	return len(be.order)
}

// Less helps to sort the list by effective density in descending order.
func (be byEffective) Less(i, j int) bool {
	return compareEffective(&be.cs.nodes[be.order[i]], &be.cs.nodes[be.order[j]]) < 0
}

// Swap moves nodes in the order of the effective density value.
func (be byEffective) Swap(i, j int) {
	be.order[i], be.order[j] = be.order[j], be.order[i]
}

// =============================================================================

// sorter returns the sort order used by the merge pass.
func sorter(cs *chains, order []int, effective bool) sort.Interface {
	if effective {
		return byEffective{cs: cs, order: order}
	}
	return byDensity{cs: cs, order: order}
}
