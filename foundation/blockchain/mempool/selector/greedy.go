package selector

import "sort"

// greedySelect fills the block with the densest nodes first.
func greedySelect(sel *selection, cs *chains) {
	order := cs.order()
	sort.Sort(byDensity{cs: cs, order: order})

	sel.mergeAndTrim(cs, order, sel.policy.AllowNegativeChains, false)
}

// mergeAndTrim walks the nodes in the specified order and merges every node
// that fits in the remaining gas together with the unmerged nodes it depends
// on. A node that doesn't fit is trimmed and moved down to its new position
// in the order. When effective is set, the order is kept sorted by effective
// density as nodes are merged.
func (sel *selection) mergeAndTrim(cs *chains, order []int, allowNegative bool, effective bool) {
	i := 0
	for i < len(order) && sel.gasLimit >= sel.policy.MinGasFloor {
		idx := order[i]
		node := &cs.nodes[idx]

		if !node.valid || node.merged {
			i++
			continue
		}

		// The order puts negative nodes last, so there is nothing left
		// worth merging.
		if !allowNegative && node.gasReward.Sign() < 0 {
			break
		}

		deps, ok := cs.dependencies(idx)
		if !ok {
			cs.invalidate(idx)
			i++
			continue
		}

		var depGas uint64
		for _, dep := range deps {
			depGas += cs.nodes[dep].gasLimit
		}

		if depGas > sel.gasLimit {
			cs.invalidate(idx)
			i++
			continue
		}

		if depGas+node.gasLimit <= sel.gasLimit {
			for _, dep := range deps {
				sel.include(cs, dep, effective)
			}
			sel.include(cs, idx, effective)

			if effective {
				sort.Stable(byEffective{cs: cs, order: order[i+1:]})
			}

			i++
			continue
		}

		cs.trim(idx, sel.gasLimit-depGas, allowNegative)
		if !node.valid {
			i++
			continue
		}

		// The trimmed node is tried again at its new position.
		pushDown(sorter(cs, order, effective), i)
	}
}

// pushDown moves the element at position i down the list until the list is
// sorted again.
func pushDown(s sort.Interface, i int) {
	for j := i; j < s.Len()-1; j++ {
		if s.Less(j, j+1) {
			break
		}
		s.Swap(j, j+1)
	}
}

// order returns the index of every valid node in the arena.
func (cs *chains) order() []int {
	order := make([]int, 0, len(cs.nodes))
	for i := range cs.nodes {
		if cs.nodes[i].valid {
			order = append(order, i)
		}
	}
	return order
}
